package documentai

import (
	"errors"
	"fmt"
)

// Common Document AI processing errors
var (
	ErrInvalidDocument      = errors.New("invalid or corrupted document")
	ErrUnsupportedFormat    = errors.New("unsupported document format")
	ErrDocumentTooLarge     = errors.New("document exceeds maximum size limit")
	ErrProcessingFailed     = errors.New("document AI processing failed")
	ErrInvalidCredentials   = errors.New("invalid Google Cloud credentials")
	ErrMissingCredentials   = errors.New("missing Google Cloud credentials")
	ErrInvalidConfiguration = errors.New("invalid Document AI configuration")
	ErrProcessorNotFound    = errors.New("Document AI processor not found")
	ErrQuotaExceeded        = errors.New("Document AI API quota exceeded")
	ErrContextCanceled      = errors.New("document processing was canceled")
)

// ProcessingError wraps errors with the operation and processor involved.
type ProcessingError struct {
	Op          string
	Err         error
	Details     string
	ProcessorID string
}

func (e *ProcessingError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("documentai: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	if e.ProcessorID != "" {
		return fmt.Sprintf("documentai: %s failed (processor: %s): %v", e.Op, e.ProcessorID, e.Err)
	}
	return fmt.Sprintf("documentai: %s failed: %v", e.Op, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// WrapProcessingError wraps err as a ProcessingError unless it already is one.
func WrapProcessingError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var procErr *ProcessingError
	if errors.As(err, &procErr) {
		return err
	}

	return &ProcessingError{Op: op, Err: err, Details: details}
}
