package analysis

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyUpload          = errors.New("upload is empty")
	ErrUnsupportedMediaType = errors.New("unsupported media type: expected PDF, PNG or JPEG")
	ErrMediaTypeMismatch    = errors.New("declared media type does not match content")
	ErrProviderUnavailable  = errors.New("provider temporarily unavailable")
	ErrProviderFailed       = errors.New("provider failed")
)

// AnalysisError wraps a failed analysis step.
type AnalysisError struct {
	Op      string
	Err     error
	Details string
}

func (e *AnalysisError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("analysis: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("analysis: %s failed: %v", e.Op, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}
