package llm

import (
	"errors"
	"fmt"
)

var (
	ErrMissingAPIKey    = errors.New("OPENAI_API_KEY is required")
	ErrNoChoices        = errors.New("no response choices from model")
	ErrInvalidResponse  = errors.New("model response does not match the document schema")
	ErrUnsupportedInput = errors.New("unsupported input for model extraction")
)

// CompletionError reports a failed extraction after all attempts.
type CompletionError struct {
	Op       string
	Err      error
	Details  string
	Attempts int
}

func (e *CompletionError) Error() string {
	msg := fmt.Sprintf("llm: %s failed", e.Op)
	if e.Attempts > 0 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}
