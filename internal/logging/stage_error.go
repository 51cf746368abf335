package logging

import "fmt"

// StageError annotates an error with the pipeline stage and document
// run it belongs to, so server and batch logs can attribute defects.
type StageError struct {
	Stage     string
	RequestID string
	Err       error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	if e.RequestID != "" {
		return fmt.Sprintf("%s (request_id=%s): %v", e.Stage, e.RequestID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewStageError wraps err with stage context. A nil err stays nil.
func NewStageError(stage, requestID string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, RequestID: requestID, Err: err}
}
