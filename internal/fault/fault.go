// Package fault carries the expected failure classes of the verification
// pipeline as a tagged error type, so the orchestrator can map them to
// terminal statuses without string matching.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies an expected pipeline failure.
type Kind int

const (
	// Reject marks input-quality failures: undecodable images, blur below
	// threshold, duplicate uploads. The caller must resubmit.
	Reject Kind = iota
	// ModelCall marks extraction service failures after retries and fallback.
	ModelCall
	// Schema marks model output that could not be parsed or validated.
	Schema
)

func (k Kind) String() string {
	switch k {
	case Reject:
		return "reject"
	case ModelCall:
		return "model_call"
	case Schema:
		return "schema"
	}
	return "unknown"
}

// Failure is an expected, classified pipeline failure.
type Failure struct {
	Kind    Kind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Message, f.Err)
	}
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// New builds a Failure with a formatted message.
func New(kind Kind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a Failure around an underlying error.
func Wrap(kind Kind, err error, message string) *Failure {
	return &Failure{Kind: kind, Message: message, Err: err}
}

// KindOf reports the failure kind of err, if it carries one.
func KindOf(err error) (Kind, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return 0, false
}
