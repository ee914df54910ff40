// internal/wizard/errors.go
package wizard

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAtFinalStep      = errors.New("wizard is already on its final step")
	ErrNotFinalStep     = errors.New("wizard can only be submitted from its final step")
	ErrDraftSubmitted   = errors.New("draft has already been submitted")
	ErrNoDraftPersisted = errors.New("no draft has been persisted yet")
	ErrRecordNotFound   = errors.New("record not found")
	ErrUnknownField     = errors.New("unknown field")
	ErrUnknownOption    = errors.New("unknown option")
	ErrUnknownFlavor    = errors.New("unknown wizard flavor")
)

// ValidationError names the required fields missing on a step.
type ValidationError struct {
	Step    int
	StepKey string
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("step %d (%s) is missing required fields: %s",
		e.Step, e.StepKey, strings.Join(e.Missing, ", "))
}

// FieldError reports a value that violates the field schema.
type FieldError struct {
	Field  Field
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %s", e.Field, e.Reason)
}

// PersistenceError is returned by the draft adapter when the record store
// rejects a create or update. Whether it blocks navigation is a policy of
// the adapter.
type PersistenceError struct {
	Op      string
	DraftID string
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.DraftID == "" {
		return fmt.Sprintf("failed to %s draft: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("failed to %s draft %s: %v", e.Op, e.DraftID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// SubmissionError wraps every failure of the finalizer.
type SubmissionError struct {
	DraftID string
	Err     error
}

func (e *SubmissionError) Error() string {
	if e.DraftID == "" {
		return fmt.Sprintf("submission failed: %v", e.Err)
	}
	return fmt.Sprintf("submission of draft %s failed: %v", e.DraftID, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// StoreError is the error shape every RecordStore implementation returns.
type StoreError struct {
	Op    string
	Table string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s on %s: %v", e.Op, e.Table, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
