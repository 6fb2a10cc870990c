package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrConflict is matched by every error that rejects a write because of
	// the current state: room double-bookings and invalid status transitions.
	ErrConflict = errors.New("application: conflict")
	// ErrTransactionFailed is matched by *TransactionError.
	ErrTransactionFailed = errors.New("application: transaction failed")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+v.FieldErrors[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error. The first message per field wins.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, exists := v.FieldErrors[field]; exists {
		return
	}
	v.FieldErrors[field] = message
}

func newValidationError(field, message string) *ValidationError {
	vErr := &ValidationError{}
	vErr.add(field, message)
	return vErr
}

// ConflictError lists the sessions a candidate window would double-book.
type ConflictError struct {
	RoomID    string
	Conflicts []SessionConflict
}

func (e *ConflictError) Error() string {
	ids := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		ids = append(ids, c.SessionID)
	}
	return fmt.Sprintf("room %s is already booked by session(s) %s", e.RoomID, strings.Join(ids, ", "))
}

// Is makes errors.Is(err, ErrConflict) hold.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// InvalidTransitionError rejects a response that would move an invitation out
// of a terminal status.
type InvalidTransitionError struct {
	SessionID string
	Current   persistence.InviteStatus
	Requested persistence.InviteStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invitation for session %s is %s and cannot become %s", e.SessionID, e.Current, e.Requested)
}

// Is makes errors.Is(err, ErrConflict) hold.
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrConflict
}

// TransactionError reports a storage failure that rolled back the whole
// operation. Callers may retry.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s: transaction failed: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrTransactionFailed) hold.
func (e *TransactionError) Is(target error) bool {
	return target == ErrTransactionFailed
}

// Retryable reports that the operation left no partial state behind.
func (e *TransactionError) Retryable() bool { return true }

// classifyStoreError turns whatever escaped a transaction or a read into one
// of the application error kinds. Domain errors pass through untouched and
// every other storage failure becomes a *TransactionError.
func classifyStoreError(op string, err error) error {
	if err == nil {
		return nil
	}

	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrTransactionFailed):
		return err
	case errors.Is(err, persistence.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, persistence.ErrDuplicate):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, persistence.ErrConstraintViolation):
		return newValidationError("record", "violates a storage constraint")
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return newValidationError("record", "references a missing record")
	}
	return &TransactionError{Op: op, Err: err}
}
