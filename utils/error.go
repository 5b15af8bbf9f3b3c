package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ValidationError rejects a request before any write happens.
// Not retryable.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}

// ConflictError reports an identifier collision that could not be
// auto-resolved (e.g. ambiguous numbering prefix). Not retryable.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func NewConflictError(message string) error {
	return &ConflictError{Message: message}
}

// InvariantViolation reports stored state that contradicts the global
// uniqueness/eligibility invariants (e.g. a fabric number present in both
// the main-yard and processing namespaces). The operation is aborted and
// the state is left for manual repair; it is never silently fixed.
type InvariantViolation struct {
	Message string
}

func (e *InvariantViolation) Error() string { return e.Message }

func NewInvariantViolation(message string) error {
	return &InvariantViolation{Message: message}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsConflictError(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

func IsInvariantViolation(err error) bool {
	var iv *InvariantViolation
	return errors.As(err, &iv)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrorRecordNotFound)
}

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
