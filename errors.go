package entitykit

import (
	"errors"
	"fmt"
)

// Sentinel errors for entitykit operations.
var (
	// ErrConfiguration is returned when an engine is constructed with an
	// inconsistent combination of entity, context kind, or options. It is
	// always raised at construction time, never during an operation.
	ErrConfiguration = errors.New("entitykit: configuration error")

	// ErrInvalidQuery is returned when a sort or filter field is not in the
	// engine's allow-list. The offending clause is never silently dropped.
	ErrInvalidQuery = errors.New("entitykit: invalid query")

	// ErrEntityNotFound is returned when a primary-key lookup finds no row
	// on GetIfExist, Update, or Delete.
	ErrEntityNotFound = errors.New("entitykit: entity not found")

	// ErrDuplicateEntity is returned by CreateIfNotExist when a conflicting
	// row exists and the caller asked for conflicts to be raised.
	ErrDuplicateEntity = errors.New("entitykit: entity already exists")

	// ErrDatabaseError is returned when a store operation fails for reasons
	// other than the conditions above.
	ErrDatabaseError = errors.New("entitykit: database error")
)

// Error wraps a sentinel error with additional context.
type Error struct {
	Err     error  // Underlying sentinel error
	Message string // Additional context
	Entity  string // Table name involved
	Field   string // Column involved (if applicable)
	ID      any    // Primary key involved (if applicable)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a target error.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new Error with context.
func NewError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}

// WithEntity adds the table name to the error.
func (e *Error) WithEntity(entity string) *Error {
	e.Entity = entity
	return e
}

// WithField adds the offending column to the error.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithID adds the primary key to the error.
func (e *Error) WithID(id any) *Error {
	e.ID = id
	return e
}

// IsConfiguration checks if an error is a construction-time configuration error.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsInvalidQuery checks if an error is due to a disallowed sort or filter field.
func IsInvalidQuery(err error) bool {
	return errors.Is(err, ErrInvalidQuery)
}

// IsNotFound checks if an error is due to a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntityNotFound)
}

// IsDuplicate checks if an error is due to a conflicting entity.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateEntity)
}
