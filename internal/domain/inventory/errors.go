// Package inventory declares the failure taxonomy shared by the product and
// supplier stores and the HTTP boundary that reports their outcomes.
package inventory

import "github.com/go-faster/errors"

// Failure kinds. Store methods return an *Error whose Kind is one of these, so
// callers classify with errors.Is(err, inventory.ErrNotFound) and friends.
var (
	// ErrNotFound is returned when the requested identity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrMissingIdentifier is returned when a row-targeted mutation is
	// requested without an identity.
	ErrMissingIdentifier = errors.New("identifier is required")
	// ErrConstraintViolation is returned when a write violates a referential
	// or structural constraint of the schema.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrWriteFailure covers every other storage failure on insert, update or
	// delete.
	ErrWriteFailure = errors.New("write failure")
	// ErrQueryFailure covers every storage failure on a read.
	ErrQueryFailure = errors.New("query failure")
	// ErrMethodNotAllowed is returned by the boundary for unsupported verbs.
	ErrMethodNotAllowed = errors.New("method not allowed")
)

var kinds = []error{
	ErrNotFound,
	ErrMissingIdentifier,
	ErrConstraintViolation,
	ErrWriteFailure,
	ErrQueryFailure,
	ErrMethodNotAllowed,
}

// Error is a classified store failure. Err is the underlying driver error and
// may be nil when the failure was detected without touching the database.
type Error struct {
	Op   string
	Kind error
	Err  error
}

// Fail returns an *Error for op of the given kind wrapping err.
func Fail(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
}

// Unwrap exposes the driver error, e.g. pgx.ErrNoRows or *pgconn.PgError.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the failure kind of e.
func (e *Error) Is(target error) bool { return target == e.Kind }

// KindOf returns the failure kind carried by err, or nil if err is not a
// classified inventory failure.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
