// Package apperror defines the error kinds shared by every domain package.
// Domain sentinels are built with New so that callers can branch on the kind
// with errors.Is without knowing which package produced the error.
package apperror

import "errors"

var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("concurrent modification")
	ErrAlreadyResolved     = errors.New("already resolved")
	ErrAlreadyFinalized    = errors.New("already finalized")
	ErrIntegrityViolation  = errors.New("integrity violation")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
)

var kinds = []error{
	ErrValidation,
	ErrNotFound,
	ErrConflict,
	ErrAlreadyResolved,
	ErrAlreadyFinalized,
	ErrIntegrityViolation,
	ErrUpstreamUnavailable,
	ErrUnauthorized,
	ErrForbidden,
}

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// New returns a sentinel error with message msg that matches kind.
func New(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Kind reports which error kind err belongs to, or nil if none.
func Kind(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
