// Package errs defines the error kinds shared by all services. Every error a
// service returns to its handlers wraps exactly one of these kinds, so the
// HTTP layer can map it with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced entity is absent.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a uniqueness rule was violated
	// (duplicate like, follow or registration).
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidOperation indicates a malformed or forbidden request,
	// such as following yourself.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrDependencyUnavailable indicates a peer lookup failed or timed out.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// kindError carries a human readable message while matching its kind.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// New returns an error with the given message that matches kind under errors.Is.
func New(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Newf is like New with a formatted message.
func Newf(kind error, format string, args ...any) error {
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap annotates cause with kind. Both kind and cause match under errors.Is.
func Wrap(kind error, cause error, msg string) error {
	if cause == nil {
		return New(kind, msg)
	}
	return fmt.Errorf("%s: %w", msg, errors.Join(kind, cause))
}

// Kind returns the kind err matches, or nil if it matches none.
func Kind(err error) error {
	for _, k := range []error{ErrNotFound, ErrAlreadyExists, ErrInvalidOperation, ErrDependencyUnavailable} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
