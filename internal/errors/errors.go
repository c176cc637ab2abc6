// Package errors defines the domain errors returned by the statistics
// services. Every error carries a stable Code so callers (and the HTTP
// layer) can match on it with errors.Is regardless of the wrapped cause.
package errors

import (
	stderrors "errors"
	"fmt"
)

type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Wrap returns a copy of sentinel carrying cause.
func Wrap(sentinel *DomainError, cause error) *DomainError {
	return &DomainError{
		Code:    sentinel.Code,
		Message: sentinel.Message,
		Err:     cause,
	}
}

// Newf returns a copy of sentinel with a more specific message.
func Newf(sentinel *DomainError, format string, args ...interface{}) *DomainError {
	return &DomainError{
		Code:    sentinel.Code,
		Message: fmt.Sprintf(format, args...),
	}
}

// CodeOf returns the code of the first DomainError in err's chain, or "".
func CodeOf(err error) string {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Code
	}
	return ""
}
