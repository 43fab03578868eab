package services

import (
	"errors"
	"fmt"
)

// Kind classifies a service error for the API boundary
type Kind int

// Error kinds
const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
)

// Error is a service-level error carrying its classification. Handlers map
// kinds to HTTP statuses; everything unclassified is internal.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Invalidf creates a validation error
func Invalidf(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf creates a not-found error
func NotFoundf(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflictf creates a conflict error
func Conflictf(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of a service error, KindInternal otherwise
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

// IsNotFound reports whether err is a not-found service error
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsConflict reports whether err is a conflict service error
func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}

// IsValidation reports whether err is a validation service error
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}
