// Package apperrors holds the error kinds handlers turn into user notices.
package apperrors

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindNotFound   Kind = "not_found"
	KindUpstream   Kind = "upstream"
	KindAuth       Kind = "auth"
	KindForbidden  Kind = "forbidden"
	KindInternal   Kind = "internal"
)

type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

func Wrap(err error, kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *AppError { return New(KindValidation, message) }
func Conflict(message string) *AppError   { return New(KindConflict, message) }
func NotFound(message string) *AppError   { return New(KindNotFound, message) }
func Auth(message string) *AppError       { return New(KindAuth, message) }
func Forbidden(message string) *AppError  { return New(KindForbidden, message) }

func Upstream(err error, message string) *AppError {
	return Wrap(err, KindUpstream, message)
}

func Internal(err error, message string) *AppError {
	return Wrap(err, KindInternal, message)
}

// KindOf reports the kind of the first AppError in err's chain, or
// KindInternal for anything else.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// MessageOf returns the user-facing message carried by err.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Something went wrong. Please try again."
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
