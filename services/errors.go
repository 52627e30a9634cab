package services

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindInsufficientBalance
	KindUpstreamUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInsufficientBalance:
		return "insufficient_balance"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	default:
		return "internal"
	}
}

// AppError carries a user-facing message plus the kind the HTTP layer maps
// to a status code. Err is the cause and is only logged.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func NewValidation(msg string) *AppError   { return &AppError{Kind: KindValidation, Message: msg} }
func NewUnauthorized(msg string) *AppError { return &AppError{Kind: KindUnauthorized, Message: msg} }
func NewForbidden(msg string) *AppError    { return &AppError{Kind: KindForbidden, Message: msg} }
func NewNotFound(msg string) *AppError     { return &AppError{Kind: KindNotFound, Message: msg} }
func NewConflict(msg string) *AppError     { return &AppError{Kind: KindConflict, Message: msg} }

func NewInsufficientBalance(need, have int) *AppError {
	return &AppError{
		Kind:    KindInsufficientBalance,
		Message: fmt.Sprintf("Not enough points. You need %d points but have %d.", need, have),
	}
}

func NewUpstream(msg string, err error) *AppError {
	return &AppError{Kind: KindUpstreamUnavailable, Message: msg, Err: err}
}

func NewInternal(err error) *AppError {
	return &AppError{Kind: KindInternal, Message: "Server error", Err: err}
}

// KindOf reports the kind of err; unknown errors are internal.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind is a test and controller helper.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
