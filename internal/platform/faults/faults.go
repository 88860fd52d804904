package faults

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for status mapping at the API boundary.
type Kind string

const (
	KindDuplicateKey Kind = "duplicate_key"
	KindNotFound     Kind = "not_found"
	KindInvalid      Kind = "invalid_argument"
	KindConflict     Kind = "conflict"
	KindUnavailable  Kind = "unavailable"
)

type Error struct {
	Kind Kind
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	if e.Code != "" {
		return e.Code
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorKind lets callers classify without importing this package's Kind type.
func (e *Error) ErrorKind() string { return string(e.Kind) }

func New(kind Kind, code string, err error) *Error {
	return &Error{Kind: kind, Code: code, Err: err}
}

func Duplicate(code string, err error) *Error { return New(KindDuplicateKey, code, err) }

func NotFound(code string, err error) *Error { return New(KindNotFound, code, err) }

func Invalid(code string, err error) *Error { return New(KindInvalid, code, err) }

func Conflict(code string, err error) *Error { return New(KindConflict, code, err) }

func Unavailable(code string, err error) *Error { return New(KindUnavailable, code, err) }

func kindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

func IsDuplicate(err error) bool { return kindOf(err) == KindDuplicateKey }

func IsNotFound(err error) bool { return kindOf(err) == KindNotFound }

func IsInvalid(err error) bool { return kindOf(err) == KindInvalid }

func IsConflict(err error) bool { return kindOf(err) == KindConflict }
