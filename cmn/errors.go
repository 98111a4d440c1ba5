// Package cmn provides common types and utilities shared across the storage,
// compilation, and execution layers: the error taxonomy, global configuration,
// identifier generation, and small atomic-file helpers.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an Error into one of the taxonomy buckets from the error
// handling design: validation, notfound, exists, conflict are surfaced
// verbatim; capacity/timeout carry resource context; integrity failures
// during recovery are fatal; internal errors are always logged with
// context and surfaced opaquely outward.
type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindAlreadyExists
	KindConflict
	KindIntegrity
	KindCapacity
	KindSecurity
	KindTimeout
	KindUnavailable
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "Validation"
	case KindNotFound:
		return "NotFound"
	case KindAlreadyExists:
		return "AlreadyExists"
	case KindConflict:
		return "Conflict"
	case KindIntegrity:
		return "Integrity"
	case KindCapacity:
		return "Capacity"
	case KindSecurity:
		return "Security"
	case KindTimeout:
		return "Timeout"
	case KindUnavailable:
		return "Unavailable"
	case KindInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// GatewayCode returns the exit/failure code this kind maps to when
// surfaced to the external gateway.
func (k Kind) GatewayCode() string {
	switch k {
	case KindValidation:
		return "InvalidArgument"
	case KindNotFound:
		return "NotFound"
	case KindAlreadyExists:
		return "AlreadyExists"
	case KindConflict:
		return "FailedPrecondition"
	case KindIntegrity:
		return "Internal"
	case KindCapacity:
		return "ResourceExhausted"
	case KindSecurity:
		return "PermissionDenied"
	case KindTimeout:
		return "DeadlineExceeded"
	case KindUnavailable:
		return "Unavailable"
	default:
		return "Internal"
	}
}

// Error is the taxonomy-tagged error every component returns. It wraps a
// cause via github.com/pkg/errors so callers retain a stack trace on the
// original failure while still being able to switch on Kind.
type Error struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "wal.Append", "document.Create"
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is a *Error of the same Kind, so
// errors.Is(err, &cmn.Error{Kind: k}) matches by kind alone.
func (e *Error) Is(target error) bool {
	if other, ok := target.(*Error); ok {
		return e.Kind == other.Kind
	}
	return false
}

func NewError(kind Kind, op, message string, cause error) *Error {
	if cause != nil {
		cause = errors.WithStack(cause)
	}
	e := &Error{Kind: kind, Op: op, Message: message, Cause: cause}
	if kind == KindInternal {
		logInternal(e)
	}
	return e
}

func Validationf(op, format string, args ...interface{}) *Error {
	return NewError(KindValidation, op, fmt.Sprintf(format, args...), nil)
}

func NotFoundf(op, format string, args ...interface{}) *Error {
	return NewError(KindNotFound, op, fmt.Sprintf(format, args...), nil)
}

func AlreadyExistsf(op, format string, args ...interface{}) *Error {
	return NewError(KindAlreadyExists, op, fmt.Sprintf(format, args...), nil)
}

func Conflictf(op, format string, args ...interface{}) *Error {
	return NewError(KindConflict, op, fmt.Sprintf(format, args...), nil)
}

func Integrityf(op, format string, args ...interface{}) *Error {
	return NewError(KindIntegrity, op, fmt.Sprintf(format, args...), nil)
}

func Internal(op string, cause error) *Error {
	return NewError(KindInternal, op, "invariant violation", cause)
}

// IsKind reports whether err (or any error in its chain) is a *cmn.Error of
// the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
