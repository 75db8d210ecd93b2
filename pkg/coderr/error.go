// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package coderr

import (
	"fmt"

	"github.com/pkg/errors"
)

// CodeError is an error with an extra method Code().
type CodeError interface {
	error
	Code() Code
	// WithCausef attaches a formatted cause message to a new error based on this one.
	WithCausef(format string, a ...any) CodeError
	// WithCause attaches the cause error to a new error based on this one.
	WithCause(cause error) CodeError
}

// Is checks whether the cause of `err` is the kind of error specified by the expectCode.
// Returns false if the cause of `err` is not CodeError.
func Is(err error, expectCode Code) bool {
	cause := errors.Cause(err)
	cerr, ok := cause.(CodeError)
	if !ok {
		return false
	}
	return expectCode == cerr.Code()
}

var _ CodeError = &codeError{}

type codeError struct {
	code  Code
	desc  string
	cause string
}

func (e *codeError) Error() string {
	if e.cause == "" {
		return fmt.Sprintf("(#%d)%s", e.code, e.desc)
	}
	return fmt.Sprintf("(#%d)%s, cause:%s", e.code, e.desc, e.cause)
}

func (e *codeError) Code() Code {
	return e.code
}

func (e *codeError) WithCausef(format string, a ...any) CodeError {
	return &codeError{
		code:  e.code,
		desc:  e.desc,
		cause: fmt.Sprintf(format, a...),
	}
}

func (e *codeError) WithCause(cause error) CodeError {
	return &codeError{
		code:  e.code,
		desc:  e.desc,
		cause: cause.Error(),
	}
}

// NewCodeError creates a base CodeError definition.
// The description should not carry any request-specific detail, attach that
// through WithCausef at the call site.
func NewCodeError(code Code, desc string) CodeError {
	return &codeError{
		code: code,
		desc: desc,
	}
}
