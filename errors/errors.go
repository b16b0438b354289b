package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error is the structured error type used throughout the pipeline.
// It carries a stable code for programmatic handling, a human-readable
// message, optional key/value context, and the wrapped cause.
type Error struct {
	// Code classifies the failure for exit-code mapping and assertions.
	Code ErrorCode

	// Message is the human-readable description of the failure.
	Message string

	// Context carries additional structured detail (environment name,
	// failing step, file path). May be nil.
	Context map[string]interface{}

	// cause is the wrapped underlying error, if any.
	cause error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a new Error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with a code and message while preserving
// the cause for errors.Is/errors.As traversal. Returns nil if err is nil.
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// WrapWithContext wraps an error with a code, message, and structured
// context. Returns nil if err is nil.
func WrapWithContext(err error, code ErrorCode, message string, ctx map[string]interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Context: ctx, cause: err}
}

// Error implements the error interface. Context keys are rendered in
// sorted order for deterministic output.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(")")
	}
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

// Unwrap returns the wrapped cause, enabling errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same code. This lets
// callers compare against sentinel-style errors built with New.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithContext returns a copy of the error with one more context entry.
func (e *Error) WithContext(key string, value interface{}) *Error {
	clone := *e
	clone.Context = make(map[string]interface{}, len(e.Context)+1)
	for k, v := range e.Context {
		clone.Context[k] = v
	}
	clone.Context[key] = value
	return &clone
}

// GetCode extracts the ErrorCode from any error. Non-structured errors
// report CodeUnknown; nil reports an empty code.
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// HasCode reports whether err (or any error it wraps) carries the code.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// Standard library pass-throughs so callers need a single errors import.

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool { return errors.As(err, target) }
