// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ir

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes IR-level errors.
type ErrorKind uint8

const (
	// ErrMalformed indicates the IR violates an assumption the
	// reconstruction relies on. Fatal and non-recoverable.
	ErrMalformed ErrorKind = iota

	// ErrUnsupported indicates a legal IR shape with no representable
	// equivalent in the current target. Fatal for this target only.
	ErrUnsupported

	// ErrInternal indicates a bug in the compiler itself.
	ErrInternal
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrMalformed:
		return "MalformedInput"
	case ErrUnsupported:
		return "UnsupportedConstruct"
	case ErrInternal:
		return "InternalError"
	default:
		return "Unknown"
	}
}

// Error represents an IR-level error with enough context (offending
// block and value ids) to diagnose the input.
type Error struct {
	// Kind categorizes the error.
	Kind ErrorKind

	// Message provides details about the error.
	Message string

	// Block optionally identifies the offending block.
	Block BlockID

	// Value optionally identifies the offending value.
	Value ValueID
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Block != 0 && e.Value != 0:
		return fmt.Sprintf("ir %s at block %d, value %d: %s", e.Kind, e.Block, e.Value, e.Message)
	case e.Block != 0:
		return fmt.Sprintf("ir %s at block %d: %s", e.Kind, e.Block, e.Message)
	case e.Value != 0:
		return fmt.Sprintf("ir %s at value %d: %s", e.Kind, e.Value, e.Message)
	default:
		return fmt.Sprintf("ir %s: %s", e.Kind, e.Message)
	}
}

// NewMalformed creates a MalformedInput error for a block.
func NewMalformed(block BlockID, format string, args ...any) *Error {
	return &Error{Kind: ErrMalformed, Block: block, Message: fmt.Sprintf(format, args...)}
}

// NewUnsupported creates an UnsupportedConstruct error for a value.
func NewUnsupported(value ValueID, format string, args ...any) *Error {
	return &Error{Kind: ErrUnsupported, Value: value, Message: fmt.Sprintf(format, args...)}
}

// NewInternal creates an InternalError.
func NewInternal(format string, args ...any) *Error {
	return &Error{Kind: ErrInternal, Message: fmt.Sprintf(format, args...)}
}

// IsMalformed returns true if err wraps an IR error of kind ErrMalformed.
func IsMalformed(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == ErrMalformed
}

// IsUnsupported returns true if err wraps an IR error of kind ErrUnsupported.
func IsUnsupported(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == ErrUnsupported
}
