// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-net.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the library.
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrContextClosed      = errors.New("execution context is closed")
	ErrPoolClosed         = errors.New("execution context pool is closed")
	ErrAcceptorClosed     = errors.New("acceptor is closed")
	ErrSessionClosed      = errors.New("session is closed")
	ErrSendQueueFull      = errors.New("session send queue is full")
	ErrConnectTimeout     = errors.New("connect timeout")
	ErrNoConnector        = errors.New("connector is empty")
	ErrNoEstablishHandler = errors.New("establish handlers is empty")
	ErrNoEndpoint         = errors.New("endpoint is empty")
	ErrNoAcceptor         = errors.New("acceptor is empty")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeConfiguration
	ErrCodeTimeout
	ErrCodeClosed
	ErrCodeConnect
	ErrCodeInternal
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeConfiguration:
		return "configuration"
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeClosed:
		return "closed"
	case ErrCodeConnect:
		return "connect"
	default:
		return "internal"
	}
}

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

// Unwrap exposes the cause to errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WrapError creates a structured error around cause.
func WrapError(code ErrorCode, cause error, message string) *Error {
	e := NewError(code, message)
	e.Err = cause
	return e
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or
// ErrCodeInternal when none is present. A nil error yields ErrCodeOK.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	switch {
	case errors.Is(err, ErrConnectTimeout):
		return ErrCodeTimeout
	case errors.Is(err, ErrNoConnector), errors.Is(err, ErrNoEstablishHandler),
		errors.Is(err, ErrNoAcceptor):
		return ErrCodeConfiguration
	case errors.Is(err, ErrContextClosed), errors.Is(err, ErrAcceptorClosed),
		errors.Is(err, ErrSessionClosed), errors.Is(err, ErrPoolClosed):
		return ErrCodeClosed
	}
	return ErrCodeInternal
}
