package core

import (
	"errors"
	"fmt"
)

// Error is the common error type for the NagrikAI core.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Code    string    `json:"code,omitempty"`
	Wrapped error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (code: %s)", e.Kind, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// ErrorKind categorizes errors.
type ErrorKind string

const (
	// ErrPermissionDenied means microphone access was refused or no
	// capture device exists.
	ErrPermissionDenied ErrorKind = "permission_denied"
	// ErrDecode means a transport payload could not be decoded.
	ErrDecode ErrorKind = "decode_error"
	// ErrQuotaExceeded means the persistent archive store is full.
	ErrQuotaExceeded ErrorKind = "quota_exceeded"
	// ErrStorage means a persistence failure other than quota.
	ErrStorage ErrorKind = "storage_error"
	// ErrRemoteUnavailable means a network, rate-limit, or model error
	// from the remote assistant gateway.
	ErrRemoteUnavailable ErrorKind = "remote_unavailable"
	// ErrAuthentication means the gateway rejected our credentials.
	// Callers should run the credential reacquisition flow.
	ErrAuthentication ErrorKind = "authentication_error"
	// ErrGeneric is everything else.
	ErrGeneric ErrorKind = "generic_failure"
)

// NewPermissionDeniedError creates a microphone permission error.
func NewPermissionDeniedError(message string, wrapped error) *Error {
	return &Error{Kind: ErrPermissionDenied, Message: message, Wrapped: wrapped}
}

// NewDecodeError creates a payload decode error.
func NewDecodeError(message string, wrapped error) *Error {
	return &Error{Kind: ErrDecode, Message: message, Wrapped: wrapped}
}

// NewQuotaExceededError creates a storage quota error.
func NewQuotaExceededError(message string) *Error {
	return &Error{Kind: ErrQuotaExceeded, Message: message}
}

// NewStorageError creates a generic persistence error.
func NewStorageError(message string, wrapped error) *Error {
	return &Error{Kind: ErrStorage, Message: message, Wrapped: wrapped}
}

// NewRemoteUnavailableError creates a gateway availability error.
func NewRemoteUnavailableError(message string, wrapped error) *Error {
	return &Error{Kind: ErrRemoteUnavailable, Message: message, Wrapped: wrapped}
}

// NewAuthenticationError creates a credential error.
func NewAuthenticationError(message string) *Error {
	return &Error{Kind: ErrAuthentication, Message: message}
}

// NewGenericError creates an uncategorized error.
func NewGenericError(message string, wrapped error) *Error {
	return &Error{Kind: ErrGeneric, Message: message, Wrapped: wrapped}
}

// IsRetryable reports whether the operation may succeed on retry.
func (e *Error) IsRetryable() bool {
	return e.Kind == ErrRemoteUnavailable
}

// KindOf returns the ErrorKind of err, or ErrGeneric for foreign errors.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ErrGeneric
}
