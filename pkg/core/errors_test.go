package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := &Error{
		Kind:    ErrPermissionDenied,
		Message: "microphone access denied",
	}

	expected := "permission_denied: microphone access denied"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestError_WithCode(t *testing.T) {
	err := &Error{
		Kind:    ErrQuotaExceeded,
		Message: "archive full",
		Code:    "quota",
	}

	expected := "quota_exceeded: archive full (code: quota)"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestError_Unwrap(t *testing.T) {
	inner := errors.New("disk fault")
	err := NewStorageError("cannot persist", inner)

	if !errors.Is(err, inner) {
		t.Error("wrapped error must be reachable through errors.Is")
	}

	wrapped := fmt.Errorf("outer: %w", err)
	var ce *Error
	if !errors.As(wrapped, &ce) || ce.Kind != ErrStorage {
		t.Errorf("errors.As failed, got %v", ce)
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		kind ErrorKind
	}{
		{"permission denied", NewPermissionDeniedError("no mic", nil), ErrPermissionDenied},
		{"decode", NewDecodeError("bad base64", nil), ErrDecode},
		{"quota", NewQuotaExceededError("full"), ErrQuotaExceeded},
		{"storage", NewStorageError("io fault", nil), ErrStorage},
		{"remote unavailable", NewRemoteUnavailableError("503", nil), ErrRemoteUnavailable},
		{"authentication", NewAuthenticationError("bad key"), ErrAuthentication},
		{"generic", NewGenericError("unknown", nil), ErrGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
		})
	}
}

func TestError_IsRetryable(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want bool
	}{
		{ErrRemoteUnavailable, true},
		{ErrPermissionDenied, false},
		{ErrDecode, false},
		{ErrQuotaExceeded, false},
		{ErrStorage, false},
		{ErrAuthentication, false},
		{ErrGeneric, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := &Error{Kind: tt.kind, Message: "test"}
			if got := err.IsRetryable(); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(NewDecodeError("x", nil)); got != ErrDecode {
		t.Errorf("KindOf = %v, want %v", got, ErrDecode)
	}
	if got := KindOf(errors.New("plain")); got != ErrGeneric {
		t.Errorf("KindOf = %v, want %v", got, ErrGeneric)
	}
	wrapped := fmt.Errorf("outer: %w", NewAuthenticationError("bad key"))
	if got := KindOf(wrapped); got != ErrAuthentication {
		t.Errorf("KindOf = %v, want %v", got, ErrAuthentication)
	}
}
