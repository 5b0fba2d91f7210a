package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	err := New(ErrCodeInvalidLayout, "unknown layout %q", "spiral")
	if err.Error() != `INVALID_LAYOUT: unknown layout "spiral"` {
		t.Errorf("Error() = %q", err.Error())
	}

	cause := errors.New("connection refused")
	wrapped := Wrap(ErrCodeNetwork, cause, "fetch component")
	if wrapped.Error() != "NETWORK_ERROR: fetch component: connection refused" {
		t.Errorf("Error() = %q", wrapped.Error())
	}
	if !errors.Is(wrapped, cause) || errors.Unwrap(wrapped) != cause {
		t.Error("Wrap should keep the cause reachable")
	}
}

func TestIsAndGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
	}{
		{"coded", New(ErrCodeInvalidQuery, "x"), ErrCodeInvalidQuery},
		{"outermost code wins", Wrap(ErrCodeNetwork, New(ErrCodeInvalidInput, "inner"), "outer"), ErrCodeNetwork},
		{"fmt wrapped", fmt.Errorf("fetch: %w", New(ErrCodeTimeout, "slow")), ErrCodeTimeout},
		{"plain", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("GetCode() = %q, want %q", got, tt.code)
			}
			if tt.code != "" && !Is(tt.err, tt.code) {
				t.Errorf("Is(%q) = false", tt.code)
			}
			if Is(tt.err, ErrCodeInternal) {
				t.Error("Is(INTERNAL_ERROR) should be false")
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidInput, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"layout", New(ErrCodeInvalidLayout, "bad"), true},
		{"threshold", New(ErrCodeInvalidThreshold, "bad"), true},
		{"wrapped query", Wrap(ErrCodeInvalidQuery, errors.New("x"), "bad id"), true},
		{"network", New(ErrCodeNetwork, "down"), false},
		{"plain", errors.New("plain"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsInvalid(tt.err); got != tt.expected {
				t.Errorf("IsInvalid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCodeInvalid(t *testing.T) {
	for _, c := range []Code{ErrCodeInvalidInput, ErrCodeInvalidQuery, ErrCodeInvalidLayout, ErrCodeInvalidMetric, ErrCodeInvalidFormat, ErrCodeInvalidThreshold} {
		if !c.Invalid() {
			t.Errorf("%s should be invalid", c)
		}
	}
	for _, c := range []Code{ErrCodeNotFound, ErrCodeNetwork, ErrCodeTimeout, ErrCodeUnavailable, ErrCodeSuperseded, ErrCodeInternal, ""} {
		if c.Invalid() {
			t.Errorf("%q should not be invalid", c)
		}
	}
}
