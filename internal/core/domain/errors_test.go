package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	cause := errors.New("disk full")
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{"plain", ErrCommitConflict, "[SL-CMIT-5000] concurrent commit for session"},
		{"with details", ErrOrderingViolation.WithDetails("2230.01.01 <= 2230.02.01"),
			"[SL-ORDR-4090] snapshot date not after last committed date: 2230.01.01 <= 2230.02.01"},
		{"with cause", ErrStorage.WithCause(cause), "[SL-SYS-5001] storage error: disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDomainError_IsAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := ErrParse.WithDetailsf("line %d", 12).WithCause(cause)

	if !errors.Is(err, ErrParse) {
		t.Error("errors.Is(err, ErrParse) = false")
	}
	if errors.Is(err, ErrTokenize) {
		t.Error("errors.Is(err, ErrTokenize) = true")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}

	wrapped := fmt.Errorf("file a.sav: %w", err)
	if !IsDomainError(wrapped, "SL-PARS-4000") {
		t.Error("IsDomainError through fmt wrapping = false")
	}
	if got := GetErrorCode(wrapped); got != "SL-PARS-4000" {
		t.Errorf("GetErrorCode() = %q", got)
	}
	if GetErrorCode(cause) != "" {
		t.Error("GetErrorCode(plain error) != \"\"")
	}
}

func TestDomainError_CopiesDoNotMutate(t *testing.T) {
	_ = ErrArchive.WithDetails("x").WithCause(errors.New("y"))
	if ErrArchive.Details != "" || ErrArchive.Cause != nil {
		t.Error("With* modified the sentinel")
	}
}
