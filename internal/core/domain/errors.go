package domain

import (
	"errors"
	"fmt"
)

// DomainError is a pipeline error with a structured code.
//
// Codes have the form SL-<AREA>-<NNNN>. The last four digits follow HTTP
// status conventions: 4xxx for bad input, 5xxx for invariant breaches and
// 2xxx for conditions that are recorded but not raised.
type DomainError struct {
	Code    string // e.g. "SL-ORDR-4090"
	Message string
	Details string
	Cause   error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches any DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a DomainError.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// WithDetails returns a copy of the error with details attached.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, Details: details, Cause: e.Cause}
}

// WithDetailsf is WithDetails with formatting.
func (e *DomainError) WithDetailsf(format string, args ...any) *DomainError {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

// WithCause returns a copy of the error wrapping cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, Details: e.Details, Cause: cause}
}

// IsDomainError reports whether err is a DomainError with the given code.
// An empty code matches any DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return code == "" || de.Code == code
	}
	return false
}

// GetErrorCode returns the code of a DomainError, or "".
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Input errors. They abort processing of one file only.
var (
	// ErrTokenize indicates malformed quoting in a save document.
	ErrTokenize = NewDomainError("SL-TOKN-4000", "tokenize failed")

	// ErrParse indicates a grammar violation in a save document.
	ErrParse = NewDomainError("SL-PARS-4000", "parse failed")

	// ErrArchive indicates the save archive could not be read.
	ErrArchive = NewDomainError("SL-ARCH-4000", "unreadable save archive")

	// ErrMissingDate indicates the metadata carries no usable date, so the
	// file cannot be ordered.
	ErrMissingDate = NewDomainError("SL-META-4000", "missing or invalid date")
)

// Recorded, never raised.
var (
	// ErrExtraction is the code carried by extraction warnings.
	ErrExtraction = NewDomainError("SL-EXTR-2000", "extraction warning")
)

// Ordering and commit errors.
var (
	// ErrOrderingViolation indicates a snapshot whose date does not exceed
	// the session's last committed date.
	ErrOrderingViolation = NewDomainError("SL-ORDR-4090", "snapshot date not after last committed date")

	// ErrCommitConflict indicates two commits for one session overlapped.
	// It is a broken invariant and stops the run.
	ErrCommitConflict = NewDomainError("SL-CMIT-5000", "concurrent commit for session")
)

// System and argument errors.
var (
	ErrStorage         = NewDomainError("SL-SYS-5001", "storage error")
	ErrSessionNotFound = NewDomainError("SL-SESS-4040", "session not found")
	ErrInvalidArgument = NewDomainError("SL-ARG-1001", "invalid argument")
)
