package errors

import (
	stderrors "errors"
	"fmt"

	"memoex/jsonx"
)

// ProtocolErrorCode represents standardized error codes for exchange operations
type ProtocolErrorCode string

const (
	// Transient transport errors, retried at the ledger client boundary
	ErrCodeNetwork ProtocolErrorCode = "network_error"

	// Submission lifecycle errors, retryable by the caller with a fresh blockhash
	ErrCodeSubmissionFailed    ProtocolErrorCode = "submission_failed"
	ErrCodeConfirmationTimeout ProtocolErrorCode = "confirmation_timeout"

	// Non-fatal: caller may proceed with the existing balance
	ErrCodeFundingExhausted ProtocolErrorCode = "funding_exhausted"

	// Malformed or absent memo; callers keep polling
	ErrCodeDecodeInvalid ProtocolErrorCode = "decode_invalid"

	// Fatal configuration errors, abort the role
	ErrCodeUnknownService    ProtocolErrorCode = "unknown_service_type"
	ErrCodeCorruptWalletFile ProtocolErrorCode = "corrupt_wallet_file"
)

// ProtocolError represents a standardized exchange protocol error
type ProtocolError struct {
	Code    ProtocolErrorCode `json:"code"`
	Message string            `json:"message"`
}

// Error implements the error interface
func (e *ProtocolError) Error() string {
	err, _ := jsonx.Marshal(ProtocolError{
		Code:    e.Code,
		Message: e.Message,
	})
	return string(err)
}

// NewError creates a new ProtocolError and returns it as error interface
func NewError(code ProtocolErrorCode, message string) error {
	return &ProtocolError{
		Code:    code,
		Message: message,
	}
}

// Errorf creates a new ProtocolError with a formatted message
func Errorf(code ProtocolErrorCode, format string, args ...interface{}) error {
	return &ProtocolError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsCode reports whether err carries the given protocol error code
func IsCode(err error, code ProtocolErrorCode) bool {
	var pe *ProtocolError
	if stderrors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}

// CodeOf extracts the protocol error code from err, or "" if err is not a
// ProtocolError.
func CodeOf(err error) ProtocolErrorCode {
	var pe *ProtocolError
	if stderrors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
