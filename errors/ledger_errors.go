package errors

import (
	"fmt"

	"github.com/mezonai/simplechain/jsonx"
)

// LedgerErrorCode represents standardized error codes for ledger operations
type LedgerErrorCode string

const (
	// General errors
	ErrCodeInternal LedgerErrorCode = "internal_error"

	// Request errors
	ErrCodeInvalidRequest LedgerErrorCode = "invalid_request"
	ErrCodeRateLimited    LedgerErrorCode = "rate_limited"

	// Ledger errors
	ErrCodeNotFound     LedgerErrorCode = "not_found"
	ErrCodeStoreFailure LedgerErrorCode = "store_failure"
	ErrCodeEmptyChain   LedgerErrorCode = "empty_chain"
)

// Error message constants
const (
	ErrMsgInternal       = "Server error, please try again"
	ErrMsgInvalidRequest = "Request format is invalid"
	ErrMsgInvalidHeight  = "Block height must be a non-negative integer"
	ErrMsgEmptyBody      = "Block body is empty"
	ErrMsgRateLimited    = "Too many writes, please slow down"
	ErrMsgBlockNotFound  = "No block at height %d"
	ErrMsgStoreFailure   = "Block store operation failed"
	ErrMsgHeightOccupied = "Height %d already occupied, chain has a gap below it"
	ErrMsgEmptyChain     = "Chain has no blocks, run init first"
)

// Sentinels for errors.Is checks. Matching is by code, so any LedgerError
// with the same code satisfies them.
var (
	ErrNotFound     = &LedgerError{Code: ErrCodeNotFound}
	ErrStoreFailure = &LedgerError{Code: ErrCodeStoreFailure}
	ErrEmptyChain   = &LedgerError{Code: ErrCodeEmptyChain}
)

// LedgerError represents a standardized ledger error
type LedgerError struct {
	Code    LedgerErrorCode `json:"code"`
	Message string          `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *LedgerError) Error() string {
	msg := e.Message
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	err, _ := jsonx.Marshal(LedgerError{
		Code:    e.Code,
		Message: msg,
	})
	return string(err)
}

// Is reports whether target carries the same code
func (e *LedgerError) Is(target error) bool {
	t, ok := target.(*LedgerError)
	return ok && t.Code == e.Code
}

// Unwrap returns the underlying cause, if any
func (e *LedgerError) Unwrap() error {
	return e.cause
}

// NewError creates a new LedgerError and returns it as error interface
func NewError(code LedgerErrorCode, message string) error {
	return &LedgerError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a LedgerError carrying cause
func Wrap(code LedgerErrorCode, cause error, message string) error {
	return &LedgerError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// NotFound reports a missing block at height
func NotFound(height uint64) error {
	return NewError(ErrCodeNotFound, fmt.Sprintf(ErrMsgBlockNotFound, height))
}

// StoreFailure wraps an I/O error raised by the block store
func StoreFailure(cause error) error {
	return Wrap(ErrCodeStoreFailure, cause, ErrMsgStoreFailure)
}

// CodeOf extracts the code of the first LedgerError in err's chain
func CodeOf(err error) LedgerErrorCode {
	for err != nil {
		if le, ok := err.(*LedgerError); ok {
			return le.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return ErrCodeInternal
}
