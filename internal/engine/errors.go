package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/pointecon/internal/store"
)

// Error is the single error type surfaced by engine operations.
//
// Every rejected operation returns an *Error (possibly wrapped). Callers
// branch on Code, either directly via CodeOf or with errors.Is against the
// sentinel values below.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// RequestID identifies the affected transfer or exchange request, if any.
	RequestID string

	// Details contains additional context.
	Details map[string]string

	err error
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// CodeInvalidAmount indicates a transfer or exchange amount <= 0.
	CodeInvalidAmount ErrorCode = "INVALID_AMOUNT"

	// CodeInvalidRate indicates a rate submission <= 0.
	CodeInvalidRate ErrorCode = "INVALID_RATE"

	// CodeSelfTransfer indicates from_user == to_user.
	CodeSelfTransfer ErrorCode = "SELF_TRANSFER"

	// CodeSameCurrency indicates an exchange whose two currencies are equal.
	CodeSameCurrency ErrorCode = "SAME_CURRENCY"

	// CodeInsufficientFunds indicates the payer's balance is below the debit.
	CodeInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"

	// CodeInvalidState indicates the request is not in a state that allows
	// the transition.
	CodeInvalidState ErrorCode = "INVALID_STATE"

	// CodeForbidden indicates the actor lacks the role for the transition.
	CodeForbidden ErrorCode = "FORBIDDEN"

	// CodeNotFound indicates a referenced economy, currency, button or
	// request does not exist in the economy.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeNoSubmissions indicates finalize was called with zero rates.
	CodeNoSubmissions ErrorCode = "NO_SUBMISSIONS"

	// CodeConstraintViolation indicates a storage-level integrity or
	// atomicity failure.
	CodeConstraintViolation ErrorCode = "CONSTRAINT_VIOLATION"

	// CodeInvalidArgument indicates a required text field was empty.
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

// Sentinels for errors.Is. Matching is by Code only.
var (
	ErrInvalidAmount       = &Error{Code: CodeInvalidAmount}
	ErrInvalidRate         = &Error{Code: CodeInvalidRate}
	ErrSelfTransfer        = &Error{Code: CodeSelfTransfer}
	ErrSameCurrency        = &Error{Code: CodeSameCurrency}
	ErrInsufficientFunds   = &Error{Code: CodeInsufficientFunds}
	ErrInvalidState        = &Error{Code: CodeInvalidState}
	ErrForbidden           = &Error{Code: CodeForbidden}
	ErrNotFound            = &Error{Code: CodeNotFound}
	ErrNoSubmissions       = &Error{Code: CodeNoSubmissions}
	ErrConstraintViolation = &Error{Code: CodeConstraintViolation}
	ErrInvalidArgument     = &Error{Code: CodeInvalidArgument}
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("%s: %s (request=%s)", e.Code, e.Message, e.RequestID)
	}
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Unwrap returns the storage error behind a NOT_FOUND or
// CONSTRAINT_VIOLATION, if any.
func (e *Error) Unwrap() error {
	return e.err
}

// CodeOf returns the engine code carried by err, or "" when err is not an
// engine error. Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func requestError(code ErrorCode, requestID, format string, args ...any) *Error {
	e := newError(code, format, args...)
	e.RequestID = requestID
	return e
}

// storeError maps store failures onto engine codes. Engine errors pass
// through unchanged so they can be returned from inside a transaction.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &Error{Code: CodeNotFound, Message: op + ": not found", err: err}
	case errors.Is(err, store.ErrConstraint):
		return &Error{Code: CodeConstraintViolation, Message: op + ": " + err.Error(), err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
