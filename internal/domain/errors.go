package domain

import (
	"context"             // Cancellation errors
	"database/sql/driver" // Broken connection sentinel
	"errors"              // Error inspection
	"net"                 // Network errors

	"github.com/go-sql-driver/mysql" // MySQL error codes
	"gorm.io/gorm"                   // GORM sentinel errors
)

// ErrorKind classifies every failure surfaced by the core
type ErrorKind string

// Error kinds
const (
	KindNotFound          ErrorKind = "not_found"          // User, account, card or recipient unresolved
	KindUnauthorized      ErrorKind = "unauthorized"       // Missing, invalid or expired credential
	KindInvalidInput      ErrorKind = "invalid_input"      // Malformed request data
	KindInsufficientFunds ErrorKind = "insufficient_funds" // Source balance below amount
	KindConflict          ErrorKind = "conflict"           // Duplicate phone, account or card
	KindStoreUnavailable  ErrorKind = "store_unavailable"  // Backing store unreachable
	KindInternal          ErrorKind = "internal"           // Anything unexpected
)

// Error is a typed failure with a message safe to show to the caller
type Error struct {
	Kind    ErrorKind // Failure class
	Message string    // Human-readable reason
	Err     error     // Underlying cause, never shown to the caller
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Constructors for each kind
func NotFound(msg string) error     { return &Error{Kind: KindNotFound, Message: msg} }
func Unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Message: msg} }
func InvalidInput(msg string) error { return &Error{Kind: KindInvalidInput, Message: msg} }
func Conflict(msg string) error     { return &Error{Kind: KindConflict, Message: msg} }

// InsufficientFunds is returned when a debit would drive a balance negative
func InsufficientFunds() error {
	return &Error{Kind: KindInsufficientFunds, Message: "Insufficient funds"}
}

// Internal wraps an unexpected failure
func Internal(err error) error {
	return &Error{Kind: KindInternal, Message: "Internal error", Err: err}
}

// KindOf returns the kind of err, Internal for untyped errors
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == kind
}

// FromStore classifies an error coming back from GORM or the driver.
// Typed errors pass through untouched; notFoundMsg is used for missing records.
func FromStore(err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err // Already classified
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Error{Kind: KindNotFound, Message: notFoundMsg, Err: err}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &Error{Kind: KindConflict, Message: "Record already exists", Err: err}
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return &Error{Kind: KindConflict, Message: "Record already exists", Err: err} // ER_DUP_ENTRY
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return &Error{Kind: KindStoreUnavailable, Message: "Service temporarily unavailable", Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &Error{Kind: KindStoreUnavailable, Message: "Service temporarily unavailable", Err: err}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindInternal, Message: "Request aborted", Err: err}
	}
	return Internal(err)
}
