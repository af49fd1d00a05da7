package docstore

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is the shared failure type of all interpreters. Exactly one Error
// (never a panic) is produced on any operation failure. The Code identifies
// the failure kind, Key names the affected document where applicable and
// Cause carries the wrapped backend error for ErrCGeneral / ErrCDecoding.
type Error struct {
	Code  ErrCode
	Key   Key
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Code {
	case ErrCNotFound:
		return fmt.Sprintf("DocStoreError (ValueNotFound): no value for key %q", string(e.Key))
	case ErrCExists:
		return fmt.Sprintf("DocStoreError (ValueExists): value for key %q already exists", string(e.Key))
	case ErrCVersionMismatch:
		return fmt.Sprintf("DocStoreError (CommitVersionMismatch): stale commit version for key %q", string(e.Key))
	case ErrCDecoding:
		return fmt.Sprintf("DocStoreError (DecodingFault): %v", e.Cause)
	case ErrCGeneral:
		return fmt.Sprintf("DocStoreError (GeneralError): %v", e.Cause)
	default:
		return fmt.Sprintf("DocStoreError (code %d): key=%q cause=%v", e.Code, string(e.Key), e.Cause)
	}
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --------------------------------------------------------------------------
// Error Codes
// --------------------------------------------------------------------------

type ErrCode uint64

const (
	ErrCNotFound        ErrCode = iota + 1 // read/remove/update target absent
	ErrCExists                             // create target already present
	ErrCVersionMismatch                    // update precondition version stale
	ErrCDecoding                           // malformed scan row metadata or payload framing
	ErrCGeneral                            // any other backend fault, cause wrapped opaquely
)

// --------------------------------------------------------------------------
// Constructors
// --------------------------------------------------------------------------

// NewNotFoundError reports that no value exists for the given key.
func NewNotFoundError(key Key) *Error {
	return &Error{Code: ErrCNotFound, Key: key}
}

// NewExistsError reports that a create target is already present.
func NewExistsError(key Key) *Error {
	return &Error{Code: ErrCExists, Key: key}
}

// NewVersionMismatchError reports a stale commit version on update.
func NewVersionMismatchError(key Key) *Error {
	return &Error{Code: ErrCVersionMismatch, Key: key}
}

// NewDecodingError reports malformed response metadata from the backend.
func NewDecodingError(cause error) *Error {
	return &Error{Code: ErrCDecoding, Cause: cause}
}

// NewGeneralError wraps any other backend fault.
func NewGeneralError(cause error) *Error {
	return &Error{Code: ErrCGeneral, Cause: cause}
}

// --------------------------------------------------------------------------
// Predicates
// --------------------------------------------------------------------------

// CodeOf returns the ErrCode of err if it is (or wraps) a *Error, 0 otherwise.
func CodeOf(err error) ErrCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

func IsNotFound(err error) bool        { return CodeOf(err) == ErrCNotFound }
func IsExists(err error) bool          { return CodeOf(err) == ErrCExists }
func IsVersionMismatch(err error) bool { return CodeOf(err) == ErrCVersionMismatch }
func IsDecoding(err error) bool        { return CodeOf(err) == ErrCDecoding }
func IsGeneral(err error) bool         { return CodeOf(err) == ErrCGeneral }
