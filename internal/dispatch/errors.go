package dispatch

import (
	"errors"
	"fmt"

	"permithub/internal/notify"
)

// Error carries the taxonomy code alongside a message safe to hand to the
// caller. Public stays enumeration-safe: a missing recipient reads exactly
// like any other delivery failure.
type Error struct {
	Code   notify.ErrorCode
	Public string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("dispatch: %s: %v", e.Code, e.cause)
	}
	return fmt.Sprintf("dispatch: %s", e.Code)
}

func (e *Error) Unwrap() error { return e.cause }

func newError(code notify.ErrorCode, public string, cause error) *Error {
	return &Error{Code: code, Public: public, cause: cause}
}

// NewValidationError builds a caller-facing 400-class error.
func NewValidationError(public string) *Error {
	return newError(notify.CodeValidation, public, nil)
}

// NewRecipientNotRegisteredError builds the masked delivery failure.
func NewRecipientNotRegisteredError() *Error {
	return newError(notify.CodeRecipientNotRegistered, genericDeliveryFailure, nil)
}

// AsError extracts a dispatch *Error from any error chain.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

const genericDeliveryFailure = "delivery failed"
