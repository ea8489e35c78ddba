package state

import (
	"errors"
	"fmt"

	"github.com/bhandras/agbridge/internal/models"
)

// Kind classifies a domain failure.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindPolicy     Kind = "policy"
	KindAuth       Kind = "auth"
)

// Error codes. They are reported verbatim to HTTP callers.
const (
	CodeInvalidCode      = "invalid_code"
	CodeNotFound         = "not_found"
	CodeAlreadyDecided   = "already_decided"
	CodeInvalidInput     = "invalid_input"
	CodeMissingFields    = "missing_fields"
	CodeInvalidRecipient = "invalid_recipient"
	CodeInvalidSender    = "invalid_sender"
	CodeInvalidStatus    = "invalid_status"
	CodeInvalidState     = "invalid_state"
)

// Error is a structured domain failure. Conflict errors carry the current,
// unchanged approval so the caller can reconcile.
type Error struct {
	Kind     Kind
	Code     string
	Approval *models.Approval
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func validationError(code string) error {
	return &Error{Kind: KindValidation, Code: code}
}

func notFoundError() error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound}
}
