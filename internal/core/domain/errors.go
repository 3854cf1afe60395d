package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotAuthorized = errors.New("not authorized")
)

// Validation error codes. A *ValidationError matches these with errors.Is.
var (
	ErrDuplicateReference     = errors.New("duplicate reference")
	ErrMissingMember          = errors.New("missing member")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidReferenceFormat = errors.New("invalid reference format")
	ErrInvalidPhoneNumber     = errors.New("invalid phone number")
	ErrInvalidRole            = errors.New("invalid role")
	ErrInvalidStatus          = errors.New("invalid status")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
)

// Workflow errors
var (
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrAlreadyVerified      = errors.New("transaction already verified")
	ErrAlreadyRejected      = errors.New("transaction already rejected")
	ErrTransactionFinalized = errors.New("transaction is no longer pending")
)

// Registry errors
var (
	ErrMemberNotFound    = errors.New("member not found")
	ErrGroupNotFound     = errors.New("chama group not found")
	ErrMemberNotLinked   = errors.New("no member is linked to this account")
	ErrUserAlreadyLinked = errors.New("user is already linked to another member")
)

// ValidationError describes a rejected field on a candidate record
type ValidationError struct {
	Code    error
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Code)
}

// Is matches the error against its code sentinel
func (e *ValidationError) Is(target error) bool {
	return e.Code == target
}

// Unwrap exposes the code sentinel
func (e *ValidationError) Unwrap() error {
	return e.Code
}

// NewValidationError builds a ValidationError
func NewValidationError(code error, field, value, message string) *ValidationError {
	return &ValidationError{
		Code:    code,
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// AsValidationError extracts a *ValidationError from err
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
