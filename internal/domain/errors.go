package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Error types for consistent error handling across the ledger.
// All of these are expected, recoverable outcomes reported to the caller;
// handlers map them to HTTP statuses with errors.As.

// ErrAccountNotFound indicates the referenced account is not in the
// active mapping.
type ErrAccountNotFound struct {
	Number string
}

func (e *ErrAccountNotFound) Error() string {
	return fmt.Sprintf("account not found: %s", e.Number)
}

// ErrInvalidAmount indicates a non-positive deposit/withdrawal/transfer
// amount, or a negative opening balance.
type ErrInvalidAmount struct {
	Amount decimal.Decimal
	Reason string
}

func (e *ErrInvalidAmount) Error() string {
	return fmt.Sprintf("invalid amount %s: %s", e.Amount, e.Reason)
}

// ErrInsufficientFunds indicates the operation would drive the balance
// negative.
type ErrInsufficientFunds struct {
	Available decimal.Decimal
	Required  decimal.Decimal
}

func (e *ErrInsufficientFunds) Error() string {
	return fmt.Sprintf("insufficient funds: available=%s required=%s", e.Available, e.Required)
}

// ErrAuthenticationFailed indicates a PIN attempt did not match the
// stored credential.
type ErrAuthenticationFailed struct{}

func (e *ErrAuthenticationFailed) Error() string {
	return "authentication failed"
}

// ErrInvalidCredentialFormat indicates the secret supplied at account
// creation is not exactly four ASCII digits.
type ErrInvalidCredentialFormat struct {
	Reason string
}

func (e *ErrInvalidCredentialFormat) Error() string {
	return fmt.Sprintf("invalid PIN: %s", e.Reason)
}

// ErrInvalidField indicates an unsupported field name in an account
// update request.
type ErrInvalidField struct {
	Field string
}

func (e *ErrInvalidField) Error() string {
	return fmt.Sprintf("field cannot be updated: %s", e.Field)
}

// ErrPersistence indicates the store collaborator could not durably
// record a mutation. The in-memory state has been rolled back.
type ErrPersistence struct {
	Op  string
	Err error
}

func (e *ErrPersistence) Error() string {
	return fmt.Sprintf("persistence failure [%s]: %v", e.Op, e.Err)
}

func (e *ErrPersistence) Unwrap() error {
	return e.Err
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrForbidden indicates the caller's role lacks permission for the
// operation.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// ErrConflict indicates a resource already exists.
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}
