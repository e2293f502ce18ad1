// Package common defines the sentinel errors shared by the store, the services
// and the RPC layer. Callers should match them with errors.Is.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidArgument = errors.New("invalid argument")

	// Drop arbitration.
	ErrDropAlreadyOpen = errors.New("a drop is already open")
	ErrNoActiveDrop    = errors.New("no active drop")
	ErrAlreadyClaimed  = errors.New("drop already claimed")
	ErrEmptyCatalog    = errors.New("catalog is empty")

	// Ledger.
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidTransfer   = errors.New("invalid transfer")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrLedgerMismatch    = errors.New("balance does not match ledger")

	// Shop, packs and trades.
	ErrItemNotForSale  = errors.New("item is not for sale")
	ErrUnknownPack     = errors.New("unknown pack")
	ErrTradeNotPending = errors.New("trade is not pending")

	// Actors.
	ErrUserBanned     = errors.New("user is banned")
	ErrCooldownActive = errors.New("cooldown active")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// ErrStorageFailure is matched by every *StorageError.
	ErrStorageFailure = errors.New("storage failure")
)

// domainErrors are expected user-facing conditions, never defects.
var domainErrors = []error{
	ErrorNotFound, ErrAlreadyExists, ErrForbidden, ErrInvalidArgument,
	ErrDropAlreadyOpen, ErrNoActiveDrop, ErrAlreadyClaimed, ErrEmptyCatalog,
	ErrInsufficientFunds, ErrInvalidTransfer, ErrInvalidAmount, ErrLedgerMismatch,
	ErrItemNotForSale, ErrUnknownPack, ErrTradeNotPending,
	ErrUserBanned, ErrCooldownActive,
}

// IsDomain reports whether err is one of the expected domain conditions.
func IsDomain(err error) bool {
	for _, d := range domainErrors {
		if errors.Is(err, d) {
			return true
		}
	}
	return false
}

// CooldownError carries the whole seconds left before an action is allowed again.
type CooldownError struct {
	Action    string
	Remaining int64
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: %s available in %ds", ErrCooldownActive, e.Action, e.Remaining)
}

func (e *CooldownError) Is(target error) bool { return target == ErrCooldownActive }

// StorageError is an opaque failure to begin, execute or commit a transaction.
// Err is kept for logging only.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorageFailure, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorageFailure }

// Classify returns err unchanged when it is nil, a domain condition or an
// existing StorageError; anything else is wrapped as a StorageError for op.
func Classify(op string, err error) error {
	if err == nil || IsDomain(err) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
