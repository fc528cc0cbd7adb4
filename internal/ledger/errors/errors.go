// Package errors defines the sentinel errors shared by the ledger core.
// Callers match them with errors.Is; the service layer wraps them with
// fmt.Errorf("%w: detail") to attach the violated precondition.
package errors

import (
	"errors"
)

var (
	ErrCompanyNotFound  = errors.New("company not found")
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrInvestorNotFound = errors.New("investor not found")

	ErrCompanyExists   = errors.New("company already exists")
	ErrCompanyDisabled = errors.New("company disabled")

	ErrUnauthorized = errors.New("unauthorized")
	ErrZeroIdentity = errors.New("zero identity")

	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInsufficientLiquidity = errors.New("insufficient pool liquidity")
	ErrInsufficientBalance   = errors.New("insufficient balance")

	ErrInvalidFeeConfig = errors.New("invalid fee configuration")

	// ErrTokenNotSupported is returned when the payout collaborator rejects
	// the settlement preference; ErrTransferNotAllowed when it refuses the
	// transfer itself.
	ErrTokenNotSupported  = errors.New("settlement preference not supported")
	ErrTransferNotAllowed = errors.New("transfer not allowed")

	// ErrOperationInFlight is the reentrancy guard trip: a mutating entry
	// was attempted while another mutating operation holds the ledger.
	ErrOperationInFlight = errors.New("ledger operation already in flight")
)
