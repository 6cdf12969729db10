package tokens

import (
	"errors"
)

// settlement errors
var (
	ErrAmountTooSmall      = errors.New("amount too small")
	ErrAmountTooLarge      = errors.New("amount too large")
	ErrInsufficientValue   = errors.New("insufficient value")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrSwapFailed          = errors.New("swap failed")
	ErrMalformedMessage    = errors.New("malformed message")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidFeeConfig    = errors.New("invalid fee config")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidInstructions = errors.New("invalid instructions")
	ErrRouterNotSupported  = errors.New("router not supported")
	ErrBridgeTokenMismatch = errors.New("dst bridge expected")
	ErrReentrantCall       = errors.New("reentrant call")
	ErrUnknownMarket       = errors.New("unknown nft market")
	ErrDeadlineExpired     = errors.New("deadline expired")
	ErrSameChain           = errors.New("destination chain is source chain")
	ErrTransportFailed     = errors.New("transport send failed")
	ErrNotFound            = errors.New("not found")
)

// IsUserCorrectableError bounds, value and input errors the caller can fix by retrying
func IsUserCorrectableError(err error) bool {
	switch {
	case errors.Is(err, ErrAmountTooSmall),
		errors.Is(err, ErrAmountTooLarge),
		errors.Is(err, ErrInsufficientValue),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidInstructions),
		errors.Is(err, ErrDeadlineExpired):
		return true
	}
	return false
}

// NeedManualIntervention errors on destination which leave funds at the transport
func NeedManualIntervention(err error) bool {
	return errors.Is(err, ErrMalformedMessage) ||
		errors.Is(err, ErrBridgeTokenMismatch) ||
		errors.Is(err, ErrInsufficientBalance)
}
