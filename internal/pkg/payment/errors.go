package payment

import "errors"

// Expected outcomes are modeled as sentinel errors so callers can branch with
// errors.Is instead of matching message strings.
var (
	// ErrPaymentNotFound is returned when a lookup or transition precondition
	// references a payment that does not exist.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrOrderNotFound is returned when a payment request references an
	// unknown order.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidStateTransition is returned when an operation is attempted
	// from a state that forbids it (e.g. refunding a FAILED payment).
	ErrInvalidStateTransition = errors.New("invalid payment state transition")

	// ErrValidation is returned for malformed payment requests before any
	// state is mutated.
	ErrValidation = errors.New("invalid payment request")
)
