package domain

import "errors"

var (
	ErrConfigFetch   = errors.New("payment gateway config unavailable")
	ErrOrderCreation = errors.New("payment order could not be created")
	ErrWidgetFailure = errors.New("payment widget reported failure")
	ErrVerification  = errors.New("payment verification failed")
	ErrWidgetTimeout = errors.New("payment widget timed out")

	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrGatewayDisabled   = errors.New("payment gateway is disabled")
	ErrIllegalTransition = errors.New("illegal transition of payment status")
	ErrCartLocked        = errors.New("cart is locked while a payment is open")

	ErrValidation   = errors.New("validation failed")
	ErrItemNotFound = errors.New("menu item not found")
	ErrUnauthorized = errors.New("admin session required")
)

// GenericPaymentFailure is the only failure text shown to shoppers.
const GenericPaymentFailure = "Payment failed. Please try again."
