package checkout

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSnapshot means there is nothing to check out; send the shopper to the cart.
	ErrNoSnapshot          = errors.New("no checkout snapshot")
	ErrSubmitInFlight      = errors.New("checkout submission already in progress")
	ErrNotReady            = errors.New("checkout is not ready")
	ErrNoPendingPayment    = errors.New("no payment awaiting confirmation")
	ErrPaymentMismatch     = errors.New("payment response does not match pending payment order")
	ErrPaymentFailed       = errors.New("payment failed")
	ErrPaymentCancelled    = errors.New("payment cancelled")
	ErrUnknownField        = errors.New("unknown address field")
	ErrInvalidMethod       = errors.New("unknown payment method")
	ErrAddressIndex        = errors.New("address index out of range")
	IllegalTransitionError = errors.New("illegal transition of checkout state")
)

// ValidationError names the first required shipping field that is blank.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("shipping field %q is required", e.Field)
}
