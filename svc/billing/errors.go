package billing

import "errors"

var (
	ErrProvider               = errors.New("billing: provider call failed")
	ErrCustomerNotFound       = errors.New("billing: customer not found")
	ErrPaymentMethodNotFound  = errors.New("billing: payment method not found")
	ErrNoDefaultPaymentMethod = errors.New("billing: customer has no default payment method")
	ErrInvalidSignature       = errors.New("billing: webhook signature verification failed")
	ErrMalformedEvent         = errors.New("billing: malformed webhook event")
)
