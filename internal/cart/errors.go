package cart

import "errors"

var (
	// ErrBusy rejects an operation started while another one is in flight. No call is made.
	ErrBusy         = errors.New("cart is busy")
	ErrItemNotFound = errors.New("cart item not found")
)
