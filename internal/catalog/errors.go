package catalog

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrNothingSelected = errors.New("no product selected")
	ErrStoreMiss       = errors.New("catalog store miss")
)

// FetchError is returned when the product list could not be fetched.
// The previously loaded list is kept.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return "could not load products: " + e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
