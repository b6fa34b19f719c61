// Package services contains the domain core: the in-memory catalog cache,
// the cart reservation ledger, the checkout coordinator and the admin
// mutation service. Services hold all business invariants; controllers above
// them only translate HTTP, repositories below them only run queries.
package services

import (
	"errors"
	"fmt"
)

// Sentinel errors of the domain core. Controllers map these to HTTP statuses.
var (
	// ErrNotFound covers unknown product, category, stone or order ids.
	ErrNotFound = errors.New("services: not found")

	// ErrInsufficientStock is returned when a reservation asks for more
	// units than the cache currently holds. No state is mutated.
	ErrInsufficientStock = errors.New("services: insufficient stock")

	// ErrDuplicateProduct is returned when a product with the same
	// category, stone and title already exists.
	ErrDuplicateProduct = errors.New("services: duplicate product")

	// ErrUnknownSettlement is returned when a payment-succeeded payload
	// matches no pending checkout. Logged as anomalous; never creates
	// an order.
	ErrUnknownSettlement = errors.New("services: unknown settlement payload")

	// ErrDeliveryIncomplete is returned by BeginPayment when the buyer's
	// delivery data is missing or a cart is empty.
	ErrDeliveryIncomplete = errors.New("services: delivery data incomplete")
)

// ValidationError reports a malformed input field. It causes no state change.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("services: invalid %s: %s", e.Field, e.Reason)
}

// AsValidation unwraps err into a *ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
