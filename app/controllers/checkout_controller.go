package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/alenadem/stonecart/app/services"
	"github.com/alenadem/stonecart/pkg/response"
)

// CheckoutController collects delivery data and starts payments.
type CheckoutController struct {
	checkout *services.Checkout
}

func NewCheckoutController(checkout *services.Checkout) *CheckoutController {
	return &CheckoutController{checkout: checkout}
}

// Show returns the caller's delivery context plus the carrier options.
// GET /api/delivery
func (c *CheckoutController) Show(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	response.Success(w, map[string]interface{}{
		"delivery": c.checkout.Delivery(user),
		"carriers": c.checkout.Carriers(),
	})
}

// SetCarrier selects the delivery carrier.
// PUT /api/delivery/carrier  {"carrier": "cdek"}
func (c *CheckoutController) SetCarrier(w http.ResponseWriter, r *http.Request) {
	c.setField(w, r, "carrier", c.checkout.SetCarrier)
}

// SetPhone stores the validated phone number.
// PUT /api/delivery/phone  {"phone": "+7 (912) 345-67-89"}
func (c *CheckoutController) SetPhone(w http.ResponseWriter, r *http.Request) {
	c.setField(w, r, "phone", c.checkout.SetPhone)
}

// SetEmail stores the validated email.
// PUT /api/delivery/email  {"email": "buyer@example.com"}
func (c *CheckoutController) SetEmail(w http.ResponseWriter, r *http.Request) {
	c.setField(w, r, "email", c.checkout.SetEmail)
}

// SetAddress stores the free-text address or pickup point.
// PUT /api/delivery/address  {"address": "Москва, ПВЗ №42"}
func (c *CheckoutController) SetAddress(w http.ResponseWriter, r *http.Request) {
	c.setField(w, r, "address", c.checkout.SetAddress)
}

func (c *CheckoutController) setField(
	w http.ResponseWriter, r *http.Request,
	field string, set func(int64, string) error,
) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}
	value, present := body[field]
	if !present {
		response.ValidationError(w, map[string]string{field: "The " + field + " field is required."})
		return
	}

	if err := set(user, value); err != nil {
		serviceError(w, err)
		return
	}
	response.Success(w, c.checkout.Delivery(user))
}

// Begin snapshots the cart into a payment request.
// POST /api/checkout
func (c *CheckoutController) Begin(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	req, err := c.checkout.BeginPayment(user)
	if err != nil {
		serviceError(w, err)
		return
	}
	response.Created(w, req)
}
