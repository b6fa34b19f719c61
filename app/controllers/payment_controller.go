package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/alenadem/stonecart/app/services"
	"github.com/alenadem/stonecart/pkg/response"
	"github.com/alenadem/stonecart/pkg/validate"
)

// PaymentController receives the payment collaborator's webhook.
type PaymentController struct {
	checkout *services.Checkout
}

func NewPaymentController(checkout *services.Checkout) *PaymentController {
	return &PaymentController{checkout: checkout}
}

// Settle consumes a payment-succeeded event. Replayed payloads get a 404 and
// change nothing.
// POST /api/payments/settle
func (c *PaymentController) Settle(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Payload string `json:"payload" validate:"required"`
		Buyer   struct {
			UserID int64  `json:"user_id" validate:"required"`
			ChatID int64  `json:"chat_id"`
			Name   string `json:"name"`
			Handle string `json:"handle"`
		} `json:"buyer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}
	if errs := validate.Struct(body); validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}
	if body.Buyer.UserID == 0 {
		response.ValidationError(w, map[string]string{"user_id": "The user_id field is required."})
		return
	}

	result, err := c.checkout.Settle(body.Payload, services.Buyer{
		UserID: body.Buyer.UserID,
		ChatID: body.Buyer.ChatID,
		Name:   body.Buyer.Name,
		Handle: body.Buyer.Handle,
	})
	if err != nil {
		serviceError(w, err)
		return
	}
	response.Success(w, result)
}
