package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alenadem/stonecart/app/services"
	"github.com/alenadem/stonecart/pkg/response"
	"github.com/alenadem/stonecart/pkg/validate"
)

// CartController exposes the reservation ledger.
type CartController struct {
	cart *services.Cart
}

func NewCartController(cart *services.Cart) *CartController {
	return &CartController{cart: cart}
}

type cartSummary struct {
	Lines []services.CartLine `json:"lines"`
	Units int                 `json:"units"`
	Total int                 `json:"total"`
}

// Show returns the caller's cart joined with live catalog data.
// GET /api/cart
func (c *CartController) Show(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	lines := c.cart.Lines(user)
	units, total := 0, 0
	for _, l := range lines {
		units += l.Qty
		total += l.Price * l.Qty
	}
	response.Success(w, cartSummary{Lines: lines, Units: units, Total: total})
}

// AddItem reserves stock for the caller.
// POST /api/cart/items  {"product_id": 101, "qty": 2}
func (c *CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	var body struct {
		ProductID uint `json:"product_id" validate:"required"`
		Qty       int  `json:"qty"        validate:"required,between=1,99"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}
	if errs := validate.Struct(body); validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	if err := c.cart.Add(user, body.ProductID, body.Qty); err != nil {
		serviceError(w, err)
		return
	}
	response.Success(w, c.cart.Lines(user))
}

// DecrementItem releases one unit of the given product.
// DELETE /api/cart/items/{pid}
func (c *CartController) DecrementItem(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	pid, err := pathUint(chi.URLParam(r, "pid"))
	if err != nil {
		response.ValidationError(w, map[string]string{"pid": "The pid must be an integer."})
		return
	}

	if err := c.cart.Decrement(user, pid); err != nil {
		serviceError(w, err)
		return
	}
	response.Success(w, c.cart.Lines(user))
}

// Clear abandons the caller's cart, restoring all reserved stock.
// DELETE /api/cart
func (c *CartController) Clear(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	c.cart.Clear(user, true)
	response.Success(w, map[string]string{"status": "cleared"})
}
