// Package controllers translates HTTP requests into service calls. All
// domain rules live in app/services; a controller only binds input, picks
// the user identity and maps service errors onto status codes.
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/alenadem/stonecart/app/services"
	"github.com/alenadem/stonecart/pkg/response"
)

// userHeader carries the chat user identity. The chat transport in front of
// this API resolves its own authentication and forwards the numeric id.
const userHeader = "X-User-ID"

// userID extracts the acting user from the request. Writes a 422 and
// returns false when the header is missing or malformed.
func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.Header.Get(userHeader)
	if raw == "" {
		response.ValidationError(w, map[string]string{
			"user": "The " + userHeader + " header is required.",
		})
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		response.ValidationError(w, map[string]string{
			"user": "The " + userHeader + " header must be an integer.",
		})
		return 0, false
	}
	return id, true
}

// serviceError maps domain errors onto HTTP responses.
func serviceError(w http.ResponseWriter, err error) {
	if ve, ok := services.AsValidation(err); ok {
		response.ValidationError(w, map[string]string{ve.Field: ve.Reason})
		return
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		response.NotFound(w)
	case errors.Is(err, services.ErrInsufficientStock):
		response.Conflict(w, "Insufficient stock")
	case errors.Is(err, services.ErrDuplicateProduct):
		response.Conflict(w, "Product already exists")
	case errors.Is(err, services.ErrDeliveryIncomplete):
		response.Conflict(w, "Delivery data incomplete")
	case errors.Is(err, services.ErrUnknownSettlement):
		response.Error(w, http.StatusNotFound, "Unknown payment payload")
	default:
		response.Error(w, http.StatusInternalServerError, "Internal error")
	}
}

// pathUint parses a chi URL parameter as uint.
func pathUint(raw string) (uint, error) {
	v, err := strconv.ParseUint(raw, 10, 32)
	return uint(v), err
}
