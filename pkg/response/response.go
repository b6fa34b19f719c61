// Package response renders the JSON envelope shared by all API handlers:
//
//	{"status": 200, "data": {...}}
//	{"status": 422, "message": "Validation failed", "errors": {"qty": "..."}}
package response

import (
	"encoding/json"
	"net/http"
)

type envelope struct {
	Status  int         `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Success sends 200 with data.
func Success(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusOK, envelope{Status: http.StatusOK, Data: data})
}

// Created sends 201 with data.
func Created(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusCreated, envelope{Status: http.StatusCreated, Data: data})
}

// Error sends status with a human-readable message.
func Error(w http.ResponseWriter, status int, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	write(w, status, envelope{Status: status, Message: message})
}

// ValidationError sends 422 with a field-to-reason map.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	write(w, http.StatusUnprocessableEntity, envelope{
		Status:  http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Errors:  errs,
	})
}

// Conflict sends 409. Used for duplicate listings and lost stock races.
func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, message)
}

func Unauthorized(w http.ResponseWriter) { Error(w, http.StatusUnauthorized, "") }
func Forbidden(w http.ResponseWriter)    { Error(w, http.StatusForbidden, "") }
func NotFound(w http.ResponseWriter)     { Error(w, http.StatusNotFound, "Not found") }
