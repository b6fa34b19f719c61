package validate_test

import (
	"testing"

	"github.com/alenadem/stonecart/pkg/validate"
)

type productInput struct {
	Category    string `json:"category"    validate:"required,min=2,max=128"`
	Stone       string `json:"stone"       validate:"required,min=2,max=128"`
	Title       string `json:"title"       validate:"required,min=2,max=256"`
	Price       int    `json:"price"       validate:"required,gt=0"`
	Stock       int    `json:"stock"       validate:"gte=0"`
	Description string `json:"description" validate:"nullable,max=2000"`
}

func TestValidInput(t *testing.T) {
	errs := validate.Struct(productInput{
		Category: "Браслеты",
		Stone:    "Аметист",
		Title:    "Браслет «Аметист люкс»",
		Price:    3500,
		Stock:    5,
	})
	if validate.HasErrors(errs) {
		t.Errorf("expected no errors, got: %v", errs)
	}
}

func TestRequiredFails(t *testing.T) {
	errs := validate.Struct(productInput{})
	if !validate.HasErrors(errs) {
		t.Error("expected required errors")
	}
	if _, ok := errs["title"]; !ok {
		t.Error("expected title to be required")
	}
	if _, ok := errs["price"]; !ok {
		t.Error("expected price to be required")
	}
}

func TestEmailRule(t *testing.T) {
	type in struct {
		Email string `json:"email" validate:"required,email"`
	}
	errs := validate.Struct(in{Email: "not-an-email"})
	if _, ok := errs["email"]; !ok {
		t.Error("expected email validation error")
	}
	errs = validate.Struct(in{Email: "valid@example.com"})
	if validate.HasErrors(errs) {
		t.Errorf("expected no errors, got: %v", errs)
	}
}

func TestInRuleKeepsMultiValueParams(t *testing.T) {
	type in struct {
		Carrier string `json:"carrier" validate:"required,in=cdek,yandex,post,max=16"`
	}
	errs := validate.Struct(in{Carrier: "yandex"})
	if validate.HasErrors(errs) {
		t.Errorf("expected no errors, got: %v", errs)
	}
	errs = validate.Struct(in{Carrier: "dhl"})
	if _, ok := errs["carrier"]; !ok {
		t.Error("expected carrier in-rule error")
	}
}

func TestNumericBounds(t *testing.T) {
	type in struct {
		Qty int `json:"qty" validate:"required,between=1,99"`
	}
	if errs := validate.Struct(in{Qty: 100}); !validate.HasErrors(errs) {
		t.Error("expected between error for 100")
	}
	if errs := validate.Struct(in{Qty: 5}); validate.HasErrors(errs) {
		t.Errorf("expected no errors, got: %v", errs)
	}
}
