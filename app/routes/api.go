// Package routes wires controllers onto the named-route router.
package routes

import (
	"net/http"

	"github.com/alenadem/stonecart/app/controllers"
	"github.com/alenadem/stonecart/pkg/metrics"
	"github.com/alenadem/stonecart/pkg/middleware"
	"github.com/alenadem/stonecart/pkg/response"
	"github.com/alenadem/stonecart/pkg/router"
)

// Controllers groups everything RegisterAPI mounts. Built in internal/server
// after the services are wired.
type Controllers struct {
	Catalog  *controllers.CatalogController
	Cart     *controllers.CartController
	Checkout *controllers.CheckoutController
	Payment  *controllers.PaymentController
	Admin    *controllers.AdminController
}

func RegisterAPI(r *router.Router, c Controllers) {
	r.Get("/healthz", "healthz", func(w http.ResponseWriter, _ *http.Request) {
		response.Success(w, map[string]string{"status": "ok"})
	})
	r.Get("/metrics", "metrics", metrics.Handler())

	api := r.Group("/api")

	catalog := api.Group("/catalog")
	catalog.Get("/categories", "catalog.categories", c.Catalog.Categories)
	catalog.Get("/categories/{category}/stones", "catalog.stones", c.Catalog.Stones)
	catalog.Get("/products", "catalog.products", c.Catalog.Products)

	cart := api.Group("/cart")
	cart.Get("", "cart.show", c.Cart.Show)
	cart.Delete("", "cart.clear", c.Cart.Clear)
	cart.Post("/items", "cart.add", c.Cart.AddItem)
	cart.Delete("/items/{pid}", "cart.decrement", c.Cart.DecrementItem)

	delivery := api.Group("/delivery")
	delivery.Get("", "delivery.show", c.Checkout.Show)
	delivery.Put("/carrier", "delivery.carrier", c.Checkout.SetCarrier)
	delivery.Put("/phone", "delivery.phone", c.Checkout.SetPhone)
	delivery.Put("/email", "delivery.email", c.Checkout.SetEmail)
	delivery.Put("/address", "delivery.address", c.Checkout.SetAddress)

	api.Post("/checkout", "checkout.begin", c.Checkout.Begin)
	api.Post("/payments/settle", "payments.settle", c.Payment.Settle)

	admin := api.Group("/admin", middleware.AdminAuth)
	admin.Get("/products", "admin.products.list", c.Admin.List)
	admin.Post("/products", "admin.products.create", c.Admin.Create)
	admin.Delete("/products", "admin.products.bulk_delete", c.Admin.BulkDelete)
	admin.Delete("/products/{id}", "admin.products.delete", c.Admin.Delete)
	admin.Patch("/products/{id}", "admin.products.update", c.Admin.Update)
	admin.Post("/photos", "admin.photos.upload", c.Admin.UploadPhoto)
}
