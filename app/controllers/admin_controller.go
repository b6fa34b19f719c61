package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/alenadem/stonecart/app/services"
	"github.com/alenadem/stonecart/pkg/response"
	"github.com/alenadem/stonecart/pkg/storage"
	"github.com/alenadem/stonecart/pkg/validate"
)

// maxPhotoUpload caps a single photo upload at 10 MiB.
const maxPhotoUpload = 10 << 20

// AdminController exposes the catalog mutation API. Every route behind it is
// guarded by the bearer-token middleware.
type AdminController struct {
	admin *services.Admin
}

func NewAdminController(admin *services.Admin) *AdminController {
	return &AdminController{admin: admin}
}

// List returns all products, newest first.
// GET /api/admin/products
func (c *AdminController) List(w http.ResponseWriter, _ *http.Request) {
	products, err := c.admin.List()
	if err != nil {
		serviceError(w, err)
		return
	}
	response.Success(w, products)
}

// Create adds a product listing.
// POST /api/admin/products
func (c *AdminController) Create(w http.ResponseWriter, r *http.Request) {
	var in services.AddProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	product, err := c.admin.AddProduct(in)
	if err != nil {
		serviceError(w, err)
		return
	}
	response.Created(w, product)
}

// Delete removes one product.
// DELETE /api/admin/products/{id}
func (c *AdminController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUint(chi.URLParam(r, "id"))
	if err != nil {
		response.ValidationError(w, map[string]string{"id": "The id must be an integer."})
		return
	}
	if err := c.admin.DeleteProduct(id); err != nil {
		serviceError(w, err)
		return
	}
	response.Success(w, map[string]uint{"deleted": id})
}

// BulkDelete removes a set of products in one transaction.
// DELETE /api/admin/products  {"ids": [3, 7, 12]}
func (c *AdminController) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []uint `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}
	if len(body.IDs) == 0 {
		response.ValidationError(w, map[string]string{"ids": "The ids field is required."})
		return
	}

	deleted, err := c.admin.BulkDelete(body.IDs)
	if err != nil {
		serviceError(w, err)
		return
	}
	response.Success(w, map[string]interface{}{"deleted": deleted})
}

// Update applies a partial edit: any of stock, price, title, description.
// PATCH /api/admin/products/{id}
func (c *AdminController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathUint(chi.URLParam(r, "id"))
	if err != nil {
		response.ValidationError(w, map[string]string{"id": "The id must be an integer."})
		return
	}

	var body struct {
		Stock       *int    `json:"stock"`
		Price       *int    `json:"price"`
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}
	if body.Stock == nil && body.Price == nil && body.Title == nil && body.Description == nil {
		response.ValidationError(w, map[string]string{"body": "At least one field must be given."})
		return
	}

	if body.Stock != nil {
		if err := c.admin.SetStock(id, *body.Stock); err != nil {
			serviceError(w, err)
			return
		}
	}
	if body.Price != nil {
		if err := c.admin.SetPrice(id, *body.Price); err != nil {
			serviceError(w, err)
			return
		}
	}
	if body.Title != nil {
		if err := c.admin.SetTitle(id, *body.Title); err != nil {
			serviceError(w, err)
			return
		}
	}
	if body.Description != nil {
		if err := c.admin.SetDescription(id, *body.Description); err != nil {
			serviceError(w, err)
			return
		}
	}

	response.Success(w, map[string]uint{"updated": id})
}

// UploadPhoto stores one photo file and returns its opaque reference, which
// can then be passed in AddProductInput.Photos.
// POST /api/admin/photos (multipart, field "photo")
func (c *AdminController) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxPhotoUpload); err != nil {
		response.Error(w, http.StatusBadRequest, "Malformed multipart body")
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		response.ValidationError(w, map[string]string{"photo": "The photo file is required."})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		response.ValidationError(w, map[string]string{"photo": "The photo must be jpg, png or webp."})
		return
	}

	ref := fmt.Sprintf("photos/%s%s", uuid.NewString(), ext)
	if err := storage.PutStream(ref, file); err != nil {
		response.Error(w, http.StatusInternalServerError, "Photo upload failed")
		return
	}

	response.Created(w, map[string]string{
		"reference": ref,
		"url":       storage.URL(ref),
	})
}
