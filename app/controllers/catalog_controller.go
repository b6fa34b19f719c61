package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/alenadem/stonecart/app/services"
	"github.com/alenadem/stonecart/pkg/response"
)

// CatalogController serves the public browsing API straight from the
// in-memory catalog cache. It never touches the database.
type CatalogController struct {
	cache  *services.CatalogCache
	browse *services.Browse
}

func NewCatalogController(cache *services.CatalogCache, browse *services.Browse) *CatalogController {
	return &CatalogController{cache: cache, browse: browse}
}

// Categories lists all category codes with display names.
// GET /api/catalog/categories
func (c *CatalogController) Categories(w http.ResponseWriter, _ *http.Request) {
	type entry struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	codes := c.cache.Categories()
	out := make([]entry, 0, len(codes))
	for _, code := range codes {
		name, _ := c.cache.CategoryName(code)
		out = append(out, entry{Code: code, Name: name})
	}
	response.Success(w, out)
}

// Stones lists the stones with products under a category.
// GET /api/catalog/categories/{category}/stones
func (c *CatalogController) Stones(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	if _, ok := c.cache.CategoryName(category); !ok {
		response.NotFound(w)
		return
	}

	type entry struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	codes := c.cache.StonesFor(category)
	out := make([]entry, 0, len(codes))
	for _, code := range codes {
		name, _ := c.cache.StoneName(code)
		out = append(out, entry{Code: code, Name: name})
	}
	response.Success(w, out)
}

// Products serves bucket navigation. With category+stone it opens the bucket
// (optionally at ?idx=N); with ?nav=next|prev|current it steps the caller's
// stored position.
// GET /api/catalog/products?category=&stone=&idx=&nav=
func (c *CatalogController) Products(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	var (
		view services.BrowseView
		err  error
	)

	switch nav := r.URL.Query().Get("nav"); nav {
	case "next":
		view, err = c.browse.Next(user)
	case "prev":
		view, err = c.browse.Prev(user)
	case "current":
		view, err = c.browse.Current(user)
	case "":
		key := services.BucketKey{
			Category: r.URL.Query().Get("category"),
			Stone:    r.URL.Query().Get("stone"),
		}
		if key.Category == "" || key.Stone == "" {
			response.ValidationError(w, map[string]string{
				"category": "The category and stone parameters are required.",
			})
			return
		}
		if raw := r.URL.Query().Get("idx"); raw != "" {
			idx, convErr := strconv.Atoi(raw)
			if convErr != nil || idx < 0 {
				response.ValidationError(w, map[string]string{"idx": "The idx must be a non-negative integer."})
				return
			}
			view, err = c.browse.At(user, key, idx)
		} else {
			view, err = c.browse.Open(user, key)
		}
	default:
		response.ValidationError(w, map[string]string{"nav": "The selected nav is invalid."})
		return
	}

	if err != nil {
		serviceError(w, err)
		return
	}
	response.Success(w, view)
}
