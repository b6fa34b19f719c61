package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/alenadem/stonecart/app/models"
	"github.com/alenadem/stonecart/app/repositories"
	"github.com/alenadem/stonecart/pkg/cache"
	"github.com/alenadem/stonecart/pkg/event"
	"github.com/alenadem/stonecart/pkg/logger"
	"github.com/alenadem/stonecart/pkg/metrics"
)

const (
	adminListCacheKey = "admin:products"
	adminListCacheTTL = time.Minute
)

// AddProductInput carries everything needed to create a listing. Category
// and Stone are localized display names; unknown names create new rows.
type AddProductInput struct {
	Category    string   `json:"category"    validate:"required,min=2,max=128"`
	Stone       string   `json:"stone"       validate:"required,min=2,max=128"`
	Title       string   `json:"title"       validate:"required,min=2,max=256"`
	Price       int      `json:"price"       validate:"required,gt=0"`
	Stock       int      `json:"stock"       validate:"gte=0"`
	Description string   `json:"description" validate:"nullable,max=2000"`
	Photos      []string `json:"photos"`
}

// AdminProduct is one row of the admin listing, joined with display labels.
type AdminProduct struct {
	ID          uint     `json:"id"`
	Title       string   `json:"title"`
	Price       int      `json:"price"`
	Stock       int      `json:"stock"`
	Description string   `json:"description"`
	Photos      []string `json:"photos"`
	Category    string   `json:"category"`
	Stone       string   `json:"stone"`
}

// Admin is the catalog mutation service. Every mutation is a store write
// followed by exactly one cache reconciliation (RefreshOne or DeleteOne) and
// an invalidation of the Redis-cached listing.
type Admin struct {
	cache   *CatalogCache
	cart    *Cart
	catalog *repositories.CatalogRepository
}

func NewAdmin(catalogCache *CatalogCache, cart *Cart, catalog *repositories.CatalogRepository) *Admin {
	return &Admin{cache: catalogCache, cart: cart, catalog: catalog}
}

// AddProduct creates a listing. Category and stone are resolved or created
// by name; a product with the same (category, stone, title) is rejected with
// ErrDuplicateProduct. Photos beyond the cap are rejected.
func (s *Admin) AddProduct(in AddProductInput) (models.Product, error) {
	if len(in.Photos) > models.MaxPhotos {
		return models.Product{}, &ValidationError{Field: "photos", Reason: "at most 5 photos"}
	}
	if strings.TrimSpace(in.Title) == "" {
		return models.Product{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if in.Price <= 0 {
		return models.Product{}, &ValidationError{Field: "price", Reason: "must be positive"}
	}
	if in.Stock < 0 {
		return models.Product{}, &ValidationError{Field: "stock", Reason: "must not be negative"}
	}

	category, err := s.catalog.GetOrCreateCategory(in.Category)
	if err != nil {
		return models.Product{}, err
	}
	stone, err := s.catalog.GetOrCreateStone(in.Stone)
	if err != nil {
		return models.Product{}, err
	}
	s.cache.RegisterCategory(category)
	s.cache.RegisterStone(stone)

	product := models.Product{
		Title:       strings.TrimSpace(in.Title),
		Price:       in.Price,
		Stock:       in.Stock,
		Description: in.Description,
		Photos:      models.PhotoList(in.Photos),
		CategoryID:  category.ID,
		StoneID:     stone.ID,
	}
	if err := s.catalog.CreateProduct(&product); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return models.Product{}, ErrDuplicateProduct
		}
		return models.Product{}, err
	}

	if err := s.cache.RefreshOne(s.catalog, product.ID); err != nil {
		return models.Product{}, err
	}
	s.invalidateList()

	logger.Info("admin: product added", "product_id", product.ID,
		"category", category.Code, "stone", stone.Code, "title", product.Title)
	return product, nil
}

// DeleteProduct removes one listing and purges it from every cart.
func (s *Admin) DeleteProduct(id uint) error {
	if err := s.catalog.DeleteProduct(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.cache.DeleteOne(id)
	s.cart.DropProduct(id)
	s.invalidateList()
	event.Fire(event.ProductDeleted, id)

	logger.Info("admin: product deleted", "product_id", id)
	return nil
}

// BulkDelete removes all given listings in one transaction, reconciles the
// cache per id, then sweeps orphan references out of every cart. Returns
// the ids that actually existed.
func (s *Admin) BulkDelete(ids []uint) ([]uint, error) {
	deleted, err := s.catalog.DeleteProducts(ids)
	if err != nil {
		return nil, err
	}

	for _, id := range deleted {
		s.cache.DeleteOne(id)
		s.cart.DropProduct(id)
		event.Fire(event.ProductDeleted, id)
	}
	s.invalidateList()

	logger.Info("admin: bulk delete", "requested", len(ids), "deleted", len(deleted))
	return deleted, nil
}

// SetStock sets the durable stock baseline, clamped at zero.
func (s *Admin) SetStock(id uint, qty int) error {
	if qty < 0 {
		qty = 0
	}
	return s.updateAndRefresh(id, map[string]interface{}{"stock": qty})
}

// SetPrice updates a product's price.
func (s *Admin) SetPrice(id uint, price int) error {
	if price <= 0 {
		return &ValidationError{Field: "price", Reason: "must be positive"}
	}
	return s.updateAndRefresh(id, map[string]interface{}{"price": price})
}

// SetTitle updates a product's title.
func (s *Admin) SetTitle(id uint, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	return s.updateAndRefresh(id, map[string]interface{}{"title": title})
}

// SetDescription updates a product's description.
func (s *Admin) SetDescription(id uint, description string) error {
	return s.updateAndRefresh(id, map[string]interface{}{"description": description})
}

func (s *Admin) updateAndRefresh(id uint, fields map[string]interface{}) error {
	if err := s.catalog.UpdateFields(id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := s.cache.RefreshOne(s.catalog, id); err != nil {
		return err
	}
	s.invalidateList()
	return nil
}

// List returns all products newest first with display labels, served from
// the Redis read-through cache when warm. Redis here is advisory only; the
// database is always the fallback.
func (s *Admin) List() ([]AdminProduct, error) {
	var cached []AdminProduct
	if cache.Get(adminListCacheKey, &cached) {
		metrics.CacheHits.WithLabelValues(adminListCacheKey).Inc()
		return cached, nil
	}
	metrics.CacheMisses.WithLabelValues(adminListCacheKey).Inc()

	products, err := s.catalog.ListProducts()
	if err != nil {
		return nil, err
	}

	out := make([]AdminProduct, len(products))
	for i, p := range products {
		out[i] = AdminProduct{
			ID:          p.ID,
			Title:       p.Title,
			Price:       p.Price,
			Stock:       p.Stock,
			Description: p.Description,
			Photos:      p.Photos,
			Category:    p.Category.Name,
			Stone:       p.Stone.Name,
		}
	}

	if err := cache.Set(adminListCacheKey, out, adminListCacheTTL); err != nil {
		logger.Warn("admin: list cache set failed", "err", err)
	}
	return out, nil
}

func (s *Admin) invalidateList() {
	if err := cache.Del(adminListCacheKey); err != nil {
		logger.Warn("admin: list cache invalidation failed", "err", err)
	}
}
