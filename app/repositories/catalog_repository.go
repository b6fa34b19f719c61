// Package repositories contains the data access layer. Repositories own all
// gorm usage; services above them never build queries directly.
package repositories

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/alenadem/stonecart/app/models"
	"github.com/alenadem/stonecart/pkg/slugify"
)

// ErrDuplicate is returned when an insert violates a uniqueness constraint
// (same category, stone and title).
var ErrDuplicate = errors.New("repositories: duplicate record")

// CatalogRepository handles database operations for categories, stones and
// products. The durable rows it manages are the source of truth the catalog
// cache is rebuilt from.
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// LoadAll reads the complete catalog in three queries. Used to (re)build the
// in-memory cache at boot and after a full reload.
func (r *CatalogRepository) LoadAll() ([]models.Category, []models.Stone, []models.Product, error) {
	var (
		categories []models.Category
		stones     []models.Stone
		products   []models.Product
	)
	if err := r.db.Order("id").Find(&categories).Error; err != nil {
		return nil, nil, nil, fmt.Errorf("repositories: load categories: %w", err)
	}
	if err := r.db.Order("id").Find(&stones).Error; err != nil {
		return nil, nil, nil, fmt.Errorf("repositories: load stones: %w", err)
	}
	if err := r.db.Order("id").Find(&products).Error; err != nil {
		return nil, nil, nil, fmt.Errorf("repositories: load products: %w", err)
	}
	return categories, stones, products, nil
}

// GetProduct looks up a product by primary key.
func (r *CatalogRepository) GetProduct(id uint) (models.Product, error) {
	var p models.Product
	err := r.db.First(&p, id).Error
	return p, err
}

// GetProductJoined returns a product with its category and stone preloaded.
func (r *CatalogRepository) GetProductJoined(id uint) (models.Product, error) {
	var p models.Product
	err := r.db.Preload("Category").Preload("Stone").First(&p, id).Error
	return p, err
}

// ListProducts returns all products, most recently created first, with
// category and stone preloaded. Used by the admin listing.
func (r *CatalogRepository) ListProducts() ([]models.Product, error) {
	var out []models.Product
	err := r.db.Preload("Category").Preload("Stone").
		Order("id desc").
		Find(&out).Error
	return out, err
}

// CreateProduct inserts a new product row. A uniqueness violation on
// (category, stone, title) is reported as ErrDuplicate.
func (r *CatalogRepository) CreateProduct(p *models.Product) error {
	// Pre-check so every driver reports the duplicate the same way.
	var count int64
	err := r.db.Model(&models.Product{}).
		Where("category_id = ? AND stone_id = ? AND title_lower = ?",
			p.CategoryID, p.StoneID, strings.ToLower(strings.TrimSpace(p.Title))).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("repositories: check duplicate: %w", err)
	}
	if count > 0 {
		return ErrDuplicate
	}
	if err := r.db.Create(p).Error; err != nil {
		return fmt.Errorf("repositories: create product: %w", err)
	}
	return nil
}

// DeleteProduct removes one product row (hard delete).
func (r *CatalogRepository) DeleteProduct(id uint) error {
	res := r.db.Unscoped().Delete(&models.Product{}, id)
	if res.Error != nil {
		return fmt.Errorf("repositories: delete product %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteProducts removes all given products in one transaction and returns
// the ids that actually existed.
func (r *CatalogRepository) DeleteProducts(ids []uint) ([]uint, error) {
	var deleted []uint
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			res := tx.Unscoped().Delete(&models.Product{}, id)
			if res.Error != nil {
				return fmt.Errorf("repositories: delete product %d: %w", id, res.Error)
			}
			if res.RowsAffected > 0 {
				deleted = append(deleted, id)
			}
		}
		return nil
	})
	return deleted, err
}

// UpdateFields applies a partial update to a product row.
func (r *CatalogRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	if title, ok := fields["title"].(string); ok {
		fields["title_lower"] = strings.ToLower(strings.TrimSpace(title))
	}
	res := r.db.Model(&models.Product{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("repositories: update product %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementStock atomically subtracts qty from the product's stock, but only
// when enough stock remains. Returns false when the row was not decremented
// (missing row or insufficient stock). Durable stock never goes negative.
func (r *CatalogRepository) DecrementStock(id uint, qty int) (bool, error) {
	res := r.db.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, fmt.Errorf("repositories: decrement stock %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ─── Category / Stone resolution ──────────────────────────────────────────────

// GetOrCreateCategory resolves a category by case-insensitive display name or
// by its deterministic slug. Unresolved names create a new row with a
// collision-safe code (numeric suffix appended until unique).
func (r *CatalogRepository) GetOrCreateCategory(name string) (models.Category, error) {
	name = strings.TrimSpace(name)
	code := slugify.Slug(name)

	var cat models.Category
	err := r.db.Where("LOWER(name) = ? OR code = ?", strings.ToLower(name), code).
		First(&cat).Error
	if err == nil {
		return cat, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return cat, fmt.Errorf("repositories: find category: %w", err)
	}

	uniqueCode, err := r.uniqueCode(&models.Category{}, code)
	if err != nil {
		return cat, err
	}
	cat = models.Category{Code: uniqueCode, Name: name}
	if err := r.db.Create(&cat).Error; err != nil {
		return cat, fmt.Errorf("repositories: create category: %w", err)
	}
	return cat, nil
}

// GetOrCreateStone is the stone-dimension twin of GetOrCreateCategory.
func (r *CatalogRepository) GetOrCreateStone(name string) (models.Stone, error) {
	name = strings.TrimSpace(name)
	code := slugify.Slug(name)

	var stone models.Stone
	err := r.db.Where("LOWER(name) = ? OR code = ?", strings.ToLower(name), code).
		First(&stone).Error
	if err == nil {
		return stone, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return stone, fmt.Errorf("repositories: find stone: %w", err)
	}

	uniqueCode, err := r.uniqueCode(&models.Stone{}, code)
	if err != nil {
		return stone, err
	}
	stone = models.Stone{Code: uniqueCode, Name: name}
	if err := r.db.Create(&stone).Error; err != nil {
		return stone, fmt.Errorf("repositories: create stone: %w", err)
	}
	return stone, nil
}

// uniqueCode appends "-2", "-3", … to base until no row of model carries it.
func (r *CatalogRepository) uniqueCode(model interface{}, base string) (string, error) {
	code := base
	for n := 2; ; n++ {
		var count int64
		if err := r.db.Model(model).Where("code = ?", code).Count(&count).Error; err != nil {
			return "", fmt.Errorf("repositories: check code %q: %w", code, err)
		}
		if count == 0 {
			return code, nil
		}
		code = fmt.Sprintf("%s-%d", base, n)
	}
}
