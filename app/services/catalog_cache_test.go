package services_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/alenadem/stonecart/app/models"
	"github.com/alenadem/stonecart/app/services"
)

// ─── Fake catalog source ──────────────────────────────────────────────────────

type fakeSource struct {
	categories []models.Category
	stones     []models.Stone
	products   []models.Product
}

func (f *fakeSource) LoadAll() ([]models.Category, []models.Stone, []models.Product, error) {
	return f.categories, f.stones, f.products, nil
}

func (f *fakeSource) GetProduct(id uint) (models.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Product{}, gorm.ErrRecordNotFound
}

func (f *fakeSource) remove(id uint) {
	for i, p := range f.products {
		if p.ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return
		}
	}
}

func (f *fakeSource) setStock(id uint, stock int) {
	for i := range f.products {
		if f.products[i].ID == id {
			f.products[i].Stock = stock
		}
	}
}

func category(id uint, code, name string) models.Category {
	return models.Category{Model: gorm.Model{ID: id}, Code: code, Name: name}
}

func stone(id uint, code, name string) models.Stone {
	return models.Stone{Model: gorm.Model{ID: id}, Code: code, Name: name}
}

func product(id, catID, stoneID uint, title string, price, stock int) models.Product {
	return models.Product{
		Model:      gorm.Model{ID: id},
		Title:      title,
		Price:      price,
		Stock:      stock,
		Photos:     models.PhotoList{},
		CategoryID: catID,
		StoneID:    stoneID,
	}
}

func demoSource() *fakeSource {
	return &fakeSource{
		categories: []models.Category{
			category(1, "bracelets", "Браслеты"),
			category(2, "necklaces", "Ожерелья"),
		},
		stones: []models.Stone{
			stone(1, "amethyst", "Аметист"),
			stone(2, "garnet", "Гранат"),
		},
		products: []models.Product{
			product(101, 1, 1, "Браслет «Аметист люкс»", 3500, 5),
			product(102, 1, 1, "Браслет «Фиолетовый иней»", 2900, 3),
			product(201, 2, 2, "Ожерелье «Гранатовая ночь»", 5200, 2),
		},
	}
}

// ─── Load ────────────────────────────────────────────────────────────────────

func TestLoadBuildsBothIndexes(t *testing.T) {
	src := demoSource()
	cache := services.NewCatalogCache()
	require.NoError(t, cache.Load(src))

	assert.Equal(t, 3, cache.Len())

	snap, ok := cache.Product(101)
	require.True(t, ok)
	assert.Equal(t, "Браслет «Аметист люкс»", snap.Title)
	assert.Equal(t, 5, snap.Stock)

	bucket := cache.Bucket(services.BucketKey{Category: "bracelets", Stone: "amethyst"})
	require.Len(t, bucket, 2)
	assert.Equal(t, uint(101), bucket[0].ID) // insertion order preserved
	assert.Equal(t, uint(102), bucket[1].ID)

	assert.Equal(t, []string{"bracelets", "necklaces"}, cache.Categories())
	assert.Equal(t, []string{"amethyst"}, cache.StonesFor("bracelets"))

	name, ok := cache.CategoryName("necklaces")
	require.True(t, ok)
	assert.Equal(t, "Ожерелья", name)
}

func TestLoadSkipsDanglingReferences(t *testing.T) {
	src := demoSource()
	src.products = append(src.products, product(999, 42, 1, "Призрак", 100, 1))

	cache := services.NewCatalogCache()
	require.NoError(t, cache.Load(src))

	assert.Equal(t, 3, cache.Len())
	_, ok := cache.Product(999)
	assert.False(t, ok)
}

func TestLoadWipesPreviousState(t *testing.T) {
	src := demoSource()
	cache := services.NewCatalogCache()
	require.NoError(t, cache.Load(src))

	src.remove(101)
	require.NoError(t, cache.Load(src))

	assert.Equal(t, 2, cache.Len())
	_, ok := cache.Product(101)
	assert.False(t, ok)
}

// ─── Single-row maintenance ──────────────────────────────────────────────────

func TestUpsertMovesBetweenBuckets(t *testing.T) {
	src := demoSource()
	cache := services.NewCatalogCache()
	require.NoError(t, cache.Load(src))

	from := services.BucketKey{Category: "bracelets", Stone: "amethyst"}
	to := services.BucketKey{Category: "necklaces", Stone: "garnet"}

	snap, _ := cache.Product(102)
	cache.UpsertOne(to, snap)

	assert.Len(t, cache.Bucket(from), 1)
	assert.Len(t, cache.Bucket(to), 2)
	assert.Equal(t, 3, cache.Len())
}

func TestDeleteOneDropsBothIndexes(t *testing.T) {
	src := demoSource()
	cache := services.NewCatalogCache()
	require.NoError(t, cache.Load(src))

	cache.DeleteOne(201)

	_, ok := cache.Product(201)
	assert.False(t, ok)
	assert.Empty(t, cache.Bucket(services.BucketKey{Category: "necklaces", Stone: "garnet"}))
	assert.Empty(t, cache.StonesFor("necklaces"))
}

func TestRefreshOneReplacesSnapshot(t *testing.T) {
	src := demoSource()
	cache := services.NewCatalogCache()
	require.NoError(t, cache.Load(src))

	src.setStock(101, 9)
	require.NoError(t, cache.RefreshOne(src, 101))

	snap, _ := cache.Product(101)
	assert.Equal(t, 9, snap.Stock)
}

func TestRefreshOneRemovesVanishedRow(t *testing.T) {
	src := demoSource()
	cache := services.NewCatalogCache()
	require.NoError(t, cache.Load(src))

	src.remove(101)
	require.NoError(t, cache.RefreshOne(src, 101))

	_, ok := cache.Product(101)
	assert.False(t, ok)
}

// ─── Stock mutators ──────────────────────────────────────────────────────────

func TestReserveStock(t *testing.T) {
	src := demoSource()
	cache := services.NewCatalogCache()
	require.NoError(t, cache.Load(src))

	require.NoError(t, cache.ReserveStock(101, 3))
	snap, _ := cache.Product(101)
	assert.Equal(t, 2, snap.Stock)

	// Over-reserving mutates nothing.
	err := cache.ReserveStock(101, 3)
	assert.True(t, errors.Is(err, services.ErrInsufficientStock))
	snap, _ = cache.Product(101)
	assert.Equal(t, 2, snap.Stock)

	err = cache.ReserveStock(777, 1)
	assert.True(t, errors.Is(err, services.ErrNotFound))
}

func TestReleaseStock(t *testing.T) {
	src := demoSource()
	cache := services.NewCatalogCache()
	require.NoError(t, cache.Load(src))

	require.NoError(t, cache.ReserveStock(101, 5))
	cache.ReleaseStock(101, 2)

	snap, _ := cache.Product(101)
	assert.Equal(t, 2, snap.Stock)

	// Releasing for a deleted product is a no-op.
	cache.ReleaseStock(888, 4)
}

func TestReadersReturnCopies(t *testing.T) {
	src := demoSource()
	src.products[0].Photos = models.PhotoList{"photos/a.jpg"}

	cache := services.NewCatalogCache()
	require.NoError(t, cache.Load(src))

	snap, _ := cache.Product(101)
	snap.Photos[0] = "mutated"

	again, _ := cache.Product(101)
	assert.Equal(t, "photos/a.jpg", again.Photos[0])
}
