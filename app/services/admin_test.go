package services_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alenadem/stonecart/app/models"
	"github.com/alenadem/stonecart/app/services"
)

func TestAddProductCreatesDimensionsByName(t *testing.T) {
	f := newFixture(t, true)

	p, err := f.admin.AddProduct(services.AddProductInput{
		Category: "Кольца",
		Stone:    "Гранат",
		Title:    "Кольцо «Гранатовый вечер»",
		Price:    4200,
		Stock:    3,
	})
	require.NoError(t, err)

	// Both dimensions were created with slugged codes.
	var cat models.Category
	require.NoError(t, f.db.First(&cat, p.CategoryID).Error)
	assert.Equal(t, "kolca", cat.Code)
	var st models.Stone
	require.NoError(t, f.db.First(&st, p.StoneID).Error)
	assert.Equal(t, "granat", st.Code)

	// The new product is immediately browsable through the cache.
	snap, ok := f.cache.Product(p.ID)
	require.True(t, ok)
	assert.Equal(t, 3, snap.Stock)
	assert.Contains(t, f.cache.Categories(), "kolca")
	assert.Equal(t, []string{"granat"}, f.cache.StonesFor("kolca"))
}

func TestAddProductReusesDimensionCaseInsensitive(t *testing.T) {
	f := newFixture(t, true)

	p, err := f.admin.AddProduct(services.AddProductInput{
		Category: "браслеты", // seeded as "Браслеты"
		Stone:    "АМЕТИСТ",  // seeded as "Аметист"
		Title:    "Браслет «Новый»",
		Price:    1000,
		Stock:    1,
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&models.Category{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	bucket := f.cache.Bucket(services.BucketKey{Category: "bracelets", Stone: "amethyst"})
	assert.Len(t, bucket, 3)
	_ = p
}

func TestAddProductRejectsDuplicateListing(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.admin.AddProduct(services.AddProductInput{
		Category: "Браслеты",
		Stone:    "Аметист",
		Title:    "браслет «АМЕТИСТ ЛЮКС»", // same bucket + title, case differs
		Price:    999,
		Stock:    1,
	})
	assert.True(t, errors.Is(err, services.ErrDuplicateProduct))
}

func TestAddProductCapsPhotos(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.admin.AddProduct(services.AddProductInput{
		Category: "Браслеты",
		Stone:    "Аметист",
		Title:    "Браслет «Фото»",
		Price:    100,
		Stock:    1,
		Photos:   []string{"1", "2", "3", "4", "5", "6"},
	})
	_, ok := services.AsValidation(err)
	assert.True(t, ok)
}

func TestSetStockClampsAtZero(t *testing.T) {
	f := newFixture(t, true)
	pid := f.pid(t, 0)

	require.NoError(t, f.admin.SetStock(pid, -4))

	assert.Equal(t, 0, f.storeStock(t, pid))
	snap, _ := f.cache.Product(pid)
	assert.Equal(t, 0, snap.Stock)
}

func TestSetPriceRefreshesSnapshot(t *testing.T) {
	f := newFixture(t, true)
	pid := f.pid(t, 0)

	require.NoError(t, f.admin.SetPrice(pid, 1490))

	snap, _ := f.cache.Product(pid)
	assert.Equal(t, 1490, snap.Price)

	err := f.admin.SetPrice(999999, 100)
	assert.True(t, errors.Is(err, services.ErrNotFound))
}

func TestDeleteProductSweepsCarts(t *testing.T) {
	f := newFixture(t, true)
	pid := f.pid(t, 0)

	require.NoError(t, f.cart.Add(userA, pid, 2))
	require.NoError(t, f.admin.DeleteProduct(pid))

	_, ok := f.cache.Product(pid)
	assert.False(t, ok)
	assert.Empty(t, f.cart.Items(userA))

	err := f.admin.DeleteProduct(pid)
	assert.True(t, errors.Is(err, services.ErrNotFound))
}

func TestBulkDeleteReportsExistingOnly(t *testing.T) {
	f := newFixture(t, true)
	first, second := f.pid(t, 0), f.pid(t, 1)

	require.NoError(t, f.cart.Add(userB, second, 1))

	deleted, err := f.admin.BulkDelete([]uint{first, second, 424242})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{first, second}, deleted)

	assert.Equal(t, 0, f.cache.Len())
	assert.Empty(t, f.cart.Items(userB))
}

func TestListJoinsDisplayLabels(t *testing.T) {
	f := newFixture(t, true)

	list, err := f.admin.List()
	require.NoError(t, err)
	require.Len(t, list, 2)

	// Newest first.
	assert.Equal(t, "Браслет «Фиолетовый иней»", list[0].Title)
	assert.Equal(t, "Браслеты", list[0].Category)
	assert.Equal(t, "Аметист", list[0].Stone)
}
