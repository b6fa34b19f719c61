package repositories_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/alenadem/stonecart/app/models"
	"github.com/alenadem/stonecart/app/repositories"
)

func setupRepo(t *testing.T) (*gorm.DB, *repositories.CatalogRepository) {
	t.Helper()

	db, err := gorm.Open(
		sqlite.Open(filepath.Join(t.TempDir(), "test.db")),
		&gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)},
	)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Category{}, &models.Stone{}, &models.Product{},
	))
	return db, repositories.NewCatalogRepository(db)
}

func seedBucket(t *testing.T, db *gorm.DB) (models.Category, models.Stone) {
	t.Helper()
	cat := models.Category{Code: "bracelets", Name: "Браслеты"}
	require.NoError(t, db.Create(&cat).Error)
	st := models.Stone{Code: "amethyst", Name: "Аметист"}
	require.NoError(t, db.Create(&st).Error)
	return cat, st
}

func TestGetOrCreateCategoryResolution(t *testing.T) {
	db, repo := setupRepo(t)
	seeded, _ := seedBucket(t, db)

	// Case-insensitive name match.
	got, err := repo.GetOrCreateCategory("бРАСЛЕТЫ")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, got.ID)

	// Slug-of-input matches the existing code.
	got, err = repo.GetOrCreateCategory("Bracelets")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, got.ID)

	// Unknown name creates a new row with a slugged code.
	created, err := repo.GetOrCreateCategory("Кольца")
	require.NoError(t, err)
	assert.Equal(t, "kolca", created.Code)
	assert.Equal(t, "Кольца", created.Name)

	var count int64
	require.NoError(t, db.Model(&models.Category{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestCreateProductRejectsDuplicate(t *testing.T) {
	db, repo := setupRepo(t)
	cat, st := seedBucket(t, db)

	p := models.Product{
		Title: "Браслет «Аметист люкс»", Price: 3500, Stock: 5,
		Photos: models.PhotoList{}, CategoryID: cat.ID, StoneID: st.ID,
	}
	require.NoError(t, repo.CreateProduct(&p))

	dup := models.Product{
		Title: "браслет «АМЕТИСТ ЛЮКС»", Price: 100, Stock: 1,
		Photos: models.PhotoList{}, CategoryID: cat.ID, StoneID: st.ID,
	}
	err := repo.CreateProduct(&dup)
	assert.True(t, errors.Is(err, repositories.ErrDuplicate))

	// Same title under a different stone is allowed.
	other := models.Stone{Code: "citrine", Name: "Цитрин"}
	require.NoError(t, db.Create(&other).Error)
	ok := models.Product{
		Title: "Браслет «Аметист люкс»", Price: 100, Stock: 1,
		Photos: models.PhotoList{}, CategoryID: cat.ID, StoneID: other.ID,
	}
	require.NoError(t, repo.CreateProduct(&ok))
}

func TestDecrementStockIsConditional(t *testing.T) {
	db, repo := setupRepo(t)
	cat, st := seedBucket(t, db)

	p := models.Product{
		Title: "Браслет", Price: 100, Stock: 2,
		Photos: models.PhotoList{}, CategoryID: cat.ID, StoneID: st.ID,
	}
	require.NoError(t, repo.CreateProduct(&p))

	// More than available: refused, row untouched.
	ok, err := repo.DecrementStock(p.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok)
	got, err := repo.GetProduct(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)

	// Exactly available: granted, stock hits zero, never negative.
	ok, err = repo.DecrementStock(p.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	got, _ = repo.GetProduct(p.ID)
	assert.Equal(t, 0, got.Stock)

	ok, err = repo.DecrementStock(p.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteProductsReturnsExistingOnly(t *testing.T) {
	db, repo := setupRepo(t)
	cat, st := seedBucket(t, db)

	a := models.Product{Title: "A", Price: 1, Stock: 1,
		Photos: models.PhotoList{}, CategoryID: cat.ID, StoneID: st.ID}
	b := models.Product{Title: "B", Price: 1, Stock: 1,
		Photos: models.PhotoList{}, CategoryID: cat.ID, StoneID: st.ID}
	require.NoError(t, repo.CreateProduct(&a))
	require.NoError(t, repo.CreateProduct(&b))

	deleted, err := repo.DeleteProducts([]uint{a.ID, b.ID, 12345})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{a.ID, b.ID}, deleted)

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestUpdateFieldsKeepsTitleLowerInSync(t *testing.T) {
	db, repo := setupRepo(t)
	cat, st := seedBucket(t, db)

	p := models.Product{Title: "Старое", Price: 1, Stock: 1,
		Photos: models.PhotoList{}, CategoryID: cat.ID, StoneID: st.ID}
	require.NoError(t, repo.CreateProduct(&p))

	require.NoError(t, repo.UpdateFields(p.ID, map[string]interface{}{"title": "НОВОЕ Имя"}))

	got, err := repo.GetProduct(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "НОВОЕ Имя", got.Title)
	assert.Equal(t, "новое имя", got.TitleLower)

	err = repo.UpdateFields(9999, map[string]interface{}{"price": 5})
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	_ = db
}
