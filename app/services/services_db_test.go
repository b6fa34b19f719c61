package services_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/alenadem/stonecart/app/models"
	"github.com/alenadem/stonecart/app/repositories"
	"github.com/alenadem/stonecart/app/services"
)

// fixture is the full service graph on a throwaway sqlite database, seeded
// with the demo catalog.
type fixture struct {
	db       *gorm.DB
	catalog  *repositories.CatalogRepository
	orders   *repositories.OrderRepository
	cache    *services.CatalogCache
	cart     *services.Cart
	checkout *services.Checkout
	admin    *services.Admin
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(
		sqlite.Open(filepath.Join(t.TempDir(), "test.db")),
		&gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)},
	)
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Category{}, &models.Stone{}, &models.Product{},
		&models.Order{}, &models.OrderItem{},
	))
	return db
}

func newFixture(t *testing.T, removeOnZero bool) *fixture {
	t.Helper()

	db := setupDB(t)

	bracelets := models.Category{Code: "bracelets", Name: "Браслеты"}
	require.NoError(t, db.Create(&bracelets).Error)
	amethyst := models.Stone{Code: "amethyst", Name: "Аметист"}
	require.NoError(t, db.Create(&amethyst).Error)

	products := []models.Product{
		{Title: "Браслет «Аметист люкс»", Price: 3500, Stock: 5,
			Photos: models.PhotoList{}, CategoryID: bracelets.ID, StoneID: amethyst.ID},
		{Title: "Браслет «Фиолетовый иней»", Price: 2900, Stock: 2,
			Photos: models.PhotoList{}, CategoryID: bracelets.ID, StoneID: amethyst.ID},
	}
	for i := range products {
		require.NoError(t, db.Create(&products[i]).Error)
	}

	catalog := repositories.NewCatalogRepository(db)
	orders := repositories.NewOrderRepository(db)

	cache := services.NewCatalogCache()
	require.NoError(t, cache.Load(catalog))

	cart := services.NewCart(cache, 12*time.Hour)
	checkout := services.NewCheckout(cart, cache, catalog, orders, "RUB", removeOnZero)
	admin := services.NewAdmin(cache, cart, catalog)

	cart.OnPurge(checkout.PurgeUser)

	return &fixture{
		db: db, catalog: catalog, orders: orders,
		cache: cache, cart: cart, checkout: checkout, admin: admin,
	}
}

// pid returns the id of the n-th seeded product (0-based, creation order).
func (f *fixture) pid(t *testing.T, n int) uint {
	t.Helper()
	var out []models.Product
	require.NoError(t, f.db.Order("id").Find(&out).Error)
	require.Greater(t, len(out), n)
	return out[n].ID
}

func (f *fixture) storeStock(t *testing.T, pid uint) int {
	t.Helper()
	var p models.Product
	require.NoError(t, f.db.First(&p, pid).Error)
	return p.Stock
}

func (f *fixture) completeDelivery(t *testing.T, user int64) {
	t.Helper()
	require.NoError(t, f.checkout.SetCarrier(user, "cdek"))
	require.NoError(t, f.checkout.SetPhone(user, "+7 (912) 345-67-89"))
	require.NoError(t, f.checkout.SetEmail(user, "buyer@example.com"))
	require.NoError(t, f.checkout.SetAddress(user, "Москва, ПВЗ №42"))
}
