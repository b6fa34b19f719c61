package migrations

import (
	"github.com/alenadem/stonecart/app/models"
	"github.com/alenadem/stonecart/pkg/migration"
	"gorm.io/gorm"
)

func init() {
	migration.Register("20260101000000_create_catalog_tables", &CreateCatalogTables{})
	migration.Register("20260101000001_create_order_tables", &CreateOrderTables{})
}

// -------- 0001: categories, stones, products --------

type CreateCatalogTables struct{}

func (m *CreateCatalogTables) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Category{}, &models.Stone{}, &models.Product{})
}

func (m *CreateCatalogTables) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("products", "stones", "categories")
}

// -------- 0002: orders, order_items --------

type CreateOrderTables struct{}

func (m *CreateOrderTables) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Order{}, &models.OrderItem{})
}

func (m *CreateOrderTables) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("order_items", "orders")
}
