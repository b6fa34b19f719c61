package repositories

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/alenadem/stonecart/app/models"
)

// OrderRepository handles database operations for orders and their items.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateWithItems persists the order and its line items in one transaction.
// The order's Items slice must already be populated.
func (r *OrderRepository) CreateWithItems(order *models.Order) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
	if err != nil {
		return fmt.Errorf("repositories: create order: %w", err)
	}
	return nil
}

// GetByPayload looks up an order by its payment correlation payload.
func (r *OrderRepository) GetByPayload(payload string) (models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").Where("payload = ?", payload).First(&order).Error
	return order, err
}

// ListByUser returns all orders placed by a user, newest first.
func (r *OrderRepository) ListByUser(userID int64) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").
		Where("user_id = ?", userID).
		Order("id desc").
		Find(&orders).Error
	return orders, err
}
