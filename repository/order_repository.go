package repository

import (
	"context"
	"time"

	"cafepos/entity"

	"gorm.io/gorm"
)

type OrderRepository struct {
	DB *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{DB: db}
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// ---------------- Orders ----------------

// CreateOrder inserts the order together with its items.
func (r *OrderRepository) CreateOrder(tx *gorm.DB, o *entity.Order) error {
	return tx.Create(o).Error
}

func (r *OrderRepository) GetOrder(ctx context.Context, id string) (*entity.Order, error) {
	var o entity.Order
	if err := r.DB.WithContext(ctx).Preload("Items", byPosition).First(&o, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// GetOrderForCompletion loads items with product and category, used for bonus facts.
func (r *OrderRepository) GetOrderForCompletion(tx *gorm.DB, id string) (*entity.Order, error) {
	var o entity.Order
	if err := tx.Preload("Items", byPosition).Preload("Items.Product.Category").First(&o, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) ListForCustomer(ctx context.Context, customerID string, limit int) ([]entity.Order, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	var out []entity.Order
	err := r.DB.WithContext(ctx).
		Preload("Items", byPosition).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListCompletedForProfile returns the newest completed orders of a customer with
// items, products and categories loaded.
func (r *OrderRepository) ListCompletedForProfile(ctx context.Context, customerID string, limit int) ([]entity.Order, error) {
	var out []entity.Order
	err := r.DB.WithContext(ctx).
		Preload("Items", byPosition).
		Preload("Items.Product.Category").
		Where("customer_id = ? AND status = ?", customerID, entity.OrderCompleted).
		Order("completed_at DESC").Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateStatusGuard moves an order from one status to another only if it is still in
// `from`. completedAt is written when non-nil.
func (r *OrderRepository) UpdateStatusGuard(tx *gorm.DB, id, from, to string, completedAt *time.Time) (int64, error) {
	updates := map[string]any{"status": to}
	if completedAt != nil {
		updates["completed_at"] = *completedAt
	}
	res := tx.Model(&entity.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}
