package repository

import (
	"context"

	"cafepos/entity"
	"cafepos/pkg/loyalty"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CustomerRepository struct {
	DB *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{DB: db}
}

func (r *CustomerRepository) Create(ctx context.Context, c *entity.Customer) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

// FindByID reads through tx when one is given, so callers inside a transaction see their
// own writes.
func (r *CustomerRepository) FindByID(ctx context.Context, tx *gorm.DB, id string) (*entity.Customer, error) {
	if tx == nil {
		tx = r.DB
	}
	var c entity.Customer
	if err := tx.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepository) ListByCafe(ctx context.Context, cafeID string, limit int) ([]entity.Customer, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []entity.Customer
	err := r.DB.WithContext(ctx).
		Where("cafe_id = ?", cafeID).
		Order("lifetime_points DESC, created_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateLoyaltyGuard writes the new loyalty state only if the balance is still the one the
// caller read. 0 rows affected means someone else moved the balance first.
func (r *CustomerRepository) UpdateLoyaltyGuard(tx *gorm.DB, id string, expectBalance int, acc loyalty.Account) (int64, error) {
	res := tx.Model(&entity.Customer{}).
		Where("id = ? AND points_balance = ?", id, expectBalance).
		Updates(map[string]any{
			"points_balance":  acc.PointsBalance,
			"lifetime_points": acc.LifetimePoints,
			"tier":            string(acc.Tier),
		})
	return res.RowsAffected, res.Error
}

// AddSpend counts one completed order.
func (r *CustomerRepository) AddSpend(tx *gorm.DB, id string, total decimal.Decimal) error {
	return tx.Model(&entity.Customer{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"total_orders":   gorm.Expr("total_orders + 1"),
			"lifetime_spend": gorm.Expr("lifetime_spend + ?", total),
		}).Error
}
