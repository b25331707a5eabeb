package repository

import (
	"context"
	"errors"
	"time"

	"cafepos/entity"

	"gorm.io/gorm"
)

type LoyaltyRepository struct {
	DB *gorm.DB
}

func NewLoyaltyRepository(db *gorm.DB) *LoyaltyRepository {
	return &LoyaltyRepository{DB: db}
}

// ---------------- Ledger ----------------

// LastSeq returns the sequence number of the newest entry, 0 for an empty ledger.
func (r *LoyaltyRepository) LastSeq(tx *gorm.DB, customerID string) (int, error) {
	var last entity.PointTransaction
	err := tx.Select("seq").
		Where("customer_id = ?", customerID).
		Order("seq DESC").
		Take(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	return last.Seq, err
}

func (r *LoyaltyRepository) AppendEntry(tx *gorm.DB, e *entity.PointTransaction) error {
	return tx.Create(e).Error
}

// ListEntries is newest first.
func (r *LoyaltyRepository) ListEntries(ctx context.Context, customerID string, limit int) ([]entity.PointTransaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []entity.PointTransaction
	err := r.DB.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("seq DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// AllEntries is oldest first, for audits.
func (r *LoyaltyRepository) AllEntries(ctx context.Context, customerID string) ([]entity.PointTransaction, error) {
	var out []entity.PointTransaction
	err := r.DB.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("seq ASC").
		Find(&out).Error
	return out, err
}

// ---------------- Vouchers ----------------

func (r *LoyaltyRepository) CreateVoucher(tx *gorm.DB, v *entity.Voucher) error {
	return tx.Create(v).Error
}

func (r *LoyaltyRepository) FindVoucherByCode(ctx context.Context, code string) (*entity.Voucher, error) {
	var v entity.Voucher
	if err := r.DB.WithContext(ctx).First(&v, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *LoyaltyRepository) ListActiveVouchers(ctx context.Context, customerID string, now time.Time) ([]entity.Voucher, error) {
	var out []entity.Voucher
	err := r.DB.WithContext(ctx).
		Where("customer_id = ? AND status = ? AND expires_at > ?", customerID, entity.VoucherActive, now).
		Order("expires_at ASC").
		Find(&out).Error
	return out, err
}

// UpdateVoucherStatusGuard flips a voucher's status only if it is still `from`.
func (r *LoyaltyRepository) UpdateVoucherStatusGuard(ctx context.Context, id, from, to string, usedAt *time.Time) (int64, error) {
	updates := map[string]any{"status": to}
	if usedAt != nil {
		updates["used_at"] = *usedAt
	}
	res := r.DB.WithContext(ctx).Model(&entity.Voucher{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// ---------------- Bonus rules ----------------

func (r *LoyaltyRepository) ListRules(ctx context.Context, tx *gorm.DB, cafeID string, activeOnly bool) ([]entity.BonusRule, error) {
	if tx == nil {
		tx = r.DB
	}
	q := tx.WithContext(ctx).Where("cafe_id = ?", cafeID)
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var out []entity.BonusRule
	err := q.Order("name ASC").Find(&out).Error
	return out, err
}

func (r *LoyaltyRepository) CreateRule(ctx context.Context, rule *entity.BonusRule) error {
	return r.DB.WithContext(ctx).Create(rule).Error
}
