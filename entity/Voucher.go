package entity

import "time"

const (
	VoucherFreeDrink = "FREE_DRINK"
	VoucherDiscount  = "DISCOUNT"
	VoucherUpgrade   = "UPGRADE"
)

const (
	VoucherActive  = "ACTIVE"
	VoucherUsed    = "USED"
	VoucherExpired = "EXPIRED"
)

type Voucher struct {
	Base
	CustomerID string     `gorm:"type:varchar(36);index;not null" json:"customerId"`
	CafeID     string     `gorm:"type:varchar(36);index;not null" json:"cafeId"`
	Code       string     `gorm:"uniqueIndex;not null" json:"code"`
	Type       string     `gorm:"not null" json:"type"`
	PointCost  int        `gorm:"not null" json:"pointCost"`
	Status     string     `gorm:"index;not null;default:ACTIVE" json:"status"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	UsedAt     *time.Time `json:"usedAt"`
}
