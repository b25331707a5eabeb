package entity

const (
	PointsEarn   = "EARN"
	PointsRedeem = "REDEEM"
	PointsBonus  = "BONUS"
)

// PointTransaction is append-only. BalanceAfter is the customer's balance right after this row.
type PointTransaction struct {
	Base
	CustomerID   string  `gorm:"type:varchar(36);uniqueIndex:uniq_points_customer_seq;not null" json:"customerId"`
	CafeID       string  `gorm:"type:varchar(36);index;not null" json:"cafeId"`
	OrderID      *string `gorm:"type:varchar(36);index" json:"orderId,omitempty"`
	Type         string  `gorm:"not null" json:"type"`
	Points       int     `gorm:"not null" json:"points"`
	BalanceAfter int     `gorm:"not null" json:"balanceAfter"`
	Description  string  `json:"description"`

	// per-customer position in the ledger, 1-based; the unique index rejects a concurrent
	// append computed from a stale balance
	Seq int `gorm:"uniqueIndex:uniq_points_customer_seq;not null" json:"seq"`
}
