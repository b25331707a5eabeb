package entity

import "github.com/shopspring/decimal"

// Customer is a loyalty member of one cafe. The loyalty columns only move together with a
// PointTransaction append.
type Customer struct {
	Base
	CafeID string  `gorm:"type:varchar(36);index;not null" json:"cafeId"`
	UserID *string `gorm:"type:varchar(36);index" json:"userId"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`

	PointsBalance  int             `gorm:"not null;default:0" json:"pointsBalance"`
	LifetimePoints int             `gorm:"not null;default:0" json:"lifetimePoints"`
	Tier           string          `gorm:"not null;default:BRONZE" json:"tier"`
	LifetimeSpend  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"lifetimeSpend"`
	TotalOrders    int             `gorm:"not null;default:0" json:"totalOrders"`

	Cafe    Cafe           `json:"-"`
	Profile *CoffeeProfile `gorm:"foreignKey:CustomerID" json:"-"`
	Orders  []Order        `json:"-"`
}
