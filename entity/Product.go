package entity

import "github.com/shopspring/decimal"

const (
	RoastLight       = "LIGHT"
	RoastMediumLight = "MEDIUM_LIGHT"
	RoastMedium      = "MEDIUM"
	RoastMediumDark  = "MEDIUM_DARK"
	RoastDark        = "DARK"
)

type Product struct {
	Base
	CafeID     string          `gorm:"type:varchar(36);index;not null" json:"cafeId"`
	Name       string          `gorm:"not null" json:"name"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	RoastLevel *string         `json:"roastLevel"`
	Available  bool            `gorm:"not null;default:true" json:"available"`

	CategoryID *string   `gorm:"type:varchar(36);index" json:"categoryId"`
	Category   *Category `json:"category,omitempty"`
}
