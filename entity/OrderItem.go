package entity

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OrderItem struct {
	Base
	OrderID  string `gorm:"type:varchar(36);index;not null" json:"orderId"`
	Position int    `gorm:"not null" json:"position"` // line number within the order

	// name is a snapshot; the product may be deleted later
	Name      string            `gorm:"not null" json:"name"`
	ProductID *string           `gorm:"type:varchar(36);index" json:"productId"`
	Product   *Product          `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Quantity  int               `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal   `gorm:"type:decimal(10,2);not null" json:"unitPrice"`
	Total     decimal.Decimal   `gorm:"type:decimal(10,2);not null" json:"total"`
	Modifiers datatypes.JSONMap `json:"modifiers"`
}
