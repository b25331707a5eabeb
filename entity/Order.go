package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	Base
	CustomerID  string          `gorm:"type:varchar(36);index;not null" json:"customerId"`
	CafeID      string          `gorm:"type:varchar(36);index;not null" json:"cafeId"`
	Status      string          `gorm:"index;not null;default:PENDING" json:"status"`
	Total       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	CompletedAt *time.Time      `gorm:"index" json:"completedAt"`

	Customer Customer    `json:"-"` // preload only when the customer is needed
	Items    []OrderItem `json:"items,omitempty"`
}
