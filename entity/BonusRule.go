package entity

// BonusRule is a per-cafe campaign; Condition is a CEL expression over order and customer.
type BonusRule struct {
	Base
	CafeID    string `gorm:"type:varchar(36);uniqueIndex:uniq_cafe_rule;not null" json:"cafeId"`
	Name      string `gorm:"uniqueIndex:uniq_cafe_rule;not null" json:"name"`
	Condition string `gorm:"not null" json:"condition"`
	Points    int    `gorm:"not null" json:"points"`
	Active    bool   `gorm:"not null;default:true" json:"active"`
}
