package entity

type Category struct {
	Base
	CafeID string `gorm:"type:varchar(36);index;not null" json:"cafeId"`
	Name   string `gorm:"not null" json:"name"`
}
