package entity

type Cafe struct {
	Base
	Name    string  `gorm:"not null" json:"name"`
	Slug    string  `gorm:"uniqueIndex;not null" json:"slug"`
	OwnerID *string `gorm:"type:varchar(36);index" json:"ownerId"`

	// points per whole currency unit; 0 falls back to the configured default
	PointsPerUnit int `gorm:"not null;default:0" json:"pointsPerUnit"`

	Categories []Category  `json:"-"`
	Products   []Product   `json:"-"`
	BonusRules []BonusRule `json:"-"`
}
