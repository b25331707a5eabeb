package entity

import (
	"time"

	"gorm.io/datatypes"
)

// CoffeeProfile is written only by profile generation, always as a full replace.
type CoffeeProfile struct {
	Base
	CustomerID string `gorm:"type:varchar(36);uniqueIndex;not null" json:"customerId"`

	RoastPreference       float64                     `json:"roastPreference"`
	StrengthPreference    float64                     `json:"strengthPreference"`
	MilkPreference        string                      `json:"milkPreference"`
	TemperaturePreference float64                     `json:"temperaturePreference"`
	SweetnessPreference   float64                     `json:"sweetnessPreference"`
	AdventureScore        float64                     `json:"adventureScore"`
	FlavorNotes           datatypes.JSONSlice[string] `json:"flavorNotes"`
	ProfileType           string                      `json:"profileType"`
	Confidence            float64                     `json:"confidence"`
	GeneratedAt           time.Time                   `json:"generatedAt"`
}
