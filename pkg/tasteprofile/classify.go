package tasteprofile

import (
	"errors"
	"math"
)

// ProfileType is one of the eight archetypes.
type ProfileType string

const (
	BoldExplorer       ProfileType = "Bold Explorer"
	ColdBrewEnthusiast ProfileType = "Cold Brew Enthusiast"
	HealthConscious    ProfileType = "Health Conscious"
	SweetTooth         ProfileType = "Sweet Tooth"
	AdventurousTaster  ProfileType = "Adventurous Taster"
	Minimalist         ProfileType = "Minimalist"
	SmoothSipper       ProfileType = "Smooth Sipper"
	ClassicLover       ProfileType = "Classic Lover"
)

const maxFlavorNotes = 4

var ErrInsufficientOrders = errors.New("insufficient completed orders")

type rule struct {
	profile ProfileType
	match   func(p Preferences) bool
}

// Evaluated top to bottom, first match wins. The last rule always matches.
var rules = []rule{
	{BoldExplorer, func(p Preferences) bool { return p.Roast >= 4 && p.Strength >= 4 }},
	{ColdBrewEnthusiast, func(p Preferences) bool { return p.Temperature <= 2.5 }},
	{HealthConscious, func(p Preferences) bool { return p.Milk == MilkPlantBased || p.Milk == MilkOat }},
	{SweetTooth, func(p Preferences) bool { return p.Sweetness >= 3.5 }},
	{AdventurousTaster, func(p Preferences) bool { return p.Adventure >= 4 }},
	{Minimalist, func(p Preferences) bool { return p.Milk == MilkNone && p.Roast <= 3 }},
	{SmoothSipper, func(p Preferences) bool { return p.Roast >= 2 && p.Roast <= 3.5 && p.Strength <= 3.5 }},
	{ClassicLover, func(Preferences) bool { return true }},
}

// Classify returns the archetype of the first matching rule.
func Classify(p Preferences) ProfileType {
	for _, r := range rules {
		if r.match(p) {
			return r.profile
		}
	}
	return ClassicLover
}

// FlavorNotes picks up to four flavor tags from roast and sweetness.
func FlavorNotes(p Preferences) []string {
	var notes []string
	switch {
	case p.Roast >= 4:
		notes = append(notes, "chocolate", "nutty")
		if p.Roast >= 4.5 {
			notes = append(notes, "earthy")
		}
	case p.Roast >= 2.5:
		notes = append(notes, "caramel")
		if p.Sweetness >= 3 {
			notes = append(notes, "vanilla")
		}
	default:
		notes = append(notes, "fruity", "floral")
		if p.Roast <= 1.5 {
			notes = append(notes, "citrus")
		}
	}
	if p.Sweetness >= 4 {
		notes = append(notes, "berry")
	}
	if len(notes) > maxFlavorNotes {
		notes = notes[:maxFlavorNotes]
	}
	return notes
}

// Confidence grows with the history size and product variety, capped at 0.95.
func Confidence(ordersAnalyzed, distinctProducts int) float64 {
	c := 0.5 + (float64(ordersAnalyzed)/100)*0.3 + (float64(distinctProducts)/20)*0.15
	return round2(math.Min(0.95, c))
}

// Result is a fully computed profile.
type Result struct {
	Preferences
	ProfileType    ProfileType
	FlavorNotes    []string
	Confidence     float64
	OrdersAnalyzed int
	TopProducts    []ProductCount
	Categories     map[string]int
}

// Build runs the whole pipeline over completed orders (most recent first).
func Build(orders []Order) (Result, error) {
	if len(orders) > MaxOrders {
		orders = orders[:MaxOrders]
	}
	if len(orders) < MinOrders {
		return Result{}, ErrInsufficientOrders
	}

	agg := Aggregate(orders)
	prefs := Score(agg)

	return Result{
		Preferences:    prefs,
		ProfileType:    Classify(prefs),
		FlavorNotes:    FlavorNotes(prefs),
		Confidence:     Confidence(agg.TotalOrders, agg.Variety),
		OrdersAnalyzed: agg.TotalOrders,
		TopProducts:    agg.TopProducts,
		Categories:     agg.CategoryCounts,
	}, nil
}
