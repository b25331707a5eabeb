package tasteprofile

import (
	"math"
	"sort"
)

const (
	defaultRoast       = 3.0
	defaultStrength    = 3.0
	defaultTemperature = 3.5
)

// Preferences are the five 1–5 scalars plus the dominant milk type.
type Preferences struct {
	Roast       float64 `json:"roastPreference"`
	Strength    float64 `json:"strengthPreference"`
	Temperature float64 `json:"temperaturePreference"`
	Sweetness   float64 `json:"sweetnessPreference"`
	Adventure   float64 `json:"adventureScore"`
	Milk        string  `json:"milkPreference"`
}

// Score derives the preference scalars from an aggregation. Scores are rounded to one decimal.
func Score(a Aggregation) Preferences {
	return Preferences{
		Roast:       round1(RoastScore(a.RoastCounts)),
		Strength:    round1(StrengthScore(a.MilkCounts[MilkNone], a.TotalOrders)),
		Temperature: round1(TemperatureScore(a.HotCount, a.IcedCount)),
		Sweetness:   round1(SweetnessScore(a.SweetenerMentions, a.TotalItems())),
		Adventure:   round1(AdventureScore(a.Variety, a.TotalOrders)),
		Milk:        MilkPreference(a),
	}
}

// RoastScore is the quantity-weighted mean roast value.
func RoastScore(counts map[RoastLevel]int) float64 {
	var sum float64
	var n int
	for level, qty := range counts {
		v, ok := roastValues[level]
		if !ok {
			continue
		}
		sum += v * float64(qty)
		n += qty
	}
	if n == 0 {
		return defaultRoast
	}
	return sum / float64(n)
}

// StrengthScore grows with the share of black coffee. The denominator is the order count,
// not the item count.
func StrengthScore(blackQty, totalOrders int) float64 {
	if blackQty <= 0 || totalOrders <= 0 {
		return defaultStrength
	}
	return math.Min(5, 3+float64(blackQty)/float64(totalOrders)*2)
}

// TemperatureScore maps the hot share onto 1 (all iced) .. 5 (all hot).
func TemperatureScore(hot, iced int) float64 {
	if hot+iced == 0 {
		return defaultTemperature
	}
	return 1 + float64(hot)/float64(hot+iced)*4
}

// SweetnessScore grows with sweetener modifier mentions per item ordered.
func SweetnessScore(mentions, totalItems int) float64 {
	if totalItems <= 0 {
		return 1
	}
	return math.Min(5, 1+float64(mentions)/float64(totalItems)*8)
}

// AdventureScore grows with distinct products per order.
func AdventureScore(distinct, totalOrders int) float64 {
	if totalOrders <= 0 {
		return 1
	}
	return math.Min(5, 1+float64(distinct)/float64(totalOrders)*8)
}

// MilkPreference picks the highest name-derived milk tally. On a tie the category seen first wins.
func MilkPreference(a Aggregation) string {
	keys := append([]string(nil), a.milkOrder...)
	var rest []string
	for k := range a.MilkCounts {
		if !contains(keys, k) {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	keys = append(keys, rest...)

	best, bestQty := MilkDairy, -1
	for _, k := range keys {
		if qty := a.MilkCounts[k]; qty > bestQty {
			best, bestQty = k, qty
		}
	}
	return best
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
