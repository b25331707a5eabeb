// Package tasteprofile turns a customer's completed order history into a coffee taste profile.
//
// Everything here is pure: callers fetch the orders, this package tallies, scores and
// classifies them.
package tasteprofile

import (
	"sort"
	"strings"
)

const (
	// MinOrders is the number of completed orders required before a profile can be built.
	MinOrders = 5
	// MaxOrders caps how many of the most recent completed orders are analysed.
	MaxOrders = 100

	otherCategory = "Other"
)

// RoastLevel mirrors the product roast column.
type RoastLevel string

const (
	RoastLight       RoastLevel = "LIGHT"
	RoastMediumLight RoastLevel = "MEDIUM_LIGHT"
	RoastMedium      RoastLevel = "MEDIUM"
	RoastMediumDark  RoastLevel = "MEDIUM_DARK"
	RoastDark        RoastLevel = "DARK"
)

var roastValues = map[RoastLevel]float64{
	RoastLight:       1,
	RoastMediumLight: 2,
	RoastMedium:      3,
	RoastMediumDark:  4,
	RoastDark:        5,
}

// Milk categories derived from the product name.
const (
	MilkOat        = "oat"
	MilkNone       = "none"
	MilkDairy      = "dairy"
	MilkPlantBased = "plant-based"
)

// Product is the linked catalog product of an order line, if it still exists.
type Product struct {
	RoastLevel RoastLevel
	Category   string
}

// Item is one order line.
type Item struct {
	Name      string
	Quantity  int
	Modifiers map[string]string
	Product   *Product
}

// Order is one completed order.
type Order struct {
	Items []Item
}

// ProductCount is a product name with its total ordered quantity.
type ProductCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Aggregation holds the raw tallies over an order history.
type Aggregation struct {
	TotalOrders int
	TopProducts []ProductCount

	RoastCounts map[RoastLevel]int

	// PlantBasedModifiers counts plant milk modifier selections. It is tallied but the
	// milk preference is chosen from MilkCounts only.
	PlantBasedModifiers int
	MilkCounts          map[string]int
	milkOrder           []string

	HotCount  int
	IcedCount int

	SweetenerMentions int
	ExtraShotMentions int

	CategoryCounts map[string]int
	Variety        int
}

// TotalItems is the summed quantity over all products.
func (a Aggregation) TotalItems() int {
	total := 0
	for _, p := range a.TopProducts {
		total += p.Count
	}
	return total
}

var plantMilks = []string{"oat", "almond", "soy", "coconut"}

// Aggregate tallies the given orders. The caller is responsible for passing only
// completed orders, most recent first, capped at MaxOrders.
func Aggregate(orders []Order) Aggregation {
	a := Aggregation{
		TotalOrders:    len(orders),
		RoastCounts:    map[RoastLevel]int{},
		MilkCounts:     map[string]int{},
		CategoryCounts: map[string]int{},
	}

	productCounts := map[string]int{}
	var productOrder []string

	for _, o := range orders {
		for _, it := range o.Items {
			qty := it.Quantity
			name := strings.ToLower(it.Name)

			if _, seen := productCounts[it.Name]; !seen {
				productOrder = append(productOrder, it.Name)
			}
			productCounts[it.Name] += qty

			if it.Product != nil && it.Product.RoastLevel != "" {
				a.RoastCounts[it.Product.RoastLevel] += qty
			}

			for _, v := range it.Modifiers {
				val := strings.ToLower(v)
				if containsAny(val, plantMilks...) {
					a.PlantBasedModifiers++
				}
				if containsAny(val, "syrup", "sugar") {
					a.SweetenerMentions++
				}
				if strings.Contains(val, "extra shot") {
					a.ExtraShotMentions++
				}
			}

			a.addMilk(milkFromName(name), qty)

			if containsAny(name, "iced", "cold") {
				a.IcedCount += qty
			} else {
				a.HotCount += qty
			}

			category := otherCategory
			if it.Product != nil && it.Product.Category != "" {
				category = it.Product.Category
			}
			a.CategoryCounts[category] += qty
		}
	}

	a.TopProducts = make([]ProductCount, 0, len(productOrder))
	for _, name := range productOrder {
		a.TopProducts = append(a.TopProducts, ProductCount{Name: name, Count: productCounts[name]})
	}
	sort.SliceStable(a.TopProducts, func(i, j int) bool {
		return a.TopProducts[i].Count > a.TopProducts[j].Count
	})
	a.Variety = len(productOrder)

	return a
}

func (a *Aggregation) addMilk(kind string, qty int) {
	if _, ok := a.MilkCounts[kind]; !ok {
		a.milkOrder = append(a.milkOrder, kind)
	}
	a.MilkCounts[kind] += qty
}

func milkFromName(lowerName string) string {
	switch {
	case strings.Contains(lowerName, "oat"):
		return MilkOat
	case strings.Contains(lowerName, "black"), lowerName == "espresso":
		return MilkNone
	default:
		return MilkDairy
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
