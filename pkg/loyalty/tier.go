// Package loyalty holds the points ledger rules: tiers, balance transitions and ledger checks.
package loyalty

import "github.com/shopspring/decimal"

type Tier string

const (
	Bronze   Tier = "BRONZE"
	Silver   Tier = "SILVER"
	Gold     Tier = "GOLD"
	Platinum Tier = "PLATINUM"
)

// Lower bounds of lifetime points per tier.
const (
	SilverThreshold   = 1000
	GoldThreshold     = 5000
	PlatinumThreshold = 15000
)

// TierFor derives the tier from lifetime points. Current balance plays no part.
func TierFor(lifetimePoints int) Tier {
	switch {
	case lifetimePoints >= PlatinumThreshold:
		return Platinum
	case lifetimePoints >= GoldThreshold:
		return Gold
	case lifetimePoints >= SilverThreshold:
		return Silver
	default:
		return Bronze
	}
}

// TierProgress describes the distance to the next tier.
type TierProgress struct {
	Tier         Tier `json:"tier"`
	NextTier     Tier `json:"nextTier,omitempty"`
	PointsToNext int  `json:"pointsToNextTier"`
}

// Progress returns the tier and the points still needed for the next one (never negative).
func Progress(lifetimePoints int) TierProgress {
	tier := TierFor(lifetimePoints)
	var next Tier
	var max int
	switch tier {
	case Bronze:
		next, max = Silver, SilverThreshold
	case Silver:
		next, max = Gold, GoldThreshold
	case Gold:
		next, max = Platinum, PlatinumThreshold
	default:
		return TierProgress{Tier: tier}
	}
	remaining := max - lifetimePoints
	if remaining < 0 {
		remaining = 0
	}
	return TierProgress{Tier: tier, NextTier: next, PointsToNext: remaining}
}

// PointsForSpend converts an order total into earned points: whole currency units times rate.
func PointsForSpend(amount decimal.Decimal, rate int) int {
	if rate <= 0 || !amount.IsPositive() {
		return 0
	}
	return int(amount.Floor().IntPart()) * rate
}
