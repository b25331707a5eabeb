package loyalty

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestTierBoundaries(t *testing.T) {
	tests := []struct {
		points int
		want   Tier
	}{
		{0, Bronze},
		{999, Bronze},
		{1000, Silver},
		{4999, Silver},
		{5000, Gold},
		{14999, Gold},
		{15000, Platinum},
		{1_000_000, Platinum},
	}
	for _, tt := range tests {
		if got := TierFor(tt.points); got != tt.want {
			t.Errorf("TierFor(%d) = %s, want %s", tt.points, got, tt.want)
		}
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		points int
		want   TierProgress
	}{
		{0, TierProgress{Tier: Bronze, NextTier: Silver, PointsToNext: 1000}},
		{999, TierProgress{Tier: Bronze, NextTier: Silver, PointsToNext: 1}},
		{1200, TierProgress{Tier: Silver, NextTier: Gold, PointsToNext: 3800}},
		{14000, TierProgress{Tier: Gold, NextTier: Platinum, PointsToNext: 1000}},
		{20000, TierProgress{Tier: Platinum}},
	}
	for _, tt := range tests {
		if got := Progress(tt.points); got != tt.want {
			t.Errorf("Progress(%d) = %+v, want %+v", tt.points, got, tt.want)
		}
	}
}

func TestPointsForSpend(t *testing.T) {
	tests := []struct {
		amount string
		rate   int
		want   int
	}{
		{"12.99", 10, 120},
		{"0.99", 10, 0},
		{"5", 1, 5},
		{"-3", 10, 0},
		{"40", 0, 0},
	}
	for _, tt := range tests {
		if got := PointsForSpend(decimal.RequireFromString(tt.amount), tt.rate); got != tt.want {
			t.Errorf("PointsForSpend(%s, %d) = %d, want %d", tt.amount, tt.rate, got, tt.want)
		}
	}
}

func TestApplyKeepsRunningBalance(t *testing.T) {
	acc := Account{Tier: Bronze}
	steps := []struct {
		typ    EntryType
		points int
	}{
		{Earn, 600},
		{Earn, 500},
		{Redeem, -300},
		{Bonus, 50},
		{Bonus, -20},
		{Redeem, -830},
	}

	var entries []Entry
	for _, s := range steps {
		next, e, err := Apply(acc, s.typ, s.points)
		if err != nil {
			t.Fatalf("Apply(%s, %d): %v", s.typ, s.points, err)
		}
		entries = append(entries, e)
		acc = next
	}

	if acc.PointsBalance != 0 {
		t.Errorf("balance = %d, want 0", acc.PointsBalance)
	}
	if acc.LifetimePoints != 1150 {
		t.Errorf("lifetime = %d, want 1150", acc.LifetimePoints)
	}
	if acc.Tier != Silver {
		t.Errorf("tier = %s, want SILVER", acc.Tier)
	}
	if err := Verify(acc.PointsBalance, entries); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestApplyNegativeDeltasDoNotTouchLifetime(t *testing.T) {
	acc := Account{PointsBalance: 2000, LifetimePoints: 5200, Tier: Gold}
	next, _, err := Apply(acc, Redeem, -1500)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if next.LifetimePoints != 5200 || next.Tier != Gold {
		t.Errorf("lifetime/tier changed: %+v", next)
	}
	next, _, err = Apply(next, Bonus, -100)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if next.PointsBalance != 400 || next.LifetimePoints != 5200 {
		t.Errorf("account = %+v", next)
	}
}

func TestApplyRejects(t *testing.T) {
	acc := Account{PointsBalance: 100, LifetimePoints: 100, Tier: Bronze}
	tests := []struct {
		name   string
		typ    EntryType
		points int
		want   error
	}{
		{"earn zero", Earn, 0, ErrInvalidDelta},
		{"earn negative", Earn, -5, ErrInvalidDelta},
		{"redeem positive", Redeem, 5, ErrInvalidDelta},
		{"redeem overdraw", Redeem, -101, ErrInsufficientPoints},
		{"bonus zero", Bonus, 0, ErrInvalidDelta},
		{"bonus overdraw", Bonus, -200, ErrInsufficientPoints},
		{"unknown", EntryType("GIFT"), 10, ErrInvalidDelta},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, _, err := Apply(acc, tt.typ, tt.points)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if next != acc {
				t.Errorf("account changed on error: %+v", next)
			}
		})
	}
}

func TestVerifyDetectsDrift(t *testing.T) {
	entries := []Entry{
		{Type: Earn, Points: 100, BalanceAfter: 100},
		{Type: Redeem, Points: -40, BalanceAfter: 70},
	}
	if err := Verify(70, entries); !errors.Is(err, ErrLedgerMismatch) {
		t.Errorf("bad snapshot: err = %v", err)
	}

	entries[1].BalanceAfter = 60
	if err := Verify(60, entries); err != nil {
		t.Errorf("consistent ledger: %v", err)
	}
	if err := Verify(75, entries); !errors.Is(err, ErrLedgerMismatch) {
		t.Errorf("stale balance: err = %v", err)
	}
	if err := Verify(0, nil); err != nil {
		t.Errorf("empty ledger: %v", err)
	}
}
