package loyalty

import (
	"errors"
	"fmt"
)

type EntryType string

const (
	Earn   EntryType = "EARN"
	Redeem EntryType = "REDEEM"
	Bonus  EntryType = "BONUS"
)

var (
	ErrInvalidDelta       = errors.New("invalid points delta")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrLedgerMismatch     = errors.New("ledger does not match balance")
)

// Account is the loyalty state of one customer.
type Account struct {
	PointsBalance  int
	LifetimePoints int
	Tier           Tier
}

// Entry is one ledger row.
type Entry struct {
	Type         EntryType
	Points       int
	BalanceAfter int
}

// Apply moves the account by one signed delta and returns the new state together with the
// entry to append. Only positive EARN/BONUS deltas count towards lifetime points and tier.
func Apply(acc Account, typ EntryType, points int) (Account, Entry, error) {
	switch typ {
	case Earn:
		if points <= 0 {
			return acc, Entry{}, fmt.Errorf("%w: earn must be positive, got %d", ErrInvalidDelta, points)
		}
	case Redeem:
		if points >= 0 {
			return acc, Entry{}, fmt.Errorf("%w: redeem must be negative, got %d", ErrInvalidDelta, points)
		}
		if acc.PointsBalance+points < 0 {
			return acc, Entry{}, ErrInsufficientPoints
		}
	case Bonus:
		if points == 0 {
			return acc, Entry{}, fmt.Errorf("%w: bonus must be non-zero", ErrInvalidDelta)
		}
		if acc.PointsBalance+points < 0 {
			return acc, Entry{}, ErrInsufficientPoints
		}
	default:
		return acc, Entry{}, fmt.Errorf("%w: unknown type %q", ErrInvalidDelta, typ)
	}

	next := acc
	next.PointsBalance += points
	if points > 0 {
		next.LifetimePoints += points
	}
	next.Tier = TierFor(next.LifetimePoints)

	return next, Entry{Type: typ, Points: points, BalanceAfter: next.PointsBalance}, nil
}

// Verify checks a customer's ledger (oldest first) against the stored balance: every
// balanceAfter is the running sum of deltas and the balance equals the last balanceAfter.
func Verify(balance int, entries []Entry) error {
	running := 0
	for i, e := range entries {
		running += e.Points
		if e.BalanceAfter != running {
			return fmt.Errorf("%w: entry %d has balanceAfter %d, running sum %d", ErrLedgerMismatch, i, e.BalanceAfter, running)
		}
	}
	if balance != running {
		return fmt.Errorf("%w: balance %d, ledger sum %d", ErrLedgerMismatch, balance, running)
	}
	return nil
}
