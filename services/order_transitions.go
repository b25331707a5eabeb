package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cafepos/entity"
	"cafepos/pkg/bonusrule"
	"cafepos/pkg/loyalty"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

type StatusChange struct {
	Order   *entity.Order             `json:"order"`
	Points  []entity.PointTransaction `json:"points,omitempty"`
	Balance *int                      `json:"pointsBalance,omitempty"`
}

// AdvanceStatus moves an order along PENDING → PREPARING → READY → COMPLETED (or cancels
// it). Completing an order credits the customer in the same transaction.
func (s *OrderService) AdvanceStatus(ctx context.Context, actor Actor, orderID, to string) (*StatusChange, error) {
	ctx, span := tracer.Start(ctx, "OrderService.AdvanceStatus")
	defer span.End()
	to = strings.ToUpper(strings.TrimSpace(to))
	span.SetAttributes(attribute.String("order.id", orderID), attribute.String("order.to", to))

	o, err := s.Repo.GetOrder(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load order")
	}
	if err := s.Access.CanManageCafe(ctx, actor, o.CafeID); err != nil {
		return nil, err
	}
	if !entity.CanTransition(o.Status, to) {
		return nil, ErrInvalidTransition
	}

	cafe, err := s.Cafes.FindByID(ctx, o.CafeID)
	if err != nil {
		return nil, errors.Wrap(err, "load cafe")
	}

	var (
		completedAt *time.Time
		cust        *entity.Customer
		rows        []*entity.PointTransaction
	)
	if to == entity.OrderCompleted {
		now := s.Loyalty.now().UTC()
		completedAt = &now
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		affected, err := s.Repo.UpdateStatusGuard(tx, o.ID, o.Status, to, completedAt)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrInvalidTransition
		}
		if to != entity.OrderCompleted {
			return nil
		}
		cust, rows, err = s.complete(ctx, tx, o.ID, cafe, *completedAt)
		return err
	})
	if err != nil {
		return nil, err
	}

	o.Status = to
	o.CompletedAt = completedAt
	out := &StatusChange{Order: o}
	if cust != nil {
		s.Loyalty.notify(ctx, cust, rows)
		balance := cust.PointsBalance
		out.Balance = &balance
		for _, r := range rows {
			out.Points = append(out.Points, *r)
		}
		log.Info().Str("orderId", o.ID).Str("customerId", cust.ID).Int("entries", len(rows)).Msg("order completed")
	}
	return out, nil
}

// complete books spend, EARN and matching BONUS entries for a completed order.
func (s *OrderService) complete(ctx context.Context, tx *gorm.DB, orderID string, cafe *entity.Cafe, at time.Time) (*entity.Customer, []*entity.PointTransaction, error) {
	order, err := s.Repo.GetOrderForCompletion(tx, orderID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "reload order")
	}
	customers := s.Loyalty.Customers
	if err := customers.AddSpend(tx, order.CustomerID, order.Total); err != nil {
		return nil, nil, errors.Wrap(err, "add spend")
	}
	cust, err := customers.FindByID(ctx, tx, order.CustomerID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "reload customer")
	}
	tierAtPurchase := cust.Tier

	rate := cafe.PointsPerUnit
	if rate <= 0 {
		rate = s.Loyalty.Config.EarnRate
	}
	var rows []*entity.PointTransaction
	oid := order.ID
	if earned := loyalty.PointsForSpend(order.Total, rate); earned > 0 {
		row, err := s.Loyalty.appendEntry(tx, cust, loyalty.Earn, earned, fmt.Sprintf("Order %s", shortID(order.ID)), &oid)
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, row)
	}

	rules, err := s.Loyalty.activeRules(ctx, tx, order.CafeID)
	if err != nil {
		return nil, nil, err
	}
	fact := orderFact(order, tierAtPurchase, cust, at)
	for _, rule := range rules {
		ok, err := rule.Matches(fact)
		if err != nil {
			log.Warn().Err(err).Str("ruleId", rule.ID).Msg("bonus rule evaluation failed")
			continue
		}
		if !ok {
			continue
		}
		row, err := s.Loyalty.appendEntry(tx, cust, loyalty.Bonus, rule.Points, "Bonus: "+rule.Name, &oid)
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, row)
	}
	return cust, rows, nil
}

func orderFact(o *entity.Order, tier string, cust *entity.Customer, at time.Time) bonusrule.Fact {
	fact := bonusrule.Fact{
		OrderTotal:     o.Total.InexactFloat64(),
		Hour:           at.Hour(),
		Weekday:        at.Weekday().String(),
		Tier:           tier,
		TotalOrders:    cust.TotalOrders,
		LifetimePoints: cust.LifetimePoints,
	}
	seen := map[string]bool{}
	for _, it := range o.Items {
		fact.ItemCount += it.Quantity
		name := "Other"
		if it.Product != nil && it.Product.Category != nil {
			name = it.Product.Category.Name
		}
		if !seen[name] {
			seen[name] = true
			fact.Categories = append(fact.Categories, name)
		}
	}
	return fact
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
