package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"cafepos/entity"
	"cafepos/pkg/events"
	"cafepos/pkg/loyalty"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

func TestCompletingOrderEarnsPointsAndBonuses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, r := range []CreateRuleReq{
		{CafeID: f.cafe.ID, Name: "Big order", Condition: `order.total >= 10`, Points: 50},
		{CafeID: f.cafe.ID, Name: "Pastry pairing", Condition: `"Pastry" in order.categories && customer.tier == "BRONZE"`, Points: 25},
		{CafeID: f.cafe.ID, Name: "Sunday", Condition: `order.weekday == "Sunday"`, Points: 100},
	} {
		if _, err := f.loyalty.CreateRule(ctx, f.owner, r); err != nil {
			t.Fatalf("CreateRule(%s): %v", r.Name, err)
		}
	}

	// 3 x 4.50 + 3.50 = 17.00 -> 170 earned, then both matching bonuses
	change := f.completeOrder(t, item(f.longBlack, 3), item(f.croissant, 1))
	if change.Balance == nil || *change.Balance != 245 {
		t.Fatalf("balance = %v, want 245", change.Balance)
	}
	if len(change.Points) != 3 {
		t.Fatalf("entries = %+v", change.Points)
	}
	wantTypes := []string{entity.PointsEarn, entity.PointsBonus, entity.PointsBonus}
	wantAfter := []int{170, 220, 245}
	for i, e := range change.Points {
		if e.Type != wantTypes[i] || e.BalanceAfter != wantAfter[i] || e.Seq != i+1 {
			t.Errorf("entry %d = %s/%d seq %d", i, e.Type, e.BalanceAfter, e.Seq)
		}
		if e.OrderID == nil || *e.OrderID != change.Order.ID {
			t.Errorf("entry %d not linked to the order", i)
		}
	}

	c := f.reloadCustomer(t)
	if c.PointsBalance != 245 || c.LifetimePoints != 245 || c.TotalOrders != 1 {
		t.Errorf("customer = balance %d lifetime %d orders %d", c.PointsBalance, c.LifetimePoints, c.TotalOrders)
	}
	if !c.LifetimeSpend.Equal(decimal.RequireFromString("17")) {
		t.Errorf("lifetimeSpend = %s, want 17", c.LifetimeSpend)
	}
	if change.Order.CompletedAt == nil || !change.Order.CompletedAt.Equal(testNow) {
		t.Errorf("completedAt = %v", change.Order.CompletedAt)
	}
	if got := len(f.pub.ofType(events.PointsChanged)); got != 3 {
		t.Errorf("PointsChanged events = %d, want 3", got)
	}

	report, err := f.loyalty.Audit(ctx, f.customer.ID)
	if err != nil {
		t.Fatalf("Audit: %v", err)
	}
	if !report.Consistent || !report.LifetimeConsistent || !report.TierConsistent || report.Entries != 3 {
		t.Errorf("audit = %+v", report)
	}

	// completed is terminal
	if _, err := f.orders.AdvanceStatus(ctx, f.owner, change.Order.ID, entity.OrderCancelled); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("cancel completed order: err = %v", err)
	}
}

func TestOrderTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, err := f.orders.Create(ctx, f.member, &CreateOrderReq{CustomerID: f.customer.ID, Items: []OrderItemIn{item(f.longBlack, 1)}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.orders.AdvanceStatus(ctx, f.owner, o.ID, entity.OrderCompleted); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("skip to completed: err = %v", err)
	}
	if _, err := f.orders.AdvanceStatus(ctx, f.member, o.ID, entity.OrderPreparing); !errors.Is(err, ErrForbidden) {
		t.Errorf("customer advancing: err = %v", err)
	}
	change, err := f.orders.AdvanceStatus(ctx, f.owner, o.ID, "cancelled")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if change.Order.Status != entity.OrderCancelled || change.Balance != nil {
		t.Errorf("change = %+v", change)
	}
	if c := f.reloadCustomer(t); c.PointsBalance != 0 || c.TotalOrders != 0 {
		t.Errorf("cancelled order moved the customer: %+v", c)
	}
}

func TestRedeemAndUseVoucher(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.loyalty.Bonus(ctx, f.owner, f.customer.ID, 600, "welcome"); err != nil {
		t.Fatalf("Bonus: %v", err)
	}

	v, err := f.loyalty.RedeemVoucher(ctx, f.member, f.customer.ID, "discount")
	if err != nil {
		t.Fatalf("RedeemVoucher: %v", err)
	}
	if v.Status != entity.VoucherActive || v.PointCost != 300 || !strings.HasPrefix(v.Code, "CAFE-") || len(v.Code) != 13 {
		t.Errorf("voucher = %+v", v)
	}
	if !v.ExpiresAt.Equal(testNow.AddDate(0, 0, 30)) {
		t.Errorf("expiresAt = %v", v.ExpiresAt)
	}
	if c := f.reloadCustomer(t); c.PointsBalance != 300 || c.LifetimePoints != 600 {
		t.Errorf("after redeem: balance %d lifetime %d", c.PointsBalance, c.LifetimePoints)
	}

	if _, err := f.loyalty.RedeemVoucher(ctx, f.member, f.customer.ID, entity.VoucherFreeDrink); !errors.Is(err, ErrInsufficientPoints) {
		t.Errorf("overdraw: err = %v", err)
	}
	if _, err := f.loyalty.RedeemVoucher(ctx, f.member, f.customer.ID, "COFFEE_FOR_LIFE"); !errors.Is(err, ErrUnknownVoucherType) {
		t.Errorf("unknown type: err = %v", err)
	}

	if _, err := f.loyalty.UseVoucher(ctx, f.member, v.Code); !errors.Is(err, ErrForbidden) {
		t.Errorf("customer using voucher: err = %v", err)
	}
	used, err := f.loyalty.UseVoucher(ctx, f.owner, strings.ToLower(v.Code))
	if err != nil {
		t.Fatalf("UseVoucher: %v", err)
	}
	if used.Status != entity.VoucherUsed || used.UsedAt == nil {
		t.Errorf("used = %+v", used)
	}
	if _, err := f.loyalty.UseVoucher(ctx, f.owner, v.Code); !errors.Is(err, ErrVoucherUsed) {
		t.Errorf("second use: err = %v", err)
	}
	if _, err := f.loyalty.UseVoucher(ctx, f.owner, "CAFE-NOPE"); !errors.Is(err, ErrVoucherNotFound) {
		t.Errorf("unknown code: err = %v", err)
	}

	report, err := f.loyalty.Audit(ctx, f.customer.ID)
	if err != nil {
		t.Fatalf("Audit: %v", err)
	}
	if !report.Consistent || report.Entries != 2 {
		t.Errorf("audit = %+v", report)
	}
}

func TestExpiredVoucherIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.loyalty.Bonus(ctx, f.owner, f.customer.ID, 200, ""); err != nil {
		t.Fatalf("Bonus: %v", err)
	}
	v, err := f.loyalty.RedeemVoucher(ctx, f.member, f.customer.ID, entity.VoucherUpgrade)
	if err != nil {
		t.Fatalf("RedeemVoucher: %v", err)
	}

	f.loyalty.now = func() time.Time { return testNow.AddDate(0, 0, 14) }
	if _, err := f.loyalty.UseVoucher(ctx, f.owner, v.Code); !errors.Is(err, ErrVoucherExpired) {
		t.Fatalf("err = %v, want ErrVoucherExpired", err)
	}
	var stored entity.Voucher
	f.db.First(&stored, "id = ?", v.ID)
	if stored.Status != entity.VoucherExpired {
		t.Errorf("status = %s, want EXPIRED", stored.Status)
	}
	if _, err := f.loyalty.UseVoucher(ctx, f.owner, v.Code); !errors.Is(err, ErrVoucherExpired) {
		t.Errorf("second attempt: err = %v", err)
	}
}

func TestBonusRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.loyalty.Bonus(ctx, f.member, f.customer.ID, 50, ""); !errors.Is(err, ErrForbidden) {
		t.Errorf("customer self-bonus: err = %v", err)
	}
	if _, err := f.loyalty.Bonus(ctx, f.owner, f.customer.ID, -10, "oops"); !errors.Is(err, ErrInsufficientPoints) {
		t.Errorf("negative on empty balance: err = %v", err)
	}
	if _, err := f.loyalty.Bonus(ctx, f.owner, f.customer.ID, 0, ""); !errors.Is(err, ErrInvalidPoints) {
		t.Errorf("zero bonus: err = %v", err)
	}

	res, err := f.loyalty.Bonus(ctx, f.owner, f.customer.ID, 1200, "")
	if err != nil {
		t.Fatalf("Bonus: %v", err)
	}
	if res.Entry.Description != "Manual bonus" || res.Customer.Tier != string(loyalty.Silver) {
		t.Errorf("result = %+v / %+v", res.Entry, res.Customer)
	}
	res, err = f.loyalty.Bonus(ctx, f.owner, f.customer.ID, -200, "correction")
	if err != nil {
		t.Fatalf("negative Bonus: %v", err)
	}
	if res.Customer.PointsBalance != 1000 || res.Customer.LifetimePoints != 1200 || res.Entry.Seq != 2 {
		t.Errorf("after correction: %+v seq %d", res.Customer, res.Entry.Seq)
	}
}

func TestSummaryAndHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, pts := range []int{400, 500, 300} {
		if _, err := f.loyalty.Bonus(ctx, f.owner, f.customer.ID, pts, ""); err != nil {
			t.Fatalf("Bonus: %v", err)
		}
	}
	if _, err := f.loyalty.RedeemVoucher(ctx, f.member, f.customer.ID, entity.VoucherUpgrade); err != nil {
		t.Fatalf("RedeemVoucher: %v", err)
	}

	sum, err := f.loyalty.Summary(ctx, f.member, f.customer.ID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.PointsBalance != 1050 || sum.LifetimePoints != 1200 {
		t.Errorf("summary = balance %d lifetime %d", sum.PointsBalance, sum.LifetimePoints)
	}
	if sum.Tier != loyalty.Silver || sum.NextTier != loyalty.Gold || sum.PointsToNextTier != 3800 {
		t.Errorf("progress = %s -> %s (%d)", sum.Tier, sum.NextTier, sum.PointsToNextTier)
	}
	if len(sum.RecentTransactions) != 4 || sum.RecentTransactions[0].Type != entity.PointsRedeem {
		t.Errorf("recent = %+v", sum.RecentTransactions)
	}
	if len(sum.ActiveVouchers) != 1 {
		t.Errorf("vouchers = %+v", sum.ActiveVouchers)
	}

	rows, err := f.loyalty.History(ctx, f.member, f.customer.ID, 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(rows) != 2 || rows[0].Seq != 4 || rows[1].Seq != 3 {
		t.Errorf("history = %+v", rows)
	}
}

func TestAuditFlagsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.loyalty.Bonus(ctx, f.owner, f.customer.ID, 100, ""); err != nil {
		t.Fatalf("Bonus: %v", err)
	}
	f.db.Model(&entity.Customer{}).Where("id = ?", f.customer.ID).Update("points_balance", 150)

	report, err := f.loyalty.Audit(ctx, f.customer.ID)
	if err != nil {
		t.Fatalf("Audit: %v", err)
	}
	if report.Consistent || report.Problem == "" {
		t.Errorf("audit = %+v, want inconsistent", report)
	}
	if _, err := f.loyalty.Audit(ctx, "missing"); !errors.Is(err, ErrCustomerNotFound) {
		t.Errorf("missing customer: err = %v", err)
	}
}

func TestStaleBalanceIsRejected(t *testing.T) {
	f := newFixture(t)
	stale := *f.customer
	if _, err := f.loyalty.Bonus(context.Background(), f.owner, f.customer.ID, 100, ""); err != nil {
		t.Fatalf("Bonus: %v", err)
	}

	// stale still believes the balance is 0
	_, err := f.loyalty.appendEntry(f.db, &stale, loyalty.Bonus, 10, "late", nil)
	if !errors.Is(err, ErrConcurrentUpdate) {
		t.Fatalf("err = %v, want ErrConcurrentUpdate", err)
	}
	if c := f.reloadCustomer(t); c.PointsBalance != 100 {
		t.Errorf("balance = %d, want 100", c.PointsBalance)
	}
}

func TestCreateRuleValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := CreateRuleReq{CafeID: f.cafe.ID, Name: "Big order", Condition: `order.total >= 40`, Points: 50}
	if _, err := f.loyalty.CreateRule(ctx, f.owner, base); err != nil {
		t.Fatalf("CreateRule: %v", err)
	}

	bad := []CreateRuleReq{
		base, // duplicate name
		{CafeID: f.cafe.ID, Name: "Broken", Condition: `order.total >=`, Points: 10},
		{CafeID: f.cafe.ID, Name: "Not bool", Condition: `"gold"`, Points: 10},
		{CafeID: f.cafe.ID, Name: "Dynamic not bool", Condition: `order.total`, Points: 10},
		{CafeID: f.cafe.ID, Name: "Free", Condition: `true`, Points: 0},
	}
	for _, r := range bad {
		if _, err := f.loyalty.CreateRule(ctx, f.owner, r); !errors.Is(err, ErrInvalidRule) {
			t.Errorf("CreateRule(%s): err = %v, want ErrInvalidRule", r.Name, err)
		}
	}
	if _, err := f.loyalty.CreateRule(ctx, f.member, base); !errors.Is(err, ErrForbidden) {
		t.Errorf("customer creating rule: err = %v", err)
	}

	rules, err := f.loyalty.ListRules(ctx, f.owner, f.cafe.ID)
	if err != nil {
		t.Fatalf("ListRules: %v", err)
	}
	if len(rules) != 1 {
		t.Errorf("rules = %+v", rules)
	}
}
