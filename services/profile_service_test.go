package services

import (
	"context"
	"testing"

	"cafepos/entity"
	"cafepos/pkg/cache"
	"cafepos/pkg/events"
	"cafepos/pkg/tasteprofile"

	"github.com/pkg/errors"
)

func TestGenerateLongBlackRegular(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 6; i++ {
		f.completeOrder(t, item(f.longBlack, 1))
	}

	res, err := f.profiles.Generate(context.Background(), f.customer.ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	p := res.Profile
	if p.ProfileType != string(tasteprofile.BoldExplorer) {
		t.Errorf("profileType = %q, want Bold Explorer", p.ProfileType)
	}
	if p.MilkPreference != tasteprofile.MilkNone {
		t.Errorf("milk = %q, want none", p.MilkPreference)
	}
	if p.StrengthPreference != 5 || p.RoastPreference != 4 || p.TemperaturePreference != 5 {
		t.Errorf("scores = strength %v roast %v temperature %v", p.StrengthPreference, p.RoastPreference, p.TemperaturePreference)
	}
	if p.Confidence != 0.53 {
		t.Errorf("confidence = %v, want 0.53", p.Confidence)
	}
	if res.Analysis.OrdersAnalyzed != 6 {
		t.Errorf("ordersAnalyzed = %d, want 6", res.Analysis.OrdersAnalyzed)
	}
	if len(res.Analysis.TopProducts) != 1 || res.Analysis.TopProducts[0] != (tasteprofile.ProductCount{Name: "Long Black", Count: 6}) {
		t.Errorf("topProducts = %+v", res.Analysis.TopProducts)
	}
	if len(f.pub.ofType(events.ProfileGenerated)) != 1 {
		t.Errorf("expected one ProfileGenerated event")
	}

	// a second run replaces the same row
	again, err := f.profiles.Generate(context.Background(), f.customer.ID)
	if err != nil {
		t.Fatalf("Generate again: %v", err)
	}
	if again.Profile.ID != p.ID {
		t.Errorf("profile id changed: %s -> %s", p.ID, again.Profile.ID)
	}
	var n int64
	f.db.Model(&entity.CoffeeProfile{}).Count(&n)
	if n != 1 {
		t.Errorf("profiles = %d, want 1", n)
	}
}

func TestGenerateNeedsFiveCompletedOrders(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 4; i++ {
		f.completeOrder(t, item(f.longBlack, 1))
	}
	// pending orders do not count
	if _, err := f.orders.Create(context.Background(), f.member, &CreateOrderReq{
		CustomerID: f.customer.ID, Items: []OrderItemIn{item(f.longBlack, 1)},
	}); err != nil {
		t.Fatalf("create order: %v", err)
	}

	_, err := f.profiles.Generate(context.Background(), f.customer.ID)
	if !errors.Is(err, ErrNotEnoughOrders) {
		t.Fatalf("err = %v, want ErrNotEnoughOrders", err)
	}
	var n int64
	f.db.Model(&entity.CoffeeProfile{}).Count(&n)
	if n != 0 {
		t.Errorf("profiles = %d, want 0", n)
	}
}

func TestGenerateValidation(t *testing.T) {
	f := newFixture(t)
	if _, err := f.profiles.Generate(context.Background(), "   "); !errors.Is(err, ErrCustomerIDRequired) {
		t.Errorf("blank id: err = %v", err)
	}
	if _, err := f.profiles.Generate(context.Background(), "no-such-customer"); !errors.Is(err, ErrCustomerNotFound) {
		t.Errorf("unknown id: err = %v", err)
	}
}

func TestGetReadsThroughCache(t *testing.T) {
	f := newFixture(t)
	if _, err := f.profiles.Get(context.Background(), f.member, f.customer.ID); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("before generate: err = %v", err)
	}

	for i := 0; i < 5; i++ {
		f.completeOrder(t, item(f.longBlack, 1), item(f.croissant, 1))
	}
	res, err := f.profiles.Generate(context.Background(), f.customer.ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, ok := f.cache.data[cache.ProfileKey(f.customer.ID)]; !ok {
		t.Fatalf("profile not cached after generate")
	}

	// drop the row; the cached copy still answers
	f.db.Where("customer_id = ?", f.customer.ID).Delete(&entity.CoffeeProfile{})
	got, err := f.profiles.Get(context.Background(), f.member, f.customer.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != res.Profile.ID || got.ProfileType != res.Profile.ProfileType {
		t.Errorf("cached profile = %+v, want %+v", got, res.Profile)
	}
}

func TestGetRestrictedToOwnCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		f.completeOrder(t, item(f.longBlack, 1))
	}
	if _, err := f.profiles.Generate(ctx, f.customer.ID); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	other := mustCreate(t, f.db, &entity.User{Email: "other@cafe.test", Password: "x", Name: "Other", Role: entity.RoleCustomer})
	if _, err := f.profiles.Get(ctx, Actor{UserID: other.ID, Role: entity.RoleCustomer}, f.customer.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("other customer (cached profile): err = %v", err)
	}
	if _, err := f.profiles.Get(ctx, f.owner, f.customer.ID); err != nil {
		t.Errorf("cafe owner: err = %v", err)
	}
	if _, err := f.profiles.Get(ctx, f.admin, "no-such-customer"); !errors.Is(err, ErrCustomerNotFound) {
		t.Errorf("unknown customer: err = %v", err)
	}
}
