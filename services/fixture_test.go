package services

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"cafepos/configs"
	"cafepos/entity"
	"cafepos/pkg/bonusrule"
	"cafepos/pkg/events"
	"cafepos/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Monday 15:00 UTC
var testNow = time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) ofType(typ string) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// mapCache stores JSON like the redis cache does.
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *mapCache) Get(_ context.Context, key string, dst any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (m *mapCache) Set(_ context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	return nil
}

func (m *mapCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type fixture struct {
	db        *gorm.DB
	cafe      *entity.Cafe
	owner     Actor
	member    Actor
	admin     Actor
	customer  *entity.Customer
	longBlack *entity.Product
	croissant *entity.Product

	access   *CustomerService
	loyalty  *LoyaltyService
	orders   *OrderService
	profiles *ProfileService
	catalog  *CatalogService
	pub      *recorder
	cache    *mapCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := configs.Open("sqlite", filepath.Join(t.TempDir(), "cafepos.db"), configs.MySQLConfig{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := configs.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	f := &fixture{db: db, pub: &recorder{}, cache: &mapCache{data: map[string][]byte{}}}
	ownerUser := mustCreate(t, db, &entity.User{Email: "owner@cafe.test", Password: "x", Name: "Owner", Role: entity.RoleOwner})
	memberUser := mustCreate(t, db, &entity.User{Email: "ada@cafe.test", Password: "x", Name: "Ada", Role: entity.RoleCustomer})
	adminUser := mustCreate(t, db, &entity.User{Email: "admin@cafe.test", Password: "x", Name: "Admin", Role: entity.RoleAdmin})
	f.owner = Actor{UserID: ownerUser.ID, Role: entity.RoleOwner}
	f.member = Actor{UserID: memberUser.ID, Role: entity.RoleCustomer}
	f.admin = Actor{UserID: adminUser.ID, Role: entity.RoleAdmin}

	f.cafe = mustCreate(t, db, &entity.Cafe{Name: "Test Roasters", Slug: "test", OwnerID: &ownerUser.ID})
	coffee := mustCreate(t, db, &entity.Category{CafeID: f.cafe.ID, Name: "Coffee"})
	pastry := mustCreate(t, db, &entity.Category{CafeID: f.cafe.ID, Name: "Pastry"})
	roast := entity.RoastMediumDark
	f.longBlack = mustCreate(t, db, &entity.Product{
		CafeID: f.cafe.ID, Name: "Long Black", Price: decimal.RequireFromString("4.50"),
		RoastLevel: &roast, CategoryID: &coffee.ID,
	})
	f.croissant = mustCreate(t, db, &entity.Product{
		CafeID: f.cafe.ID, Name: "Croissant", Price: decimal.RequireFromString("3.50"), CategoryID: &pastry.ID,
	})
	f.customer = mustCreate(t, db, &entity.Customer{CafeID: f.cafe.ID, UserID: &memberUser.ID, Name: "Ada", Tier: "BRONZE"})

	engine, err := bonusrule.NewEngine()
	if err != nil {
		t.Fatalf("rule engine: %v", err)
	}
	customers := repository.NewCustomerRepository(db)
	orders := repository.NewOrderRepository(db)
	cafes := repository.NewCafeRepository(db)

	f.access = NewCustomerService(customers, cafes)
	f.loyalty = NewLoyaltyService(db, customers, repository.NewLoyaltyRepository(db), f.access, engine, f.pub, configs.DefaultLoyalty())
	f.loyalty.now = func() time.Time { return testNow }
	f.orders = NewOrderService(db, orders, cafes, f.access, f.loyalty)
	f.profiles = NewProfileService(customers, orders, repository.NewProfileRepository(db), f.cache, f.pub, f.access)
	f.profiles.now = func() time.Time { return testNow }
	f.catalog = NewCatalogService(repository.NewCatalogRepository(db), f.access)
	return f
}

func mustCreate[T any](t *testing.T, db *gorm.DB, v *T) *T {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
	return v
}

// completeOrder checks out an order as the member and walks it to COMPLETED as the owner.
func (f *fixture) completeOrder(t *testing.T, items ...OrderItemIn) *StatusChange {
	t.Helper()
	ctx := context.Background()
	o, err := f.orders.Create(ctx, f.member, &CreateOrderReq{CustomerID: f.customer.ID, Items: items})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	var change *StatusChange
	for _, to := range []string{entity.OrderPreparing, entity.OrderReady, entity.OrderCompleted} {
		if change, err = f.orders.AdvanceStatus(ctx, f.owner, o.ID, to); err != nil {
			t.Fatalf("advance to %s: %v", to, err)
		}
	}
	return change
}

func (f *fixture) reloadCustomer(t *testing.T) *entity.Customer {
	t.Helper()
	var c entity.Customer
	if err := f.db.First(&c, "id = ?", f.customer.ID).Error; err != nil {
		t.Fatalf("reload customer: %v", err)
	}
	return &c
}

func item(p *entity.Product, qty int) OrderItemIn {
	return OrderItemIn{ProductID: p.ID, Quantity: qty}
}
