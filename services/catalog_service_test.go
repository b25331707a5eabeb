package services

import (
	"context"
	"testing"

	"cafepos/entity"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

func ptr[T any](v T) *T { return &v }

func TestMenuHidesUnavailableProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.catalog.CreateProduct(ctx, f.owner, f.cafe.ID, ProductReq{
		Name: "Seasonal Pour Over", Price: decimal.RequireFromString("6.00"),
		RoastLevel: ptr("light"), Available: ptr(false),
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if p.RoastLevel == nil || *p.RoastLevel != entity.RoastLight || p.Available {
		t.Errorf("product = %+v", p)
	}

	menu, err := f.catalog.Menu(ctx, "TEST")
	if err != nil {
		t.Fatalf("Menu: %v", err)
	}
	if len(menu.Categories) != 2 || len(menu.Products) != 2 {
		t.Fatalf("menu = %d categories, %d products", len(menu.Categories), len(menu.Products))
	}
	if menu.Products[0].Name != "Croissant" || menu.Products[0].Category == nil || menu.Products[0].Category.Name != "Pastry" {
		t.Errorf("first product = %+v", menu.Products[0])
	}

	if _, err := f.catalog.UpdateProduct(ctx, f.owner, p.ID, ProductPatch{Available: ptr(true)}); err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if menu, _ = f.catalog.Menu(ctx, "test"); len(menu.Products) != 3 {
		t.Errorf("products after enabling = %d, want 3", len(menu.Products))
	}
	if _, err := f.catalog.Menu(ctx, "nowhere"); !errors.Is(err, ErrCafeNotFound) {
		t.Errorf("unknown cafe: err = %v", err)
	}
}

func TestProductValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := mustCreate(t, f.db, &entity.Cafe{Name: "Elsewhere", Slug: "elsewhere"})
	foreignCat := mustCreate(t, f.db, &entity.Category{CafeID: other.ID, Name: "Tea"})

	tests := []struct {
		name  string
		actor Actor
		req   ProductReq
		want  error
	}{
		{"free", f.owner, ProductReq{Name: "Water", Price: decimal.Zero}, ErrInvalidPrice},
		{"bad roast", f.owner, ProductReq{Name: "Mystery", Price: decimal.NewFromInt(4), RoastLevel: ptr("burnt")}, ErrInvalidRoast},
		{"foreign category", f.owner, ProductReq{Name: "Sencha", Price: decimal.NewFromInt(4), CategoryID: &foreignCat.ID}, ErrInvalidCategory},
		{"customer", f.member, ProductReq{Name: "Latte", Price: decimal.NewFromInt(4)}, ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.catalog.CreateProduct(ctx, tt.actor, f.cafe.ID, tt.req); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := f.catalog.UpdateProduct(ctx, f.owner, f.longBlack.ID, ProductPatch{Price: ptr(decimal.NewFromInt(-1))}); !errors.Is(err, ErrInvalidPrice) {
		t.Errorf("negative price: err = %v", err)
	}
	if _, err := f.catalog.UpdateProduct(ctx, f.owner, "missing", ProductPatch{}); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("missing product: err = %v", err)
	}
	updated, err := f.catalog.UpdateProduct(ctx, f.owner, f.longBlack.ID, ProductPatch{Price: ptr(decimal.RequireFromString("5.25")), RoastLevel: ptr("")})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if !updated.Price.Equal(decimal.RequireFromString("5.25")) || updated.RoastLevel != nil {
		t.Errorf("updated = %+v", updated)
	}
}
