package services

import (
	"context"
	"strings"

	"cafepos/entity"
	"cafepos/repository"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInvalidPrice    = errors.New("price must be positive")
	ErrInvalidRoast    = errors.New("unknown roast level")
	ErrInvalidCategory = errors.New("category does not belong to this cafe")
)

var roastLevels = map[string]bool{
	entity.RoastLight: true, entity.RoastMediumLight: true, entity.RoastMedium: true,
	entity.RoastMediumDark: true, entity.RoastDark: true,
}

type CatalogService struct {
	Repo   *repository.CatalogRepository
	Access *CustomerService
}

func NewCatalogService(repo *repository.CatalogRepository, access *CustomerService) *CatalogService {
	return &CatalogService{Repo: repo, Access: access}
}

type Menu struct {
	Cafe       *entity.Cafe      `json:"cafe"`
	Categories []entity.Category `json:"categories"`
	Products   []entity.Product  `json:"products"`
}

func (s *CatalogService) ListCafes(ctx context.Context) ([]entity.Cafe, error) {
	return s.Repo.ListCafes(ctx)
}

// Menu returns a cafe's categories and the products currently on sale.
func (s *CatalogService) Menu(ctx context.Context, slug string) (*Menu, error) {
	cafe, err := s.Repo.FindCafeBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCafeNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load cafe")
	}
	products, err := s.Repo.ListProducts(ctx, cafe.ID, true)
	if err != nil {
		return nil, errors.Wrap(err, "load products")
	}
	categories := cafe.Categories
	if categories == nil {
		categories = []entity.Category{}
	}
	if products == nil {
		products = []entity.Product{}
	}
	return &Menu{Cafe: cafe, Categories: categories, Products: products}, nil
}

// ----- DTOs from Controller -----
type ProductReq struct {
	Name       string          `json:"name" binding:"required"`
	Price      decimal.Decimal `json:"price"`
	RoastLevel *string         `json:"roastLevel"`
	CategoryID *string         `json:"categoryId"`
	Available  *bool           `json:"available"`
}

type ProductPatch struct {
	Name       *string          `json:"name"`
	Price      *decimal.Decimal `json:"price"`
	RoastLevel *string          `json:"roastLevel"`
	CategoryID *string          `json:"categoryId"`
	Available  *bool            `json:"available"`
}

func (s *CatalogService) CreateProduct(ctx context.Context, actor Actor, cafeID string, req ProductReq) (*entity.Product, error) {
	if err := s.Access.CanManageCafe(ctx, actor, cafeID); err != nil {
		return nil, err
	}
	if !req.Price.IsPositive() {
		return nil, ErrInvalidPrice
	}
	roast, err := normalizeRoast(req.RoastLevel)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, cafeID, req.CategoryID); err != nil {
		return nil, err
	}

	p := &entity.Product{
		CafeID:     cafeID,
		Name:       strings.TrimSpace(req.Name),
		Price:      req.Price,
		RoastLevel: roast,
		CategoryID: req.CategoryID,
		Available:  true,
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create product")
	}
	// "available" has a DB default, so a false must be written explicitly
	if req.Available != nil && !*req.Available {
		if err := s.Repo.UpdateProduct(ctx, p.ID, map[string]any{"available": false}); err != nil {
			return nil, errors.Wrap(err, "update availability")
		}
		p.Available = false
	}
	return p, nil
}

// UpdateProduct changes price, roast, category or availability. Past orders keep their
// snapshotted name and price.
func (s *CatalogService) UpdateProduct(ctx context.Context, actor Actor, productID string, patch ProductPatch) (*entity.Product, error) {
	p, err := s.Repo.FindProduct(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load product")
	}
	if err := s.Access.CanManageCafe(ctx, actor, p.CafeID); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) != "" {
		fields["name"] = strings.TrimSpace(*patch.Name)
	}
	if patch.Price != nil {
		if !patch.Price.IsPositive() {
			return nil, ErrInvalidPrice
		}
		fields["price"] = *patch.Price
	}
	if patch.RoastLevel != nil {
		roast, err := normalizeRoast(patch.RoastLevel)
		if err != nil {
			return nil, err
		}
		fields["roast_level"] = roast
	}
	if patch.CategoryID != nil {
		if err := s.checkCategory(ctx, p.CafeID, patch.CategoryID); err != nil {
			return nil, err
		}
		fields["category_id"] = *patch.CategoryID
	}
	if patch.Available != nil {
		fields["available"] = *patch.Available
	}
	if len(fields) > 0 {
		if err := s.Repo.UpdateProduct(ctx, p.ID, fields); err != nil {
			return nil, errors.Wrap(err, "update product")
		}
	}
	return s.Repo.FindProduct(ctx, p.ID)
}

// ---------- helpers ----------

// normalizeRoast maps "" to no roast and upper-cases known levels.
func normalizeRoast(in *string) (*string, error) {
	if in == nil || strings.TrimSpace(*in) == "" {
		return nil, nil
	}
	level := strings.ToUpper(strings.TrimSpace(*in))
	if !roastLevels[level] {
		return nil, ErrInvalidRoast
	}
	return &level, nil
}

func (s *CatalogService) checkCategory(ctx context.Context, cafeID string, categoryID *string) error {
	if categoryID == nil {
		return nil
	}
	ok, err := s.Repo.CategoryInCafe(ctx, cafeID, *categoryID)
	if err != nil {
		return errors.Wrap(err, "check category")
	}
	if !ok {
		return ErrInvalidCategory
	}
	return nil
}
