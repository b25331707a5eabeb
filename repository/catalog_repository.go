package repository

import (
	"context"

	"cafepos/entity"

	"gorm.io/gorm"
)

type CatalogRepository struct {
	DB *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{DB: db}
}

// FindCafeBySlug loads a cafe with its categories.
func (r *CatalogRepository) FindCafeBySlug(ctx context.Context, slug string) (*entity.Cafe, error) {
	var c entity.Cafe
	err := r.DB.WithContext(ctx).
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		First(&c, "slug = ?", slug).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CatalogRepository) ListCafes(ctx context.Context) ([]entity.Cafe, error) {
	var out []entity.Cafe
	err := r.DB.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, err
}

func (r *CatalogRepository) ListProducts(ctx context.Context, cafeID string, onlyAvailable bool) ([]entity.Product, error) {
	q := r.DB.WithContext(ctx).Preload("Category").Where("cafe_id = ?", cafeID)
	if onlyAvailable {
		q = q.Where("available = ?", true)
	}
	var out []entity.Product
	err := q.Order("name ASC").Find(&out).Error
	return out, err
}

func (r *CatalogRepository) FindProduct(ctx context.Context, id string) (*entity.Product, error) {
	var p entity.Product
	if err := r.DB.WithContext(ctx).Preload("Category").First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *CatalogRepository) CategoryInCafe(ctx context.Context, cafeID, categoryID string) (bool, error) {
	var cnt int64
	err := r.DB.WithContext(ctx).Model(&entity.Category{}).
		Where("id = ? AND cafe_id = ?", categoryID, cafeID).
		Count(&cnt).Error
	return cnt > 0, err
}

func (r *CatalogRepository) CreateProduct(ctx context.Context, p *entity.Product) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

// UpdateProduct writes only the given columns.
func (r *CatalogRepository) UpdateProduct(ctx context.Context, id string, fields map[string]any) error {
	return r.DB.WithContext(ctx).Model(&entity.Product{}).Where("id = ?", id).Updates(fields).Error
}
