package repository

import (
	"context"

	"cafepos/entity"

	"gorm.io/gorm"
)

type CafeRepository struct {
	DB *gorm.DB
}

func NewCafeRepository(db *gorm.DB) *CafeRepository {
	return &CafeRepository{DB: db}
}

func (r *CafeRepository) FindByID(ctx context.Context, id string) (*entity.Cafe, error) {
	var c entity.Cafe
	if err := r.DB.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CafeRepository) IsOwnedBy(ctx context.Context, cafeID, userID string) (bool, error) {
	var cnt int64
	if err := r.DB.WithContext(ctx).Model(&entity.Cafe{}).
		Where("id = ? AND owner_id = ?", cafeID, userID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// FindProducts loads the given products of one cafe with their category.
func (r *CafeRepository) FindProducts(ctx context.Context, cafeID string, ids []string) ([]entity.Product, error) {
	var out []entity.Product
	err := r.DB.WithContext(ctx).
		Preload("Category").
		Where("cafe_id = ? AND id IN ?", cafeID, ids).
		Find(&out).Error
	return out, err
}
