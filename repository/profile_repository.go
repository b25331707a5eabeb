package repository

import (
	"context"

	"cafepos/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository struct {
	DB *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{DB: db}
}

var profileColumns = []string{
	"roast_preference", "strength_preference", "milk_preference",
	"temperature_preference", "sweetness_preference", "adventure_score",
	"flavor_notes", "profile_type", "confidence", "generated_at", "updated_at",
}

// Upsert creates the customer's profile or replaces every scored column in one statement,
// then returns the stored row.
func (r *ProfileRepository) Upsert(ctx context.Context, p *entity.CoffeeProfile) (*entity.CoffeeProfile, error) {
	db := r.DB.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_id"}},
		DoUpdates: clause.AssignmentColumns(profileColumns),
	}).Create(p).Error
	if err != nil {
		return nil, err
	}
	return r.FindByCustomer(ctx, p.CustomerID)
}

func (r *ProfileRepository) FindByCustomer(ctx context.Context, customerID string) (*entity.CoffeeProfile, error) {
	var p entity.CoffeeProfile
	if err := r.DB.WithContext(ctx).First(&p, "customer_id = ?", customerID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}
