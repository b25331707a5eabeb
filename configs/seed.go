package configs

import (
	"cafepos/entity"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedAdmin creates the first admin account.
func SeedAdmin(database *gorm.DB, email, pass string) error {
	if email == "" || pass == "" {
		log.Warn().Msg("⚠️ skip seeding admin: missing ADMIN_EMAIL/ADMIN_PASSWORD")
		return nil
	}

	var count int64
	if err := database.Model(&entity.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return errors.Wrap(err, "count admin")
	}
	if count > 0 {
		log.Info().Str("email", email).Msg("ℹ️ admin already exists")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash admin password")
	}
	admin := entity.User{
		Email:    email,
		Password: string(hash),
		Name:     "Admin",
		Role:     entity.RoleAdmin,
	}
	return database.Create(&admin).Error
}

type seedProduct struct {
	name     string
	price    string
	roast    string
	category string
}

var demoProducts = []seedProduct{
	{"Long Black", "4.50", entity.RoastMediumDark, "Coffee"},
	{"Espresso", "3.80", entity.RoastDark, "Coffee"},
	{"Flat White", "5.00", entity.RoastMedium, "Coffee"},
	{"Oat Latte", "5.50", entity.RoastMedium, "Coffee"},
	{"Iced Latte", "5.50", entity.RoastMedium, "Coffee"},
	{"Cold Brew", "5.80", entity.RoastMediumLight, "Coffee"},
	{"Ethiopian Pour Over", "6.50", entity.RoastLight, "Coffee"},
	{"Chai Latte", "5.20", "", "Tea"},
	{"Butter Croissant", "4.20", "", "Pastry"},
}

// SeedDemo creates a demo cafe with a small catalog and the configured bonus rules.
func SeedDemo(database *gorm.DB, lc LoyaltyConfig) error {
	return database.Transaction(func(tx *gorm.DB) error {
		var cafe entity.Cafe
		if err := tx.Where(entity.Cafe{Slug: "demo"}).
			Attrs(entity.Cafe{Name: "Demo Roasters"}).
			FirstOrCreate(&cafe).Error; err != nil {
			return errors.Wrap(err, "seed cafe")
		}

		categories := map[string]string{}
		for _, name := range []string{"Coffee", "Tea", "Pastry"} {
			var cat entity.Category
			if err := tx.Where(entity.Category{CafeID: cafe.ID, Name: name}).FirstOrCreate(&cat).Error; err != nil {
				return errors.Wrapf(err, "seed category %s", name)
			}
			categories[name] = cat.ID
		}

		for _, p := range demoProducts {
			catID := categories[p.category]
			attrs := entity.Product{Price: decimal.RequireFromString(p.price), CategoryID: &catID}
			if p.roast != "" {
				roast := p.roast
				attrs.RoastLevel = &roast
			}
			var prod entity.Product
			if err := tx.Where(entity.Product{CafeID: cafe.ID, Name: p.name}).Attrs(attrs).FirstOrCreate(&prod).Error; err != nil {
				return errors.Wrapf(err, "seed product %s", p.name)
			}
		}

		for _, r := range lc.BonusRules {
			var rule entity.BonusRule
			if err := tx.Where(entity.BonusRule{CafeID: cafe.ID, Name: r.Name}).
				Attrs(entity.BonusRule{Condition: r.Condition, Points: r.Points, Active: true}).
				FirstOrCreate(&rule).Error; err != nil {
				return errors.Wrapf(err, "seed bonus rule %s", r.Name)
			}
		}

		log.Info().Str("cafeId", cafe.ID).Msg("✅ demo cafe seeded")
		return nil
	})
}
