package configs

import (
	"cafepos/entity"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

func DB() *gorm.DB {
	return db
}

func ConnectionDB(cfg *Config) {
	database, err := Open(cfg.DBDriver, cfg.DBSource, cfg.MySQL)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("failed to connect database")
	}
	db = database
}

// Open connects with the sqlite or mysql dialect. For mysql the DSN is built from m and
// source is ignored.
func Open(driver, source string, m MySQLConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "", "sqlite":
		dialector = sqlite.Open(source)
	case "mysql":
		dialector = mysql.Open(mysqlDSN(m))
	default:
		return nil, errors.Errorf("unsupported DB_DRIVER %q", driver)
	}

	database, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	return database, nil
}

func mysqlDSN(m MySQLConfig) string {
	c := mysqldrv.NewConfig()
	c.User = m.User
	c.Passwd = m.Password
	c.Net = "tcp"
	c.Addr = m.Addr
	c.DBName = m.DBName
	c.ParseTime = true
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

func SetupDatabase() {
	if err := Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}
}

// Migrate the schema
func Migrate(database *gorm.DB) error {
	return database.AutoMigrate(
		&entity.User{},
		&entity.Cafe{}, &entity.Category{}, &entity.Product{},
		&entity.Customer{},
		&entity.Order{}, &entity.OrderItem{},
		&entity.CoffeeProfile{},
		&entity.PointTransaction{}, &entity.Voucher{},
		&entity.BonusRule{},
	)
}
