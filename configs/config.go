package configs

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        string
	ServiceName string
	CORSOrigins []string

	DBDriver string
	DBSource string
	MySQL    MySQLConfig

	JWTSecret string
	JWTTTL    time.Duration

	RedisAddr       string
	ProfileCacheTTL time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	JaegerEndpoint string

	LogLevel  string
	LogPretty bool

	AdminEmail    string
	AdminPassword string
	SeedDemo      bool

	Loyalty LoyaltyConfig
}

type MySQLConfig struct {
	User     string
	Password string
	Addr     string
	DBName   string
}

// LoyaltyConfig can be overridden by the YAML file named in CONFIG_FILE.
type LoyaltyConfig struct {
	EarnRate   int                     `yaml:"earnRate"`
	Vouchers   map[string]VoucherOffer `yaml:"vouchers"`
	BonusRules []BonusRuleSeed         `yaml:"bonusRules"`
}

type VoucherOffer struct {
	Cost      int `yaml:"cost"`
	ValidDays int `yaml:"validDays"`
}

type BonusRuleSeed struct {
	Name      string `yaml:"name"`
	Condition string `yaml:"condition"`
	Points    int    `yaml:"points"`
}

func DefaultLoyalty() LoyaltyConfig {
	return LoyaltyConfig{
		EarnRate: 10,
		Vouchers: map[string]VoucherOffer{
			"FREE_DRINK": {Cost: 500, ValidDays: 30},
			"DISCOUNT":   {Cost: 300, ValidDays: 30},
			"UPGRADE":    {Cost: 150, ValidDays: 14},
		},
		BonusRules: []BonusRuleSeed{
			{Name: "Early bird pastry", Condition: `"Pastry" in order.categories && order.hour < 10`, Points: 25},
			{Name: "Big order", Condition: `order.total >= 40`, Points: 50},
		},
	}
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("no .env file, using process environment")
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8000"),
		ServiceName: getEnv("SERVICE_NAME", "cafepos"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),

		DBDriver: getEnv("DB_DRIVER", "sqlite"),
		DBSource: getEnv("DB_SOURCE", "cafepos.db"),
		MySQL: MySQLConfig{
			User:     getEnv("MYSQL_USER", "root"),
			Password: getEnv("MYSQL_PASSWORD", ""),
			Addr:     getEnv("MYSQL_ADDR", "127.0.0.1:3306"),
			DBName:   getEnv("MYSQL_DATABASE", "cafepos"),
		},

		JWTSecret: getEnv("JWT_SECRET", "changeme"),
		JWTTTL:    getDuration("JWT_TTL", 24*time.Hour),

		RedisAddr:       getEnv("REDIS_ADDR", ""),
		ProfileCacheTTL: getDuration("PROFILE_CACHE_TTL", 10*time.Minute),

		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "cafe.loyalty.events"),

		JaegerEndpoint: getEnv("JAEGER_ENDPOINT", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getBool("LOG_PRETTY", false),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		SeedDemo:      getBool("SEED_DEMO", true),

		Loyalty: DefaultLoyalty(),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := LoadLoyaltyFile(path, &cfg.Loyalty); err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("load config file failed")
		}
	}
	return cfg
}

// LoadLoyaltyFile overlays the `loyalty:` section of a YAML file on top of lc. Keys missing
// from the file keep their current values.
func LoadLoyaltyFile(path string, lc *LoyaltyConfig) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read config file")
	}
	var doc struct {
		Loyalty *LoyaltyConfig `yaml:"loyalty"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return errors.Wrap(err, "parse config file")
	}
	if doc.Loyalty == nil {
		return nil
	}
	if doc.Loyalty.EarnRate > 0 {
		lc.EarnRate = doc.Loyalty.EarnRate
	}
	for typ, offer := range doc.Loyalty.Vouchers {
		if offer.Cost <= 0 || offer.ValidDays <= 0 {
			return errors.Errorf("voucher %s: cost and validDays must be positive", typ)
		}
		if lc.Vouchers == nil {
			lc.Vouchers = map[string]VoucherOffer{}
		}
		lc.Vouchers[strings.ToUpper(typ)] = offer
	}
	if doc.Loyalty.BonusRules != nil {
		lc.BonusRules = doc.Loyalty.BonusRules
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid bool, using default")
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid duration, using default")
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
