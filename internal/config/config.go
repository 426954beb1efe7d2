package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Broker   BrokerConfig
	Payment  PaymentConfig
	Worklog  WorklogConfig
	Rating   RatingConfig
	Admin    AdminConfig
}

type AppConfig struct {
	AppName     string
	Environment string
	HTTPPort    string
}

type DatabaseConfig struct {
	Driver     string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout        time.Duration
	PoolMaxConns          int32
	PoolMinConns          int32
	PoolMaxConnLifetime   time.Duration
	PoolMaxConnIdleTime   time.Duration
	PoolHealthCheckPeriod time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

type JWTConfig struct {
	AccessSecret     string
	RefreshSecret    string
	AccessExpiresIn  time.Duration
	RefreshExpiresIn time.Duration
}

type BrokerConfig struct {
	URL      string
	Exchange string
}

type PaymentConfig struct {
	Currency        string
	PlatformFeeRate decimal.Decimal
	ProviderPercent decimal.Decimal
	ProviderFixed   decimal.Decimal

	BreakerFailureThreshold int
	BreakerOpenTimeout      time.Duration
}

type WorklogConfig struct {
	HoursTolerance decimal.Decimal
}

type RatingConfig struct {
	MaxRetries int
	LockTTL    time.Duration
}

type AdminConfig struct {
	Email    string
	Password string
}

// fileConfig is the shape of the optional YAML overlay named by APP_CONFIG_FILE.
type fileConfig struct {
	Payment struct {
		Currency        string `yaml:"currency"`
		PlatformFeeRate string `yaml:"platform_fee_rate"`
		ProviderPercent string `yaml:"provider_fee_percent"`
		ProviderFixed   string `yaml:"provider_fee_fixed"`
		Breaker         struct {
			FailureThreshold int    `yaml:"failure_threshold"`
			OpenTimeout      string `yaml:"open_timeout"`
		} `yaml:"breaker"`
	} `yaml:"payment"`
	Worklog struct {
		HoursTolerance string `yaml:"hours_tolerance"`
	} `yaml:"worklog"`
	Rating struct {
		MaxRetries int    `yaml:"max_retries"`
		LockTTL    string `yaml:"lock_ttl"`
	} `yaml:"rating"`
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

func Load() (Config, error) {
	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv("APP_CONFIG_FILE")); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	var missing []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key string) string {
		return strings.TrimSpace(os.Getenv(key))
	}

	cfg.App = AppConfig{
		AppName:     req("APP_NAME"),
		Environment: req("APP_ENV"),
		HTTPPort:    req("HTTP_PORT"),
	}

	cfg.Database.Driver = strings.ToLower(orDefault(opt("STORE_DRIVER"), StoreDriverPostgres))
	cfg.Database.DBHost = opt("DB_HOST")
	cfg.Database.DBPort = opt("DB_PORT")
	cfg.Database.DBName = opt("DB_NAME")
	cfg.Database.DBUser = opt("DB_USER")
	cfg.Database.DBPassword = opt("DB_PASSWORD")
	cfg.Database.DBSSLMode = orDefault(opt("DB_SSL_MODE"), "disable")
	cfg.Database.PoolMaxConns = int32(intOr(opt("DB_POOL_MAX_CONNS"), 0))
	cfg.Database.PoolMinConns = int32(intOr(opt("DB_POOL_MIN_CONNS"), 0))
	cfg.Database.ConnectTimeout = durationOr(opt("DB_CONNECT_TIMEOUT"), 0)

	cfg.Redis.Host = orDefault(opt("REDIS_HOST"), cfg.Redis.Host)
	cfg.Redis.Port = orDefault(opt("REDIS_PORT"), cfg.Redis.Port)
	cfg.Redis.Password = opt("REDIS_PASSWORD")
	if ttl := intOr(opt("REDIS_TTL"), 0); ttl > 0 {
		cfg.Redis.TTL = time.Duration(ttl) * time.Second
	}

	cfg.JWT.AccessSecret = req("JWT_ACCESS_SECRET")
	cfg.JWT.RefreshSecret = req("JWT_REFRESH_SECRET")
	cfg.JWT.AccessExpiresIn = durationOr(opt("JWT_ACCESS_EXPIRES_IN"), cfg.JWT.AccessExpiresIn)
	cfg.JWT.RefreshExpiresIn = durationOr(opt("JWT_REFRESH_EXPIRES_IN"), cfg.JWT.RefreshExpiresIn)

	cfg.Broker.URL = opt("AMQP_URL")
	cfg.Broker.Exchange = orDefault(opt("AMQP_EXCHANGE"), cfg.Broker.Exchange)

	if v := opt("PAYMENT_CURRENCY"); v != "" {
		cfg.Payment.Currency = strings.ToUpper(v)
	}
	if v := opt("PAYMENT_PLATFORM_FEE_RATE"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PAYMENT_PLATFORM_FEE_RATE: %w", err)
		}
		cfg.Payment.PlatformFeeRate = d
	}

	cfg.Admin.Email = opt("ADMIN_EMAIL")
	cfg.Admin.Password = opt("ADMIN_PASSWORD")

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}

	if cfg.Database.Driver != StoreDriverPostgres && cfg.Database.Driver != StoreDriverMemory {
		return Config{}, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.Database.Driver)
	}

	return cfg, nil
}

// Defaults returns the business tunables used when neither the overlay file nor the environment set them.
func Defaults() Config {
	return Config{
		Redis: RedisConfig{Host: "localhost", Port: "6379", TTL: 600 * time.Second},
		JWT: JWTConfig{
			AccessExpiresIn:  15 * time.Minute,
			RefreshExpiresIn: 7 * 24 * time.Hour,
		},
		Broker: BrokerConfig{Exchange: "events"},
		Payment: PaymentConfig{
			Currency:                "USD",
			PlatformFeeRate:         decimal.RequireFromString("0.10"),
			ProviderPercent:         decimal.RequireFromString("0.029"),
			ProviderFixed:           decimal.RequireFromString("0.30"),
			BreakerFailureThreshold: 5,
			BreakerOpenTimeout:      30 * time.Second,
		},
		Worklog: WorklogConfig{HoursTolerance: decimal.RequireFromString("0.01")},
		Rating:  RatingConfig{MaxRetries: 5, LockTTL: 5 * time.Second},
	}
}

func applyFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return fc.apply(cfg)
}

func (fc fileConfig) apply(cfg *Config) error {
	decimals := []struct {
		raw string
		dst *decimal.Decimal
		key string
	}{
		{fc.Payment.PlatformFeeRate, &cfg.Payment.PlatformFeeRate, "payment.platform_fee_rate"},
		{fc.Payment.ProviderPercent, &cfg.Payment.ProviderPercent, "payment.provider_fee_percent"},
		{fc.Payment.ProviderFixed, &cfg.Payment.ProviderFixed, "payment.provider_fee_fixed"},
		{fc.Worklog.HoursTolerance, &cfg.Worklog.HoursTolerance, "worklog.hours_tolerance"},
	}
	for _, d := range decimals {
		if strings.TrimSpace(d.raw) == "" {
			continue
		}
		v, err := decimal.NewFromString(strings.TrimSpace(d.raw))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if c := strings.TrimSpace(fc.Payment.Currency); c != "" {
		cfg.Payment.Currency = strings.ToUpper(c)
	}
	if fc.Payment.Breaker.FailureThreshold > 0 {
		cfg.Payment.BreakerFailureThreshold = fc.Payment.Breaker.FailureThreshold
	}
	cfg.Payment.BreakerOpenTimeout = durationOr(fc.Payment.Breaker.OpenTimeout, cfg.Payment.BreakerOpenTimeout)
	if fc.Rating.MaxRetries > 0 {
		cfg.Rating.MaxRetries = fc.Rating.MaxRetries
	}
	cfg.Rating.LockTTL = durationOr(fc.Rating.LockTTL, cfg.Rating.LockTTL)
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func intOr(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func durationOr(raw string, def time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
