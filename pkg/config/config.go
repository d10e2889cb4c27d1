package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Dashboard    DashboardConfig
	Receipts     ReceiptsConfig
	Expiry       ExpiryConfig
	Subscription SubscriptionConfig
	Pricing      PricingConfig
	Metrics      MetricsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
	Issuer            string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DashboardConfig governs dashboard exposure and cache tuning.
type DashboardConfig struct {
	Enabled  bool
	CacheTTL time.Duration
}

// ReceiptsConfig configures PDF receipt and roster generation.
type ReceiptsConfig struct {
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
	FontPath          string
	FontName          string
}

// ExpiryConfig tunes the stale-payment watcher.
type ExpiryConfig struct {
	CronEnabled bool
	CronSpec    string
	Threshold   time.Duration
	CacheTTL    time.Duration
}

// SubscriptionConfig drives the paywall gate.
type SubscriptionConfig struct {
	Enforced     bool
	BypassEmails []string
	MonthlyPrice float64
}

// PricingConfig exposes the global fallback used when no pricing rule matches.
type PricingConfig struct {
	FallbackPrice float64
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
		Issuer:            v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Dashboard = DashboardConfig{
		Enabled:  v.GetBool("ENABLE_DASHBOARD"),
		CacheTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Receipts = ReceiptsConfig{
		StorageDir:        v.GetString("RECEIPTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("RECEIPTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("RECEIPTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("RECEIPTS_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("RECEIPTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("RECEIPTS_WORKER_RETRIES"),
		FontPath:          v.GetString("RECEIPTS_FONT_PATH"),
		FontName:          v.GetString("RECEIPTS_FONT_NAME"),
	}

	cfg.Expiry = ExpiryConfig{
		CronEnabled: v.GetBool("ENABLE_EXPIRY_CRON"),
		CronSpec:    v.GetString("EXPIRY_CRON_SPEC"),
		Threshold:   parseDuration(v.GetString("EXPIRY_THRESHOLD"), 30*24*time.Hour),
		CacheTTL:    parseDuration(v.GetString("EXPIRY_CACHE_TTL"), 15*time.Minute),
	}

	cfg.Subscription = SubscriptionConfig{
		Enforced:     v.GetBool("ENFORCE_SUBSCRIPTION"),
		BypassEmails: splitAndTrim(v.GetString("SUBSCRIPTION_BYPASS_EMAILS")),
		MonthlyPrice: v.GetFloat64("SUBSCRIPTION_MONTHLY_PRICE"),
	}

	cfg.Pricing = PricingConfig{
		FallbackPrice: v.GetFloat64("PRICING_FALLBACK_PRICE"),
	}

	cfg.Metrics = MetricsConfig{
		Enabled: v.GetBool("ENABLE_METRICS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "soutienflow")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")
	v.SetDefault("JWT_ISSUER", "soutienflow-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_DASHBOARD", true)
	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")

	v.SetDefault("RECEIPTS_STORAGE_DIR", "./exports")
	v.SetDefault("RECEIPTS_SIGNED_URL_SECRET", "dev_receipts_secret")
	v.SetDefault("RECEIPTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("RECEIPTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("RECEIPTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("RECEIPTS_WORKER_RETRIES", 3)
	v.SetDefault("RECEIPTS_FONT_PATH", "")
	v.SetDefault("RECEIPTS_FONT_NAME", "NotoNaskhArabic")

	v.SetDefault("ENABLE_EXPIRY_CRON", false)
	v.SetDefault("EXPIRY_CRON_SPEC", "0 6 * * *")
	v.SetDefault("EXPIRY_THRESHOLD", "720h")
	v.SetDefault("EXPIRY_CACHE_TTL", "15m")

	v.SetDefault("ENFORCE_SUBSCRIPTION", true)
	v.SetDefault("SUBSCRIPTION_BYPASS_EMAILS", "")
	v.SetDefault("SUBSCRIPTION_MONTHLY_PRICE", 300)

	v.SetDefault("PRICING_FALLBACK_PRICE", 100)

	v.SetDefault("ENABLE_METRICS", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
