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

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Salary     SalaryConfig
	Billing    BillingConfig
	Statements StatementsConfig
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
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SalaryConfig tunes the compensation engine.
type SalaryConfig struct {
	ComputeTimeout     time.Duration
	CacheTTL           time.Duration
	NotTakenGrace      time.Duration
	TierOverflowPolicy string
	StrictInvariants   bool
}

// BillingConfig tunes the school billing calculator.
type BillingConfig struct {
	CacheTTL        time.Duration
	DefaultCurrency string
}

// StatementsConfig configures asynchronous payout statement generation.
type StatementsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
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
		Secret: v.GetString("JWT_SECRET"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Salary = SalaryConfig{
		ComputeTimeout:     parseDuration(v.GetString("SALARY_COMPUTE_TIMEOUT"), 30*time.Second),
		CacheTTL:           parseDuration(v.GetString("SALARY_CACHE_TTL"), time.Hour),
		NotTakenGrace:      parseDuration(v.GetString("SALARY_NOT_TAKEN_GRACE"), 24*time.Hour),
		TierOverflowPolicy: v.GetString("SALARY_TIER_OVERFLOW_POLICY"),
		StrictInvariants:   v.GetString("ENV") != EnvProduction,
	}

	cfg.Billing = BillingConfig{
		CacheTTL:        parseDuration(v.GetString("BILLING_CACHE_TTL"), time.Hour),
		DefaultCurrency: v.GetString("BILLING_DEFAULT_CURRENCY"),
	}

	cfg.Statements = StatementsConfig{
		Enabled:           v.GetBool("ENABLE_STATEMENTS"),
		StorageDir:        v.GetString("STATEMENTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("STATEMENTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("STATEMENTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("STATEMENTS_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("STATEMENTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("STATEMENTS_WORKER_RETRIES"),
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
	v.SetDefault("DB_NAME", "school_pay")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SALARY_COMPUTE_TIMEOUT", "30s")
	v.SetDefault("SALARY_CACHE_TTL", "1h")
	v.SetDefault("SALARY_NOT_TAKEN_GRACE", "24h")
	v.SetDefault("SALARY_TIER_OVERFLOW_POLICY", "clamp")

	v.SetDefault("BILLING_CACHE_TTL", "1h")
	v.SetDefault("BILLING_DEFAULT_CURRENCY", "ETB")

	v.SetDefault("ENABLE_STATEMENTS", false)
	v.SetDefault("STATEMENTS_STORAGE_DIR", "./statements")
	v.SetDefault("STATEMENTS_SIGNED_URL_SECRET", "dev_statements_secret")
	v.SetDefault("STATEMENTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("STATEMENTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("STATEMENTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("STATEMENTS_WORKER_RETRIES", 3)
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
