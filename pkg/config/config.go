package config

import (
	"errors"
	"io/fs"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTesting     = "testing"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Dashboard DashboardConfig
	Reports   ReportsConfig
	RateLimit RateLimitConfig
	Uploads   UploadConfig
	Audit     AuditConfig
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
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// LogConfig controls zap output and optional file rotation.
type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DashboardConfig governs dashboard cache tuning.
type DashboardConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ReportsConfig feeds PDF headers for report cards and invoices.
type ReportsConfig struct {
	SchoolName  string
	SchoolMotto string
}

// RateLimitConfig throttles the public login endpoints per client IP.
type RateLimitConfig struct {
	LoginRequests int
	LoginWindow   time.Duration
}

// UploadConfig caps request bodies.
type UploadConfig struct {
	MaxBytes int64
}

// AuditConfig sizes the background audit writer.
type AuditConfig struct {
	Enabled    bool
	Workers    int
	BufferSize int
	MaxRetries int
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
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
	if raw := v.GetString("DATABASE_URL"); raw != "" {
		db, err := parseDatabaseURL(raw, cfg.Database)
		if err != nil {
			return nil, err
		}
		cfg.Database = db
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 8*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:      v.GetString("LOG_LEVEL"),
		Format:     v.GetString("LOG_FORMAT"),
		File:       v.GetString("LOG_FILE"),
		MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
		MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
		MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
	}

	cfg.Dashboard = DashboardConfig{
		CacheEnabled: v.GetBool("ENABLE_DASHBOARD_CACHE"),
		CacheTTL:     parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Reports = ReportsConfig{
		SchoolName:  v.GetString("REPORTS_SCHOOL_NAME"),
		SchoolMotto: v.GetString("REPORTS_SCHOOL_MOTTO"),
	}

	cfg.RateLimit = RateLimitConfig{
		LoginRequests: v.GetInt("LOGIN_RATE_LIMIT"),
		LoginWindow:   parseDuration(v.GetString("LOGIN_RATE_WINDOW"), time.Minute),
	}

	maxUpload := v.GetInt64("MAX_UPLOAD_BYTES")
	if maxUpload <= 0 {
		maxUpload = 16 * 1024 * 1024
	}
	cfg.Uploads = UploadConfig{MaxBytes: maxUpload}

	cfg.Audit = AuditConfig{
		Enabled:    v.GetBool("AUDIT_ENABLED"),
		Workers:    v.GetInt("AUDIT_WORKERS"),
		BufferSize: v.GetInt("AUDIT_BUFFER"),
		MaxRetries: v.GetInt("AUDIT_MAX_RETRIES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 5008)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "schooldb")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DATABASE_URL", "")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "nacca-sms-secret-key-change-in-production")
	v.SetDefault("JWT_EXPIRATION", "8h")
	v.SetDefault("JWT_ISSUER", "nacca-sms")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("LOG_MAX_SIZE_MB", 100)
	v.SetDefault("LOG_MAX_BACKUPS", 5)
	v.SetDefault("LOG_MAX_AGE_DAYS", 30)

	v.SetDefault("ENABLE_DASHBOARD_CACHE", true)
	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")

	v.SetDefault("REPORTS_SCHOOL_NAME", "")
	v.SetDefault("REPORTS_SCHOOL_MOTTO", "")

	v.SetDefault("LOGIN_RATE_LIMIT", 10)
	v.SetDefault("LOGIN_RATE_WINDOW", "1m")

	v.SetDefault("MAX_UPLOAD_BYTES", 16*1024*1024)

	v.SetDefault("AUDIT_ENABLED", true)
	v.SetDefault("AUDIT_WORKERS", 2)
	v.SetDefault("AUDIT_BUFFER", 256)
	v.SetDefault("AUDIT_MAX_RETRIES", 3)
}

// parseDatabaseURL accepts postgres:// and postgresql:// URLs, keeping pool settings from base.
func parseDatabaseURL(raw string, base DatabaseConfig) (DatabaseConfig, error) {
	if strings.HasPrefix(raw, "postgres://") {
		raw = "postgresql://" + strings.TrimPrefix(raw, "postgres://")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return base, err
	}
	if u.Scheme != "postgresql" {
		return base, errors.New("DATABASE_URL must use the postgres scheme")
	}
	cfg := base
	cfg.Host = u.Hostname()
	if port := u.Port(); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return base, err
		}
		cfg.Port = p
	}
	if u.User != nil {
		cfg.User = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			cfg.Password = pw
		}
	}
	if name := strings.TrimPrefix(u.Path, "/"); name != "" {
		cfg.Name = name
	}
	if mode := u.Query().Get("sslmode"); mode != "" {
		cfg.SSLMode = mode
	}
	return cfg, nil
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
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
