package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/gamejam/db"
	"github.com/joho/godotenv"
)

const (
	MailModeLog  = "log"
	MailModeSMTP = "smtp"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL  string
	DBPool       db.PoolOptions
	JWTSecretKey string
	ServerPort   int
	PublicURL    string

	SessionTTL    time.Duration
	ResetTokenTTL time.Duration
	CookieSecure  bool

	TokenCleanupInterval time.Duration

	CORSAllowedOrigins []string

	MailMode string
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// StorageEnabled reports whether every R2 setting is present.
func (c *Config) StorageEnabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		JWTSecretKey:      os.Getenv("JWT_SECRET_KEY"),
		PublicURL:         strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:8080"), "/"),
		MailMode:          getEnv("MAIL_MODE", MailModeLog),
		SMTPHost:          os.Getenv("SMTP_HOST"),
		SMTPUser:          os.Getenv("SMTP_USER"),
		SMTPPass:          os.Getenv("SMTP_PASS"),
		SMTPFrom:          os.Getenv("SMTP_FROM"),
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}
	cfg.ServerPort = port

	pool := db.DefaultPoolOptions()
	if pool.MaxOpenConns, err = getInt("DB_MAX_OPEN_CONNS", pool.MaxOpenConns); err != nil {
		return nil, err
	}
	if pool.MaxIdleConns, err = getInt("DB_MAX_IDLE_CONNS", pool.MaxIdleConns); err != nil {
		return nil, err
	}
	if pool.ConnMaxLifetime, err = getDuration("DB_CONN_MAX_LIFETIME", pool.ConnMaxLifetime); err != nil {
		return nil, err
	}
	if pool.ConnMaxIdleTime, err = getDuration("DB_CONN_MAX_IDLE_TIME", pool.ConnMaxIdleTime); err != nil {
		return nil, err
	}
	cfg.DBPool = pool

	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ResetTokenTTL, err = getDuration("RESET_TOKEN_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.TokenCleanupInterval, err = getDuration("TOKEN_CLEANUP_INTERVAL", time.Hour); err != nil {
		return nil, err
	}

	cfg.CookieSecure, err = strconv.ParseBool(getEnv("COOKIE_SECURE", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid COOKIE_SECURE environment variable: %w", err)
	}

	cfg.CORSAllowedOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", cfg.PublicURL))

	switch cfg.MailMode {
	case MailModeLog:
	case MailModeSMTP:
		if cfg.SMTPHost == "" || cfg.SMTPFrom == "" {
			return nil, fmt.Errorf("SMTP_HOST and SMTP_FROM are required when MAIL_MODE=%s", MailModeSMTP)
		}
		cfg.SMTPPort, err = strconv.Atoi(getEnv("SMTP_PORT", "587"))
		if err != nil {
			return nil, fmt.Errorf("invalid SMTP_PORT environment variable: %w", err)
		}
	default:
		return nil, fmt.Errorf("MAIL_MODE must be %q or %q, got %q", MailModeLog, MailModeSMTP, cfg.MailMode)
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
