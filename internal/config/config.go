package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type Config struct {
	Port      string
	DbHost    string
	DbPort    string
	DbUser    string
	DbPass    string
	DbName    string
	DbSSLMode string

	CredentialStore string // memory|postgres
	SessionStore    string // memory|redis
	RedisURL        string

	SessionTTL           time.Duration
	SessionSweepInterval time.Duration
	PasswordResetTTL     time.Duration
	BcryptCost           int
	CookieSecure         bool

	Log      string
	LogLevel string
	Env      string // dev|prod
}

// LoadConfig загружает .env, читает переменные окружения и выставляет дефолты.
// Ничего не логирует, чтобы не создавать зависимость от logger.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	def := func(v, d string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return d
		}
		return v
	}

	cfg := &Config{
		Port:      def(os.Getenv("PORT"), "5000"),
		DbHost:    os.Getenv("DB_HOST"),
		DbPort:    def(os.Getenv("DB_PORT"), "5432"),
		DbUser:    os.Getenv("DB_USER"),
		DbPass:    os.Getenv("DB_PASSWORD"),
		DbName:    os.Getenv("DB_NAME"),
		DbSSLMode: def(os.Getenv("DB_SSLMODE"), "disable"),

		CredentialStore: strings.ToLower(def(os.Getenv("CREDENTIAL_STORE"), StoreMemory)),
		SessionStore:    strings.ToLower(def(os.Getenv("SESSION_STORE"), StoreMemory)),
		RedisURL:        def(os.Getenv("REDIS_URL"), "redis://localhost:6379/0"),

		Log:      os.Getenv("LOG"),
		LogLevel: strings.ToLower(def(os.Getenv("LOGLEVEL"), "info")),
		Env:      strings.ToLower(def(os.Getenv("ENV"), "prod")),
	}

	var err error
	if cfg.SessionTTL, err = parseDuration("SESSION_TTL", def(os.Getenv("SESSION_TTL"), "0")); err != nil {
		return nil, err
	}
	if cfg.SessionSweepInterval, err = parseDuration("SESSION_SWEEP_INTERVAL", def(os.Getenv("SESSION_SWEEP_INTERVAL"), "1m")); err != nil {
		return nil, err
	}
	if cfg.PasswordResetTTL, err = parseDuration("PASSWORD_RESET_TTL", def(os.Getenv("PASSWORD_RESET_TTL"), "30m")); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = strconv.Atoi(def(os.Getenv("BCRYPT_COST"), "10")); err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}
	secure := def(os.Getenv("COOKIE_SECURE"), strconv.FormatBool(cfg.Env == "prod"))
	if cfg.CookieSecure, err = strconv.ParseBool(secure); err != nil {
		return nil, fmt.Errorf("invalid COOKIE_SECURE: %w", err)
	}

	return cfg, nil
}

func parseDuration(key, v string) (time.Duration, error) {
	if v == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: negative duration", key)
	}
	return d, nil
}

// Validate возвращает предупреждения и фатальную ошибку (если критично).
func (c *Config) Validate() (warnings []string, err error) {
	switch c.CredentialStore {
	case StoreMemory:
		warnings = append(warnings, "CREDENTIAL_STORE=memory: users are lost on restart")
	case StorePostgres:
		if c.DbHost == "" || c.DbUser == "" || c.DbName == "" {
			return nil, fmt.Errorf("incomplete DB config (DB_HOST/DB_USER/DB_NAME)")
		}
	default:
		return nil, fmt.Errorf("unknown CREDENTIAL_STORE %q", c.CredentialStore)
	}

	switch c.SessionStore {
	case StoreMemory, StoreRedis:
	default:
		return nil, fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	}

	if c.SessionStore == StoreMemory && c.SessionTTL > 0 && c.SessionSweepInterval == 0 {
		warnings = append(warnings, "SESSION_SWEEP_INTERVAL=0: expired sessions are only dropped on lookup")
	}

	if c.Env == "prod" && !c.CookieSecure {
		warnings = append(warnings, "COOKIE_SECURE is off in prod")
	}

	if c.Port == "" {
		warnings = append(warnings, "PORT is empty, using default 5000")
	}

	return warnings, nil
}

// GetDSN: полная DSN (с паролем)
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DbUser, c.DbPass, c.DbHost, c.DbPort, c.DbName, c.DbSSLMode,
	)
}

// GetDSNSafe: DSN без пароля (для логов)
func (c *Config) GetDSNSafe() string {
	return fmt.Sprintf(
		"postgres://%s:***@%s:%s/%s?sslmode=%s",
		c.DbUser, c.DbHost, c.DbPort, c.DbName, c.DbSSLMode,
	)
}
