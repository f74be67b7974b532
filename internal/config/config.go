package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration loaded from environment variables.
// It is built once at startup and never mutated afterwards.
type Config struct {
	AppName string
	Env     string // development, staging, production
	Port    string
	GinMode string

	// Database
	DBHost            string
	DBPort            string
	DBUser            string
	DBPassword        string
	DBName            string
	DBSSLMode         string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBTimeout         time.Duration

	// JWT signing secret, required
	JWTSecret string

	// CORS
	CORSAllowedOrigins string // comma-separated

	// Proxies whose X-Forwarded-For is honoured, comma-separated IPs or CIDRs.
	// Empty trusts none and the peer address is the client IP.
	TrustedProxies string

	// Redis backs the login/register rate limiter
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitEnabled bool
	RateLimitMax     int
	RateLimitWindow  time.Duration
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envReader parses typed keys and collects every malformed value so Load can
// report them together.
type envReader struct {
	errs []error
}

func (r *envReader) getbool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid boolean for %s: %w", key, err))
		return def
	}
	return b
}

func (r *envReader) getint(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid int for %s: %w", key, err))
		return def
	}
	return i
}

func (r *envReader) getdur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid duration for %s: %w", key, err))
		return def
	}
	return d
}

// Load reads configuration from the environment. Malformed values and a
// missing JWT_SECRET are reported as one joined error.
func Load() (*Config, error) {
	var env envReader
	cfg := &Config{
		AppName: getenv("APP_NAME", "postboard"),
		Env:     getenv("APP_ENV", "development"),
		Port:    getenv("PORT", "8080"),
		GinMode: getenv("GIN_MODE", "release"),

		DBHost:            getenv("DB_HOST", "localhost"),
		DBPort:            getenv("DB_PORT", "5432"),
		DBUser:            getenv("DB_USER", "postgres"),
		DBPassword:        getenv("DB_PASSWORD", "postgres"),
		DBName:            getenv("DB_NAME", "postboard"),
		DBSSLMode:         getenv("DB_SSLMODE", "disable"),
		DBMaxOpenConns:    env.getint("DB_MAX_OPEN_CONNS", 100),
		DBMaxIdleConns:    env.getint("DB_MAX_IDLE_CONNS", 10),
		DBConnMaxLifetime: env.getdur("DB_CONN_MAX_LIFETIME", time.Hour),
		DBTimeout:         env.getdur("DB_TIMEOUT", 5*time.Second),

		JWTSecret: os.Getenv("JWT_SECRET"),

		CORSAllowedOrigins: getenv("CORS_ALLOWED_ORIGINS", "*"),
		TrustedProxies:     os.Getenv("TRUSTED_PROXIES"),

		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       env.getint("REDIS_DB", 0),

		RateLimitEnabled: env.getbool("RATE_LIMIT_ENABLED", true),
		RateLimitMax:     env.getint("RATE_LIMIT_MAX", 10),
		RateLimitWindow:  env.getdur("RATE_LIMIT_WINDOW", time.Minute),
	}
	if err := errors.Join(append(env.errs, cfg.Validate())...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the process cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.DBTimeout <= 0 {
		return fmt.Errorf("DB_TIMEOUT must be positive, got %v", c.DBTimeout)
	}
	return nil
}

// PostgresDSN returns a key/value DSN for the gorm postgres driver.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode,
	)
}

// CORSOrigins returns the allowed origins as slice
func (c *Config) CORSOrigins() []string {
	return splitList(c.CORSAllowedOrigins)
}

// TrustedProxyList returns the trusted proxies, nil when none are configured.
func (c *Config) TrustedProxyList() []string {
	if list := splitList(c.TrustedProxies); len(list) > 0 {
		return list
	}
	return nil
}

func splitList(csv string) []string {
	parts := strings.Split(csv, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			res = append(res, p)
		}
	}
	return res
}
