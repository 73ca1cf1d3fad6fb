package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

type Config struct {
	Env      string `yaml:"env"`
	HTTPPort string `yaml:"port"`

	DBDriver    string `yaml:"db_driver"`
	DatabaseDSN string `yaml:"database_dsn"`

	JWTSecret           string `yaml:"jwt_secret"`
	JWTExpiresIn        string `yaml:"jwt_expires_in"`
	JWTRefreshSecret    string `yaml:"jwt_refresh_secret"`
	JWTRefreshExpiresIn string `yaml:"jwt_refresh_expires_in"`

	CORSOrigins string `yaml:"cors_allowed_origins"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	BcryptCost  int    `yaml:"bcrypt_cost"`

	AuditQueueSize  int `yaml:"audit_queue_size"`
	AuditWorkers    int `yaml:"audit_workers"`
	AuditMaxRetries int `yaml:"audit_max_retries"`

	OwnerCacheTTL string `yaml:"owner_cache_ttl"`

	// Parsed from the string fields above by Load.
	AccessTTL  time.Duration `yaml:"-"`
	RefreshTTL time.Duration `yaml:"-"`
	OwnerTTL   time.Duration `yaml:"-"`

	// Warnings collected while loading; logged by the caller once a logger exists.
	Warnings []string `yaml:"-"`
}

func defaults() *Config {
	return &Config{
		Env:                 EnvProduction,
		HTTPPort:            "8080",
		DBDriver:            "postgres",
		DatabaseDSN:         "host=localhost user=postgres password=postgres dbname=propertytrack port=5432 sslmode=disable",
		JWTExpiresIn:        "1h",
		JWTRefreshExpiresIn: "7d",
		CORSOrigins:         "http://localhost:3000",
		LogLevel:            "info",
		LogFormat:           "text",
		BcryptCost:          10,
		AuditQueueSize:      1024,
		AuditWorkers:        2,
		AuditMaxRetries:     3,
		OwnerCacheTTL:       "5m",
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and finally the process environment. A dotenv file (ENV_FILE,
// default ".env") is merged into the environment first; variables already
// set in the process win.
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Env = getEnv("APP_ENV", getEnv("NODE_ENV", cfg.Env))
	cfg.HTTPPort = getEnv("PORT", cfg.HTTPPort)
	cfg.DBDriver = getEnv("DB_DRIVER", cfg.DBDriver)
	cfg.DatabaseDSN = getEnv("DATABASE_DSN", cfg.DatabaseDSN)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTExpiresIn = getEnv("JWT_EXPIRES_IN", cfg.JWTExpiresIn)
	cfg.JWTRefreshSecret = getEnv("JWT_REFRESH_SECRET", cfg.JWTRefreshSecret)
	cfg.JWTRefreshExpiresIn = getEnv("JWT_REFRESH_EXPIRES_IN", cfg.JWTRefreshExpiresIn)
	cfg.CORSOrigins = getEnv("CORS_ALLOWED_ORIGINS", cfg.CORSOrigins)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.OwnerCacheTTL = getEnv("OWNER_CACHE_TTL", cfg.OwnerCacheTTL)

	var err error
	if cfg.BcryptCost, err = getEnvInt("BCRYPT_COST", cfg.BcryptCost); err != nil {
		return nil, err
	}
	if cfg.AuditQueueSize, err = getEnvInt("AUDIT_QUEUE_SIZE", cfg.AuditQueueSize); err != nil {
		return nil, err
	}
	if cfg.AuditWorkers, err = getEnvInt("AUDIT_WORKERS", cfg.AuditWorkers); err != nil {
		return nil, err
	}
	if cfg.AuditMaxRetries, err = getEnvInt("AUDIT_MAX_RETRIES", cfg.AuditMaxRetries); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// Validate checks required secrets and parses duration strings.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.JWTRefreshSecret == "" {
		return fmt.Errorf("JWT_REFRESH_SECRET is required")
	}
	if len(c.JWTRefreshSecret) < 32 {
		return fmt.Errorf("JWT_REFRESH_SECRET must be at least 32 characters")
	}
	if c.JWTRefreshSecret == c.JWTSecret {
		return fmt.Errorf("JWT_REFRESH_SECRET must differ from JWT_SECRET")
	}

	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (postgres or sqlite)", c.DBDriver)
	}

	var err error
	if c.AccessTTL, err = ParseDuration(c.JWTExpiresIn); err != nil {
		return fmt.Errorf("JWT_EXPIRES_IN: %w", err)
	}
	if c.RefreshTTL, err = ParseDuration(c.JWTRefreshExpiresIn); err != nil {
		return fmt.Errorf("JWT_REFRESH_EXPIRES_IN: %w", err)
	}
	if c.OwnerTTL, err = ParseDuration(c.OwnerCacheTTL); err != nil {
		return fmt.Errorf("OWNER_CACHE_TTL: %w", err)
	}

	if c.AuditWorkers < 1 {
		c.AuditWorkers = 1
	}
	if c.AuditQueueSize < 1 {
		c.AuditQueueSize = 1
	}
	if c.AuditMaxRetries < 1 {
		c.AuditMaxRetries = 1
	}

	c.Warnings = nil
	if c.DatabaseDSN == defaults().DatabaseDSN {
		c.Warnings = append(c.Warnings, "DATABASE_DSN is using the default value, set it for production")
	}
	if c.CORSOrigins == defaults().CORSOrigins {
		c.Warnings = append(c.Warnings, "CORS_ALLOWED_ORIGINS is using the default value")
	}
	return nil
}

// IsDevelopment reports whether error responses may include stack traces.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// CORSOriginList returns the trimmed, comma separated origin list.
func (c *Config) CORSOriginList() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseDuration accepts Go durations plus a "d" suffix for whole days ("7d").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil || days <= 0 {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive: %q", s)
	}
	return d, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
