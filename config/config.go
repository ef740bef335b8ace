package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is read once at startup from the environment (optionally seeded by a .env file).
type Config struct {
	Port           string   `env:"PORT" envDefault:"5200"`
	GatewayToken   string   `env:"GATEWAY_TOKEN,required,notEmpty"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	DBDriver    string `env:"DB_DRIVER" envDefault:"postgres"` // postgres | sqlite
	DatabaseURL string `env:"DATABASE_URL"`

	StoreBackend  string        `env:"STORE_BACKEND" envDefault:"gorm"` // memory | gorm | redis
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	FlushInterval time.Duration `env:"SNAPSHOT_FLUSH_INTERVAL" envDefault:"2s"`
	SessionIdle   time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`

	WaitlistURL   string `env:"WAITLIST_URL"`
	WaitlistToken string `env:"WAITLIST_TOKEN"`

	R2 R2Config `envPrefix:"R2_"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogDev   bool   `env:"LOG_DEV" envDefault:"false"`
	LogFile  string `env:"LOG_FILE"`
}

// R2Config configures the optional template export bucket. Exports are
// disabled when Bucket is empty.
type R2Config struct {
	AccountID       string `env:"ACCOUNT_ID"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	AccessKeySecret string `env:"ACCESS_KEY_SECRET"`
	Bucket          string `env:"BUCKET_NAME"`
	CDNBaseURL      string `env:"CDN_BASE_URL"`
}

func (c R2Config) Enabled() bool { return c.Bucket != "" }

// Load reads .env if present and parses the environment into Config.
// The returned bool reports whether a .env file was found.
func Load() (*Config, bool, error) {
	dotenv := godotenv.Load() == nil

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, dotenv, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, dotenv, err
	}
	return &cfg, dotenv, nil
}

func (c *Config) Validate() error {
	for i, origin := range c.AllowedOrigins {
		c.AllowedOrigins[i] = strings.TrimSpace(origin)
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
	}
	// The content catalog, published templates and the MP audit log always live in SQL.
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	switch c.StoreBackend {
	case "memory", "gorm":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for STORE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be memory, gorm or redis, got %q", c.StoreBackend)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("SNAPSHOT_FLUSH_INTERVAL must be positive")
	}
	if c.SessionIdle < time.Minute {
		return fmt.Errorf("SESSION_IDLE_TTL must be at least 1m, got %s", c.SessionIdle)
	}
	return nil
}
