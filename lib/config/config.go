package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full runtime configuration, loaded from the environment.
type Config struct {
	Listen     string `env:"LISTEN" envDefault:"0.0.0.0:8000"`
	TrustProxy bool   `env:"TRUST_PROXY" envDefault:"true"`

	PostgresURL string `env:"POSTGRESQL_URL,notEmpty"`
	RedisURL    string `env:"REDIS_URL"`
	// CacheDir selects the disk cache backend when Redis is not
	// configured. Meant for local development only.
	CacheDir string `env:"CACHE_DIR"`

	TopSize  int `env:"LEADERBOARD_TOP_SIZE" envDefault:"10"`
	MaxScore int `env:"MAX_SCORE" envDefault:"10000"`

	TopTTL   time.Duration `env:"CACHE_TOP_TTL" envDefault:"10s"`
	RankTTL  time.Duration `env:"CACHE_RANK_TTL" envDefault:"60s"`
	StatsTTL time.Duration `env:"CACHE_STATS_TTL" envDefault:"30s"`

	StoreTimeout time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`
	CacheTimeout time.Duration `env:"CACHE_TIMEOUT" envDefault:"250ms"`

	RecalcInterval time.Duration `env:"RANK_RECALC_INTERVAL" envDefault:"5m"`

	UpdateChannel string `env:"UPDATE_CHANNEL" envDefault:"gocomet:leaderboard:updates"`
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.TopSize <= 0 {
		return Config{}, fmt.Errorf("LEADERBOARD_TOP_SIZE must be positive, got %d", cfg.TopSize)
	}
	if cfg.RecalcInterval <= 0 {
		return Config{}, fmt.Errorf("RANK_RECALC_INTERVAL must be positive, got %s", cfg.RecalcInterval)
	}
	return cfg, nil
}
