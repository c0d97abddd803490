package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRESQL_URL", "postgres://localhost/leaderboard?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.Listen)
	assert.Equal(t, 10, cfg.TopSize)
	assert.Equal(t, 10000, cfg.MaxScore)
	assert.Equal(t, 10*time.Second, cfg.TopTTL)
	assert.Equal(t, 60*time.Second, cfg.RankTTL)
	assert.Equal(t, 5*time.Minute, cfg.RecalcInterval)
	assert.True(t, cfg.TrustProxy)
}

func TestLoadRequiresPostgres(t *testing.T) {
	t.Setenv("POSTGRESQL_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("POSTGRESQL_URL", "postgres://localhost/leaderboard?sslmode=disable")
	t.Setenv("CACHE_TOP_TTL", "3s")
	t.Setenv("LEADERBOARD_TOP_SIZE", "25")
	t.Setenv("TRUST_PROXY", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.TopTTL)
	assert.Equal(t, 25, cfg.TopSize)
	assert.False(t, cfg.TrustProxy)
}

func TestLoadRejectsNonPositiveTopSize(t *testing.T) {
	t.Setenv("POSTGRESQL_URL", "postgres://localhost/leaderboard?sslmode=disable")
	t.Setenv("LEADERBOARD_TOP_SIZE", "0")

	_, err := Load()
	assert.Error(t, err)
}
