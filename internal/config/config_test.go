package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "postgres", cfg.CounterBackend)
	assert.Equal(t, "Asia/Kolkata", cfg.Timezone)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins())
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("COUNTER_BACKEND", "redis")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "redis", cfg.CounterBackend)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins())
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{Timezone: "Nowhere/Special"}
	assert.Equal(t, time.UTC, cfg.Location())

	cfg.Timezone = "Asia/Kolkata"
	assert.Equal(t, "Asia/Kolkata", cfg.Location().String())
}
