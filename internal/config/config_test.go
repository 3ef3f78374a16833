package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load()
	assert.EqualError(t, err, "DATABASE_URL is required")
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/lumen")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.EqualError(t, err, "JWT_SECRET is required")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/lumen")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SERVER_ADDRESS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, "./migrations", cfg.MigrationsPath)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.BrokerURL)
	assert.False(t, cfg.Storage.UseSpaces)
}

func TestLoadSpacesNeedsBucket(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/lumen")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("USE_SPACES", "true")
	t.Setenv("SPACES_BUCKET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadScreenOverrides(t *testing.T) {
	t.Setenv("LUMEN_API_URL", "https://signage.example.com")
	t.Setenv("LUMEN_POLL_INTERVAL", "5s")
	t.Setenv("LUMEN_SCREEN_WIDTH", "1280")
	t.Setenv("LUMEN_SCREEN_HEIGHT", "720")

	cfg, err := LoadScreen()
	require.NoError(t, err)
	assert.Equal(t, "https://signage.example.com", cfg.APIBaseURL)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, 1280, cfg.Width)
	assert.Equal(t, 720, cfg.Height)
}

func TestLoadScreenRejectsBadResolution(t *testing.T) {
	t.Setenv("LUMEN_SCREEN_WIDTH", "0")

	_, err := LoadScreen()
	assert.Error(t, err)
}
