package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "https://valorant-api.com", cfg.MetadataURL)
	assert.Equal(t, 3*time.Second, cfg.TickInterval)
	assert.Equal(t, 300*time.Millisecond, cfg.MMRFetchDelay)
	assert.True(t, cfg.Presence.Enabled)
	assert.Equal(t, "Playing Valorant with Downfall", cfg.Presence.Details)
	assert.Equal(t, 10, cfg.Presence.Every)
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("TICK_INTERVAL", "500ms")
	t.Setenv("MMR_FETCH_DELAY", "0s")
	t.Setenv("PRESENCE_ENABLED", "false")
	t.Setenv("LOCKFILE_PATH", "/tmp/lockfile")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 500*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, time.Duration(0), cfg.MMRFetchDelay)
	assert.False(t, cfg.Presence.Enabled)
	assert.Equal(t, "/tmp/lockfile", cfg.LockfilePath)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero tick", "TICK_INTERVAL", "0s"},
		{"negative delay", "MMR_FETCH_DELAY", "-1s"},
		{"zero presence cadence", "PRESENCE_EVERY", "0"},
		{"unparsable duration", "TICK_INTERVAL", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Parse()
			assert.Error(t, err)
		})
	}
}
