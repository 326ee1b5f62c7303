package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "playerd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err, "a missing config file falls back to defaults")

	assert.Equal(t, "stdout", cfg.Logger.Output)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "data/snapshots.db", cfg.Store.Path)
	assert.Equal(t, "data/autoplaylist.txt", cfg.Autoplaylist.File)
	require.NotNil(t, cfg.Autoplaylist.Enabled)
	assert.True(t, *cfg.Autoplaylist.Enabled)
	require.NotNil(t, cfg.Autoplaylist.Random)
	assert.True(t, *cfg.Autoplaylist.Random)
	assert.Equal(t, 0.5, cfg.Player.SkipRatio)
	assert.Equal(t, 4, cfg.Player.MaxSkips)
	assert.Equal(t, 0.15, cfg.Player.DefaultVolume)
	assert.Equal(t, 10, cfg.Player.RequestsPerMinute)
	assert.Equal(t, 8, cfg.Permissions.MaxSongs)
	require.NotNil(t, cfg.Persistence.ResumeOnJoin)
	assert.True(t, *cfg.Persistence.ResumeOnJoin)
	assert.Equal(t, "@every 1m", cfg.Maintenance.Schedule)
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
logger:
  level: debug
store:
  path: /tmp/test-snapshots.db
autoplaylist:
  enabled: false
  random: false
player:
  skip_ratio: 0.7
  max_skips: 2
  default_volume: 0.3
permissions:
  max_songs: 3
  max_song_length_seconds: 600
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "/tmp/test-snapshots.db", cfg.Store.Path)
	require.NotNil(t, cfg.Autoplaylist.Enabled)
	assert.False(t, *cfg.Autoplaylist.Enabled, "an explicit false survives defaulting")
	require.NotNil(t, cfg.Autoplaylist.Random)
	assert.False(t, *cfg.Autoplaylist.Random)
	assert.Equal(t, 0.7, cfg.Player.SkipRatio)
	assert.Equal(t, 2, cfg.Player.MaxSkips)
	assert.Equal(t, 0.3, cfg.Player.DefaultVolume)
	assert.Equal(t, 3, cfg.Permissions.MaxSongs)
	assert.Equal(t, 600, cfg.Permissions.MaxSongLengthSeconds)

	// Unset sections keep their defaults.
	assert.Equal(t, "@every 1m", cfg.Maintenance.Schedule)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("BNUUY_STORE_PATH", "/env/snapshots.db")
	t.Setenv("BNUUY_LOG_LEVEL", "warn")

	path := writeConfig(t, `
store:
  path: /file/snapshots.db
logger:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/env/snapshots.db", cfg.Store.Path, "environment wins over the file")
	assert.Equal(t, "warn", cfg.Logger.Level)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "Skip ratio over one", content: "player:\n  skip_ratio: 1.5\n"},
		{name: "Volume over one", content: "player:\n  default_volume: 2.0\n"},
		{name: "Negative max songs", content: "permissions:\n  max_songs: -1\n"},
		{name: "Malformed yaml", content: "player: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}
