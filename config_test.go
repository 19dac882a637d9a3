package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, []string{"gi", "hsr", "zzz"}, cfg.EnabledGames)
	assert.True(t, cfg.AllowInteractiveLogin)
	assert.True(t, cfg.Headless)
	assert.Equal(t, 300, cfg.LoginTimeoutSeconds)
	assert.Equal(t, 1, cfg.DiscoveryLookbackDays)
	assert.NotEmpty(t, cfg.SessionPath)
	assert.NotEmpty(t, cfg.LedgerPath)
	assert.NotEmpty(t, cfg.DiscoveryFeedURL)
}

func TestLoadConfigCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().EnabledGames, cfg.EnabledGames)
	assert.FileExists(t, path)
}

func TestLoadConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := DefaultConfig()
	cfg.EnabledGames = []string{"hsr"}
	cfg.AllowInteractiveLogin = false
	cfg.LoginTimeoutSeconds = 120
	cfg.BrowserProfilePath = filepath.Join(dir, "profile")
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, []string{"hsr"}, loaded.EnabledGames)
	assert.False(t, loaded.AllowInteractiveLogin)
	assert.Equal(t, 120, loaded.LoginTimeoutSeconds)
	assert.DirExists(t, loaded.BrowserProfilePath)
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "enabled_games: [zzz]\nbrowser_profile_path: " + filepath.Join(dir, "profile") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, []string{"zzz"}, cfg.EnabledGames)
	assert.Equal(t, 300, cfg.LoginTimeoutSeconds, "unset keys keep their defaults")
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enabled_games: [unterminated"), 0644))

	_, err := LoadConfig(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), path, "parse errors must name the offending file")
}

func TestEnabledGameConfigs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnabledGames = []string{"zzz", "gi"}

	games, err := cfg.EnabledGameConfigs()

	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, GameZenless, games[0].ID, "configured order is preserved")
	assert.Equal(t, GameGenshin, games[1].ID)
}

func TestEnabledGameConfigsRejectsUnknownToken(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnabledGames = []string{"gi", "wuwa"}

	_, err := cfg.EnabledGameConfigs()

	assert.Error(t, err)
}
