package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	SessionPath string `yaml:"session_path"`
	LedgerPath  string `yaml:"ledger_path"`
	LogFile     string `yaml:"log_file"`

	// Ordered set of games the drivers iterate over.
	EnabledGames []string `yaml:"enabled_games"`

	// AllowInteractiveLogin is the capability flag: when false, a required
	// login becomes a fatal error instead of opening a visible browser.
	AllowInteractiveLogin bool `yaml:"allow_interactive_login"`

	Headless           bool   `yaml:"headless"`
	BrowserProfilePath string `yaml:"browser_profile_path"`

	LoginTimeoutSeconds    int `yaml:"login_timeout_seconds"`
	LoginPollSeconds       int `yaml:"login_poll_seconds"`
	PageLoadTimeoutSeconds int `yaml:"page_load_timeout_seconds"`
	ShortWaitMs            int `yaml:"short_wait_ms"`
	MediumWaitMs           int `yaml:"medium_wait_ms"`
	SuccessTimeoutSeconds  int `yaml:"success_timeout_seconds"`
	MessagePollAttempts    int `yaml:"message_poll_attempts"`
	MessagePollMs          int `yaml:"message_poll_ms"`
	RedeemDelaySeconds     int `yaml:"redeem_delay_seconds"`

	DiscoveryFeedURL      string `yaml:"discovery_feed_url"`
	DiscoveryLookbackDays int    `yaml:"discovery_lookback_days"`

	DebugMode bool `yaml:"debug_mode"`
}

func DefaultConfig() *Config {
	dataDir := getUserDataDir()

	return &Config{
		SessionPath:            filepath.Join(dataDir, "session.json"),
		LedgerPath:             filepath.Join(dataDir, "redeemed_codes.toml"),
		LogFile:                "",
		EnabledGames:           []string{"gi", "hsr", "zzz"},
		AllowInteractiveLogin:  true,
		Headless:               true,
		BrowserProfilePath:     filepath.Join(dataDir, "browser-profile"),
		LoginTimeoutSeconds:    300,
		LoginPollSeconds:       2,
		PageLoadTimeoutSeconds: 30,
		ShortWaitMs:            1000,
		MediumWaitMs:           3000,
		SuccessTimeoutSeconds:  10,
		MessagePollAttempts:    5,
		MessagePollMs:          500,
		RedeemDelaySeconds:     2,
		DiscoveryFeedURL:       "https://www.hoyolab.com/accountCenter/postList?id=129928383",
		DiscoveryLookbackDays:  1,
		DebugMode:              false,
	}
}

// LoadConfig reads the YAML configuration at path, writing a default file on
// first run so the operator has something to edit.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := config.Save(path); err != nil {
			return nil, err
		}
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if config.BrowserProfilePath != "" {
		if err := os.MkdirAll(config.BrowserProfilePath, 0755); err != nil {
			return nil, fmt.Errorf("failed to create browser profile dir: %w", err)
		}
	}

	return config, nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return os.WriteFile(path, data, 0644)
}

// EnabledGameConfigs resolves enabled_games into configuration records,
// preserving the configured order.
func (c *Config) EnabledGameConfigs() ([]*GameConfig, error) {
	games := make([]*GameConfig, 0, len(c.EnabledGames))
	for _, token := range c.EnabledGames {
		gc, err := ParseGame(token)
		if err != nil {
			return nil, err
		}
		games = append(games, gc)
	}
	return games, nil
}

// getUserDataDir is where session, ledger and browser profile live by default.
// Without a resolvable home directory everything lands next to the binary.
func getUserDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "hoyodaily-data"
	}
	return filepath.Join(home, ".hoyodaily")
}
