package config

import (
	"errors"
	"os"
	"strconv"
)

// Config holds environment-driven configuration.
type Config struct {
	DB struct {
		Path string // default: ~/.config/calisalim/calisalim.db
	}
	Sync struct {
		BaseURL string // empty disables remote sync
		Token   string
		Owner   string // default: me
	}
	Log struct {
		Path  string // default: next to the database
		Level string // debug, info, warn, error
	}
	DailyTargetHours float64 // overrides the stored target when set
}

// Load reads configuration from environment variables. Remote sync is
// opt-in: without CALISALIM_SYNC_URL the app runs fully offline.
func Load() (Config, error) {
	var cfg Config

	cfg.DB.Path = os.Getenv("CALISALIM_DB")

	cfg.Sync.BaseURL = os.Getenv("CALISALIM_SYNC_URL")
	cfg.Sync.Token = os.Getenv("CALISALIM_SYNC_TOKEN")
	if cfg.Sync.BaseURL != "" && cfg.Sync.Token == "" {
		return cfg, errors.New("CALISALIM_SYNC_TOKEN is required when CALISALIM_SYNC_URL is set")
	}
	cfg.Sync.Owner = os.Getenv("CALISALIM_SYNC_OWNER")
	if cfg.Sync.Owner == "" {
		cfg.Sync.Owner = "me"
	}

	cfg.Log.Path = os.Getenv("CALISALIM_LOG")
	cfg.Log.Level = os.Getenv("CALISALIM_LOG_LEVEL")
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if t := os.Getenv("CALISALIM_DAILY_TARGET"); t != "" {
		v, err := strconv.ParseFloat(t, 64)
		if err != nil || v <= 0 {
			return cfg, errors.New("CALISALIM_DAILY_TARGET must be a positive number of hours")
		}
		cfg.DailyTargetHours = v
	}

	return cfg, nil
}

// SyncEnabled reports whether a remote endpoint is configured.
func (c Config) SyncEnabled() bool {
	return c.Sync.BaseURL != ""
}
