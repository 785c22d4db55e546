package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CALISALIM_SYNC_URL", "")
	t.Setenv("CALISALIM_SYNC_TOKEN", "")
	t.Setenv("CALISALIM_DAILY_TARGET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SyncEnabled() {
		t.Error("sync enabled without an endpoint")
	}
	if cfg.Sync.Owner != "me" {
		t.Errorf("owner = %q, want me", cfg.Sync.Owner)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Log.Level)
	}
}

func TestLoadSyncRequiresToken(t *testing.T) {
	t.Setenv("CALISALIM_SYNC_URL", "https://sync.example.com")
	t.Setenv("CALISALIM_SYNC_TOKEN", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestLoadSync(t *testing.T) {
	t.Setenv("CALISALIM_SYNC_URL", "https://sync.example.com")
	t.Setenv("CALISALIM_SYNC_TOKEN", "secret")
	t.Setenv("CALISALIM_SYNC_OWNER", "talip")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.SyncEnabled() {
		t.Error("sync should be enabled")
	}
	if cfg.Sync.Owner != "talip" {
		t.Errorf("owner = %q, want talip", cfg.Sync.Owner)
	}
}

func TestLoadRejectsBadTarget(t *testing.T) {
	t.Setenv("CALISALIM_SYNC_URL", "")
	for _, v := range []string{"abc", "-1", "0"} {
		t.Setenv("CALISALIM_DAILY_TARGET", v)
		if _, err := Load(); err == nil {
			t.Errorf("target %q accepted, want error", v)
		}
	}
}
