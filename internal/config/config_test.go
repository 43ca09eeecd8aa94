package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Fatalf("address = %q", cfg.Server.Address)
	}
	if cfg.Clients.Core.Timeout != 30*time.Second {
		t.Fatalf("core timeout = %v", cfg.Clients.Core.Timeout)
	}
	if cfg.Auth.PermissionsHeader != "X-Permissions" {
		t.Fatalf("permissions header = %q", cfg.Auth.PermissionsHeader)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
server:
  address: ":9090"
clients:
  core:
    baseURL: "http://core.local"
defaults:
  ensembleID: "ens_v20"
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("HAZVIEW_CORE_BASE_URL", "http://override.local")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Address != ":9090" {
		t.Fatalf("address = %q", cfg.Server.Address)
	}
	if cfg.Clients.Core.BaseURL != "http://override.local" {
		t.Fatalf("env override lost: %q", cfg.Clients.Core.BaseURL)
	}
	if cfg.Defaults.EnsembleID != "ens_v20" {
		t.Fatalf("ensemble = %q", cfg.Defaults.EnsembleID)
	}
	// file sections not set keep their defaults
	if cfg.Clients.Core.HazardPath != "/api/v1/hazard" {
		t.Fatalf("hazard path = %q", cfg.Clients.Core.HazardPath)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
