package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ECONOMY_CONFIG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8085 {
		t.Fatalf("default port: %d", cfg.Server.Port)
	}
	if cfg.Store.Backend != "file" || cfg.Store.DataDir != "data" {
		t.Fatalf("default store: %+v", cfg.Store)
	}
	if cfg.Economy.RepurchasePolicy != "charge" || cfg.Economy.LockPolicy != "serialize" {
		t.Fatalf("default economy: %+v", cfg.Economy)
	}
	if cfg.Jobs.WeeklyResetSchedule != "@weekly" {
		t.Fatalf("default schedule: %q", cfg.Jobs.WeeklyResetSchedule)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "economy.yaml")
	data := []byte("server:\n  port: 9000\nstore:\n  backend: memory\neconomy:\n  repurchase_policy: reject\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("ECONOMY_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Fatalf("yaml port not applied: %d", cfg.Server.Port)
	}
	if cfg.Store.Backend != "memory" {
		t.Fatalf("yaml backend not applied: %s", cfg.Store.Backend)
	}
	if cfg.Economy.RepurchasePolicy != "reject" {
		t.Fatalf("yaml policy not applied: %s", cfg.Economy.RepurchasePolicy)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Fatalf("untouched default lost: %s", cfg.Server.Host)
	}
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "economy.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("ECONOMY_CONFIG", path)
	t.Setenv("ECONOMY_SERVER_PORT", "9100")
	t.Setenv("ECONOMY_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Fatalf("env port not applied: %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("env level not applied: %s", cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"ECONOMY_STORE_BACKEND": "redis"}},
		{"postgres without dsn", map[string]string{"ECONOMY_STORE_BACKEND": "postgres"}},
		{"unknown repurchase policy", map[string]string{"ECONOMY_REPURCHASE_POLICY": "refund"}},
		{"unknown lock policy", map[string]string{"ECONOMY_LOCK_POLICY": "optimistic"}},
		{"invalid port", map[string]string{"ECONOMY_SERVER_PORT": "70000"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("ECONOMY_CONFIG", "")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
