package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Source != "cricket.db" {
		t.Errorf("source default: got %q", cfg.Database.Source)
	}
	if cfg.Years.Min != 2000 || cfg.Years.Max != 2025 {
		t.Errorf("year defaults: got %d..%d", cfg.Years.Min, cfg.Years.Max)
	}
	if cfg.Worker.Debounce != 250*time.Millisecond {
		t.Errorf("debounce default: got %v", cfg.Worker.Debounce)
	}
}

func TestLoad_YAMLWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "database:\n  source: /data/matches.db\nyears:\n  min: 1990\n  max: 2020\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CRICATLAS_YEAR_MAX", "2024")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Source != "/data/matches.db" {
		t.Errorf("source: got %q", cfg.Database.Source)
	}
	if cfg.Years.Min != 1990 {
		t.Errorf("year min from yaml: got %d", cfg.Years.Min)
	}
	if cfg.Years.Max != 2024 {
		t.Errorf("year max env override: got %d", cfg.Years.Max)
	}
}

func TestLoad_MissingFileFallsBack(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Source != "cricket.db" {
		t.Errorf("fallback source: got %q", cfg.Database.Source)
	}
}

func TestLoad_InvertedYearsRepaired(t *testing.T) {
	t.Setenv("CRICATLAS_YEAR_MIN", "2030")
	t.Setenv("CRICATLAS_YEAR_MAX", "1990")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Years.Min != 1990 || cfg.Years.Max != 2030 {
		t.Errorf("want repaired range 1990..2030, got %d..%d", cfg.Years.Min, cfg.Years.Max)
	}
}
