package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sim.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[simulation]
tick_rate = "20ms"
seed = 42

[combat]
collision_threshold = 4.5
roll_status_chance = false

[logging]
level = "debug"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Simulation.TickRate != 20*time.Millisecond {
		t.Errorf("expected 20ms tick, got %s", cfg.Simulation.TickRate)
	}
	if cfg.Simulation.Seed != 42 {
		t.Errorf("expected seed 42, got %d", cfg.Simulation.Seed)
	}
	if cfg.Combat.CollisionThreshold != 4.5 {
		t.Errorf("expected threshold 4.5, got %f", cfg.Combat.CollisionThreshold)
	}
	if cfg.Combat.RollStatusChance {
		t.Error("expected status rolls disabled")
	}
	// untouched sections keep their defaults
	if cfg.Power.EmergencyPower != 50 {
		t.Errorf("expected default emergency power, got %f", cfg.Power.EmergencyPower)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Errorf("unexpected logging config %+v", cfg.Logging)
	}
	if cfg.DeltaSeconds() != 0.02 {
		t.Errorf("expected dt 0.02, got %f", cfg.DeltaSeconds())
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	path := writeConfig(t, `
[combat]
collision_threshold = 0
`)
	if _, err := Load(path); err == nil {
		t.Error("expected validation error for zero collision threshold")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}
