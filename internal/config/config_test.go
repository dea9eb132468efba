package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8009" {
		t.Errorf("Port = %q, want 8009", cfg.Port)
	}
	if cfg.Policy.FogDiscountPct != 80 || cfg.Policy.TwoPass {
		t.Errorf("policy = %+v, want defaults", cfg.Policy)
	}
	if cfg.Archive != "postgres" {
		t.Errorf("Archive = %q, want postgres", cfg.Archive)
	}
	if cfg.TurnDuration != 30*time.Second {
		t.Errorf("TurnDuration = %v, want 30s", cfg.TurnDuration)
	}
}

func TestLoadPolicyFromEnv(t *testing.T) {
	t.Setenv("TWO_PASS_DANGER", "true")
	t.Setenv("FOG_DISCOUNT_PCT", "60")
	t.Setenv("SUICIDE_DISCOUNT_PCT", "bogus")
	t.Setenv("MAP_WIDTH", "12")
	t.Setenv("TURN_DURATION", "5s")

	cfg := Load()
	if !cfg.Policy.TwoPass {
		t.Error("TwoPass not enabled")
	}
	if cfg.Policy.FogDiscountPct != 60 {
		t.Errorf("FogDiscountPct = %d, want 60", cfg.Policy.FogDiscountPct)
	}
	if cfg.Policy.SuicideDiscountPct != 50 {
		t.Errorf("SuicideDiscountPct = %d, want default 50", cfg.Policy.SuicideDiscountPct)
	}
	if cfg.MapWidth != 12 {
		t.Errorf("MapWidth = %d, want 12", cfg.MapWidth)
	}
	if cfg.TurnDuration != 5*time.Second {
		t.Errorf("TurnDuration = %v, want 5s", cfg.TurnDuration)
	}
}
