package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("default port = %q, want 8080", cfg.Port)
	}
	if cfg.EscalationTimeout != 30*time.Second {
		t.Errorf("default escalation timeout = %v, want 30s", cfg.EscalationTimeout)
	}
	if cfg.FuzzyMaxDistance != 2 {
		t.Errorf("default fuzzy max distance = %d, want 2", cfg.FuzzyMaxDistance)
	}
	if !cfg.IsDevelopment() {
		t.Error("empty FRONTEND_URL should mean development mode")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ESCALATION_TIMEOUT", "10s")
	t.Setenv("FUZZY_THRESHOLD", "0.2")
	t.Setenv("FRONTEND_URL", "https://lapak.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("port = %q, want 9090", cfg.Port)
	}
	if cfg.EscalationTimeout != 10*time.Second {
		t.Errorf("escalation timeout = %v, want 10s", cfg.EscalationTimeout)
	}
	if cfg.FuzzyThreshold != 0.2 {
		t.Errorf("fuzzy threshold = %v, want 0.2", cfg.FuzzyThreshold)
	}
	if cfg.IsDevelopment() {
		t.Error("a non-local FRONTEND_URL should not be development mode")
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("ESCALATION_TIMEOUT", "not-a-duration")
	t.Setenv("FUZZY_MAX_DISTANCE", "banana")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.EscalationTimeout != 30*time.Second {
		t.Errorf("bad duration should fall back to default, got %v", cfg.EscalationTimeout)
	}
	if cfg.FuzzyMaxDistance != 2 {
		t.Errorf("bad int should fall back to default, got %d", cfg.FuzzyMaxDistance)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		Port:              "8080",
		KnowledgePath:     "./data/knowledge.json",
		DBPath:            "./data/lapakchat.db",
		EscalationTimeout: 30 * time.Second,
		FuzzyThreshold:    0.34,
		FuzzyMaxDistance:  2,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty port", func(c *Config) { c.Port = "" }},
		{"empty knowledge path", func(c *Config) { c.KnowledgePath = "" }},
		{"empty db path", func(c *Config) { c.DBPath = "" }},
		{"zero timeout", func(c *Config) { c.EscalationTimeout = 0 }},
		{"threshold out of range", func(c *Config) { c.FuzzyThreshold = 1.5 }},
		{"negative distance", func(c *Config) { c.FuzzyMaxDistance = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}
