package config

import (
	"errors"
	"testing"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("producer: acme-sign\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Producer != "acme-sign" {
		t.Errorf("producer = %q, want acme-sign", cfg.Producer)
	}
	if cfg.HistoryCap != 50 {
		t.Errorf("history cap default = %d, want 50", cfg.HistoryCap)
	}
	if cfg.MinDragPx != 5 {
		t.Errorf("min drag default = %v, want 5", cfg.MinDragPx)
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"history cap too small", "history-cap: 1\n"},
		{"negative drag threshold", "min-drag-px: -3\n"},
		{"zero font size", "default-font-size: 0\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ConfigError, got %T", err)
			}
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	if _, err := Parse([]byte("history-cap: [oops\n")); err == nil {
		t.Fatal("expected yaml error")
	}
}
