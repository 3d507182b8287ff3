package config

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/knadh/koanf/v2"
)

func unsetAll() {
	for _, k := range []string{
		"GUARDIAN_ENV", "GUARDIAN_LOG_LEVEL", "GUARDIAN_PORT", "GUARDIAN_DATA_DIR",
		"GUARDIAN_REFRESH_SECONDS", "GUARDIAN_LATITUDE", "GUARDIAN_LONGITUDE",
		"GUARDIAN_TIMEZONE", "GUARDIAN_METHOD", "GUARDIAN_ASR_SCHOOL",
	} {
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetAll()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Env != "prod" {
		t.Errorf("expected Env=prod, got %q", cfg.Env)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected LogLevel=info, got %q", cfg.LogLevel)
	}
	if cfg.Port != 8643 {
		t.Errorf("expected Port=8643, got %d", cfg.Port)
	}
	if cfg.RefreshSeconds != 30 {
		t.Errorf("expected RefreshSeconds=30, got %d", cfg.RefreshSeconds)
	}
	if cfg.Method != "mwl" || cfg.AsrSchool != "standard" {
		t.Errorf("expected default method mwl/standard, got %q/%q", cfg.Method, cfg.AsrSchool)
	}
}

func TestLoad_ValidOverrides(t *testing.T) {
	unsetAll()
	t.Setenv("GUARDIAN_ENV", "dev")
	t.Setenv("GUARDIAN_PORT", "9000")
	t.Setenv("GUARDIAN_LATITUDE", "24.7136")
	t.Setenv("GUARDIAN_LONGITUDE", "46.6753")
	t.Setenv("GUARDIAN_TIMEZONE", "Asia/Riyadh")
	t.Setenv("GUARDIAN_METHOD", "makkah")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Env != "dev" {
		t.Errorf("expected Env=dev, got %q", cfg.Env)
	}
	if cfg.Port != 9000 {
		t.Errorf("expected Port=9000, got %d", cfg.Port)
	}
	if cfg.Method != "makkah" {
		t.Errorf("expected Method=makkah, got %q", cfg.Method)
	}
	if cfg.Latitude == 0 || cfg.Longitude == 0 {
		t.Error("expected coordinates to load")
	}
}

func TestLoad_WhenKoanfLoadFails(t *testing.T) {
	orig := envLoader
	envLoader = func(k *koanf.Koanf) error {
		return errors.New("mocked error")
	}
	defer func() { envLoader = orig }()

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "mocked error") {
		t.Fatal("expected error when loading env, got nil")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := []struct {
		key, value string
	}{
		{"GUARDIAN_ENV", "staging"},
		{"GUARDIAN_LOG_LEVEL", "trace"},
		{"GUARDIAN_PORT", "0"},
		{"GUARDIAN_METHOD", "custom"},
		{"GUARDIAN_ASR_SCHOOL", "maliki"},
		{"GUARDIAN_LATITUDE", "95"},
		{"GUARDIAN_REFRESH_SECONDS", "1"},
	}

	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			unsetAll()
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s, got nil", tc.key, tc.value)
			}
		})
	}
}
