package cliconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFileConfig(t *testing.T) {
	path := writeConfigFile(t, `
stream = "enriched-events"
region = "us-west-2"
record_limit = 250
time_limit = "30s"
max_attempts = 5
monitoring_url = "https://monitoring.example.com/v1/failures"
`)

	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig: %v", err)
	}
	if fc.StreamName != "enriched-events" || fc.Region != "us-west-2" {
		t.Errorf("fc = %+v", fc)
	}
	if fc.RecordLimit != 250 || fc.TimeLimit != "30s" || fc.MaxAttempts != 5 {
		t.Errorf("fc thresholds = %+v", fc)
	}
}

func TestApplyFileConfigRespectsFlagPrecedence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StreamName = "from-flag"

	fc := FileConfig{
		StreamName:  "from-file",
		RecordLimit: 100,
		TimeLimit:   "45s",
	}
	changed := map[string]bool{"stream": true}

	if err := ApplyFileConfig(&cfg, fc, changed); err != nil {
		t.Fatal(err)
	}
	if cfg.StreamName != "from-flag" {
		t.Errorf("StreamName = %q, file overrode an explicit flag", cfg.StreamName)
	}
	if cfg.RecordLimit != 100 {
		t.Errorf("RecordLimit = %d, want 100 from file", cfg.RecordLimit)
	}
	if cfg.TimeLimit != 45*time.Second {
		t.Errorf("TimeLimit = %v, want 45s from file", cfg.TimeLimit)
	}
}

func TestApplyFileConfigRejectsBadDuration(t *testing.T) {
	cfg := DefaultConfig()
	fc := FileConfig{TimeLimit: "not-a-duration"}

	if err := ApplyFileConfig(&cfg, fc, nil); err == nil {
		t.Fatal("expected error for malformed duration")
	}
}

func TestLoadFileConfigMissingFile(t *testing.T) {
	if _, err := LoadFileConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
