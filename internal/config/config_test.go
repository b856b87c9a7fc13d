package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.yaml", `
timezone: Europe/Berlin
api:
  base_url: https://bi.example.com
  username: analyst
  password: secret
analyzer:
  enabled: true
  spec: "@every 5m"
server:
  enabled: true
  addr: ":9000"
thresholds:
  utilization:
    green: 70
    yellow: 45
    higher_is_better: true
`)

	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timezone != "Europe/Berlin" {
		t.Fatalf("Timezone = %q", cfg.Timezone)
	}
	if cfg.Analyzer.Spec != "@every 5m" {
		t.Fatalf("Analyzer.Spec = %q", cfg.Analyzer.Spec)
	}
	if cfg.API.PageSize != 100 {
		t.Fatalf("PageSize default = %d, want 100", cfg.API.PageSize)
	}
	if th, ok := cfg.Thresholds["utilization"]; !ok || th.Green != 70 || !th.HigherIsBetter {
		t.Fatalf("thresholds override missing: %+v", cfg.Thresholds)
	}
	if got := m.Get(); got != cfg {
		t.Fatal("Get should return the committed config")
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.yaml", `
timezone: UTC
api:
  base_url: https://bi.example.com
typo_field: true
`)
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadRejectsBadTimezone(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.json",
		`{"timezone":"Mars/Olympus","api":{"base_url":"https://bi.example.com"}}`)
	_, err := NewManager(path).Load()
	if err == nil || !strings.Contains(err.Error(), "timezone") {
		t.Fatalf("expected timezone error, got %v", err)
	}
}

func TestLoadRequiresBaseURL(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.json", `{"timezone":"UTC"}`)
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected error for missing api.base_url")
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	d, err := ParseDurationOrDefault("x", "", 5)
	if err != nil || d != 5 {
		t.Fatalf("default case: %v %v", d, err)
	}
	if _, err := ParseDurationField("x", "-3s"); err == nil {
		t.Fatal("expected error for negative duration")
	}
	if _, err := ParseDurationField("x", "soon"); err == nil {
		t.Fatal("expected error for junk duration")
	}
}
