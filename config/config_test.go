package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "teardown.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
version: "1"
profile: Development-Admin
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Preserve.TagKey != "decom:preserve" || cfg.Preserve.TagValue != "true" {
		t.Errorf("preserve tag defaults wrong: %+v", cfg.Preserve)
	}
	if cfg.Execution.Concurrency != 5 {
		t.Errorf("concurrency default = %d, want 5", cfg.Execution.Concurrency)
	}
	if cfg.Execution.BarrierDelay != 30*time.Second {
		t.Errorf("barrier delay default = %v, want 30s", cfg.Execution.BarrierDelay)
	}
	if len(cfg.Preserve.Patterns) == 0 {
		t.Error("default preserve patterns missing")
	}
	if _, ok := cfg.Preserve.Patterns["ControlTower"]; !ok {
		t.Error("ControlTower pattern missing from defaults")
	}
}

func TestLoadRejectsMissingVersion(t *testing.T) {
	path := writeConfig(t, `
profile: Development-Admin
`)
	if _, err := Load(path); err == nil {
		t.Error("config without version accepted")
	}
}

func TestLoadRejectsMissingAccount(t *testing.T) {
	path := writeConfig(t, `
version: "1"
`)
	if _, err := Load(path); err == nil {
		t.Error("config without account accepted")
	}
}

func TestRestricted(t *testing.T) {
	cfg := Config{RestrictedAccounts: []string{"LogArchive-Admin", "Audit-Admin"}}

	if !cfg.Restricted("Audit-Admin") {
		t.Error("Audit-Admin should be restricted")
	}
	if cfg.Restricted("Development-Admin") {
		t.Error("Development-Admin should not be restricted")
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
version: "1"
profile: Development-Admin
dry_run: true
regions: [us-east-1, eu-west-1]
preserve:
  tag_key: "keep"
  tag_value: "yes"
  patterns:
    mycompany.com: "Company domain resource"
execution:
  concurrency: 3
  barrier_delay: 10s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.DryRun {
		t.Error("dry_run not parsed")
	}
	if cfg.Preserve.TagKey != "keep" {
		t.Errorf("tag key = %q", cfg.Preserve.TagKey)
	}
	if cfg.Execution.Concurrency != 3 || cfg.Execution.BarrierDelay != 10*time.Second {
		t.Errorf("execution overrides wrong: %+v", cfg.Execution)
	}
	if len(cfg.Regions) != 2 {
		t.Errorf("regions = %v", cfg.Regions)
	}
	if _, ok := cfg.Preserve.Patterns["mycompany.com"]; !ok {
		t.Error("custom pattern missing")
	}
}
