package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
xero:
  client_id: abc
  client_secret: def
report:
  from_date: "2021-12-01"
  to_date: "2021-12-31"
artifacts:
  dir: /tmp/artifacts
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Xero.ClientID != "abc" {
		t.Errorf("ClientID = %q, want abc", cfg.Xero.ClientID)
	}
	if cfg.Artifacts.Dir != "/tmp/artifacts" {
		t.Errorf("Artifacts.Dir = %q, want /tmp/artifacts", cfg.Artifacts.Dir)
	}
	if cfg.Server.Port != "8000" {
		t.Errorf("default port = %q, want 8000", cfg.Server.Port)
	}
	if len(cfg.Xero.Scopes) == 0 {
		t.Error("expected default scopes to be populated")
	}

	from, to, err := cfg.ReportPeriod()
	if err != nil {
		t.Fatalf("ReportPeriod() error = %v", err)
	}
	if from.Format("2006-01-02") != "2021-12-01" {
		t.Errorf("from = %v", from)
	}
	if !to.Equal(time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("to = %v", to)
	}
}

func TestLoad_MissingCredentials(t *testing.T) {
	path := writeConfig(t, "report:\n  from_date: \"2021-12-01\"\n")

	if _, err := Load(path); err == nil {
		t.Error("expected error for missing credentials")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "xero:\n  client_id: from-file\n  client_secret: secret\n")
	t.Setenv("XERO_CLIENT_ID", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Xero.ClientID != "from-env" {
		t.Errorf("ClientID = %q, want from-env", cfg.Xero.ClientID)
	}
}

func TestLoad_InvalidPeriod(t *testing.T) {
	path := writeConfig(t, `
xero:
  client_id: abc
  client_secret: def
report:
  from_date: "2021-12-31"
  to_date: "2021-12-01"
`)

	if _, err := Load(path); err == nil {
		t.Error("expected error for inverted period")
	}
}
