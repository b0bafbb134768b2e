package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Workspace != "default" {
		t.Errorf("workspace = %q, want default", cfg.Workspace)
	}
	if cfg.LLM.Model != "gemini-2.0-flash" {
		t.Errorf("model = %q, want gemini-2.0-flash", cfg.LLM.Model)
	}
	if cfg.Session.DatabasePath != "dbcopilot.db" {
		t.Errorf("database path = %q, want dbcopilot.db", cfg.Session.DatabasePath)
	}
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := writeConfig(t, `
workspace: analytics
llm:
  model: gemini-2.5-pro
connections:
  - name: orders
    kind: mongo
    uri: mongodb://localhost:27017
    database: shop
  - name: warehouse
    kind: bigquery
    project_id: acme-prod
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Workspace != "analytics" {
		t.Errorf("workspace = %q, want analytics", cfg.Workspace)
	}
	if cfg.LLM.Model != "gemini-2.5-pro" {
		t.Errorf("model = %q, want gemini-2.5-pro", cfg.LLM.Model)
	}
	// Unset fields keep their defaults.
	if cfg.Session.DatabasePath != "dbcopilot.db" {
		t.Errorf("database path = %q, want default", cfg.Session.DatabasePath)
	}

	caps := cfg.Capabilities()
	if len(caps) != 2 || caps[0] != "mongo" || caps[1] != "bigquery" {
		t.Errorf("capabilities = %v", caps)
	}

	conn, ok := cfg.Connection("bigquery")
	if !ok || conn.ProjectID != "acme-prod" {
		t.Errorf("Connection(bigquery) = %+v ok=%v", conn, ok)
	}
	if _, ok := cfg.Connection("postgres"); ok {
		t.Error("Connection(postgres) should be absent")
	}
}

func TestLoadEnvOverridesAPIKey(t *testing.T) {
	path := writeConfig(t, `
llm:
  api_key: from-file
`)
	t.Setenv("DBCOPILOT_API_KEY", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLM.APIKey != "from-env" {
		t.Errorf("api key = %q, want from-env", cfg.LLM.APIKey)
	}
}

func TestLoadRejectsUnknownKind(t *testing.T) {
	path := writeConfig(t, `
connections:
  - name: cache
    kind: redis
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown connection kind")
	}
}

func TestLoadRejectsDuplicateKind(t *testing.T) {
	path := writeConfig(t, `
connections:
  - name: a
    kind: postgres
    dsn: postgres://a
  - name: b
    kind: postgres
    dsn: postgres://b
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for duplicate connection kind")
	}
}
