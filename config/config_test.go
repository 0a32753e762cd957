package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	payload := `{
  "server": {"jwt_secret": "secret"},
  "llm": {"provider": "openai", "model": "gpt-4o-mini"},
  "storage": {"postgres": {"host": "localhost", "dbname": "deskwise"}}
}`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := LoadConfig(path)
	if cfg.Server.Address != ":10002" {
		t.Fatalf("default address not applied: %q", cfg.Server.Address)
	}
	if cfg.Generation.MaxAgentCycles != 10 {
		t.Fatalf("default max cycles not applied: %d", cfg.Generation.MaxAgentCycles)
	}
	if cfg.Generation.StatusInterval != time.Second {
		t.Fatalf("default status interval not applied: %v", cfg.Generation.StatusInterval)
	}
	if cfg.Generation.Registry != "inmemory" {
		t.Fatalf("default registry not applied: %q", cfg.Generation.Registry)
	}
	if cfg.Tools.WebSearch.MaxResults != 3 {
		t.Fatalf("default search results not applied: %d", cfg.Tools.WebSearch.MaxResults)
	}
	if cfg.Tools.WebFetch.Timeout != 15*time.Second {
		t.Fatalf("default fetch timeout not applied: %v", cfg.Tools.WebFetch.Timeout)
	}

	dsn, err := cfg.Storage.Postgres.DSN()
	if err != nil {
		t.Fatalf("dsn: %v", err)
	}
	if dsn != "postgres://:@localhost:5432/deskwise?sslmode=disable" {
		t.Fatalf("unexpected dsn: %q", dsn)
	}
}

func TestGenerationConfigValidate(t *testing.T) {
	g := GenerationConfig{Registry: "etcd"}
	if err := g.Validate(); err == nil {
		t.Fatal("expected error for unsupported registry")
	}
	g.Registry = "redis"
	if err := g.Validate(); err != nil {
		t.Fatalf("redis registry must validate: %v", err)
	}
}
