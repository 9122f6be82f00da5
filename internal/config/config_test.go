package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_FileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[app]
port = 9090

[ingest]
chunk_size = 500
chunk_overlap = 50
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("CHUNK_OVERLAP", "100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Port != 9090 {
		t.Fatalf("expected port from file, got %d", cfg.App.Port)
	}
	if cfg.Ingest.ChunkSize != 500 {
		t.Fatalf("expected chunk size 500, got %d", cfg.Ingest.ChunkSize)
	}
	if cfg.Ingest.ChunkOverlap != 100 {
		t.Fatalf("expected env to override overlap, got %d", cfg.Ingest.ChunkOverlap)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Fatalf("expected api key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.HTTPAddr() != "0.0.0.0:9090" {
		t.Fatalf("unexpected addr %q", cfg.HTTPAddr())
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "overlap equals size", mutate: func(c *Config) { c.Ingest.ChunkOverlap = c.Ingest.ChunkSize }, wantErr: true},
		{name: "zero size", mutate: func(c *Config) { c.Ingest.ChunkSize = 0 }, wantErr: true},
		{name: "unknown backend", mutate: func(c *Config) { c.Index.Backend = "faiss" }, wantErr: true},
		{name: "pgvector without dsn", mutate: func(c *Config) { c.Index.Backend = "pgvector" }, wantErr: true},
		{name: "empty secret", mutate: func(c *Config) { c.Session.Secret = " " }, wantErr: true},
		{name: "default secret in prod", mutate: func(c *Config) { c.App.Env = "prod" }, wantErr: true},
		{name: "custom secret in prod", mutate: func(c *Config) {
			c.App.Env = "prod"
			c.Session.Secret = "a-real-secret"
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
