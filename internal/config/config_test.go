package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("expected default port 8000, got %d", cfg.Server.Port)
	}
	if cfg.Mistral.ChunkLimit != 4000 {
		t.Errorf("expected chunk limit 4000, got %d", cfg.Mistral.ChunkLimit)
	}
	if cfg.Security.MaxInputLength != 50000 {
		t.Errorf("expected max input length 50000, got %d", cfg.Security.MaxInputLength)
	}
	if cfg.Security.MidRisk != 0.4 || cfg.Security.HighRisk != 0.7 {
		t.Errorf("expected risk thresholds 0.4/0.7, got %v/%v", cfg.Security.MidRisk, cfg.Security.HighRisk)
	}
	if cfg.Upload.MinUsableLength != 50 {
		t.Errorf("expected min usable length 50, got %d", cfg.Upload.MinUsableLength)
	}
	if len(cfg.Security.BlockedPatterns) == 0 {
		t.Error("expected default blocked patterns")
	}
}

func TestLoad_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9090
mistral:
  chunk_limit: 1000
security:
  max_input_length: 200
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Mistral.ChunkLimit != 1000 {
		t.Errorf("expected chunk limit 1000, got %d", cfg.Mistral.ChunkLimit)
	}
	if cfg.Security.MaxInputLength != 200 {
		t.Errorf("expected max input length 200, got %d", cfg.Security.MaxInputLength)
	}
	// Unset keys keep their defaults.
	if cfg.Upload.MaxFileSizeMB != 10 {
		t.Errorf("expected default max file size, got %d", cfg.Upload.MaxFileSizeMB)
	}
}

func TestLoad_KeyFile(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "")
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "Key.txt")
	if err := os.WriteFile(keyPath, []byte("secret-key\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("mistral:\n  key_file: "+keyPath+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Mistral.APIKey != "secret-key" {
		t.Errorf("expected key from file, got %q", cfg.Mistral.APIKey)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if err := cfg.Validate(); err == nil {
		t.Error("expected error when API key is missing")
	}

	cfg.Mistral.APIKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.Security.MidRisk = 0.9
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when mid_risk >= high_risk")
	}
}

func TestMaxFileSizeBytes(t *testing.T) {
	cfg := &Config{Upload: UploadConfig{MaxFileSizeMB: 10}}
	if got := cfg.MaxFileSizeBytes(); got != 10*1024*1024 {
		t.Errorf("expected 10MB in bytes, got %d", got)
	}
}
