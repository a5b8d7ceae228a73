package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadLocalConfigMissingFile(t *testing.T) {
	cfg := LoadLocalConfig(t.TempDir())
	if cfg == nil {
		t.Fatal("expected non-nil empty LocalConfig")
	}
	if cfg.ModeTokenPrefix != "" {
		t.Errorf("expected empty ModeTokenPrefix, got %q", cfg.ModeTokenPrefix)
	}
}

func TestLoadLocalConfigParsesYAML(t *testing.T) {
	dir := t.TempDir()
	content := "mode-token-prefix: \"offline:\"\noffline-path: /var/ldm/offline.db\nactor: alice\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg := LoadLocalConfig(dir)
	if cfg.ModeTokenPrefix != "offline:" {
		t.Errorf("ModeTokenPrefix = %q, want offline:", cfg.ModeTokenPrefix)
	}
	if cfg.Actor != "alice" {
		t.Errorf("Actor = %q, want alice", cfg.Actor)
	}
}

func TestLoadLocalConfigWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	content := "mode-token-prefix: \"offline:\"\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	os.Setenv("LDM_MODE_TOKEN_PREFIX", "env-prefix:")
	defer os.Unsetenv("LDM_MODE_TOKEN_PREFIX")

	cfg := LoadLocalConfigWithEnv(dir)
	if cfg.ModeTokenPrefix != "env-prefix:" {
		t.Errorf("ModeTokenPrefix = %q, want env override", cfg.ModeTokenPrefix)
	}
}
