package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func envSnapshot(t *testing.T) func() {
	t.Helper()
	saved := map[string]string{}
	for _, key := range []string{"LDM_MODE_TOKEN_PREFIX", "LDM_RETENTION_TRASH_DAYS", "LDM_DEPLOY_LOG_LEVEL"} {
		if val, ok := os.LookupEnv(key); ok {
			saved[key] = val
		}
		os.Unsetenv(key)
	}
	return func() {
		for key, val := range saved {
			os.Setenv(key, val)
		}
	}
}

func TestInitializeSetsDefaults(t *testing.T) {
	restore := envSnapshot(t)
	defer restore()

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	if v == nil {
		t.Fatal("viper instance is nil after Initialize()")
	}

	if got := GetString("mode.token-prefix"); got != "offline:" {
		t.Errorf("mode.token-prefix default = %q, want %q", got, "offline:")
	}
	if got := GetInt("retention.trash-days"); got != 30 {
		t.Errorf("retention.trash-days default = %d, want 30", got)
	}
	if got := GetString("merge.conflict-strategy"); got != "newest" {
		t.Errorf("merge.conflict-strategy default = %q, want newest", got)
	}
}

func TestEnvironmentBinding(t *testing.T) {
	restore := envSnapshot(t)
	defer restore()

	os.Setenv("LDM_MODE_TOKEN_PREFIX", "local-offline:")
	defer os.Unsetenv("LDM_MODE_TOKEN_PREFIX")

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	if got := GetString("mode.token-prefix"); got != "local-offline:" {
		t.Errorf("mode.token-prefix = %q, want env override", got)
	}
}

func TestConfigFilePrecedence(t *testing.T) {
	restore := envSnapshot(t)
	defer restore()

	tmpDir := t.TempDir()
	ldmDir := filepath.Join(tmpDir, ".ldm")
	if err := os.MkdirAll(ldmDir, 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := "retention:\n  trash-days: 7\n"
	if err := os.WriteFile(filepath.Join(ldmDir, "config.yaml"), []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Chdir(tmpDir)

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	if got := GetInt("retention.trash-days"); got != 7 {
		t.Errorf("retention.trash-days from file = %d, want 7", got)
	}

	os.Setenv("LDM_RETENTION_TRASH_DAYS", "14")
	defer os.Unsetenv("LDM_RETENTION_TRASH_DAYS")
	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	if got := GetInt("retention.trash-days"); got != 14 {
		t.Errorf("retention.trash-days with env override = %d, want 14 (env beats file)", got)
	}
}

func TestSetAndGet(t *testing.T) {
	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	Set("test-key", "test-value")
	if got := GetString("test-key"); got != "test-value" {
		t.Errorf("GetString(test-key) = %q, want test-value", got)
	}
	Set("test-duration", 5*time.Second)
	if got := GetDuration("test-duration"); got != 5*time.Second {
		t.Errorf("GetDuration(test-duration) = %v, want 5s", got)
	}
}

func TestNilViperIsSafe(t *testing.T) {
	savedV := v
	defer func() { v = savedV }()
	ResetForTesting()

	if got := GetString("any"); got != "" {
		t.Errorf("GetString with nil viper = %q, want empty", got)
	}
	if got := GetBool("any"); got != false {
		t.Errorf("GetBool with nil viper = %v, want false", got)
	}
	if got := GetInt("any"); got != 0 {
		t.Errorf("GetInt with nil viper = %d, want 0", got)
	}
	if got := GetStringSlice("any"); len(got) != 0 {
		t.Errorf("GetStringSlice with nil viper = %v, want empty", got)
	}
	if got := AllSettings(); len(got) != 0 {
		t.Errorf("AllSettings with nil viper = %v, want empty", got)
	}
	Set("any", "value") // must not panic
}

func TestGetValueSource(t *testing.T) {
	restore := envSnapshot(t)
	defer restore()

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	if got := GetValueSource("mode.token-prefix"); got != SourceDefault {
		t.Errorf("GetValueSource(mode.token-prefix) = %v, want SourceDefault", got)
	}

	os.Setenv("LDM_MODE_TOKEN_PREFIX", "x:")
	defer os.Unsetenv("LDM_MODE_TOKEN_PREFIX")
	if got := GetValueSource("mode.token-prefix"); got != SourceEnvVar {
		t.Errorf("GetValueSource(mode.token-prefix) = %v, want SourceEnvVar", got)
	}
}

func TestCheckOverridesDetectsFlagSet(t *testing.T) {
	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	flags := map[string]struct {
		Value  interface{}
		WasSet bool
	}{
		"mode.token-prefix": {Value: "custom:", WasSet: true},
		"retention.trash-days": {Value: 10, WasSet: false},
	}
	overrides := CheckOverrides(flags)
	if len(overrides) != 1 || overrides[0].Key != "mode.token-prefix" {
		t.Errorf("CheckOverrides = %+v, want exactly one override for mode.token-prefix", overrides)
	}
}
