package factory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ldm-sh/ldm/internal/configfile"
)

func TestIsOfflineToken(t *testing.T) {
	cases := []struct {
		token, prefix string
		want          bool
	}{
		{"offline:abc123", "offline:", true},
		{"offline:", "offline:", true},
		{"online-session-xyz", "offline:", false},
		{"", "offline:", false},
	}
	for _, tt := range cases {
		if got := IsOfflineToken(tt.token, tt.prefix); got != tt.want {
			t.Errorf("IsOfflineToken(%q, %q) = %v, want %v", tt.token, tt.prefix, got, tt.want)
		}
	}
}

func TestModeTokenPrefixDefaultsWhenUnset(t *testing.T) {
	dir := t.TempDir()
	if got := ModeTokenPrefix(dir); got != defaultModeTokenPrefix {
		t.Errorf("ModeTokenPrefix() = %q, want %q", got, defaultModeTokenPrefix)
	}
}

func TestModeTokenPrefixHonorsMetadataOverride(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatal(err)
	}
	cfg := configfile.DefaultConfig()
	cfg.ModeTokenPrefix = "local-mode:"
	if err := cfg.Save(dir); err != nil {
		t.Fatal(err)
	}

	if got := ModeTokenPrefix(dir); got != "local-mode:" {
		t.Errorf("ModeTokenPrefix() = %q, want local-mode:", got)
	}
}

func TestModeTokenPrefixIgnoresNonexistentDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does-not-exist")
	if got := ModeTokenPrefix(dir); got != defaultModeTokenPrefix {
		t.Errorf("ModeTokenPrefix() = %q, want default %q", got, defaultModeTokenPrefix)
	}
}
