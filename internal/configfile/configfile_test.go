package configfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.OfflineDatabase != "offline.db" {
		t.Errorf("OfflineDatabase = %q, want offline.db", cfg.OfflineDatabase)
	}
}

func TestLoadSaveRoundtrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".ldm")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	cfg := DefaultConfig()
	cfg.ModeTokenPrefix = "offline:"
	cfg.TrashRetentionDays = 14

	if err := cfg.Save(dir); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded == nil {
		t.Fatal("Load() returned nil config")
	}
	if loaded.OfflineDatabase != cfg.OfflineDatabase {
		t.Errorf("OfflineDatabase = %q, want %q", loaded.OfflineDatabase, cfg.OfflineDatabase)
	}
	if loaded.ModeTokenPrefix != cfg.ModeTokenPrefix {
		t.Errorf("ModeTokenPrefix = %q, want %q", loaded.ModeTokenPrefix, cfg.ModeTokenPrefix)
	}
	if loaded.TrashRetentionDays != 14 {
		t.Errorf("TrashRetentionDays = %d, want 14", loaded.TrashRetentionDays)
	}
}

func TestLoadNonexistent(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() returned error for nonexistent config: %v", err)
	}
	if cfg != nil {
		t.Errorf("Load() = %v, want nil for nonexistent config", cfg)
	}
}

func TestDatabasePath(t *testing.T) {
	dir := "/home/user/project/.ldm"
	cfg := &Config{OfflineDatabase: "offline.db"}
	got := cfg.DatabasePath(dir)
	want := filepath.Join(dir, "offline.db")
	if got != want {
		t.Errorf("DatabasePath() = %q, want %q", got, want)
	}
}

func TestDatabasePathDefaultsWhenEmpty(t *testing.T) {
	dir := "/home/user/project/.ldm"
	cfg := &Config{}
	got := cfg.DatabasePath(dir)
	want := filepath.Join(dir, "offline.db")
	if got != want {
		t.Errorf("DatabasePath() = %q, want %q", got, want)
	}
}

func TestConfigPath(t *testing.T) {
	dir := "/home/user/project/.ldm"
	got := ConfigPath(dir)
	want := filepath.Join(dir, "metadata.json")
	if got != want {
		t.Errorf("ConfigPath() = %q, want %q", got, want)
	}
}

func TestGetTrashRetentionDays(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
		want int
	}{
		{"zero uses default", &Config{TrashRetentionDays: 0}, DefaultTrashRetentionDays},
		{"negative uses default", &Config{TrashRetentionDays: -5}, DefaultTrashRetentionDays},
		{"custom value", &Config{TrashRetentionDays: 14}, 14},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.GetTrashRetentionDays(); got != tt.want {
				t.Errorf("GetTrashRetentionDays() = %d, want %d", got, tt.want)
			}
		})
	}
}
