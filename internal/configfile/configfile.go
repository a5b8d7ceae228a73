// Package configfile persists the per-deployment metadata that identifies
// an LDM data directory: where its offline database lives, the mode-token
// prefix bound to this deployment, and the soft-delete retention window.
package configfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const ConfigFileName = "metadata.json"

type Config struct {
	OfflineDatabase string `json:"offline_database"`

	// ModeTokenPrefix overrides the deployment-wide default prefix that
	// selects the offline adapter (see config.DeployKeys). Empty means use
	// the default.
	ModeTokenPrefix string `json:"mode_token_prefix,omitempty"`

	// TrashRetentionDays overrides the default 30-day soft-delete window.
	// 0 means use the default.
	TrashRetentionDays int `json:"trash_retention_days,omitempty"`
}

// DefaultTrashRetentionDays matches the spec's soft-delete TTL.
const DefaultTrashRetentionDays = 30

func DefaultConfig() *Config {
	return &Config{
		OfflineDatabase: "offline.db",
	}
}

func ConfigPath(dir string) string {
	return filepath.Join(dir, ConfigFileName)
}

// Load reads metadata.json from dir. A missing file returns (nil, nil): the
// caller is expected to fall back to DefaultConfig.
func Load(dir string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(dir)) // #nosec G304 - dir is caller-controlled
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Save(dir string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(ConfigPath(dir), data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) DatabasePath(dir string) string {
	if c.OfflineDatabase == "" {
		return filepath.Join(dir, "offline.db")
	}
	return filepath.Join(dir, c.OfflineDatabase)
}

// GetTrashRetentionDays returns the configured retention window, or
// DefaultTrashRetentionDays if unset.
func (c *Config) GetTrashRetentionDays() int {
	if c.TrashRetentionDays <= 0 {
		return DefaultTrashRetentionDays
	}
	return c.TrashRetentionDays
}
