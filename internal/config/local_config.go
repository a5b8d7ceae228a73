package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocalConfig is the subset of .ldm/config.yaml read directly from disk
// rather than through the viper singleton, for tooling that must inspect
// settings before (or from outside) a fully initialized process.
//
// Proper YAML parsing (rather than regex scraping) handles comments,
// indentation, and quoting edge cases uniformly with SetYamlConfig's writer.
type LocalConfig struct {
	ModeTokenPrefix string `yaml:"mode-token-prefix"`
	OfflinePath     string `yaml:"offline-path"`
	Actor           string `yaml:"actor"`
}

// LoadLocalConfig reads config.yaml directly from dir. Returns an empty
// (not nil) LocalConfig if the file is missing or unparseable.
func LoadLocalConfig(dir string) *LocalConfig {
	data, err := os.ReadFile(filepath.Join(dir, "config.yaml")) // #nosec G304 - dir is caller-controlled
	if err != nil {
		return &LocalConfig{}
	}
	var cfg LocalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return &LocalConfig{}
	}
	return &cfg
}

// LoadLocalConfigWithEnv applies LDM_MODE_TOKEN_PREFIX as an override on
// top of the file, for scripts that need to pin the prefix without editing
// the checked-in config.
func LoadLocalConfigWithEnv(dir string) *LocalConfig {
	cfg := LoadLocalConfig(dir)
	if prefix := os.Getenv("LDM_MODE_TOKEN_PREFIX"); prefix != "" {
		cfg.ModeTokenPrefix = prefix
	}
	return cfg
}
