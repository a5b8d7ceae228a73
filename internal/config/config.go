// Package config resolves runtime settings for an LDM deployment: which
// backend to dial, the mode-token prefix that picks offline vs online at
// request time, merge/retention knobs, and logging verbosity. Settings layer
// in the usual viper precedence: flag > env var (LDM_* or BD_* for
// backward-compatible scripts) > project config.yaml > default.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var v *viper.Viper

// ConfigSource identifies where a resolved setting value came from, so
// operators can debug "why is this set to X" without grepping env dumps.
type ConfigSource string

const (
	SourceDefault    ConfigSource = "default"
	SourceConfigFile ConfigSource = "config_file"
	SourceEnvVar     ConfigSource = "env_var"
	SourceFlag       ConfigSource = "flag"
)

// Initialize (re)creates the package-level viper instance, binds LDM_
// prefixed environment variables (and BD_ ones for every key that has a
// default), and looks for a config.yaml in
// .ldm/ walking up from the working directory. Safe to call repeatedly;
// each call discards prior in-memory Set() calls.
func Initialize() error {
	nv := viper.New()
	nv.SetConfigName("config")
	nv.SetConfigType("yaml")
	nv.AddConfigPath(".ldm")

	if dir, err := findProjectConfigDir(); err == nil {
		nv.AddConfigPath(dir)
	}

	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	nv.SetEnvPrefix("LDM")
	nv.AutomaticEnv()

	setDefaults(nv)

	// The LDM_ form of each defaulted key is looked up first, then BD_.
	for _, key := range nv.AllKeys() {
		envName := strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
		_ = nv.BindEnv(key, "BD_"+envName)
	}

	if err := nv.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	v = nv
	return nil
}

// ResetForTesting drops the viper instance entirely, so the next getter
// call observes zero values until Initialize is called again.
func ResetForTesting() {
	v = nil
}

func setDefaults(nv *viper.Viper) {
	nv.SetDefault("mode.token-prefix", "offline:")
	nv.SetDefault("retention.trash-days", 30)
	nv.SetDefault("merge.conflict-strategy", string(ConflictStrategyNewest))
	nv.SetDefault("offline.path", ".ldm/offline.db")
	nv.SetDefault("deploy.log_level", "info")
	nv.SetDefault("deploy.log_json", false)
	nv.SetDefault("deploy.online_max_open_conns", 10)
	nv.SetDefault("deploy.online_max_idle_conns", 5)
}

func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

func GetInt(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

func GetDuration(key string) time.Duration {
	if v == nil {
		return 0
	}
	return v.GetDuration(key)
}

func GetStringSlice(key string) []string {
	if v == nil {
		return []string{}
	}
	out := v.GetStringSlice(key)
	if out == nil {
		return []string{}
	}
	return out
}

func AllSettings() map[string]interface{} {
	if v == nil {
		return map[string]interface{}{}
	}
	return v.AllSettings()
}

// Set records an in-memory override, taking precedence over environment
// variables, config file and defaults (viper's own rule: explicit Set beats
// everything viper manages except a later Set).
func Set(key string, value interface{}) {
	if v == nil {
		return
	}
	v.Set(key, value)
}

// GetValueSource reports which layer produced the currently-resolved value
// for key, for diagnostics ("bd config show --sources"-style tooling).
func GetValueSource(key string) ConfigSource {
	if v == nil {
		return SourceDefault
	}
	envName := strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
	if _, ok := os.LookupEnv("LDM_" + envName); ok {
		return SourceEnvVar
	}
	if _, ok := os.LookupEnv("BD_" + envName); ok {
		return SourceEnvVar
	}
	if v.InConfig(key) {
		return SourceConfigFile
	}
	return SourceDefault
}

// Override describes a setting where a higher-precedence source shadowed a
// lower one the caller explicitly set (e.g. a CLI flag shadowing an env var),
// surfaced so CLI tooling can warn "--db ignored, BD_DB takes no effect here".
type Override struct {
	Key          string
	OverriddenBy ConfigSource
}

// CheckOverrides takes a map of flag values (with whether the flag was
// explicitly passed) and returns one Override, attributed to SourceFlag, for
// every key whose flag was explicitly set. The environment is not consulted.
func CheckOverrides(flags map[string]struct {
	Value  interface{}
	WasSet bool
}) []Override {
	var out []Override
	for key, f := range flags {
		if !f.WasSet {
			continue
		}
		out = append(out, Override{Key: key, OverriddenBy: SourceFlag})
	}
	return out
}
