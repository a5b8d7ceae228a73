package config

import (
	"fmt"
	"strconv"
	"strings"
)

// DeployKey describes a deploy.* setting: the handful of values an operator
// sets once per environment (connection strings, log level) rather than
// per-project. These are looked up through the same viper-backed Get*
// functions as everything else; this table exists so a `config validate`
// style command can check a value before writing it, without duplicating
// the list of known keys.
type DeployKey struct {
	Key         string
	Description string
	EnvVar      string
	Secret      bool // true: must come from a secret store, never config.yaml
	Default     string
	Validate    func(string) error
}

var DeployKeys = []DeployKey{
	{
		Key:         "deploy.online_dsn",
		Description: "online backend connection string (MySQL-wire DSN)",
		EnvVar:      "LDM_ONLINE_DSN",
		Secret:      true,
	},
	{
		Key:         "deploy.online_max_open_conns",
		Description: "max open connections to the online backend",
		EnvVar:      "LDM_DEPLOY_ONLINE_MAX_OPEN_CONNS",
		Default:     "10",
		Validate:    validatePositiveInt,
	},
	{
		Key:         "deploy.online_max_idle_conns",
		Description: "max idle connections to the online backend",
		EnvVar:      "LDM_DEPLOY_ONLINE_MAX_IDLE_CONNS",
		Default:     "5",
		Validate:    validatePositiveInt,
	},
	{
		Key:         "offline.path",
		Description: "path to the embedded offline database file",
		EnvVar:      "LDM_OFFLINE_PATH",
		Default:     ".ldm/offline.db",
	},
	{
		Key:         "mode.token-prefix",
		Description: "auth token prefix that selects the offline adapter",
		EnvVar:      "LDM_MODE_TOKEN_PREFIX",
		Default:     "offline:",
	},
	{
		Key:         "retention.trash-days",
		Description: "days a soft-deleted item survives before cleanup_expired removes it",
		EnvVar:      "LDM_RETENTION_TRASH_DAYS",
		Default:     "30",
		Validate:    validatePositiveInt,
	},
	{
		Key:         "deploy.log_level",
		Description: "log level (debug, info, warn, error)",
		EnvVar:      "LDM_DEPLOY_LOG_LEVEL",
		Default:     "info",
		Validate:    validateLogLevel,
	},
	{
		Key:         "deploy.log_json",
		Description: "emit structured JSON logs instead of console-formatted",
		EnvVar:      "LDM_DEPLOY_LOG_JSON",
		Default:     "false",
		Validate:    validateBool,
	},
}

var deployKeyMap map[string]*DeployKey

func init() {
	deployKeyMap = make(map[string]*DeployKey, len(DeployKeys))
	for i := range DeployKeys {
		deployKeyMap[DeployKeys[i].Key] = &DeployKeys[i]
	}
}

func IsDeployKey(key string) bool {
	return strings.HasPrefix(key, "deploy.") || deployKeyMap[key] != nil
}

func LookupDeployKey(key string) *DeployKey {
	return deployKeyMap[key]
}

// ValidateDeployKey checks a key is known, not a secret (those must come
// from the environment or a secret store, never config.yaml), and passes
// its validator if one is defined.
func ValidateDeployKey(key, value string) error {
	dk := deployKeyMap[key]
	if dk == nil {
		known := make([]string, 0, len(DeployKeys))
		for _, k := range DeployKeys {
			known = append(known, k.Key)
		}
		return fmt.Errorf("unknown deploy key %q; valid keys: %s", key, strings.Join(known, ", "))
	}
	if dk.Secret {
		return fmt.Errorf("key %q is a secret and must not be stored in config.yaml", key)
	}
	if dk.Validate != nil {
		if err := dk.Validate(value); err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
	}
	return nil
}

func DeployKeyEnvMap() map[string]string {
	m := make(map[string]string, len(DeployKeys))
	for _, dk := range DeployKeys {
		if dk.EnvVar != "" {
			m[dk.Key] = dk.EnvVar
		}
	}
	return m
}

func validatePositiveInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("must be a number, got %q", value)
	}
	if n <= 0 {
		return fmt.Errorf("must be positive, got %d", n)
	}
	return nil
}

func validateLogLevel(value string) error {
	switch strings.ToLower(value) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("must be one of: debug, info, warn, error; got %q", value)
	}
}

func validateBool(value string) error {
	switch strings.ToLower(value) {
	case "true", "false", "1", "0", "yes", "no":
		return nil
	default:
		return fmt.Errorf("must be true or false, got %q", value)
	}
}
