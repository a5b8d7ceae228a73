package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// YamlOnlyKeys are settings that live only in .ldm/config.yaml, never in a
// backend config table: they gate how a process starts up, before any
// storage connection exists to read them from.
var YamlOnlyKeys = map[string]bool{
	"mode.token-prefix": true,
	"offline.path":      true,
}

// IsYamlOnlyKey reports whether key must be stored in config.yaml rather
// than a backend-side settings table.
func IsYamlOnlyKey(key string) bool {
	if YamlOnlyKeys[key] {
		return true
	}
	for _, prefix := range []string{"deploy.", "merge.", "retention."} {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// findProjectConfigDir walks up from the working directory looking for a
// .ldm directory, the way a project-scoped config file is discovered.
func findProjectConfigDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for dir := cwd; ; {
		candidate := filepath.Join(dir, ".ldm")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no .ldm directory found above %q", cwd)
		}
		dir = parent
	}
}

func findProjectConfigYaml() (string, error) {
	dir, err := findProjectConfigDir()
	if err != nil {
		return "", fmt.Errorf("no .ldm/config.yaml found (run init first)")
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// SetYamlConfig sets key in the project's config.yaml, updating an existing
// (possibly commented-out) line in place or appending a new one.
func SetYamlConfig(key, value string) error {
	configPath, err := findProjectConfigYaml()
	if err != nil {
		return err
	}

	content, err := os.ReadFile(configPath) //nolint:gosec // path comes from findProjectConfigYaml
	if err != nil {
		if os.IsNotExist(err) {
			content = nil
		} else {
			return fmt.Errorf("read config.yaml: %w", err)
		}
	}

	newContent, err := updateYamlKey(string(content), key, value)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, []byte(newContent), 0o600)
}

// GetYamlConfig reads key from the resolved viper config (which already
// layers config.yaml beneath env/flag overrides).
func GetYamlConfig(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

func updateYamlKey(content, key, value string) (string, error) {
	formattedValue := formatYamlValue(value)
	newLine := fmt.Sprintf("%s: %s", key, formattedValue)

	keyPattern := regexp.MustCompile(`^(\s*)(#\s*)?` + regexp.QuoteMeta(key) + `\s*:`)

	found := false
	var result []string
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if keyPattern.MatchString(line) {
			indent := ""
			if m := keyPattern.FindStringSubmatch(line); len(m) > 1 {
				indent = m[1]
			}
			result = append(result, indent+newLine)
			found = true
		} else {
			result = append(result, line)
		}
	}

	if !found {
		if len(result) > 0 && result[len(result)-1] != "" {
			result = append(result, "")
		}
		result = append(result, newLine)
	}

	return strings.Join(result, "\n"), nil
}

func formatYamlValue(value string) string {
	lower := strings.ToLower(value)
	if lower == "true" || lower == "false" {
		return lower
	}
	if isNumeric(value) {
		return value
	}
	if needsQuoting(value) {
		return fmt.Sprintf("%q", value)
	}
	return value
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		if c == '-' && i == 0 {
			continue
		}
		if c == '.' {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func needsQuoting(s string) bool {
	special := []string{":", "#", "[", "]", "{", "}", ",", "&", "*", "!", "|", ">", "'", "\"", "%", "@", "`"}
	for _, c := range special {
		if strings.Contains(s, c) {
			return true
		}
	}
	return strings.TrimSpace(s) != s
}
