package config

import "testing"

func TestIsYamlOnlyKey(t *testing.T) {
	cases := map[string]bool{
		"mode.token-prefix":      true,
		"offline.path":           true,
		"deploy.log_level":       true,
		"merge.conflict-strategy": true,
		"retention.trash-days":   true,
		"unrelated":              false,
	}
	for key, want := range cases {
		if got := IsYamlOnlyKey(key); got != want {
			t.Errorf("IsYamlOnlyKey(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestUpdateYamlKeyAppendsWhenMissing(t *testing.T) {
	out, err := updateYamlKey("retention:\n  trash-days: 30\n", "mode.token-prefix", "offline:")
	if err != nil {
		t.Fatalf("updateYamlKey error: %v", err)
	}
	if !contains(out, `mode.token-prefix: "offline:"`) {
		t.Errorf("expected appended key, got:\n%s", out)
	}
}

func TestUpdateYamlKeyReplacesInPlace(t *testing.T) {
	out, err := updateYamlKey("mode.token-prefix: old:\nother: 1\n", "mode.token-prefix", "new:")
	if err != nil {
		t.Fatalf("updateYamlKey error: %v", err)
	}
	if !contains(out, `mode.token-prefix: "new:"`) || contains(out, "old:") {
		t.Errorf("expected in-place replacement, got:\n%s", out)
	}
}

func TestUpdateYamlKeyUncommentsExisting(t *testing.T) {
	out, err := updateYamlKey("# mode.token-prefix: old:\n", "mode.token-prefix", "new:")
	if err != nil {
		t.Fatalf("updateYamlKey error: %v", err)
	}
	if !contains(out, `mode.token-prefix: "new:"`) {
		t.Errorf("expected uncommented replacement, got:\n%s", out)
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && (func() bool {
		for i := 0; i+len(needle) <= len(haystack); i++ {
			if haystack[i:i+len(needle)] == needle {
				return true
			}
		}
		return false
	})()
}
