package config

import (
	"fmt"
	"os"
	"strings"
)

// ConflictStrategy controls how the sync merger resolves a field that
// changed on both the local offline copy and the server since the last
// sync. The default, "newest", implements the spec's last-write-wins rule:
// compare updated_at as ISO-8601 UTC strings and let the local value win on
// an exact tie (never silently discard a user's own edit).
type ConflictStrategy string

const (
	ConflictStrategyNewest ConflictStrategy = "newest"
	ConflictStrategyOurs   ConflictStrategy = "ours"
	ConflictStrategyTheirs ConflictStrategy = "theirs"
	ConflictStrategyManual ConflictStrategy = "manual"
)

var validConflictStrategies = map[ConflictStrategy]bool{
	ConflictStrategyNewest: true,
	ConflictStrategyOurs:   true,
	ConflictStrategyTheirs: true,
	ConflictStrategyManual: true,
}

// GetConflictStrategy reads merge.conflict-strategy, falling back to
// ConflictStrategyNewest on an unset or unrecognized value.
func GetConflictStrategy() ConflictStrategy {
	value := GetString("merge.conflict-strategy")
	if value == "" {
		return ConflictStrategyNewest
	}
	strategy := ConflictStrategy(strings.ToLower(strings.TrimSpace(value)))
	if !validConflictStrategies[strategy] {
		fmt.Fprintf(os.Stderr, "Warning: invalid merge.conflict-strategy %q (valid: newest, ours, theirs, manual), using default 'newest'\n", value)
		return ConflictStrategyNewest
	}
	return strategy
}

// GetTrashRetentionDays reads retention.trash-days, falling back to the
// spec's 30-day default.
func GetTrashRetentionDays() int {
	if v == nil {
		return 30
	}
	days := GetInt("retention.trash-days")
	if days <= 0 {
		return 30
	}
	return days
}
