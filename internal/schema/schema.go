// Package schema binds the small set of logical table names every
// repository reads and writes to the physical, mode-prefixed names each
// backend actually uses. No repository should ever embed a literal table
// name in a query; it asks a Binder instead.
package schema

// Mode selects which physical table-name family and offline-only columns
// a Binder exposes.
type Mode int

const (
	// Online binds to the ldm_* table family used by the relational backend.
	Online Mode = iota
	// Offline binds to the offline_* table family used by the embedded
	// backend, which additionally carries provenance/sync-tracking columns.
	Offline
)

func (m Mode) String() string {
	if m == Offline {
		return "offline"
	}
	return "online"
}

// Logical table names. Every repository/query builder refers to entities
// by these constants rather than writing "rows" or "ldm_rows" directly.
const (
	TablePlatforms     = "platforms"
	TableProjects      = "projects"
	TableFolders       = "folders"
	TableFiles         = "files"
	TableRows          = "rows"
	TableTMs           = "tms"
	TableTMEntries     = "tm_entries"
	TableTMAssignments = "tm_assignments"
	TableTMProjectLinks = "tm_project_links"
	TableQAResults     = "qa_results"
	TableTrash         = "trash"
	TableCapabilities  = "capability_grants"
	TableLocalChanges  = "local_changes"
	TableSyncSubs      = "sync_subscriptions"
	TableConfig        = "config"
)

// offlineOnlyColumns maps a logical table to the set of columns that exist
// only in the offline schema (provenance / sync tracking).
var offlineOnlyColumns = map[string]map[string]bool{
	TableFiles: {
		"sync_status":       true,
		"server_id":         true,
		"server_project_id": true,
		"server_folder_id":  true,
		"downloaded_at":     true,
	},
	TableRows: {
		"sync_status":    true,
		"server_id":      true,
		"server_file_id": true,
	},
}

// Binder resolves logical table names to physical names and answers
// column-existence questions for a fixed mode. It holds no state besides
// that mode and is safe to share across goroutines.
type Binder struct {
	mode   Mode
	prefix string
}

// NewBinder constructs a Binder for the given mode.
func NewBinder(mode Mode) *Binder {
	prefix := "ldm_"
	if mode == Offline {
		prefix = "offline_"
	}
	return &Binder{mode: mode, prefix: prefix}
}

// Mode returns the mode this binder was constructed with.
func (b *Binder) Mode() Mode { return b.mode }

// Table returns the physical table name for a logical name.
func (b *Binder) Table(logical string) string {
	return b.prefix + logical
}

// HasColumn reports whether the given logical table carries the given
// column in this binder's mode. Online-only columns report false in
// Offline mode is never a thing today (offline only ever adds columns),
// but the predicate is symmetric so query builders can call it
// unconditionally without special-casing direction.
func (b *Binder) HasColumn(logicalTable, column string) bool {
	cols, onlyOffline := offlineOnlyColumns[logicalTable]
	if !onlyOffline {
		return true // no offline-only columns declared for this table: always present
	}
	if !cols[column] {
		return true // not one of the offline-only columns: present in both modes
	}
	return b.mode == Offline
}
