package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Bootstrap creates every table a Binder's mode needs, using
// CREATE TABLE IF NOT EXISTS so it is safe to call on every process start.
// The two backends differ only in autoincrement syntax and a handful of
// offline-only provenance columns; everything else is identical DDL.
func Bootstrap(ctx context.Context, db *sql.DB, b *Binder) error {
	for _, stmt := range statements(b) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema: bootstrap %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(stmt string) string {
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		return strings.TrimSpace(stmt[:i])
	}
	return stmt
}

func statements(b *Binder) []string {
	pk := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if b.mode == Online {
		pk = "id BIGINT PRIMARY KEY AUTO_INCREMENT"
	}

	t := b.Table

	fileOffline := ""
	rowOffline := ""
	if b.mode == Offline {
		fileOffline = `,
			sync_status TEXT NOT NULL DEFAULT 'local',
			server_id BIGINT,
			server_project_id BIGINT,
			server_folder_id BIGINT,
			downloaded_at TIMESTAMP`
		rowOffline = `,
			sync_status TEXT NOT NULL DEFAULT 'local',
			server_id BIGINT,
			server_file_id BIGINT`
	}

	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			%s,
			name TEXT NOT NULL,
			description TEXT,
			owner_id TEXT NOT NULL,
			is_restricted INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, t(TablePlatforms), pk),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			%s,
			name TEXT NOT NULL,
			description TEXT,
			owner_id TEXT NOT NULL,
			platform_id BIGINT,
			is_restricted INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, t(TableProjects), pk),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			%s,
			project_id BIGINT NOT NULL,
			parent_id BIGINT,
			name TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, t(TableFolders), pk),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			%s,
			project_id BIGINT NOT NULL,
			folder_id BIGINT,
			name TEXT NOT NULL,
			original_filename TEXT,
			format TEXT NOT NULL,
			row_count INTEGER NOT NULL DEFAULT 0,
			source_language TEXT NOT NULL,
			target_language TEXT,
			extra_data TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP%s
		)`, t(TableFiles), pk, fileOffline),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			%s,
			file_id BIGINT NOT NULL,
			row_num INTEGER NOT NULL,
			string_id TEXT,
			source TEXT NOT NULL,
			target TEXT,
			memo TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			qa_flag_count INTEGER NOT NULL DEFAULT 0,
			extra_data TEXT,
			updated_at TIMESTAMP NOT NULL,
			updated_by TEXT%s
		)`, t(TableRows), pk, rowOffline),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			entity_kind TEXT NOT NULL,
			entity_id BIGINT NOT NULL,
			field TEXT NOT NULL,
			old_value TEXT,
			new_value TEXT,
			changed_at TIMESTAMP NOT NULL,
			sync_status TEXT
		)`, t(TableLocalChanges)),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGINT NOT NULL,
			channel TEXT NOT NULL,
			cursor TEXT,
			updated_at TIMESTAMP
		)`, t(TableSyncSubs)),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			%s,
			name TEXT NOT NULL,
			description TEXT,
			owner_id TEXT,
			source_lang TEXT NOT NULL,
			target_lang TEXT NOT NULL,
			entry_count INTEGER NOT NULL DEFAULT 0,
			mode TEXT NOT NULL,
			status TEXT NOT NULL,
			indexed_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, t(TableTMs), pk),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			%s,
			tm_id BIGINT NOT NULL,
			source_text TEXT NOT NULL,
			target_text TEXT,
			source_hash TEXT NOT NULL,
			string_id TEXT,
			is_confirmed INTEGER NOT NULL DEFAULT 0,
			created_by TEXT,
			updated_at TEXT NOT NULL,
			updated_by TEXT,
			confirmed_by TEXT,
			confirmed_at TIMESTAMP
		)`, t(TableTMEntries), pk),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			tm_id BIGINT NOT NULL,
			scope_kind TEXT NOT NULL,
			platform_id BIGINT,
			project_id BIGINT,
			folder_id BIGINT,
			is_active INTEGER NOT NULL DEFAULT 1,
			activated_at TIMESTAMP
		)`, t(TableTMAssignments)),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			tm_id BIGINT NOT NULL,
			project_id BIGINT NOT NULL,
			priority INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (tm_id, project_id)
		)`, t(TableTMProjectLinks)),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			%s,
			row_id BIGINT NOT NULL,
			file_id BIGINT NOT NULL,
			check_type TEXT NOT NULL,
			severity TEXT NOT NULL,
			message TEXT NOT NULL,
			details TEXT,
			created_at TIMESTAMP NOT NULL,
			resolved_at TIMESTAMP,
			resolved_by TEXT
		)`, t(TableQAResults), pk),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			%s,
			item_type TEXT NOT NULL,
			item_id BIGINT NOT NULL,
			item_name TEXT NOT NULL,
			item_data TEXT NOT NULL,
			parent_project_id BIGINT,
			parent_folder_id BIGINT,
			deleted_by TEXT NOT NULL,
			deleted_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP,
			status TEXT NOT NULL DEFAULT 'trashed'
		)`, t(TableTrash), pk),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			%s,
			user_id TEXT NOT NULL,
			capability_name TEXT NOT NULL,
			granted_by TEXT NOT NULL,
			granted_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP
		)`, t(TableCapabilities), pk),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`, t(TableConfig)),
	}
}
