// Package sqlengine is the shared relational core both backend adapters
// (internal/storage/online, internal/storage/offline) bind to. Both
// backends are plain SQL databases reachable through database/sql with
// "?" placeholders, so the query text is identical between them; the only
// per-backend variation is captured in the small Dialect interface below.
// A repository method never inspects which Dialect it has — the factory
// picks the adapter (and therefore the Dialect) once per request.
package sqlengine

// Dialect captures the handful of SQL-syntax differences between the
// online (MySQL-wire-protocol) and offline (SQLite) backends.
type Dialect interface {
	// Name identifies the dialect for logging/tracing.
	Name() string

	// UpsertKeyConflict returns the clause appended to an INSERT to make it
	// an upsert keyed on a unique column, e.g. "ON CONFLICT(tm_id, project_id)
	// DO UPDATE SET priority = excluded.priority" (SQLite) vs
	// "ON DUPLICATE KEY UPDATE priority = VALUES(priority)" (MySQL).
	UpsertKeyConflict(conflictColumns []string, updateColumns []string) string

	// SupportsReturning reports whether INSERT ... RETURNING id is usable.
	// Offline/SQLite (modern ncruces builds) support it; the online MySQL
	// wire protocol does not, so that adapter falls back to LastInsertId().
	SupportsReturning() bool
}

type sqliteDialect struct{}

// SQLite is the Dialect used by the offline backend.
var SQLite Dialect = sqliteDialect{}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) UpsertKeyConflict(conflictColumns []string, updateColumns []string) string {
	clause := "ON CONFLICT(" + joinCols(conflictColumns) + ") DO UPDATE SET "
	for i, c := range updateColumns {
		if i > 0 {
			clause += ", "
		}
		clause += c + " = excluded." + c
	}
	return clause
}

func (sqliteDialect) SupportsReturning() bool { return true }

type mysqlDialect struct{}

// MySQL is the Dialect used by the online backend (Dolt server mode speaks
// the MySQL wire protocol).
var MySQL Dialect = mysqlDialect{}

func (mysqlDialect) Name() string { return "mysql" }

func (mysqlDialect) UpsertKeyConflict(_ []string, updateColumns []string) string {
	clause := "ON DUPLICATE KEY UPDATE "
	for i, c := range updateColumns {
		if i > 0 {
			clause += ", "
		}
		clause += c + " = VALUES(" + c + ")"
	}
	return clause
}

func (mysqlDialect) SupportsReturning() bool { return false }

func joinCols(cols []string) string {
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}
