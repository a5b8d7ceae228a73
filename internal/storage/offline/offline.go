// Package offline implements the embedded (single-writer) storage backend:
// a local SQLite database bound to the offline_* table family, guarded by
// a process-wide flock so two daemon processes never open the same
// database file for writing at once.
package offline

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/ldm-sh/ldm/internal/lockfile"
	"github.com/ldm-sh/ldm/internal/schema"
	"github.com/ldm-sh/ldm/internal/storage"
	"github.com/ldm-sh/ldm/internal/storage/sqlengine"
	"github.com/ldm-sh/ldm/internal/types"
)

// OfflineStoragePlatformID and OfflineStorageProjectID are the well-known
// IDs of the sentinel platform/project every offline database seeds on
// first init, so rows created before any real project exists still have
// somewhere to live.
const (
	OfflineStoragePlatformID = -1
	OfflineStorageProjectID  = -1
)

// Options configures the embedded backend.
type Options struct {
	// Path is the SQLite database file. Its directory is created if
	// missing.
	Path string
	// ReadOnly opens the database without acquiring the writer lock, for
	// tooling that only inspects state (never used by the daemon itself).
	ReadOnly bool
}

var (
	singletonMu   sync.Mutex
	singletonDB   *sql.DB
	singletonPath string
)

// Open opens (or reuses, for a second Storage handle in the same process)
// the single process-wide connection to the embedded database, seeds the
// well-known Offline-Storage platform/project, and returns a Storage bound
// to the Offline schema mode with CapabilityRepository overridden to the
// online-only stub.
//
// Single-writer discipline is twofold: within a process, every Open call
// for the same path shares one *sql.DB (SQLite itself serializes writers
// on one connection); across processes, a lock file next to the database
// is flocked for the lifetime of the handle so a second daemon process
// started against the same path fails fast instead of corrupting state.
func Open(ctx context.Context, opts Options) (storage.Storage, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("offline: Path is required")
	}

	dir := filepath.Dir(opts.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("offline: create database dir: %w", err)
	}

	db, err := openSingleton(dir, opts)
	if err != nil {
		return nil, err
	}

	binder := schema.NewBinder(schema.Offline)

	if !opts.ReadOnly {
		if err := schema.Bootstrap(ctx, db, binder); err != nil {
			return nil, err
		}
		if err := seedOfflineStorage(ctx, db, binder); err != nil {
			return nil, err
		}
	}

	engine := sqlengine.New(sqlengine.Options{
		DB:      db,
		Binder:  binder,
		Dialect: sqlengine.SQLite,
	})
	return &backend{Engine: engine}, nil
}

// openSingleton returns the process-wide *sql.DB for dir, opening it (and
// acquiring the writer lock) on first call and reusing it on every later
// call for the same directory. A different dir than any prior call is
// rejected: this process already committed to being the single writer for
// its original database.
func openSingleton(dir string, opts Options) (*sql.DB, error) {
	singletonMu.Lock()
	defer singletonMu.Unlock()

	if singletonDB != nil {
		if singletonPath != dir {
			return nil, fmt.Errorf("offline: process already holds the embedded database at %q, cannot also open %q", singletonPath, dir)
		}
		return singletonDB, nil
	}

	if !opts.ReadOnly {
		running, pid := lockfile.TryDaemonLock(dir)
		if running {
			return nil, fmt.Errorf("offline: another process (pid %d) already holds the write lock at %q", pid, dir)
		}
		lockPath := filepath.Join(dir, "daemon.lock")
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
		if err != nil {
			return nil, fmt.Errorf("offline: open lock file: %w", err)
		}
		if err := lockfile.FlockExclusiveNonBlocking(f); err != nil {
			f.Close()
			return nil, fmt.Errorf("offline: acquire write lock: %w", err)
		}
		// f is deliberately leaked for the process lifetime: releasing it
		// would release the flock. The OS reclaims it on process exit.
	}

	dsn := storage.SQLiteConnString(opts.Path, opts.ReadOnly)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("offline: open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("offline: ping database: %w", err)
	}

	singletonDB = db
	singletonPath = dir
	return db, nil
}

func seedOfflineStorage(ctx context.Context, db *sql.DB, b *schema.Binder) error {
	platforms := b.Table(schema.TablePlatforms)
	projects := b.Table(schema.TableProjects)

	if _, err := db.ExecContext(ctx, fmt.Sprintf(
		`INSERT OR IGNORE INTO %s (id, name, description, owner_id, is_restricted, created_at) VALUES (?, ?, '', 'system', 0, CURRENT_TIMESTAMP)`,
		platforms), OfflineStoragePlatformID, "Offline Storage"); err != nil {
		return fmt.Errorf("offline: seed platform: %w", err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf(
		`INSERT OR IGNORE INTO %s (id, name, description, owner_id, platform_id, is_restricted, created_at) VALUES (?, ?, '', 'system', ?, 0, CURRENT_TIMESTAMP)`,
		projects), OfflineStorageProjectID, "Offline Storage", OfflineStoragePlatformID); err != nil {
		return fmt.Errorf("offline: seed project: %w", err)
	}
	return nil
}

// backend decorates *sqlengine.Engine, overriding Capabilities() with the
// online-only stub. Every other method is inherited unchanged.
type backend struct {
	*sqlengine.Engine
}

func (b *backend) Capabilities() storage.CapabilityRepository {
	return offlineCapabilities{}
}

func (b *backend) WithTx(ctx context.Context, fn func(ctx context.Context, s storage.Storage) error) error {
	return b.Engine.WithTx(ctx, func(ctx context.Context, s storage.Storage) error {
		return fn(ctx, &backend{Engine: s.(*sqlengine.Engine)})
	})
}

// Close releases the process-wide singleton so a later Open of a different
// database directory can proceed. The writer lock file stays flocked until
// the process exits, so reopening the same directory within this process
// fails to acquire the writer lock. Callers only close the top-level Storage
// WithTx returns to them, never a transactional child, so this never fires
// mid-transaction.
func (b *backend) Close() error {
	err := b.Engine.Close()
	singletonMu.Lock()
	singletonDB = nil
	singletonPath = ""
	singletonMu.Unlock()
	return err
}

// offlineCapabilities implements CapabilityRepository for a database that
// has no server to enforce capabilities against: reads report nothing
// granted, and every grant attempt fails with CapabilityRequiresOnline
// rather than silently recording a grant nothing will ever check.
type offlineCapabilities struct{}

func (offlineCapabilities) Grant(ctx context.Context, userID string, capability types.CapabilityName, grantedBy string, expiresAt *int64) (*types.CapabilityGrant, error) {
	return nil, types.NewError(types.CapabilityRequiresOnline, "capability grants require the online backend", "capability", string(capability))
}

func (offlineCapabilities) Revoke(ctx context.Context, id int64) (bool, error) {
	return false, types.NewError(types.CapabilityRequiresOnline, "capability grants require the online backend")
}

func (offlineCapabilities) GetForUser(ctx context.Context, userID string) ([]types.CapabilityGrant, error) {
	return nil, nil
}

func (offlineCapabilities) Has(ctx context.Context, userID string, capability types.CapabilityName) (bool, error) {
	return false, nil
}
