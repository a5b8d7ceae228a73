// Package online implements the relational (server) storage backend: a
// MySQL-wire-protocol connection (Dolt in server mode, or any MySQL-
// compatible database) bound to the ldm_* table family, with trigram-style
// similarity search layered on top of the shared engine.
package online

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/ldm-sh/ldm/internal/schema"
	"github.com/ldm-sh/ldm/internal/storage"
	"github.com/ldm-sh/ldm/internal/storage/sqlengine"
)

// Options configures the connection to the relational backend.
type Options struct {
	// DSN is a go-sql-driver/mysql data source name, e.g.
	// "root:@tcp(127.0.0.1:3307)/ldm?parseTime=true".
	DSN string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to the relational backend and returns a Storage bound to
// the Online schema mode, with RowRepository.SuggestSimilar and
// TMRepository.SearchSimilar wired to trigram-style matching.
func Open(ctx context.Context, opts Options) (storage.Storage, error) {
	if opts.DSN == "" {
		return nil, fmt.Errorf("online: DSN is required")
	}

	db, err := sql.Open("mysql", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("online: open: %w", err)
	}

	maxOpen := opts.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 20
	}
	maxIdle := opts.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	lifetime := opts.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = 30 * time.Minute
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("online: ping: %w", err)
	}

	return newStorage(db, schema.NewBinder(schema.Online)), nil
}

// newStorage wires an already-open *sql.DB into the shared engine plus the
// online-only similarity decorators. Split out from Open so tests can
// construct a Storage against a pre-opened DB (e.g. a test container)
// without going through DSN parsing.
func newStorage(db *sql.DB, binder *schema.Binder) storage.Storage {
	engine := sqlengine.New(sqlengine.Options{
		DB:      db,
		Binder:  binder,
		Dialect: sqlengine.MySQL,
	})
	return &backend{Engine: engine}
}

// backend decorates *sqlengine.Engine, overriding only the repositories
// that gain real behavior online (similarity search). Every other method
// is inherited unchanged from the shared engine.
type backend struct {
	*sqlengine.Engine
}

func (b *backend) Rows() storage.RowRepository {
	return similarRows{inner: b.Engine.Rows(), tms: b.Engine.TMs()}
}

func (b *backend) TMs() storage.TMRepository {
	return similarTMs{inner: b.Engine.TMs()}
}

// WithTx must rebuild the decorators around the transactional Storage the
// embedded engine hands back, or a composed operation running inside a
// transaction would silently fall back to the non-transactional session
// for similarity lookups.
func (b *backend) WithTx(ctx context.Context, fn func(ctx context.Context, s storage.Storage) error) error {
	return b.Engine.WithTx(ctx, func(ctx context.Context, s storage.Storage) error {
		return fn(ctx, &backend{Engine: s.(*sqlengine.Engine)})
	})
}
