package sqlengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ldm-sh/ldm/internal/events"
	"github.com/ldm-sh/ldm/internal/idgen"
	"github.com/ldm-sh/ldm/internal/schema"
	"github.com/ldm-sh/ldm/internal/storage"
	"github.com/ldm-sh/ldm/internal/types"
)

var tracer = otel.Tracer("github.com/ldm-sh/ldm/internal/storage/sqlengine")

// execer is the subset of *sql.DB and *sql.Tx every repository method needs.
// Binding to this interface instead of a concrete type lets WithTx swap a
// transaction in without repository code knowing the difference.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Engine is the shared relational Storage implementation. Both backend
// adapters construct one bound to their own *sql.DB, schema.Binder and
// Dialect; from here on the same code runs regardless of backend.
type Engine struct {
	db      *sql.DB
	exec    execer // db itself, or the active *sql.Tx inside WithTx
	tx      *sql.Tx
	binder  *schema.Binder
	dialect Dialect
	ids     *idgen.Allocator
	bus     *events.Bus
}

// Options configures a new Engine.
type Options struct {
	DB      *sql.DB
	Binder  *schema.Binder
	Dialect Dialect
	IDs     *idgen.Allocator
	Bus     *events.Bus
}

// New constructs an Engine. If opts.IDs or opts.Bus are nil, sensible
// defaults are created (a fresh allocator, a bus with no handlers).
func New(opts Options) *Engine {
	ids := opts.IDs
	if ids == nil {
		ids = idgen.NewAllocator()
	}
	bus := opts.Bus
	if bus == nil {
		bus = events.New()
	}
	return &Engine{
		db:      opts.DB,
		exec:    opts.DB,
		binder:  opts.Binder,
		dialect: opts.Dialect,
		ids:     ids,
		bus:     bus,
	}
}

func (e *Engine) Platforms() storage.PlatformRepository       { return platformRepo{e} }
func (e *Engine) Projects() storage.ProjectRepository         { return projectRepo{e} }
func (e *Engine) Folders() storage.FolderRepository           { return folderRepo{e} }
func (e *Engine) Files() storage.FileRepository               { return fileRepo{e} }
func (e *Engine) Rows() storage.RowRepository                 { return rowRepo{e} }
func (e *Engine) TMs() storage.TMRepository                   { return tmRepo{e} }
func (e *Engine) QAResults() storage.QAResultRepository       { return qaRepo{e} }
func (e *Engine) Trash() storage.TrashRepository              { return trashRepo{e} }
func (e *Engine) Capabilities() storage.CapabilityRepository  { return capabilityRepo{e} }

func (e *Engine) Close() error {
	if e.tx != nil {
		return nil // never close the DB out from under an in-flight transaction's parent
	}
	return e.db.Close()
}

// WithTx runs fn against a single transaction, committing on success and
// rolling back on error or context cancellation. Nesting (a WithTx call
// from inside another WithTx) reuses the existing transaction rather than
// opening a second one, since a backend transaction is not itself
// reentrant.
func (e *Engine) WithTx(ctx context.Context, fn func(ctx context.Context, s storage.Storage) error) error {
	if e.tx != nil {
		return fn(ctx, e)
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Wrap(types.Transient, err, "begin transaction")
	}

	child := &Engine{db: e.db, exec: tx, tx: tx, binder: e.binder, dialect: e.dialect, ids: e.ids, bus: e.bus}

	if err := fn(ctx, child); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, rbErr)
		}
		return err
	}

	if err := ctx.Err(); err != nil {
		_ = tx.Rollback()
		return types.Wrap(types.Transient, err, "context canceled before commit")
	}

	if err := tx.Commit(); err != nil {
		return types.Wrap(types.Transient, err, "commit transaction")
	}
	return nil
}

// withRetry retries fn up to 3 attempts (per the documented default bound)
// with jittered exponential backoff, but only for errors classified as
// types.Transient. Any other error is returned immediately.
func withRetry(ctx context.Context, fn func() error) error {
	attempt := 0
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	return backoff.Retry(func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if kind, ok := types.KindOf(err); ok && kind == types.Transient {
			return err // retried by backoff.Retry
		}
		return backoff.Permanent(err)
	}, bo)
}

// startSpan starts an OpenTelemetry span for a repository operation.
func (e *Engine) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// emit dispatches a best-effort event for a repository operation. Errors
// from the bus are swallowed by Bus.Dispatch itself; emit never returns one.
func (e *Engine) emit(ctx context.Context, kind events.Kind, fn string, fields map[string]interface{}) {
	_, _ = e.bus.Dispatch(ctx, &events.Event{
		Kind:        kind,
		OperationID: uuid.NewString(),
		Fn:          fn,
		Fields:      fields,
		At:          time.Now().UTC(),
	})
}

func wrapNotFound(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return types.ErrNotFound
	}
	return types.Wrap(types.Transient, err, "backend error")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
