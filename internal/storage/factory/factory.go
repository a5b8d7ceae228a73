// Package factory implements the per-request Mode Resolver: it classifies
// an opaque auth token as offline or online, opens (or reuses) the
// corresponding backend, and — for the Row and File repositories — wraps
// the primary adapter with the routing decorator so positive and negative
// IDs coexist transparently in the same session.
package factory

import (
	"context"
	"fmt"
	"strings"

	"github.com/ldm-sh/ldm/internal/config"
	"github.com/ldm-sh/ldm/internal/configfile"
	"github.com/ldm-sh/ldm/internal/storage"
	"github.com/ldm-sh/ldm/internal/storage/offline"
	"github.com/ldm-sh/ldm/internal/storage/online"
	"github.com/ldm-sh/ldm/internal/storage/routing"
)

// defaultModeTokenPrefix is the deployment constant used when neither the
// local config file nor the environment overrides it.
const defaultModeTokenPrefix = "offline:"

// Options configures the resolver.
type Options struct {
	// Dir is the path to the deployment's .ldm directory, used to load
	// metadata.json and locate the offline database file.
	Dir string

	// OnlineDSN is the go-sql-driver/mysql DSN for the relational backend.
	// Required unless every session in this process resolves to offline.
	OnlineDSN          string
	OnlineMaxOpenConns int
	OnlineMaxIdleConns int
}

// ModeTokenPrefix resolves the active deployment's offline-token prefix:
// metadata.json overrides the viper-backed default.
func ModeTokenPrefix(dir string) string {
	if cfg, err := configfile.Load(dir); err == nil && cfg != nil && cfg.ModeTokenPrefix != "" {
		return cfg.ModeTokenPrefix
	}
	if p := config.GetString("mode.token-prefix"); p != "" {
		return p
	}
	return defaultModeTokenPrefix
}

// IsOfflineToken classifies an auth token per the mode-token-format
// contract: a fixed leading prefix selects offline, anything else is
// online. The remainder of the token is never parsed here.
func IsOfflineToken(token, prefix string) bool {
	return strings.HasPrefix(token, prefix)
}

// Resolver opens backends on demand and is safe for concurrent use; the
// underlying adapters own their own connection pooling / singleton
// discipline (online: *sql.DB pool; offline: process-wide singleton
// handle).
type Resolver struct {
	opts Options
}

func NewResolver(opts Options) *Resolver {
	return &Resolver{opts: opts}
}

// Open classifies token and returns the Storage for this session: the
// Offline adapter when the token carries the configured offline prefix,
// otherwise the Online adapter with its Row and File repositories wrapped
// by the routing decorator so locally-allocated negative IDs remain
// reachable from an online session too.
func (r *Resolver) Open(ctx context.Context, token string) (storage.Storage, error) {
	prefix := ModeTokenPrefix(r.opts.Dir)

	offlineStore, err := r.openOffline(ctx)
	if err != nil {
		return nil, fmt.Errorf("factory: opening offline backend: %w", err)
	}

	if IsOfflineToken(token, prefix) {
		return offlineStore, nil
	}

	onlineStore, err := r.openOnline(ctx)
	if err != nil {
		return nil, fmt.Errorf("factory: opening online backend: %w", err)
	}

	return &routedStorage{
		primary: onlineStore,
		offline: offlineStore,
	}, nil
}

func (r *Resolver) openOffline(ctx context.Context) (storage.Storage, error) {
	cfg, err := configfile.Load(r.opts.Dir)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = configfile.DefaultConfig()
	}
	return offline.Open(ctx, offline.Options{
		Path: cfg.DatabasePath(r.opts.Dir),
	})
}

func (r *Resolver) openOnline(ctx context.Context) (storage.Storage, error) {
	if r.opts.OnlineDSN == "" {
		return nil, fmt.Errorf("factory: online DSN not configured")
	}
	return online.Open(ctx, online.Options{
		DSN:          r.opts.OnlineDSN,
		MaxOpenConns: r.opts.OnlineMaxOpenConns,
		MaxIdleConns: r.opts.OnlineMaxIdleConns,
	})
}

// routedStorage is the online Storage with Rows()/Files() wrapped by the
// routing decorator. Only Rows() and Files() dispatch by ID sign; every
// other repository always goes to the online backend.
type routedStorage struct {
	primary storage.Storage
	offline storage.Storage
}

var _ storage.Storage = (*routedStorage)(nil)

func (s *routedStorage) Platforms() storage.PlatformRepository      { return s.primary.Platforms() }
func (s *routedStorage) Projects() storage.ProjectRepository        { return s.primary.Projects() }
func (s *routedStorage) Folders() storage.FolderRepository          { return s.primary.Folders() }
func (s *routedStorage) TMs() storage.TMRepository                  { return s.primary.TMs() }
func (s *routedStorage) QAResults() storage.QAResultRepository      { return s.primary.QAResults() }
func (s *routedStorage) Trash() storage.TrashRepository             { return s.primary.Trash() }
func (s *routedStorage) Capabilities() storage.CapabilityRepository { return s.primary.Capabilities() }

func (s *routedStorage) Rows() storage.RowRepository {
	return &routing.Rows{Primary: s.primary.Rows(), Offline: s.offline.Rows()}
}

func (s *routedStorage) Files() storage.FileRepository {
	return &routing.Files{Primary: s.primary.Files(), Offline: s.offline.Files()}
}

func (s *routedStorage) WithTx(ctx context.Context, fn func(ctx context.Context, st storage.Storage) error) error {
	return s.primary.WithTx(ctx, func(ctx context.Context, txPrimary storage.Storage) error {
		return fn(ctx, &routedStorage{primary: txPrimary, offline: s.offline})
	})
}

func (s *routedStorage) Close() error {
	if err := s.primary.Close(); err != nil {
		return err
	}
	return s.offline.Close()
}
