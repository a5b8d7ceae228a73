// Package storage defines the polymorphic repository contracts every
// backend adapter implements identically (online in internal/storage/online,
// offline in internal/storage/offline), plus the shared helpers
// (connection-string building, metadata JSON validation, bulk-insert
// options) both adapters reuse.
package storage

import (
	"context"

	"github.com/ldm-sh/ldm/internal/types"
)

// PlatformRepository implements §4.4.1.
type PlatformRepository interface {
	Get(ctx context.Context, id int64) (*types.Platform, error)
	GetAll(ctx context.Context) ([]types.Platform, error)
	Create(ctx context.Context, name, ownerID, description string, isRestricted bool) (*types.Platform, error)
	Update(ctx context.Context, id int64, name, description *string) (*types.Platform, error)
	Delete(ctx context.Context, id int64) (bool, error)
	GetWithProjectCount(ctx context.Context, id int64) (*types.Platform, int, error)
	SetRestriction(ctx context.Context, id int64, restricted bool) error
	AssignProject(ctx context.Context, projectID int64, platformID *int64) error
	CheckNameExists(ctx context.Context, name string, excludeID *int64) (bool, error)
	Count(ctx context.Context) (int, error)
	GetProjects(ctx context.Context, platformID int64) ([]types.Project, error)
	Search(ctx context.Context, query string) ([]types.Platform, error)
}

// ProjectRepository implements §4.4.2.
type ProjectRepository interface {
	Get(ctx context.Context, id int64) (*types.Project, error)
	GetAll(ctx context.Context) ([]types.Project, error)
	// Create auto-renames via the naming service and returns the effective name.
	Create(ctx context.Context, name, ownerID, description string, platformID *int64, isRestricted bool) (*types.Project, error)
	// Rename does not auto-rename; it fails with NameCollision instead.
	Rename(ctx context.Context, id int64, name string) (*types.Project, error)
	Update(ctx context.Context, id int64, description *string) (*types.Project, error)
	Delete(ctx context.Context, id int64) (bool, error)
	CheckNameExists(ctx context.Context, name string, platformID *int64, excludeID *int64) (bool, error)
	Count(ctx context.Context) (int, error)
	Search(ctx context.Context, query string) ([]types.Project, error)
	// GetContents returns the project's root-level files (folder_id IS NULL)
	// and root-level folders (parent_id IS NULL), for walking the whole
	// project tree one level at a time (used by soft-delete serialization).
	GetContents(ctx context.Context, id int64) (*types.FolderContents, error)
}

// FolderRepository implements §4.4.3.
type FolderRepository interface {
	Get(ctx context.Context, id int64) (*types.Folder, error)
	GetWithContents(ctx context.Context, id int64) (*types.Folder, *types.FolderContents, error)
	Create(ctx context.Context, projectID int64, parentID *int64, name string) (*types.Folder, error)
	Rename(ctx context.Context, id int64, name string) (*types.Folder, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Move(ctx context.Context, folderID int64, newParentID *int64) error
	MoveCrossProject(ctx context.Context, folderID, targetProject int64, targetParent *int64) error
	Copy(ctx context.Context, folderID int64, targetProject *int64, targetParent *int64) (*types.Folder, error)
	IsDescendant(ctx context.Context, a, b int64) (bool, error)
	CheckNameExists(ctx context.Context, projectID int64, parentID *int64, name string, excludeID *int64) (bool, error)
}

// FileRepository implements §4.4.4.
type FileRepository interface {
	Get(ctx context.Context, id int64) (*types.File, error)
	Create(ctx context.Context, f types.File) (*types.File, error)
	Rename(ctx context.Context, id int64, name string) (*types.File, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Move(ctx context.Context, fileID int64, folderID *int64) error
	MoveCrossProject(ctx context.Context, fileID, targetProject int64, targetFolder *int64) error
	Copy(ctx context.Context, fileID int64, targetProject *int64, targetFolder *int64) (*types.File, error)
	CheckNameExists(ctx context.Context, projectID int64, folderID *int64, name string, excludeID *int64) (bool, error)

	GetRows(ctx context.Context, fileID int64) ([]types.Row, error)
	AddRows(ctx context.Context, fileID int64, rows []types.Row) ([]types.Row, error)
	GetRowsForExport(ctx context.Context, fileID int64) ([]types.Row, error)
	UpdateRowCount(ctx context.Context, fileID int64) (int, error)
}

// RowRepository implements §4.4.5.
type RowRepository interface {
	Get(ctx context.Context, id int64) (*types.Row, error)
	GetWithFile(ctx context.Context, id int64) (*types.Row, *types.File, error)
	Create(ctx context.Context, row types.Row) (*types.Row, error)
	Update(ctx context.Context, id int64, upd types.RowUpdate) (*types.Row, error)
	Delete(ctx context.Context, id int64) (bool, error)
	BulkCreate(ctx context.Context, fileID int64, rows []types.Row) ([]types.Row, error)
	BulkUpdate(ctx context.Context, updates []types.BulkRowUpdate) (int, error)
	GetForFile(ctx context.Context, fileID int64, filter types.RowFilter) ([]types.Row, int, error)
	CountForFile(ctx context.Context, fileID int64) (int, error)
	AddEditHistory(ctx context.Context, entry types.EditHistoryEntry) error
	GetEditHistory(ctx context.Context, rowID int64) ([]types.EditHistoryEntry, error)
	// SuggestSimilar is online-only (trigram-style); the offline adapter
	// returns an empty slice rather than synthesizing matches.
	SuggestSimilar(ctx context.Context, source string, fileID, projectID *int64, excludeRowID *int64, threshold float64, maxResults int) ([]types.TMSearchHit, error)
}

// TMRepository implements §4.4.6.
type TMRepository interface {
	Get(ctx context.Context, id int64) (*types.TM, error)
	GetAll(ctx context.Context) ([]types.TM, error)
	Create(ctx context.Context, name, sourceLang, targetLang, ownerID string) (*types.TM, error)
	Delete(ctx context.Context, id int64) (bool, error)

	Assign(ctx context.Context, tmID int64, target types.Scope) error
	Unassign(ctx context.Context, tmID int64) error
	Activate(ctx context.Context, tmID int64) error
	Deactivate(ctx context.Context, tmID int64) error
	GetAssignment(ctx context.Context, tmID int64) (*types.TMAssignment, error)

	GetForScope(ctx context.Context, scope types.Scope, includeInactive bool) ([]types.TM, error)
	GetActiveForFile(ctx context.Context, fileID int64) ([]types.ScopedTM, error)

	LinkToProject(ctx context.Context, tmID, projectID int64, priority int) error
	UnlinkFromProject(ctx context.Context, tmID, projectID int64) error
	GetLinkedForProject(ctx context.Context, projectID int64) (*types.TM, error)
	GetAllLinkedForProject(ctx context.Context, projectID int64) ([]types.TMProjectLink, error)

	AddEntry(ctx context.Context, tmID int64, source, target, stringID, createdBy string) (*types.TMEntry, error)
	AddEntriesBulk(ctx context.Context, tmID int64, entries []types.TMEntry) ([]types.TMEntry, error)
	GetEntries(ctx context.Context, tmID int64, offset, limit int) ([]types.TMEntry, error)
	GetAllEntries(ctx context.Context, tmID int64) ([]types.TMEntry, error)
	SearchEntries(ctx context.Context, tmID int64, query string, limit int) ([]types.TMSearchHit, error)
	DeleteEntry(ctx context.Context, id int64) (bool, error)
	UpdateEntry(ctx context.Context, id int64, target string) (*types.TMEntry, error)
	ConfirmEntry(ctx context.Context, id int64, confirmedBy string) (*types.TMEntry, error)
	BulkConfirmEntries(ctx context.Context, ids []int64, confirmedBy string) (int, error)
	GetGlossaryTerms(ctx context.Context, tmIDs []int64, maxSourceLength, limit int) ([]types.TMEntry, error)

	GetIndexes(ctx context.Context, tmID int64) ([]types.TMIndexInfo, error)
	CountEntries(ctx context.Context, tmID int64) (int, error)

	// SearchExact uses SourceHash for O(1) lookup.
	SearchExact(ctx context.Context, tmID int64, source string) ([]types.TMEntry, error)
	// SearchSimilar is online-only; the offline adapter returns empty.
	SearchSimilar(ctx context.Context, tmID int64, source string, threshold float64, maxResults int) ([]types.TMSearchHit, error)

	GetTree(ctx context.Context) (*types.TMTree, error)
}

// QAResultRepository implements §4.4.7.
type QAResultRepository interface {
	Get(ctx context.Context, id int64) (*types.QAResult, error)
	GetForRow(ctx context.Context, rowID int64) ([]types.QAResult, error)
	GetForFile(ctx context.Context, fileID int64, filter types.QAFileFilter) ([]types.QAResult, error)
	GetSummary(ctx context.Context, fileID int64) (*types.QASummary, error)
	Create(ctx context.Context, r types.QAResult) (*types.QAResult, error)
	BulkCreate(ctx context.Context, results []types.QAResult) ([]types.QAResult, error)
	Resolve(ctx context.Context, id int64, resolvedBy string) (*types.QAResult, error)
	DeleteUnresolvedForRow(ctx context.Context, rowID int64) (int, error)
	DeleteForFile(ctx context.Context, fileID int64) (int, error)
	CountUnresolvedForRow(ctx context.Context, rowID int64) (int, error)
	UpdateRowQACount(ctx context.Context, rowID int64) (int, error)
}

// TrashRepository implements §4.4.8.
type TrashRepository interface {
	Get(ctx context.Context, id int64) (*types.Trash, error)
	GetForUser(ctx context.Context, userID string) ([]types.Trash, error)
	GetExpired(ctx context.Context) ([]types.Trash, error)
	Create(ctx context.Context, itemType types.TrashItemType, itemID int64, itemName, itemData, deletedBy string, parentProjectID, parentFolderID *int64, retentionDays int) (*types.Trash, error)
	Restore(ctx context.Context, trashID int64, userID string, isAdmin bool) (*types.Trash, error)
	PermanentDelete(ctx context.Context, trashID int64, userID string, isAdmin bool) (bool, error)
	EmptyForUser(ctx context.Context, userID string) (int, error)
	CleanupExpired(ctx context.Context) (int, error)
	CountForUser(ctx context.Context, userID string) (int, error)
}

// CapabilityRepository implements §4.4.9. The offline adapter returns empty
// for all reads and CapabilityRequiresOnline for grants.
type CapabilityRepository interface {
	Grant(ctx context.Context, userID string, capability types.CapabilityName, grantedBy string, expiresAt *int64) (*types.CapabilityGrant, error)
	Revoke(ctx context.Context, id int64) (bool, error)
	GetForUser(ctx context.Context, userID string) ([]types.CapabilityGrant, error)
	Has(ctx context.Context, userID string, capability types.CapabilityName) (bool, error)
}

// Storage aggregates every entity repository behind one handle bound to a
// single backend and mode. A session-scoped factory (internal/storage/factory)
// constructs exactly one Storage per request. The shared SQL repositories
// still consult the schema mode for a few offline-only rules (negative ID
// allocation, cross-project moves, copies).
type Storage interface {
	Platforms() PlatformRepository
	Projects() ProjectRepository
	Folders() FolderRepository
	Files() FileRepository
	Rows() RowRepository
	TMs() TMRepository
	QAResults() QAResultRepository
	Trash() TrashRepository
	Capabilities() CapabilityRepository

	// WithTx runs fn inside a single transaction on this backend, committing
	// on success and rolling back on error or context cancellation. Composed
	// operations (cross-project move, recursive copy, soft delete) open
	// exactly one transaction at the outermost orchestrator; repositories
	// themselves never call Commit/Rollback.
	WithTx(ctx context.Context, fn func(ctx context.Context, s Storage) error) error

	Close() error
}
