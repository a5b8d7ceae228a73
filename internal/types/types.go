// Package types defines the entities, enums, and filter/result shapes shared
// by every repository contract and backend adapter in the LDM core.
package types

import "time"

// Platform is a top-level grouping of Projects.
type Platform struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	OwnerID      string    `json:"owner_id"`
	IsRestricted bool      `json:"is_restricted"`
	CreatedAt    time.Time `json:"created_at"`
}

// Project is owned by a Platform, or unattached (PlatformID == nil).
type Project struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	OwnerID      string    `json:"owner_id"`
	PlatformID   *int64    `json:"platform_id,omitempty"`
	IsRestricted bool      `json:"is_restricted"`
	CreatedAt    time.Time `json:"created_at"`
}

// Folder is a node in the tree under a Project.
type Folder struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	ParentID  *int64    `json:"parent_id,omitempty"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// SyncStatus is the offline-only provenance flag carried by File and Row.
type SyncStatus string

const (
	SyncSynced   SyncStatus = "synced"
	SyncModified SyncStatus = "modified"
	SyncNew      SyncStatus = "new"
	SyncLocal    SyncStatus = "local"
	SyncOrphaned SyncStatus = "orphaned"
)

// File is a leaf under a Project, optionally inside a Folder.
type File struct {
	ID                int64      `json:"id"`
	ProjectID         int64      `json:"project_id"`
	FolderID          *int64     `json:"folder_id,omitempty"`
	Name              string     `json:"name"`
	OriginalFilename  string     `json:"original_filename,omitempty"`
	Format            string     `json:"format"`
	RowCount          int        `json:"row_count"`
	SourceLanguage    string     `json:"source_language"`
	TargetLanguage    string     `json:"target_language,omitempty"`
	ExtraData         string     `json:"extra_data,omitempty"` // opaque JSON
	CreatedAt         time.Time  `json:"created_at"`

	// Offline-only.
	SyncStatus      SyncStatus `json:"sync_status,omitempty"`
	ServerID        *int64     `json:"server_id,omitempty"`
	ServerProjectID *int64     `json:"server_project_id,omitempty"`
	ServerFolderID  *int64     `json:"server_folder_id,omitempty"`
	DownloadedAt    *time.Time `json:"downloaded_at,omitempty"`
}

// RowStatus is the translation-progress state of a Row.
type RowStatus string

const (
	RowPending    RowStatus = "pending"
	RowTranslated RowStatus = "translated"
	RowReviewed   RowStatus = "reviewed"
	RowApproved   RowStatus = "approved"
)

// Row is a single translation unit inside a File.
type Row struct {
	ID          int64     `json:"id"`
	FileID      int64     `json:"file_id"`
	RowNum      int       `json:"row_num"`
	StringID    string    `json:"string_id,omitempty"`
	Source      string    `json:"source"`
	Target      string    `json:"target,omitempty"`
	Memo        string    `json:"memo,omitempty"`
	Status      RowStatus `json:"status"`
	QAFlagCount int       `json:"qa_flag_count"`
	ExtraData   string    `json:"extra_data,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
	UpdatedBy   string    `json:"updated_by,omitempty"`

	// Offline-only.
	SyncStatus   SyncStatus `json:"sync_status,omitempty"`
	ServerID     *int64     `json:"server_id,omitempty"`
	ServerFileID *int64     `json:"server_file_id,omitempty"`
}

// TMMode controls duplicate handling at TM entry ingest time.
type TMMode string

const (
	TMModeStandard TMMode = "standard"
	TMModeStringID TMMode = "stringid"
)

// TMStatus tracks the state of a TM's external index.
type TMStatus string

const (
	TMPending  TMStatus = "pending"
	TMIndexing TMStatus = "indexing"
	TMReady    TMStatus = "ready"
	TMError    TMStatus = "error"
)

// TM is a named store of source -> target pairs.
type TM struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID    string     `json:"owner_id,omitempty"`
	SourceLang string     `json:"source_lang"`
	TargetLang string     `json:"target_lang"`
	EntryCount int        `json:"entry_count"`
	Mode       TMMode     `json:"mode"`
	Status     TMStatus   `json:"status"`
	IndexedAt  *time.Time `json:"indexed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TMEntry is a single source -> target pair inside a TM.
type TMEntry struct {
	ID            int64      `json:"id"`
	TMID          int64      `json:"tm_id"`
	SourceText    string     `json:"source_text"`
	TargetText    string     `json:"target_text"`
	SourceHash    string     `json:"source_hash"`
	StringID      string     `json:"string_id,omitempty"`
	IsConfirmed   bool       `json:"is_confirmed"`
	CreatedBy     string     `json:"created_by,omitempty"`
	UpdatedAt     string     `json:"updated_at"` // ISO-8601 UTC millis, compared lexicographically for LWW merge
	UpdatedBy     string     `json:"updated_by,omitempty"`
	ConfirmedBy   string     `json:"confirmed_by,omitempty"`
	ConfirmedAt   *time.Time `json:"confirmed_at,omitempty"`
}

// ScopeKind names one level of the Platform -> Project -> Folder chain.
type ScopeKind string

const (
	ScopePlatform ScopeKind = "platform"
	ScopeProject  ScopeKind = "project"
	ScopeFolder   ScopeKind = "folder"
	ScopeNone     ScopeKind = "unassigned"
)

// Scope is a tagged union over {platform, project, folder, unassigned} with
// at most one ID set, matching TMAssignment's invariant.
type Scope struct {
	Kind       ScopeKind
	PlatformID int64
	ProjectID  int64
	FolderID   int64
}

func (s Scope) Empty() bool { return s.Kind == "" || s.Kind == ScopeNone }

// TMAssignment is the (at most one) active TM <-> scope link.
type TMAssignment struct {
	TMID        int64      `json:"tm_id"`
	Scope       Scope      `json:"scope"`
	IsActive    bool       `json:"is_active"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
}

// TMProjectLink auto-adds a TM to translation-confirm flows for a project.
type TMProjectLink struct {
	TMID      int64 `json:"tm_id"`
	ProjectID int64 `json:"project_id"`
	Priority  int   `json:"priority"` // lower = higher priority
}

// ScopedTM is a TM annotated with the scope level it was resolved through,
// as returned by TMRepository.GetActiveForFile.
type ScopedTM struct {
	TM    TM
	Scope ScopeKind
}

// TMSearchHit is one similarity/exact search result over TM entries.
type TMSearchHit struct {
	Entry TMEntry
	Score float64
}

// QACheckType names the category of an automated QA check.
type QACheckType string

const (
	QAPattern   QACheckType = "pattern"
	QALine      QACheckType = "line"
	QATerm      QACheckType = "term"
	QACharacter QACheckType = "character"
	QAGrammar   QACheckType = "grammar"
)

// QASeverity ranks a QA result.
type QASeverity string

const (
	QASeverityError   QASeverity = "error"
	QASeverityWarning QASeverity = "warning"
)

// QAResult is one flagged issue on a Row.
type QAResult struct {
	ID         int64      `json:"id"`
	RowID      int64      `json:"row_id"`
	FileID     int64      `json:"file_id"`
	CheckType  QACheckType `json:"check_type"`
	Severity   QASeverity `json:"severity"`
	Message    string     `json:"message"`
	Details    string     `json:"details,omitempty"` // opaque JSON
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy string     `json:"resolved_by,omitempty"`
}

// TrashItemType names the kind of subtree a Trash record preserves.
type TrashItemType string

const (
	TrashFile         TrashItemType = "file"
	TrashFolder       TrashItemType = "folder"
	TrashProject      TrashItemType = "project"
	TrashPlatform     TrashItemType = "platform"
	TrashLocalFile    TrashItemType = "local-file"
	TrashLocalFolder  TrashItemType = "local-folder"
)

// TrashStatus tracks the lifecycle of a Trash record.
type TrashStatus string

const (
	TrashStatusTrashed  TrashStatus = "trashed"
	TrashStatusRestored TrashStatus = "restored"
)

// Trash holds the serialized payload of a soft-deleted subtree.
type Trash struct {
	ID              int64         `json:"id"`
	ItemType        TrashItemType `json:"item_type"`
	ItemID          int64         `json:"item_id"`
	ItemName        string        `json:"item_name"`
	ItemData        string        `json:"item_data"` // recursive JSON, see trash.FolderPayload / trash.FilePayload
	ParentProjectID *int64        `json:"parent_project_id,omitempty"`
	ParentFolderID  *int64        `json:"parent_folder_id,omitempty"`
	DeletedBy       string        `json:"deleted_by"`
	DeletedAt       time.Time     `json:"deleted_at"`
	ExpiresAt       time.Time     `json:"expires_at"`
	Status          TrashStatus   `json:"status"`
}

// CapabilityName is a named online-only permission grant.
type CapabilityName string

const (
	CapabilityDeletePlatform    CapabilityName = "delete_platform"
	CapabilityDeleteProject     CapabilityName = "delete_project"
	CapabilityCrossProjectMove  CapabilityName = "cross_project_move"
	CapabilityEmptyTrash        CapabilityName = "empty_trash"
)

// CapabilityGrant is an online-only privileged-operation grant.
type CapabilityGrant struct {
	ID             int64          `json:"id"`
	UserID         string         `json:"user_id"`
	CapabilityName CapabilityName `json:"capability_name"`
	GrantedBy      string         `json:"granted_by"`
	GrantedAt      time.Time      `json:"granted_at"`
	ExpiresAt      *time.Time     `json:"expires_at,omitempty"`
}

// LocalChangeSyncStatus tracks whether a journaled edit has been synced.
type LocalChangeSyncStatus string

const (
	LocalChangePending  LocalChangeSyncStatus = "pending"
	LocalChangeSynced   LocalChangeSyncStatus = "synced"
	LocalChangeDiscarded LocalChangeSyncStatus = "discarded"
)

// LocalChange is one append-only per-field edit log entry (offline-only).
type LocalChange struct {
	ID         int64                 `json:"id"`
	EntityKind string                `json:"entity_kind"` // "row" | "tm_entry"
	EntityID   int64                 `json:"entity_id"`
	Field      string                `json:"field"`
	OldValue   string                `json:"old_value,omitempty"`
	NewValue   string                `json:"new_value,omitempty"`
	ChangedAt  time.Time             `json:"changed_at"`
	SyncStatus LocalChangeSyncStatus `json:"sync_status"`
}

// SyncSubscription names a server entity tracked for download (offline-only).
type SyncSubscription struct {
	ID         int64  `json:"id"`
	EntityKind string `json:"entity_kind"`
	ServerID   int64  `json:"server_id"`
}
