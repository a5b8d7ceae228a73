package types

// SearchMode controls how RowRepository.GetForFile matches search against
// the requested search fields.
type SearchMode string

const (
	SearchContain    SearchMode = "contain"
	SearchExact      SearchMode = "exact"
	SearchNotContain SearchMode = "not_contain"
	SearchFuzzy      SearchMode = "fuzzy"
)

// SearchField names one column RowFilter.Search may be matched against.
type SearchField string

const (
	SearchFieldStringID SearchField = "string_id"
	SearchFieldSource   SearchField = "source"
	SearchFieldTarget   SearchField = "target"
)

// RowFilterType narrows GetForFile to a qualitative row subset.
type RowFilterType string

const (
	RowFilterAll         RowFilterType = "all"
	RowFilterConfirmed   RowFilterType = "confirmed"
	RowFilterUnconfirmed RowFilterType = "unconfirmed"
	RowFilterQAFlagged   RowFilterType = "qa_flagged"
)

// RowFilter is the parameter object for RowRepository.GetForFile.
type RowFilter struct {
	Page         int
	Limit        int
	Search       string
	SearchMode   SearchMode
	SearchFields []SearchField
	Status       *RowStatus
	FilterType   RowFilterType
}

// RowUpdate is the set of optionally-present fields RowRepository.Update may
// change. A nil pointer means "leave unchanged".
type RowUpdate struct {
	Target    *string
	Status    *RowStatus
	UpdatedBy string
}

// BulkRowUpdate pairs a Row ID with the fields to change, used by
// RowRepository.BulkUpdate and routed per ID sign by the routing repository.
type BulkRowUpdate struct {
	ID     int64
	Update RowUpdate
}

// EditHistoryEntry records one past edit surfaced by GetEditHistory.
type EditHistoryEntry struct {
	RowID     int64
	Field     string
	OldValue  string
	NewValue  string
	ChangedAt string
	ChangedBy string
}

// QAFileFilter narrows QAResultRepository.GetForFile.
type QAFileFilter struct {
	CheckType       *QACheckType
	IncludeResolved bool
}

// QASummary aggregates QA results for a file.
type QASummary struct {
	TotalUnresolved int
	BySeverity      map[QASeverity]int
	ByCheckType     map[QACheckType]int
}

// TMIndexInfo describes one external index built over a TM's entries.
type TMIndexInfo struct {
	Type     string
	Status   string
	FileSize int64
	BuiltAt  string
}

// TMTreeNode is one level of TMRepository.GetTree's nested scope structure.
type TMTreeNode struct {
	ID       int64        `json:"id"`
	Name     string       `json:"name"`
	TMs      []TM         `json:"tms,omitempty"`
	Projects []TMTreeNode `json:"projects,omitempty"`
	Folders  []TMTreeNode `json:"folders,omitempty"`
}

// TMTree is the full result of TMRepository.GetTree.
type TMTree struct {
	Unassigned []TM         `json:"unassigned"`
	Platforms  []TMTreeNode `json:"platforms"`
}

// FolderContents is the direct children of a folder.
type FolderContents struct {
	Files     []File
	Subfolders []Folder
}
