// Package trash implements the recursive serialize/restore logic for
// soft-deleted subtrees. It knows nothing about SQL: callers (the backend
// TrashRepository implementations and the cross-entity orchestrator) supply
// plain Go slices already loaded from a transaction and get back a JSON
// blob matching the documented Trash payload schema, or the reverse.
package trash

import (
	"encoding/json"
	"fmt"

	"github.com/ldm-sh/ldm/internal/types"
)

// DefaultRetentionDays is used when a caller of TrashRepository.Create
// doesn't specify one.
const DefaultRetentionDays = 30

// MaxDepth caps recursive folder nesting walked by Serialize/Restore, per
// the stack-safety requirement: deep trees are walked with an explicit work
// stack instead of recursive calls, and this is the hard ceiling on how deep
// that stack may grow.
const MaxDepth = 256

// FilePayload is one file plus its rows, as embedded in a folder or file
// trash payload.
type FilePayload struct {
	File types.File `json:"file"`
	Rows []types.Row `json:"rows"`
}

// FolderPayload is the recursive folder subtree shape from the documented
// Trash payload schema. Subfolders is omitted by file-only payloads.
type FolderPayload struct {
	Folder     types.Folder   `json:"folder"`
	Files      []FilePayload   `json:"files,omitempty"`
	Subfolders []FolderPayload `json:"subfolders,omitempty"`
}

// FolderNode is what a FolderLoader hands back for one folder: its own
// direct files (already paired with rows) and the IDs of its immediate
// subfolders, which the walker will load in turn.
type FolderNode struct {
	Folder          types.Folder
	Files           []FilePayload
	SubfolderIDs    []int64
}

// FolderLoader loads one folder's direct contents. Implementations run
// inside the caller's transaction.
type FolderLoader func(folderID int64) (FolderNode, error)

// workItem is one pending folder to expand, tracked with its depth and a
// pointer into the parent's Subfolders slice where its result belongs.
type workItem struct {
	folderID int64
	depth    int
	target   *FolderPayload
}

// SerializeFolder walks a folder and its descendants via an explicit work
// stack (never recursing in Go call frames) and returns the nested payload
// ready for JSON encoding into Trash.ItemData.
func SerializeFolder(rootID int64, load FolderLoader) (*FolderPayload, error) {
	root := &FolderPayload{}
	stack := []workItem{{folderID: rootID, depth: 0, target: root}}

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if item.depth > MaxDepth {
			return nil, fmt.Errorf("trash: folder subtree exceeds max depth %d", MaxDepth)
		}

		node, err := load(item.folderID)
		if err != nil {
			return nil, err
		}
		item.target.Folder = node.Folder
		item.target.Files = node.Files

		if len(node.SubfolderIDs) > 0 {
			item.target.Subfolders = make([]FolderPayload, len(node.SubfolderIDs))
			for i, childID := range node.SubfolderIDs {
				stack = append(stack, workItem{
					folderID: childID,
					depth:    item.depth + 1,
					target:   &item.target.Subfolders[i],
				})
			}
		}
	}

	return root, nil
}

// SerializeFile builds the file-only payload variant (no subfolders key).
func SerializeFile(file types.File, rows []types.Row) ([]byte, error) {
	return json.Marshal(FilePayload{File: file, Rows: rows})
}

// MarshalFolder encodes a folder payload to the stable JSON shape stored in
// Trash.ItemData.
func MarshalFolder(p *FolderPayload) ([]byte, error) {
	return json.Marshal(p)
}

// UnmarshalFolder decodes a folder payload previously produced by
// MarshalFolder.
func UnmarshalFolder(data []byte) (*FolderPayload, error) {
	var p FolderPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("trash: decode folder payload: %w", err)
	}
	return &p, nil
}

// UnmarshalFile decodes a file-only payload previously produced by
// SerializeFile.
func UnmarshalFile(data []byte) (*FilePayload, error) {
	var p FilePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("trash: decode file payload: %w", err)
	}
	return &p, nil
}

// Inserter recreates entities read back out of a payload. Implementations
// run inside the caller's transaction and must preserve original IDs so
// references inside descendants keep resolving (rows referencing file_id,
// files referencing folder_id, subfolders referencing parent_id).
type Inserter interface {
	InsertFolder(f types.Folder) error
	InsertFile(f types.File) error
	InsertRows(rows []types.Row) error
}

// Restore recreates a folder subtree in the documented bottom-up order:
// folder, then its files, then each file's rows, then recurse into
// subfolders — using an explicit work stack rather than recursive calls.
func Restore(root *FolderPayload, ins Inserter) error {
	type item struct {
		payload *FolderPayload
		depth   int
	}
	stack := []item{{payload: root, depth: 0}}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur.depth > MaxDepth {
			return fmt.Errorf("trash: restore exceeds max depth %d", MaxDepth)
		}

		if err := ins.InsertFolder(cur.payload.Folder); err != nil {
			return err
		}
		for _, fp := range cur.payload.Files {
			if err := ins.InsertFile(fp.File); err != nil {
				return err
			}
			if len(fp.Rows) > 0 {
				if err := ins.InsertRows(fp.Rows); err != nil {
					return err
				}
			}
		}
		for i := range cur.payload.Subfolders {
			stack = append(stack, item{payload: &cur.payload.Subfolders[i], depth: cur.depth + 1})
		}
	}
	return nil
}

// RestoreFile recreates a file-only payload's file and rows.
func RestoreFile(p *FilePayload, ins Inserter) error {
	if err := ins.InsertFile(p.File); err != nil {
		return err
	}
	if len(p.Rows) == 0 {
		return nil
	}
	return ins.InsertRows(p.Rows)
}
