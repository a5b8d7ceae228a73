// Package orchestrate implements the cross-cutting operations that touch
// more than one repository and therefore need the single outer transaction
// the repositories themselves never open: project soft-delete, TM
// assignment-state transitions, and thin atomic wrappers over the
// already-transactional cross-project move/copy operations. Every function
// here composes storage.Storage methods only — none of it is backend
// specific.
package orchestrate

import (
	"context"

	"github.com/ldm-sh/ldm/internal/storage"
	"github.com/ldm-sh/ldm/internal/trash"
	"github.com/ldm-sh/ldm/internal/types"
)

// MoveFileCrossProject verifies the destination, resolves a unique name,
// and updates the file in one transaction on s's backend.
func MoveFileCrossProject(ctx context.Context, s storage.Storage, fileID, targetProject int64, targetFolder *int64) error {
	return s.WithTx(ctx, func(ctx context.Context, tx storage.Storage) error {
		return tx.Files().MoveCrossProject(ctx, fileID, targetProject, targetFolder)
	})
}

// CopyFolder recursively clones folderID (and everything under it) into the
// destination, allocating all new IDs and refreshing per-file row counts,
// in one transaction.
func CopyFolder(ctx context.Context, s storage.Storage, folderID int64, targetProject, targetParent *int64) (*types.Folder, error) {
	var dest *types.Folder
	err := s.WithTx(ctx, func(ctx context.Context, tx storage.Storage) error {
		d, err := tx.Folders().Copy(ctx, folderID, targetProject, targetParent)
		if err != nil {
			return err
		}
		dest = d
		return nil
	})
	return dest, err
}

// DeleteProject walks every folder, file, and row under project p,
// serializes the whole tree into one trash record, then deletes rows,
// files, folders, and finally the project itself, in that order, inside a
// single transaction.
func DeleteProject(ctx context.Context, s storage.Storage, projectID int64, deletedBy string, retentionDays int) (*types.Trash, error) {
	var record *types.Trash
	err := s.WithTx(ctx, func(ctx context.Context, tx storage.Storage) error {
		proj, err := tx.Projects().Get(ctx, projectID)
		if err != nil {
			return err
		}

		payload, folderIDs, fileIDs, err := serializeProjectTree(ctx, tx, projectID)
		if err != nil {
			return err
		}

		data, err := trash.MarshalFolder(payload)
		if err != nil {
			return types.Wrap(types.Transient, err, "marshal project trash payload")
		}

		rec, err := tx.Trash().Create(ctx, types.TrashProject, projectID, proj.Name, string(data), deletedBy, nil, nil, retentionDays)
		if err != nil {
			return err
		}

		// Delete bottom-up: rows were already captured in the payload via
		// GetRowsForExport, so dropping the files cascades nothing further to
		// capture; folders and the project come last.
		for _, fileID := range fileIDs {
			if _, err := tx.Files().Delete(ctx, fileID); err != nil {
				return err
			}
		}
		// Deepest folders first so parent-before-child deletion never trips a
		// foreign key still pointing at a child.
		for i := len(folderIDs) - 1; i >= 0; i-- {
			if _, err := tx.Folders().Delete(ctx, folderIDs[i]); err != nil {
				return err
			}
		}
		if _, err := tx.Projects().Delete(ctx, projectID); err != nil {
			return err
		}

		record = rec
		return nil
	})
	return record, err
}

// serializeProjectTree walks the project's root contents and every folder
// beneath them with an explicit work stack (never recursing in Go call
// frames, matching trash.SerializeFolder's discipline), building the
// project-rooted payload alongside the flat lists of folder and file IDs
// the caller needs to delete afterward.
func serializeProjectTree(ctx context.Context, s storage.Storage, projectID int64) (*trash.FolderPayload, []int64, []int64, error) {
	root, err := s.Projects().GetContents(ctx, projectID)
	if err != nil {
		return nil, nil, nil, err
	}

	rootFiles, err := loadFilePayloads(ctx, s, root.Files)
	if err != nil {
		return nil, nil, nil, err
	}

	var folderIDs, fileIDs []int64
	for _, f := range root.Files {
		fileIDs = append(fileIDs, f.ID)
	}

	payload := &trash.FolderPayload{Files: rootFiles}
	subPayloads := make([]trash.FolderPayload, len(root.Subfolders))
	payload.Subfolders = subPayloads

	type workItem struct {
		folderID int64
		target   *trash.FolderPayload
	}
	var stack []workItem
	for i, sub := range root.Subfolders {
		folderIDs = append(folderIDs, sub.ID)
		stack = append(stack, workItem{folderID: sub.ID, target: &subPayloads[i]})
	}

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		folder, contents, err := s.Folders().GetWithContents(ctx, item.folderID)
		if err != nil {
			return nil, nil, nil, err
		}
		filePayloads, err := loadFilePayloads(ctx, s, contents.Files)
		if err != nil {
			return nil, nil, nil, err
		}
		item.target.Folder = *folder
		item.target.Files = filePayloads

		for _, f := range contents.Files {
			fileIDs = append(fileIDs, f.ID)
		}
		if len(contents.Subfolders) > 0 {
			children := make([]trash.FolderPayload, len(contents.Subfolders))
			item.target.Subfolders = children
			for i, sub := range contents.Subfolders {
				folderIDs = append(folderIDs, sub.ID)
				stack = append(stack, workItem{folderID: sub.ID, target: &children[i]})
			}
		}
	}

	return payload, folderIDs, fileIDs, nil
}

func loadFilePayloads(ctx context.Context, s storage.Storage, files []types.File) ([]trash.FilePayload, error) {
	if len(files) == 0 {
		return nil, nil
	}
	out := make([]trash.FilePayload, 0, len(files))
	for _, f := range files {
		rows, err := s.Files().GetRowsForExport(ctx, f.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, trash.FilePayload{File: f, Rows: rows})
	}
	return out, nil
}

// AssignAndActivateTM runs the two legal forward transitions of the TM
// assignment state machine {unassigned, assigned-inactive, assigned-active}
// as one atomic step: assign creates the assigned-inactive link, activate
// then moves it to assigned-active. Activating a TM that was never assigned
// is rejected by Activate itself (InvalidScope), preserving the invariant
// that activate is never reachable directly from unassigned.
func AssignAndActivateTM(ctx context.Context, s storage.Storage, tmID int64, scope types.Scope) error {
	return s.WithTx(ctx, func(ctx context.Context, tx storage.Storage) error {
		if err := tx.TMs().Assign(ctx, tmID, scope); err != nil {
			return err
		}
		return tx.TMs().Activate(ctx, tmID)
	})
}
