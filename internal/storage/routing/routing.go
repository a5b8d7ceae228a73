// Package routing implements the ID-sign dispatch layer that lets a single
// session address both server-owned rows (positive IDs) and
// locally-allocated offline rows (negative IDs) through one RowRepository
// and one FileRepository, without any other component branching on sign.
package routing

import (
	"context"

	"github.com/ldm-sh/ldm/internal/storage"
	"github.com/ldm-sh/ldm/internal/types"
)

// Rows wraps a primary RowRepository (Online, or Server-SQLite fallback)
// and an Offline RowRepository, dispatching each call by the sign of the
// relevant ID. Negative IDs always go to offline; non-negative IDs always
// go to primary.
type Rows struct {
	Primary storage.RowRepository
	Offline storage.RowRepository
}

var _ storage.RowRepository = (*Rows)(nil)

func (r *Rows) pick(id int64) storage.RowRepository {
	if id < 0 {
		return r.Offline
	}
	return r.Primary
}

func (r *Rows) Get(ctx context.Context, id int64) (*types.Row, error) {
	return r.pick(id).Get(ctx, id)
}

func (r *Rows) GetWithFile(ctx context.Context, id int64) (*types.Row, *types.File, error) {
	return r.pick(id).GetWithFile(ctx, id)
}

func (r *Rows) Create(ctx context.Context, row types.Row) (*types.Row, error) {
	return r.pick(row.FileID).Create(ctx, row)
}

func (r *Rows) Update(ctx context.Context, id int64, upd types.RowUpdate) (*types.Row, error) {
	return r.pick(id).Update(ctx, id, upd)
}

func (r *Rows) Delete(ctx context.Context, id int64) (bool, error) {
	return r.pick(id).Delete(ctx, id)
}

func (r *Rows) BulkCreate(ctx context.Context, fileID int64, rows []types.Row) ([]types.Row, error) {
	return r.pick(fileID).BulkCreate(ctx, fileID, rows)
}

// BulkUpdate partitions updates by the sign of each entry's RowID and fans
// out to both adapters, summing the returned counts.
func (r *Rows) BulkUpdate(ctx context.Context, updates []types.BulkRowUpdate) (int, error) {
	var primaryBatch, offlineBatch []types.BulkRowUpdate
	for _, u := range updates {
		if u.ID < 0 {
			offlineBatch = append(offlineBatch, u)
		} else {
			primaryBatch = append(primaryBatch, u)
		}
	}

	total := 0
	if len(primaryBatch) > 0 {
		n, err := r.Primary.BulkUpdate(ctx, primaryBatch)
		if err != nil {
			return total, err
		}
		total += n
	}
	if len(offlineBatch) > 0 {
		n, err := r.Offline.BulkUpdate(ctx, offlineBatch)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (r *Rows) GetForFile(ctx context.Context, fileID int64, filter types.RowFilter) ([]types.Row, int, error) {
	return r.pick(fileID).GetForFile(ctx, fileID, filter)
}

func (r *Rows) CountForFile(ctx context.Context, fileID int64) (int, error) {
	return r.pick(fileID).CountForFile(ctx, fileID)
}

func (r *Rows) AddEditHistory(ctx context.Context, entry types.EditHistoryEntry) error {
	return r.pick(entry.RowID).AddEditHistory(ctx, entry)
}

func (r *Rows) GetEditHistory(ctx context.Context, rowID int64) ([]types.EditHistoryEntry, error) {
	return r.pick(rowID).GetEditHistory(ctx, rowID)
}

// SuggestSimilar respects the same fileID split; a negative fileID always
// returns empty since the offline adapter never synthesizes matches.
func (r *Rows) SuggestSimilar(ctx context.Context, source string, fileID, projectID *int64, excludeRowID *int64, threshold float64, maxResults int) ([]types.TMSearchHit, error) {
	if fileID != nil && *fileID < 0 {
		return r.Offline.SuggestSimilar(ctx, source, fileID, projectID, excludeRowID, threshold, maxResults)
	}
	return r.Primary.SuggestSimilar(ctx, source, fileID, projectID, excludeRowID, threshold, maxResults)
}

// Files wraps a primary FileRepository and an Offline FileRepository,
// dispatching by the sign of the relevant file or folder ID.
type Files struct {
	Primary storage.FileRepository
	Offline storage.FileRepository
}

var _ storage.FileRepository = (*Files)(nil)

func (f *Files) pick(id int64) storage.FileRepository {
	if id < 0 {
		return f.Offline
	}
	return f.Primary
}

func (f *Files) Get(ctx context.Context, id int64) (*types.File, error) {
	return f.pick(id).Get(ctx, id)
}

func (f *Files) Create(ctx context.Context, file types.File) (*types.File, error) {
	return f.pick(file.ProjectID).Create(ctx, file)
}

func (f *Files) Rename(ctx context.Context, id int64, name string) (*types.File, error) {
	return f.pick(id).Rename(ctx, id, name)
}

func (f *Files) Delete(ctx context.Context, id int64) (bool, error) {
	return f.pick(id).Delete(ctx, id)
}

func (f *Files) Move(ctx context.Context, fileID int64, folderID *int64) error {
	return f.pick(fileID).Move(ctx, fileID, folderID)
}

// MoveCrossProject only runs within a single adapter: moving a file across
// the online/offline boundary is not a supported operation — callers move
// data by exporting and re-importing instead.
func (f *Files) MoveCrossProject(ctx context.Context, fileID, targetProject int64, targetFolder *int64) error {
	return f.pick(fileID).MoveCrossProject(ctx, fileID, targetProject, targetFolder)
}

func (f *Files) Copy(ctx context.Context, fileID int64, targetProject *int64, targetFolder *int64) (*types.File, error) {
	return f.pick(fileID).Copy(ctx, fileID, targetProject, targetFolder)
}

func (f *Files) CheckNameExists(ctx context.Context, projectID int64, folderID *int64, name string, excludeID *int64) (bool, error) {
	return f.pick(projectID).CheckNameExists(ctx, projectID, folderID, name, excludeID)
}

func (f *Files) GetRows(ctx context.Context, fileID int64) ([]types.Row, error) {
	return f.pick(fileID).GetRows(ctx, fileID)
}

func (f *Files) AddRows(ctx context.Context, fileID int64, rows []types.Row) ([]types.Row, error) {
	return f.pick(fileID).AddRows(ctx, fileID, rows)
}

func (f *Files) GetRowsForExport(ctx context.Context, fileID int64) ([]types.Row, error) {
	return f.pick(fileID).GetRowsForExport(ctx, fileID)
}

func (f *Files) UpdateRowCount(ctx context.Context, fileID int64) (int, error) {
	return f.pick(fileID).UpdateRowCount(ctx, fileID)
}
