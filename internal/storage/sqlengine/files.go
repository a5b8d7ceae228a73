package sqlengine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ldm-sh/ldm/internal/events"
	"github.com/ldm-sh/ldm/internal/naming"
	"github.com/ldm-sh/ldm/internal/schema"
	"github.com/ldm-sh/ldm/internal/types"
)

type fileRepo struct{ e *Engine }

func (r fileRepo) table() string { return r.e.binder.Table(schema.TableFiles) }

var fileBaseCols = []string{
	"id", "project_id", "folder_id", "name", "original_filename",
	"format", "row_count", "source_language", "target_language",
	"extra_data", "created_at",
}

var fileOfflineCols = []string{"sync_status", "server_id", "server_project_id", "server_folder_id", "downloaded_at"}

func (r fileRepo) hasOfflineCols() bool {
	return r.e.binder.HasColumn(schema.TableFiles, "sync_status")
}

func (r fileRepo) columns() []string {
	if r.hasOfflineCols() {
		return append(append([]string{}, fileBaseCols...), fileOfflineCols...)
	}
	return fileBaseCols
}

func (r fileRepo) scan(scanner interface{ Scan(...interface{}) error }) (*types.File, error) {
	var f types.File
	var folderID sql.NullInt64
	var original, target, extra sql.NullString
	dest := []interface{}{&f.ID, &f.ProjectID, &folderID, &f.Name, &original, &f.Format, &f.RowCount, &f.SourceLanguage, &target, &extra, &f.CreatedAt}

	var syncStatus sql.NullString
	var serverID, serverProjectID, serverFolderID sql.NullInt64
	var downloadedAt sql.NullTime
	if r.hasOfflineCols() {
		dest = append(dest, &syncStatus, &serverID, &serverProjectID, &serverFolderID, &downloadedAt)
	}

	if err := scanner.Scan(dest...); err != nil {
		return nil, wrapNotFound(err)
	}

	if folderID.Valid {
		f.FolderID = &folderID.Int64
	}
	f.OriginalFilename = original.String
	f.TargetLanguage = target.String
	f.ExtraData = extra.String

	if r.hasOfflineCols() {
		if syncStatus.Valid {
			f.SyncStatus = types.SyncStatus(syncStatus.String)
		}
		if serverID.Valid {
			f.ServerID = &serverID.Int64
		}
		if serverProjectID.Valid {
			f.ServerProjectID = &serverProjectID.Int64
		}
		if serverFolderID.Valid {
			f.ServerFolderID = &serverFolderID.Int64
		}
		if downloadedAt.Valid {
			f.DownloadedAt = &downloadedAt.Time
		}
	}
	return &f, nil
}

func (r fileRepo) Get(ctx context.Context, id int64) (*types.File, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, strings.Join(r.columns(), ", "), r.table())
	return r.scan(r.e.exec.QueryRowContext(ctx, q, id))
}

func (r fileRepo) CheckNameExists(ctx context.Context, projectID int64, folderID *int64, name string, excludeID *int64) (bool, error) {
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE project_id = ? AND LOWER(name) = LOWER(?)`, r.table())
	args := []interface{}{projectID, name}
	if folderID != nil {
		q += ` AND folder_id = ?`
		args = append(args, *folderID)
	} else {
		q += ` AND folder_id IS NULL`
	}
	if excludeID != nil {
		q += ` AND id <> ?`
		args = append(args, *excludeID)
	}
	var n int
	if err := r.e.exec.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return false, types.Wrap(types.Transient, err, "check file name")
	}
	return n > 0, nil
}

func (r fileRepo) Create(ctx context.Context, f types.File) (*types.File, error) {
	resolved, err := naming.Resolve(f.Name, func(candidate string) (bool, error) {
		return r.CheckNameExists(ctx, f.ProjectID, f.FolderID, candidate, nil)
	})
	if err != nil {
		return nil, types.Wrap(types.Transient, err, "resolve file name")
	}

	cols := []string{"project_id", "folder_id", "name", "original_filename", "format", "source_language", "target_language", "extra_data"}
	vals := []interface{}{f.ProjectID, f.FolderID, resolved, f.OriginalFilename, f.Format, f.SourceLanguage, f.TargetLanguage, f.ExtraData}
	if r.hasOfflineCols() {
		cols = append(cols, "sync_status")
		status := f.SyncStatus
		if status == "" {
			status = types.SyncNew
		}
		vals = append(vals, string(status))
	}

	id, err := insertReturningID(ctx, r.e, r.table(), cols, vals)
	if err != nil {
		return nil, err
	}
	created, err := r.Get(ctx, id)
	if err == nil {
		r.e.emit(ctx, events.KindCompleted, "file.create", map[string]interface{}{"file_id": id, "name": resolved})
	}
	return created, err
}

func (r fileRepo) Rename(ctx context.Context, id int64, name string) (*types.File, error) {
	f, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	exists, err := r.CheckNameExists(ctx, f.ProjectID, f.FolderID, name, &id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, types.NewError(types.NameCollision, "file name already exists", "name", name)
	}
	q := fmt.Sprintf(`UPDATE %s SET name = ? WHERE id = ?`, r.table())
	if _, err := r.e.exec.ExecContext(ctx, q, name, id); err != nil {
		return nil, types.Wrap(types.Transient, err, "rename file")
	}
	return r.Get(ctx, id)
}

func (r fileRepo) Delete(ctx context.Context, id int64) (bool, error) {
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.table())
	res, err := r.e.exec.ExecContext(ctx, q, id)
	if err != nil {
		return false, types.Wrap(types.Transient, err, "delete file")
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r fileRepo) Move(ctx context.Context, fileID int64, folderID *int64) error {
	f, err := r.Get(ctx, fileID)
	if err != nil {
		return err
	}
	if folderID != nil {
		folder, err := folderRepo{r.e}.Get(ctx, *folderID)
		if err != nil {
			return err
		}
		if folder.ProjectID != f.ProjectID {
			return types.NewError(types.InvalidScope, "move target is in a different project; use MoveCrossProject", "file_id", fileID)
		}
	}
	exists, err := r.CheckNameExists(ctx, f.ProjectID, folderID, f.Name, &fileID)
	if err != nil {
		return err
	}
	if exists {
		return types.NewError(types.NameCollision, "a file with this name already exists at the destination", "name", f.Name)
	}
	q := fmt.Sprintf(`UPDATE %s SET folder_id = ? WHERE id = ?`, r.table())
	if _, err := r.e.exec.ExecContext(ctx, q, folderID, fileID); err != nil {
		return types.Wrap(types.Transient, err, "move file")
	}
	return nil
}

// MoveCrossProject verifies the target folder belongs to the target
// project, resolves a collision-safe name at the destination (rather than
// failing on collision, matching Copy's behavior), and updates the file in
// place.
func (r fileRepo) MoveCrossProject(ctx context.Context, fileID, targetProject int64, targetFolder *int64) error {
	if r.e.binder.Mode() == schema.Offline {
		return types.NewError(types.CrossProjectNotSupportedOffline, "cross-project file move requires the online backend", "file_id", fileID)
	}
	f, err := r.Get(ctx, fileID)
	if err != nil {
		return err
	}
	if targetFolder != nil {
		folder, err := folderRepo{r.e}.Get(ctx, *targetFolder)
		if err != nil {
			return err
		}
		if folder.ProjectID != targetProject {
			return types.NewError(types.InvalidScope, "target folder is not in the target project", "file_id", fileID)
		}
	}
	name, err := naming.Resolve(f.Name, func(candidate string) (bool, error) {
		return r.CheckNameExists(ctx, targetProject, targetFolder, candidate, nil)
	})
	if err != nil {
		return types.Wrap(types.Transient, err, "resolve move destination name")
	}
	q := fmt.Sprintf(`UPDATE %s SET project_id = ?, folder_id = ?, name = ? WHERE id = ?`, r.table())
	if _, err := r.e.exec.ExecContext(ctx, q, targetProject, targetFolder, name, fileID); err != nil {
		return types.Wrap(types.Transient, err, "move file cross-project")
	}
	r.e.emit(ctx, events.KindCompleted, "file.move_cross_project", map[string]interface{}{"file_id": fileID, "target_project_id": targetProject})
	return nil
}

func (r fileRepo) Copy(ctx context.Context, fileID int64, targetProject *int64, targetFolder *int64) (*types.File, error) {
	f, err := r.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	return r.copyInto(ctx, *f, derefOrDefault(targetProject, f.ProjectID), targetFolder)
}

// copyInto duplicates a file (and its rows) into a destination project/folder
// with a collision-safe name, used directly by Copy and by FolderRepository.Copy
// when cloning an entire subtree.
func (r fileRepo) copyInto(ctx context.Context, src types.File, destProject int64, destFolder *int64) (*types.File, error) {
	if destProject != src.ProjectID && r.e.binder.Mode() == schema.Offline {
		return nil, types.NewError(types.CrossProjectNotSupportedOffline, "cross-project file copy requires the online backend", "file_id", src.ID)
	}

	name, err := naming.Resolve(src.Name, func(candidate string) (bool, error) {
		return r.CheckNameExists(ctx, destProject, destFolder, candidate, nil)
	})
	if err != nil {
		return nil, types.Wrap(types.Transient, err, "resolve copy destination name")
	}

	copyOf := src
	copyOf.ProjectID = destProject
	copyOf.FolderID = destFolder
	copyOf.Name = name
	dest, err := r.Create(ctx, copyOf)
	if err != nil {
		return nil, err
	}

	rows, err := r.GetRows(ctx, src.ID)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		if _, err := r.AddRows(ctx, dest.ID, rows); err != nil {
			return nil, err
		}
	}
	return r.Get(ctx, dest.ID)
}

func (r fileRepo) GetRows(ctx context.Context, fileID int64) ([]types.Row, error) {
	return rowRepo{r.e}.listForFile(ctx, fileID)
}

func (r fileRepo) AddRows(ctx context.Context, fileID int64, rows []types.Row) ([]types.Row, error) {
	created, err := rowRepo{r.e}.BulkCreate(ctx, fileID, rows)
	if err != nil {
		return nil, err
	}
	if _, err := r.UpdateRowCount(ctx, fileID); err != nil {
		return nil, err
	}
	return created, nil
}

func (r fileRepo) GetRowsForExport(ctx context.Context, fileID int64) ([]types.Row, error) {
	rows, err := rowRepo{r.e}.listForFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r fileRepo) UpdateRowCount(ctx context.Context, fileID int64) (int, error) {
	rowsTable := r.e.binder.Table(schema.TableRows)
	var n int
	countQ := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE file_id = ?`, rowsTable)
	if err := r.e.exec.QueryRowContext(ctx, countQ, fileID).Scan(&n); err != nil {
		return 0, types.Wrap(types.Transient, err, "count rows for file")
	}
	updateQ := fmt.Sprintf(`UPDATE %s SET row_count = ? WHERE id = ?`, r.table())
	if _, err := r.e.exec.ExecContext(ctx, updateQ, n, fileID); err != nil {
		return 0, types.Wrap(types.Transient, err, "update row count")
	}
	return n, nil
}

func derefOrDefault(p *int64, def int64) int64 {
	if p == nil {
		return def
	}
	return *p
}
