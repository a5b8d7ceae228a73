package sqlengine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ldm-sh/ldm/internal/events"
	"github.com/ldm-sh/ldm/internal/schema"
	"github.com/ldm-sh/ldm/internal/trash"
	"github.com/ldm-sh/ldm/internal/types"
)

type trashRepo struct{ e *Engine }

func (r trashRepo) table() string { return r.e.binder.Table(schema.TableTrash) }

const trashCols = `id, item_type, item_id, item_name, item_data, parent_project_id, parent_folder_id, deleted_by, deleted_at, expires_at, status`

func (r trashRepo) scan(scanner interface{ Scan(...interface{}) error }) (*types.Trash, error) {
	var t types.Trash
	var parentProjectID, parentFolderID sql.NullInt64
	if err := scanner.Scan(&t.ID, &t.ItemType, &t.ItemID, &t.ItemName, &t.ItemData, &parentProjectID, &parentFolderID, &t.DeletedBy, &t.DeletedAt, &t.ExpiresAt, &t.Status); err != nil {
		return nil, wrapNotFound(err)
	}
	if parentProjectID.Valid {
		t.ParentProjectID = &parentProjectID.Int64
	}
	if parentFolderID.Valid {
		t.ParentFolderID = &parentFolderID.Int64
	}
	return &t, nil
}

func (r trashRepo) Get(ctx context.Context, id int64) (*types.Trash, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, trashCols, r.table())
	return r.scan(r.e.exec.QueryRowContext(ctx, q, id))
}

func (r trashRepo) GetForUser(ctx context.Context, userID string) ([]types.Trash, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE deleted_by = ? AND status = ? ORDER BY deleted_at DESC`, trashCols, r.table())
	return r.list(ctx, q, userID, string(types.TrashStatusTrashed))
}

func (r trashRepo) GetExpired(ctx context.Context) ([]types.Trash, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE status = ? AND expires_at < ?`, trashCols, r.table())
	return r.list(ctx, q, string(types.TrashStatusTrashed), time.Now().UTC())
}

func (r trashRepo) list(ctx context.Context, q string, args ...interface{}) ([]types.Trash, error) {
	rows, err := r.e.exec.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, types.Wrap(types.Transient, err, "list trash")
	}
	defer rows.Close()
	var out []types.Trash
	for rows.Next() {
		t, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r trashRepo) Create(ctx context.Context, itemType types.TrashItemType, itemID int64, itemName, itemData, deletedBy string, parentProjectID, parentFolderID *int64, retentionDays int) (*types.Trash, error) {
	if retentionDays <= 0 {
		retentionDays = trash.DefaultRetentionDays
	}
	now := time.Now().UTC()
	expires := now.AddDate(0, 0, retentionDays)

	id, err := insertReturningID(ctx, r.e, r.table(),
		[]string{"item_type", "item_id", "item_name", "item_data", "parent_project_id", "parent_folder_id", "deleted_by", "deleted_at", "expires_at", "status"},
		[]interface{}{string(itemType), itemID, itemName, itemData, parentProjectID, parentFolderID, deletedBy, now, expires, string(types.TrashStatusTrashed)})
	if err != nil {
		return nil, err
	}
	t, err := r.Get(ctx, id)
	if err == nil {
		r.e.emit(ctx, events.KindCompleted, "trash.create", map[string]interface{}{"trash_id": id, "item_type": itemType, "item_id": itemID})
	}
	return t, err
}

// Restore decodes the stored payload and replays it through the entity
// repositories in the documented bottom-up order (folder -> files -> rows,
// then subfolders). Only the owner or an admin may restore.
func (r trashRepo) Restore(ctx context.Context, trashID int64, userID string, isAdmin bool) (*types.Trash, error) {
	t, err := r.Get(ctx, trashID)
	if err != nil {
		return nil, err
	}
	if t.DeletedBy != userID && !isAdmin {
		return nil, types.NewError(types.PermissionDenied, "only the deleting user or an admin may restore this item", "trash_id", trashID)
	}
	if t.Status != types.TrashStatusTrashed {
		return nil, types.NewError(types.IntegrityViolation, "trash item is not in a restorable state", "trash_id", trashID)
	}

	ins := dbInserter{e: r.e}
	switch t.ItemType {
	case types.TrashFolder, types.TrashProject:
		payload, err := trash.UnmarshalFolder([]byte(t.ItemData))
		if err != nil {
			return nil, types.Wrap(types.IntegrityViolation, err, "decode trash payload")
		}
		if err := trash.Restore(payload, ins); err != nil {
			return nil, types.Wrap(types.Transient, err, "restore folder subtree")
		}
	case types.TrashFile, types.TrashLocalFile:
		payload, err := trash.UnmarshalFile([]byte(t.ItemData))
		if err != nil {
			return nil, types.Wrap(types.IntegrityViolation, err, "decode trash payload")
		}
		if err := trash.RestoreFile(payload, ins); err != nil {
			return nil, types.Wrap(types.Transient, err, "restore file")
		}
	default:
		return nil, types.NewError(types.IntegrityViolation, "unsupported trash item type for restore", "item_type", t.ItemType)
	}

	q := fmt.Sprintf(`UPDATE %s SET status = ? WHERE id = ?`, r.table())
	if _, err := r.e.exec.ExecContext(ctx, q, string(types.TrashStatusRestored), trashID); err != nil {
		return nil, types.Wrap(types.Transient, err, "mark trash restored")
	}
	r.e.emit(ctx, events.KindCompleted, "trash.restore", map[string]interface{}{"trash_id": trashID})
	return r.Get(ctx, trashID)
}

func (r trashRepo) PermanentDelete(ctx context.Context, trashID int64, userID string, isAdmin bool) (bool, error) {
	t, err := r.Get(ctx, trashID)
	if err != nil {
		return false, err
	}
	if t.DeletedBy != userID && !isAdmin {
		return false, types.NewError(types.PermissionDenied, "only the deleting user or an admin may permanently delete this item", "trash_id", trashID)
	}
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.table())
	res, err := r.e.exec.ExecContext(ctx, q, trashID)
	if err != nil {
		return false, types.Wrap(types.Transient, err, "permanently delete trash item")
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r trashRepo) EmptyForUser(ctx context.Context, userID string) (int, error) {
	q := fmt.Sprintf(`DELETE FROM %s WHERE deleted_by = ? AND status = ?`, r.table())
	res, err := r.e.exec.ExecContext(ctx, q, userID, string(types.TrashStatusTrashed))
	if err != nil {
		return 0, types.Wrap(types.Transient, err, "empty trash for user")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r trashRepo) CleanupExpired(ctx context.Context) (int, error) {
	q := fmt.Sprintf(`DELETE FROM %s WHERE status = ? AND expires_at < ?`, r.table())
	res, err := r.e.exec.ExecContext(ctx, q, string(types.TrashStatusTrashed), time.Now().UTC())
	if err != nil {
		return 0, types.Wrap(types.Transient, err, "cleanup expired trash")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r trashRepo) CountForUser(ctx context.Context, userID string) (int, error) {
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE deleted_by = ? AND status = ?`, r.table())
	var n int
	if err := r.e.exec.QueryRowContext(ctx, q, userID, string(types.TrashStatusTrashed)).Scan(&n); err != nil {
		return 0, types.Wrap(types.Transient, err, "count trash for user")
	}
	return n, nil
}

// dbInserter implements trash.Inserter directly against the entity tables,
// preserving original IDs so cross-references inside a restored subtree
// keep resolving.
type dbInserter struct{ e *Engine }

func (d dbInserter) InsertFolder(f types.Folder) error {
	table := d.e.binder.Table(schema.TableFolders)
	q := fmt.Sprintf(`INSERT INTO %s (id, project_id, parent_id, name, created_at) VALUES (?, ?, ?, ?, ?)`, table)
	_, err := d.e.exec.ExecContext(context.Background(), q, f.ID, f.ProjectID, f.ParentID, f.Name, f.CreatedAt)
	return err
}

func (d dbInserter) InsertFile(f types.File) error {
	cols := append([]string{}, fileBaseCols...)
	vals := []interface{}{f.ID, f.ProjectID, f.FolderID, f.Name, f.OriginalFilename, f.Format, f.RowCount, f.SourceLanguage, f.TargetLanguage, f.ExtraData, f.CreatedAt}
	if fileRepo{d.e}.hasOfflineCols() {
		cols = append(cols, fileOfflineCols...)
		vals = append(vals, string(f.SyncStatus), f.ServerID, f.ServerProjectID, f.ServerFolderID, f.DownloadedAt)
	}
	table := d.e.binder.Table(schema.TableFiles)
	placeholders := ""
	for i := range cols {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
	}
	q := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, table, joinCols(cols), placeholders)
	_, err := d.e.exec.ExecContext(context.Background(), q, vals...)
	return err
}

func (d dbInserter) InsertRows(rows []types.Row) error {
	table := d.e.binder.Table(schema.TableRows)
	for _, row := range rows {
		cols := append([]string{}, rowBaseCols...)
		vals := []interface{}{row.ID, row.FileID, row.RowNum, row.StringID, row.Source, row.Target, row.Memo, string(row.Status), row.QAFlagCount, row.ExtraData, row.UpdatedAt, row.UpdatedBy}
		if rowRepo{d.e}.hasOfflineCols() {
			cols = append(cols, rowOfflineCols...)
			vals = append(vals, string(row.SyncStatus), row.ServerID, row.ServerFileID)
		}
		placeholders := ""
		for i := range cols {
			if i > 0 {
				placeholders += ", "
			}
			placeholders += "?"
		}
		q := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, table, joinCols(cols), placeholders)
		if _, err := d.e.exec.ExecContext(context.Background(), q, vals...); err != nil {
			return err
		}
	}
	return nil
}
