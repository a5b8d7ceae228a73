package sqlengine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ldm-sh/ldm/internal/events"
	"github.com/ldm-sh/ldm/internal/schema"
	"github.com/ldm-sh/ldm/internal/types"
)

type rowRepo struct{ e *Engine }

func (r rowRepo) table() string { return r.e.binder.Table(schema.TableRows) }

var rowBaseCols = []string{
	"id", "file_id", "row_num", "string_id", "source", "target",
	"memo", "status", "qa_flag_count", "extra_data", "updated_at", "updated_by",
}

var rowOfflineCols = []string{"sync_status", "server_id", "server_file_id"}

func (r rowRepo) hasOfflineCols() bool {
	return r.e.binder.HasColumn(schema.TableRows, "sync_status")
}

func (r rowRepo) columns() []string {
	if r.hasOfflineCols() {
		return append(append([]string{}, rowBaseCols...), rowOfflineCols...)
	}
	return rowBaseCols
}

func (r rowRepo) scan(scanner interface{ Scan(...interface{}) error }) (*types.Row, error) {
	var row types.Row
	var stringID, target, memo, extra, updatedBy sql.NullString
	dest := []interface{}{&row.ID, &row.FileID, &row.RowNum, &stringID, &row.Source, &target, &memo, &row.Status, &row.QAFlagCount, &extra, &row.UpdatedAt, &updatedBy}

	var syncStatus sql.NullString
	var serverID, serverFileID sql.NullInt64
	if r.hasOfflineCols() {
		dest = append(dest, &syncStatus, &serverID, &serverFileID)
	}

	if err := scanner.Scan(dest...); err != nil {
		return nil, wrapNotFound(err)
	}

	row.StringID = stringID.String
	row.Target = target.String
	row.Memo = memo.String
	row.ExtraData = extra.String
	row.UpdatedBy = updatedBy.String

	if r.hasOfflineCols() {
		if syncStatus.Valid {
			row.SyncStatus = types.SyncStatus(syncStatus.String)
		}
		if serverID.Valid {
			row.ServerID = &serverID.Int64
		}
		if serverFileID.Valid {
			row.ServerFileID = &serverFileID.Int64
		}
	}
	return &row, nil
}

func (r rowRepo) Get(ctx context.Context, id int64) (*types.Row, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, strings.Join(r.columns(), ", "), r.table())
	return r.scan(r.e.exec.QueryRowContext(ctx, q, id))
}

func (r rowRepo) GetWithFile(ctx context.Context, id int64) (*types.Row, *types.File, error) {
	row, err := r.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	f, err := fileRepo{r.e}.Get(ctx, row.FileID)
	if err != nil {
		return nil, nil, err
	}
	return row, f, nil
}

func (r rowRepo) Create(ctx context.Context, row types.Row) (*types.Row, error) {
	created, err := r.BulkCreate(ctx, row.FileID, []types.Row{row})
	if err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, types.NewError(types.Transient, "row insert returned no rows", "file_id", row.FileID)
	}
	return &created[0], nil
}

func (r rowRepo) BulkCreate(ctx context.Context, fileID int64, rows []types.Row) ([]types.Row, error) {
	out := make([]types.Row, 0, len(rows))
	for _, row := range rows {
		status := row.Status
		if status == "" {
			status = types.RowPending
		}
		cols := []string{"file_id", "row_num", "string_id", "source", "target", "memo", "status", "extra_data", "updated_at", "updated_by"}
		vals := []interface{}{fileID, row.RowNum, row.StringID, row.Source, row.Target, row.Memo, string(status), row.ExtraData, time.Now().UTC(), row.UpdatedBy}
		if r.hasOfflineCols() {
			rowStatus := row.SyncStatus
			if rowStatus == "" {
				rowStatus = types.SyncNew
			}
			cols = append(cols, "sync_status")
			vals = append(vals, string(rowStatus))
		}
		id, err := insertReturningID(ctx, r.e, r.table(), cols, vals)
		if err != nil {
			return nil, err
		}
		created, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *created)
	}
	return out, nil
}

func (r rowRepo) listForFile(ctx context.Context, fileID int64) ([]types.Row, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE file_id = ? ORDER BY row_num`, strings.Join(r.columns(), ", "), r.table())
	rows, err := r.e.exec.QueryContext(ctx, q, fileID)
	if err != nil {
		return nil, types.Wrap(types.Transient, err, "list rows for file")
	}
	defer rows.Close()
	var out []types.Row
	for rows.Next() {
		row, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *row)
	}
	return out, rows.Err()
}

// Update applies the present fields of upd. When Target is set and Status is
// left nil while the row is still pending, the status auto-advances to
// translated; callers that want a different status set it explicitly.
//
// In offline mode, an update that actually changes a field on a row whose
// sync_status is not local marks the row modified and journals the old and
// new value of every changed field into local_changes, so the next sync can
// reconcile it. Online rows carry no sync_status column and never journal.
func (r rowRepo) Update(ctx context.Context, id int64, upd types.RowUpdate) (*types.Row, error) {
	updated, _, err := r.applyUpdate(ctx, id, upd)
	return updated, err
}

type rowFieldChange struct {
	field    string
	oldValue string
	newValue string
}

// applyUpdate returns the row (new or unchanged), whether any field actually
// changed, and an error. BulkUpdate needs the changed flag to report "rows
// whose field values actually changed" rather than every row it touched.
func (r rowRepo) applyUpdate(ctx context.Context, id int64, upd types.RowUpdate) (*types.Row, bool, error) {
	existing, err := r.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}

	var sets []string
	var args []interface{}
	var changes []rowFieldChange

	if upd.Target != nil && *upd.Target != existing.Target {
		sets = append(sets, "target = ?")
		args = append(args, *upd.Target)
		changes = append(changes, rowFieldChange{"target", existing.Target, *upd.Target})
	}

	status := upd.Status
	if status == nil && upd.Target != nil && existing.Status == types.RowPending {
		advanced := types.RowTranslated
		status = &advanced
	}
	if status != nil && *status != existing.Status {
		sets = append(sets, "status = ?")
		args = append(args, string(*status))
		changes = append(changes, rowFieldChange{"status", string(existing.Status), string(*status)})
	}

	if len(sets) == 0 {
		return existing, false, nil
	}

	offlineEdit := r.hasOfflineCols() && existing.SyncStatus != types.SyncLocal
	if offlineEdit {
		sets = append(sets, "sync_status = ?")
		args = append(args, string(types.SyncModified))
	}

	sets = append(sets, "updated_at = ?", "updated_by = ?")
	args = append(args, time.Now().UTC(), upd.UpdatedBy)
	args = append(args, id)

	q := fmt.Sprintf(`UPDATE %s SET %s WHERE id = ?`, r.table(), strings.Join(sets, ", "))
	if _, err := r.e.exec.ExecContext(ctx, q, args...); err != nil {
		return nil, false, types.Wrap(types.Transient, err, "update row")
	}

	if offlineEdit {
		changedAt := time.Now().UTC().Format(time.RFC3339)
		for _, c := range changes {
			_ = r.AddEditHistory(ctx, types.EditHistoryEntry{
				RowID: id, Field: c.field, OldValue: c.oldValue, NewValue: c.newValue,
				ChangedAt: changedAt, ChangedBy: upd.UpdatedBy,
			})
		}
	}

	updated, err := r.Get(ctx, id)
	if err == nil {
		r.e.emit(ctx, events.KindCellUpdated, "row.update", map[string]interface{}{"row_id": id})
	}
	return updated, true, err
}

func (r rowRepo) BulkUpdate(ctx context.Context, updates []types.BulkRowUpdate) (int, error) {
	n := 0
	for _, u := range updates {
		_, changed, err := r.applyUpdate(ctx, u.ID, u.Update)
		if err != nil {
			return n, err
		}
		if changed {
			n++
		}
	}
	return n, nil
}

func (r rowRepo) Delete(ctx context.Context, id int64) (bool, error) {
	row, err := r.Get(ctx, id)
	if err != nil {
		return false, err
	}
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.table())
	res, err := r.e.exec.ExecContext(ctx, q, id)
	if err != nil {
		return false, types.Wrap(types.Transient, err, "delete row")
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		_, _ = fileRepo{r.e}.UpdateRowCount(ctx, row.FileID)
	}
	return n > 0, nil
}

func (r rowRepo) CountForFile(ctx context.Context, fileID int64) (int, error) {
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE file_id = ?`, r.table())
	var n int
	if err := r.e.exec.QueryRowContext(ctx, q, fileID).Scan(&n); err != nil {
		return 0, types.Wrap(types.Transient, err, "count rows for file")
	}
	return n, nil
}

func (r rowRepo) GetForFile(ctx context.Context, fileID int64, filter types.RowFilter) ([]types.Row, int, error) {
	where := []string{"file_id = ?"}
	args := []interface{}{fileID}

	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*filter.Status))
	}
	switch filter.FilterType {
	case types.RowFilterConfirmed:
		where = append(where, fmt.Sprintf("status IN ('%s', '%s')", types.RowReviewed, types.RowApproved))
	case types.RowFilterUnconfirmed:
		where = append(where, fmt.Sprintf("status IN ('%s', '%s')", types.RowPending, types.RowTranslated))
	case types.RowFilterQAFlagged:
		where = append(where, "qa_flag_count > 0")
	}

	if filter.Search != "" {
		fields := filter.SearchFields
		if len(fields) == 0 {
			fields = []types.SearchField{types.SearchFieldSource, types.SearchFieldTarget}
		}
		var clauses []string
		for _, f := range fields {
			col := searchColumn(f)
			switch filter.SearchMode {
			case types.SearchExact:
				clauses = append(clauses, col+" = ?")
				args = append(args, filter.Search)
			case types.SearchNotContain:
				clauses = append(clauses, col+" NOT LIKE ?")
				args = append(args, "%"+filter.Search+"%")
			default: // contain, fuzzy (fuzzy degrades to contain in the shared engine)
				clauses = append(clauses, col+" LIKE ?")
				args = append(args, "%"+filter.Search+"%")
			}
		}
		where = append(where, "("+strings.Join(clauses, " OR ")+")")
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQ := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, r.table(), whereClause)
	if err := r.e.exec.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, types.Wrap(types.Transient, err, "count filtered rows")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Page * limit
	if filter.Page < 0 {
		offset = 0
	}

	q := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY row_num LIMIT ? OFFSET ?`, strings.Join(r.columns(), ", "), r.table(), whereClause)
	queryArgs := append(append([]interface{}{}, args...), limit, offset)
	rows, err := r.e.exec.QueryContext(ctx, q, queryArgs...)
	if err != nil {
		return nil, 0, types.Wrap(types.Transient, err, "list filtered rows")
	}
	defer rows.Close()

	var out []types.Row
	for rows.Next() {
		row, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *row)
	}
	return out, total, rows.Err()
}

func searchColumn(f types.SearchField) string {
	switch f {
	case types.SearchFieldStringID:
		return "string_id"
	case types.SearchFieldTarget:
		return "target"
	default:
		return "source"
	}
}

func (r rowRepo) AddEditHistory(ctx context.Context, entry types.EditHistoryEntry) error {
	table := r.e.binder.Table(schema.TableLocalChanges)
	q := fmt.Sprintf(`INSERT INTO %s (entity_kind, entity_id, field, old_value, new_value, changed_at, sync_status) VALUES ('row', ?, ?, ?, ?, ?, ?)`, table)
	_, err := r.e.exec.ExecContext(ctx, q, entry.RowID, entry.Field, entry.OldValue, entry.NewValue, entry.ChangedAt, string(types.LocalChangePending))
	if err != nil {
		return types.Wrap(types.Transient, err, "record edit history")
	}
	return nil
}

func (r rowRepo) GetEditHistory(ctx context.Context, rowID int64) ([]types.EditHistoryEntry, error) {
	table := r.e.binder.Table(schema.TableLocalChanges)
	q := fmt.Sprintf(`SELECT entity_id, field, old_value, new_value, changed_at FROM %s WHERE entity_kind = 'row' AND entity_id = ? ORDER BY changed_at DESC`, table)
	rows, err := r.e.exec.QueryContext(ctx, q, rowID)
	if err != nil {
		return nil, types.Wrap(types.Transient, err, "list edit history")
	}
	defer rows.Close()
	var out []types.EditHistoryEntry
	for rows.Next() {
		var e types.EditHistoryEntry
		if err := rows.Scan(&e.RowID, &e.Field, &e.OldValue, &e.NewValue, &e.ChangedAt); err != nil {
			return nil, types.Wrap(types.Transient, err, "scan edit history")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SuggestSimilar is a stub in the shared engine: genuine trigram scoring is
// only wired in by the online adapter, which overrides RowRepository with a
// decorator before handing it to callers. The offline backend's repository
// uses this implementation directly and always returns no suggestions.
func (r rowRepo) SuggestSimilar(ctx context.Context, source string, fileID, projectID *int64, excludeRowID *int64, threshold float64, maxResults int) ([]types.TMSearchHit, error) {
	return nil, nil
}
