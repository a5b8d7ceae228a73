package sqlengine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ldm-sh/ldm/internal/schema"
	"github.com/ldm-sh/ldm/internal/types"
)

type qaRepo struct{ e *Engine }

func (r qaRepo) table() string { return r.e.binder.Table(schema.TableQAResults) }

const qaCols = `id, row_id, file_id, check_type, severity, message, details, created_at, resolved_at, resolved_by`

func (r qaRepo) scan(scanner interface{ Scan(...interface{}) error }) (*types.QAResult, error) {
	var q types.QAResult
	var details, resolvedBy sql.NullString
	var resolvedAt sql.NullTime
	if err := scanner.Scan(&q.ID, &q.RowID, &q.FileID, &q.CheckType, &q.Severity, &q.Message, &details, &q.CreatedAt, &resolvedAt, &resolvedBy); err != nil {
		return nil, wrapNotFound(err)
	}
	q.Details = details.String
	q.ResolvedBy = resolvedBy.String
	if resolvedAt.Valid {
		q.ResolvedAt = &resolvedAt.Time
	}
	return &q, nil
}

func (r qaRepo) Get(ctx context.Context, id int64) (*types.QAResult, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, qaCols, r.table())
	return r.scan(r.e.exec.QueryRowContext(ctx, q, id))
}

func (r qaRepo) queryList(ctx context.Context, where string, args ...interface{}) ([]types.QAResult, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY created_at`, qaCols, r.table(), where)
	rows, err := r.e.exec.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, types.Wrap(types.Transient, err, "list qa results")
	}
	defer rows.Close()
	var out []types.QAResult
	for rows.Next() {
		res, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

func (r qaRepo) GetForRow(ctx context.Context, rowID int64) ([]types.QAResult, error) {
	return r.queryList(ctx, "row_id = ?", rowID)
}

func (r qaRepo) GetForFile(ctx context.Context, fileID int64, filter types.QAFileFilter) ([]types.QAResult, error) {
	where := "file_id = ?"
	args := []interface{}{fileID}
	if filter.CheckType != nil {
		where += " AND check_type = ?"
		args = append(args, string(*filter.CheckType))
	}
	if !filter.IncludeResolved {
		where += " AND resolved_at IS NULL"
	}
	return r.queryList(ctx, where, args...)
}

func (r qaRepo) GetSummary(ctx context.Context, fileID int64) (*types.QASummary, error) {
	results, err := r.GetForFile(ctx, fileID, types.QAFileFilter{IncludeResolved: false})
	if err != nil {
		return nil, err
	}
	summary := &types.QASummary{
		BySeverity:  map[types.QASeverity]int{},
		ByCheckType: map[types.QACheckType]int{},
	}
	for _, res := range results {
		summary.TotalUnresolved++
		summary.BySeverity[res.Severity]++
		summary.ByCheckType[res.CheckType]++
	}
	return summary, nil
}

func (r qaRepo) Create(ctx context.Context, res types.QAResult) (*types.QAResult, error) {
	created, err := r.BulkCreate(ctx, []types.QAResult{res})
	if err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, types.NewError(types.Transient, "qa result insert returned nothing", "row_id", res.RowID)
	}
	return &created[0], nil
}

func (r qaRepo) BulkCreate(ctx context.Context, results []types.QAResult) ([]types.QAResult, error) {
	out := make([]types.QAResult, 0, len(results))
	touched := map[int64]bool{}
	for _, res := range results {
		id, err := insertReturningID(ctx, r.e, r.table(),
			[]string{"row_id", "file_id", "check_type", "severity", "message", "details", "created_at"},
			[]interface{}{res.RowID, res.FileID, string(res.CheckType), string(res.Severity), res.Message, res.Details, time.Now().UTC()})
		if err != nil {
			return nil, err
		}
		created, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *created)
		touched[res.RowID] = true
	}
	for rowID := range touched {
		if _, err := r.UpdateRowQACount(ctx, rowID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r qaRepo) Resolve(ctx context.Context, id int64, resolvedBy string) (*types.QAResult, error) {
	existing, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`UPDATE %s SET resolved_at = ?, resolved_by = ? WHERE id = ?`, r.table())
	if _, err := r.e.exec.ExecContext(ctx, q, time.Now().UTC(), resolvedBy, id); err != nil {
		return nil, types.Wrap(types.Transient, err, "resolve qa result")
	}
	if _, err := r.UpdateRowQACount(ctx, existing.RowID); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r qaRepo) DeleteUnresolvedForRow(ctx context.Context, rowID int64) (int, error) {
	q := fmt.Sprintf(`DELETE FROM %s WHERE row_id = ? AND resolved_at IS NULL`, r.table())
	res, err := r.e.exec.ExecContext(ctx, q, rowID)
	if err != nil {
		return 0, types.Wrap(types.Transient, err, "delete unresolved qa results")
	}
	n, _ := res.RowsAffected()
	if _, err := r.UpdateRowQACount(ctx, rowID); err != nil {
		return int(n), err
	}
	return int(n), nil
}

func (r qaRepo) DeleteForFile(ctx context.Context, fileID int64) (int, error) {
	rowIDs, err := r.distinctRowIDsForFile(ctx, fileID)
	if err != nil {
		return 0, err
	}

	q := fmt.Sprintf(`DELETE FROM %s WHERE file_id = ?`, r.table())
	res, err := r.e.exec.ExecContext(ctx, q, fileID)
	if err != nil {
		return 0, types.Wrap(types.Transient, err, "delete file qa results")
	}
	n, _ := res.RowsAffected()

	for _, rowID := range rowIDs {
		if _, err := r.UpdateRowQACount(ctx, rowID); err != nil {
			return int(n), err
		}
	}
	return int(n), nil
}

func (r qaRepo) distinctRowIDsForFile(ctx context.Context, fileID int64) ([]int64, error) {
	q := fmt.Sprintf(`SELECT DISTINCT row_id FROM %s WHERE file_id = ?`, r.table())
	rows, err := r.e.exec.QueryContext(ctx, q, fileID)
	if err != nil {
		return nil, types.Wrap(types.Transient, err, "list qa result row ids for file")
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, types.Wrap(types.Transient, err, "scan qa result row id")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r qaRepo) CountUnresolvedForRow(ctx context.Context, rowID int64) (int, error) {
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE row_id = ? AND resolved_at IS NULL`, r.table())
	var n int
	if err := r.e.exec.QueryRowContext(ctx, q, rowID).Scan(&n); err != nil {
		return 0, types.Wrap(types.Transient, err, "count unresolved qa results")
	}
	return n, nil
}

// UpdateRowQACount recomputes Row.QAFlagCount directly from qa_results rather
// than relying on a trigger, so every mutation path (create, resolve, bulk
// delete) stays consistent with a single source of truth.
func (r qaRepo) UpdateRowQACount(ctx context.Context, rowID int64) (int, error) {
	n, err := r.CountUnresolvedForRow(ctx, rowID)
	if err != nil {
		return 0, err
	}
	rowsTable := r.e.binder.Table(schema.TableRows)
	q := fmt.Sprintf(`UPDATE %s SET qa_flag_count = ? WHERE id = ?`, rowsTable)
	if _, err := r.e.exec.ExecContext(ctx, q, n, rowID); err != nil {
		return 0, types.Wrap(types.Transient, err, "update row qa flag count")
	}
	return n, nil
}
