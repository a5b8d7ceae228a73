package sqlengine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ldm-sh/ldm/internal/events"
	"github.com/ldm-sh/ldm/internal/schema"
	"github.com/ldm-sh/ldm/internal/types"
)

type platformRepo struct{ e *Engine }

func (r platformRepo) table() string { return r.e.binder.Table(schema.TablePlatforms) }

func (r platformRepo) scanOne(row *sql.Row) (*types.Platform, error) {
	var p types.Platform
	var desc sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &desc, &p.OwnerID, &p.IsRestricted, &p.CreatedAt); err != nil {
		return nil, wrapNotFound(err)
	}
	p.Description = desc.String
	return &p, nil
}

func (r platformRepo) Get(ctx context.Context, id int64) (*types.Platform, error) {
	q := fmt.Sprintf(`SELECT id, name, description, owner_id, is_restricted, created_at FROM %s WHERE id = ?`, r.table())
	return r.scanOne(r.e.exec.QueryRowContext(ctx, q, id))
}

func (r platformRepo) GetAll(ctx context.Context) ([]types.Platform, error) {
	q := fmt.Sprintf(`SELECT id, name, description, owner_id, is_restricted, created_at FROM %s ORDER BY name`, r.table())
	rows, err := r.e.exec.QueryContext(ctx, q)
	if err != nil {
		return nil, types.Wrap(types.Transient, err, "list platforms")
	}
	defer rows.Close()

	var out []types.Platform
	for rows.Next() {
		var p types.Platform
		var desc sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &desc, &p.OwnerID, &p.IsRestricted, &p.CreatedAt); err != nil {
			return nil, types.Wrap(types.Transient, err, "scan platform")
		}
		p.Description = desc.String
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r platformRepo) CheckNameExists(ctx context.Context, name string, excludeID *int64) (bool, error) {
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE LOWER(name) = LOWER(?)`, r.table())
	args := []interface{}{name}
	if excludeID != nil {
		q += ` AND id <> ?`
		args = append(args, *excludeID)
	}
	var n int
	if err := r.e.exec.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return false, types.Wrap(types.Transient, err, "check platform name")
	}
	return n > 0, nil
}

func (r platformRepo) Create(ctx context.Context, name, ownerID, description string, isRestricted bool) (*types.Platform, error) {
	exists, err := r.CheckNameExists(ctx, name, nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, types.NewError(types.NameCollision, "platform name already exists", "name", name)
	}

	id, err := insertReturningID(ctx, r.e, r.table(),
		[]string{"name", "description", "owner_id", "is_restricted"},
		[]interface{}{name, description, ownerID, boolToInt(isRestricted)})
	if err != nil {
		return nil, err
	}
	p, err := r.Get(ctx, id)
	if err == nil {
		r.e.emit(ctx, events.KindCompleted, "platform.create", map[string]interface{}{"platform_id": id, "name": name})
	}
	return p, err
}

func (r platformRepo) Update(ctx context.Context, id int64, name, description *string) (*types.Platform, error) {
	if name != nil {
		exists, err := r.CheckNameExists(ctx, *name, &id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, types.NewError(types.NameCollision, "platform name already exists", "name", *name)
		}
	}

	var sets []string
	var args []interface{}
	if name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *name)
	}
	if description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *description)
	}
	if len(sets) == 0 {
		return r.Get(ctx, id)
	}
	args = append(args, id)
	q := fmt.Sprintf(`UPDATE %s SET %s WHERE id = ?`, r.table(), strings.Join(sets, ", "))
	if _, err := r.e.exec.ExecContext(ctx, q, args...); err != nil {
		return nil, types.Wrap(types.Transient, err, "update platform")
	}
	return r.Get(ctx, id)
}

// Delete detaches every child project (platform_id -> null) before removing
// the platform record. It never cascades to projects.
func (r platformRepo) Delete(ctx context.Context, id int64) (bool, error) {
	detach := fmt.Sprintf(`UPDATE %s SET platform_id = NULL WHERE platform_id = ?`, r.e.binder.Table(schema.TableProjects))
	if _, err := r.e.exec.ExecContext(ctx, detach, id); err != nil {
		return false, types.Wrap(types.Transient, err, "detach projects")
	}

	q := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.table())
	res, err := r.e.exec.ExecContext(ctx, q, id)
	if err != nil {
		return false, types.Wrap(types.Transient, err, "delete platform")
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r platformRepo) GetWithProjectCount(ctx context.Context, id int64) (*types.Platform, int, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE platform_id = ?`, r.e.binder.Table(schema.TableProjects))
	var n int
	if err := r.e.exec.QueryRowContext(ctx, q, id).Scan(&n); err != nil {
		return nil, 0, types.Wrap(types.Transient, err, "count projects")
	}
	return p, n, nil
}

func (r platformRepo) SetRestriction(ctx context.Context, id int64, restricted bool) error {
	q := fmt.Sprintf(`UPDATE %s SET is_restricted = ? WHERE id = ?`, r.table())
	_, err := r.e.exec.ExecContext(ctx, q, boolToInt(restricted), id)
	if err != nil {
		return types.Wrap(types.Transient, err, "set platform restriction")
	}
	return nil
}

// AssignProject moves a project under a platform, or unassigns it when
// platformID is nil. Both IDs must already exist.
func (r platformRepo) AssignProject(ctx context.Context, projectID int64, platformID *int64) error {
	if platformID != nil {
		if _, err := r.Get(ctx, *platformID); err != nil {
			return err
		}
	}
	q := fmt.Sprintf(`UPDATE %s SET platform_id = ? WHERE id = ?`, r.e.binder.Table(schema.TableProjects))
	res, err := r.e.exec.ExecContext(ctx, q, platformID, projectID)
	if err != nil {
		return types.Wrap(types.Transient, err, "assign project")
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return types.NewError(types.NotFound, "project not found", "project_id", projectID)
	}
	return nil
}

func (r platformRepo) Count(ctx context.Context) (int, error) {
	var n int
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, r.table())
	if err := r.e.exec.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, types.Wrap(types.Transient, err, "count platforms")
	}
	return n, nil
}

func (r platformRepo) GetProjects(ctx context.Context, platformID int64) ([]types.Project, error) {
	return projectRepo{r.e}.listByPlatform(ctx, &platformID)
}

func (r platformRepo) Search(ctx context.Context, query string) ([]types.Platform, error) {
	q := fmt.Sprintf(`SELECT id, name, description, owner_id, is_restricted, created_at FROM %s WHERE name LIKE ? ORDER BY name`, r.table())
	rows, err := r.e.exec.QueryContext(ctx, q, "%"+query+"%")
	if err != nil {
		return nil, types.Wrap(types.Transient, err, "search platforms")
	}
	defer rows.Close()
	var out []types.Platform
	for rows.Next() {
		var p types.Platform
		var desc sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &desc, &p.OwnerID, &p.IsRestricted, &p.CreatedAt); err != nil {
			return nil, types.Wrap(types.Transient, err, "scan platform")
		}
		p.Description = desc.String
		out = append(out, p)
	}
	return out, rows.Err()
}

// insertReturningID inserts one row and returns its new ID.
//
// In offline mode the ID is never left to the database: every offline
// entity gets a locally-allocated negative ID from the engine's
// idgen.Allocator, per the sign convention that distinguishes
// locally-created records from ones the online backend assigned
// (id < 0 means "allocated by this offline instance, not yet known to any
// server"). Online mode leaves ID assignment to the database, using
// RETURNING when the dialect supports it and falling back to
// Result.LastInsertId otherwise.
func insertReturningID(ctx context.Context, e *Engine, table string, cols []string, vals []interface{}) (int64, error) {
	if e.binder.Mode() == schema.Offline {
		return insertWithExplicitID(ctx, e, table, cols, vals)
	}

	placeholders := strings.TrimRight(strings.Repeat("?, ", len(cols)), ", ")
	colList := strings.Join(cols, ", ")

	if e.dialect.SupportsReturning() {
		q := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING id`, table, colList, placeholders)
		var id int64
		if err := e.exec.QueryRowContext(ctx, q, vals...).Scan(&id); err != nil {
			return 0, types.Wrap(types.Transient, err, "insert")
		}
		return id, nil
	}

	q := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, table, colList, placeholders)
	res, err := e.exec.ExecContext(ctx, q, vals...)
	if err != nil {
		return 0, types.Wrap(types.Transient, err, "insert")
	}
	return res.LastInsertId()
}

// insertWithExplicitID retries a handful of times on a rare id collision;
// idgen.Allocator gives strong practical uniqueness but not a guarantee.
func insertWithExplicitID(ctx context.Context, e *Engine, table string, cols []string, vals []interface{}) (int64, error) {
	allCols := append([]string{"id"}, cols...)
	placeholders := strings.TrimRight(strings.Repeat("?, ", len(allCols)), ", ")
	colList := strings.Join(allCols, ", ")
	q := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, table, colList, placeholders)

	const maxAttempts = 5
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		id := e.ids.Next()
		args := append([]interface{}{id}, vals...)
		if _, err := e.exec.ExecContext(ctx, q, args...); err != nil {
			lastErr = err
			continue
		}
		return id, nil
	}
	return 0, types.Wrap(types.Transient, lastErr, "insert with allocated id")
}

