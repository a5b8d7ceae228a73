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

type projectRepo struct{ e *Engine }

func (r projectRepo) table() string { return r.e.binder.Table(schema.TableProjects) }

const projectCols = `id, name, description, owner_id, platform_id, is_restricted, created_at`

func (r projectRepo) scan(scanner interface{ Scan(...interface{}) error }) (*types.Project, error) {
	var p types.Project
	var desc sql.NullString
	var platformID sql.NullInt64
	if err := scanner.Scan(&p.ID, &p.Name, &desc, &p.OwnerID, &platformID, &p.IsRestricted, &p.CreatedAt); err != nil {
		return nil, wrapNotFound(err)
	}
	p.Description = desc.String
	if platformID.Valid {
		p.PlatformID = &platformID.Int64
	}
	return &p, nil
}

func (r projectRepo) Get(ctx context.Context, id int64) (*types.Project, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, projectCols, r.table())
	return r.scan(r.e.exec.QueryRowContext(ctx, q, id))
}

func (r projectRepo) GetAll(ctx context.Context) ([]types.Project, error) {
	return r.listByPlatform(ctx, nil)
}

func (r projectRepo) listByPlatform(ctx context.Context, platformID *int64) ([]types.Project, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s`, projectCols, r.table())
	var args []interface{}
	if platformID != nil {
		q += ` WHERE platform_id = ?`
		args = append(args, *platformID)
	}
	q += ` ORDER BY name`

	rows, err := r.e.exec.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, types.Wrap(types.Transient, err, "list projects")
	}
	defer rows.Close()

	var out []types.Project
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// GetContents returns the project's root-level files (folder_id IS NULL)
// and root-level folders (parent_id IS NULL), mirroring
// FolderRepository.GetWithContents but scoped by project_id instead of a
// parent folder.
func (r projectRepo) GetContents(ctx context.Context, id int64) (*types.FolderContents, error) {
	fileQ := fmt.Sprintf(`SELECT %s FROM %s WHERE project_id = ? AND folder_id IS NULL ORDER BY name`,
		strings.Join(fileRepo{r.e}.columns(), ", "), r.e.binder.Table(schema.TableFiles))
	fileRows, err := r.e.exec.QueryContext(ctx, fileQ, id)
	if err != nil {
		return nil, types.Wrap(types.Transient, err, "list project root files")
	}
	defer fileRows.Close()
	var files []types.File
	for fileRows.Next() {
		f, err := fileRepo{r.e}.scan(fileRows)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	if err := fileRows.Err(); err != nil {
		return nil, types.Wrap(types.Transient, err, "scan project root files")
	}

	subQ := fmt.Sprintf(`SELECT %s FROM %s WHERE project_id = ? AND parent_id IS NULL ORDER BY name`, folderCols, r.e.binder.Table(schema.TableFolders))
	subRows, err := r.e.exec.QueryContext(ctx, subQ, id)
	if err != nil {
		return nil, types.Wrap(types.Transient, err, "list project root folders")
	}
	defer subRows.Close()
	var subs []types.Folder
	for subRows.Next() {
		f, err := folderRepo{r.e}.scan(subRows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *f)
	}
	if err := subRows.Err(); err != nil {
		return nil, types.Wrap(types.Transient, err, "scan project root folders")
	}

	return &types.FolderContents{Files: files, Subfolders: subs}, nil
}

func (r projectRepo) CheckNameExists(ctx context.Context, name string, platformID *int64, excludeID *int64) (bool, error) {
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE LOWER(name) = LOWER(?)`, r.table())
	var args []interface{}
	args = append(args, name)
	if platformID != nil {
		q += ` AND platform_id = ?`
		args = append(args, *platformID)
	} else {
		q += ` AND platform_id IS NULL`
	}
	if excludeID != nil {
		q += ` AND id <> ?`
		args = append(args, *excludeID)
	}
	var n int
	if err := r.e.exec.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return false, types.Wrap(types.Transient, err, "check project name")
	}
	return n > 0, nil
}

// Create resolves name collisions within the (platformID) naming scope by
// appending "_1", "_2", ... rather than failing.
func (r projectRepo) Create(ctx context.Context, name, ownerID, description string, platformID *int64, isRestricted bool) (*types.Project, error) {
	resolved, err := naming.Resolve(name, func(candidate string) (bool, error) {
		return r.CheckNameExists(ctx, candidate, platformID, nil)
	})
	if err != nil {
		return nil, types.Wrap(types.Transient, err, "resolve project name")
	}

	id, err := insertReturningID(ctx, r.e, r.table(),
		[]string{"name", "description", "owner_id", "platform_id", "is_restricted"},
		[]interface{}{resolved, description, ownerID, platformID, boolToInt(isRestricted)})
	if err != nil {
		return nil, err
	}
	p, err := r.Get(ctx, id)
	if err == nil {
		r.e.emit(ctx, events.KindCompleted, "project.create", map[string]interface{}{"project_id": id, "name": resolved})
	}
	return p, err
}

// Rename fails hard with NameCollision rather than auto-renaming; callers
// that want auto-rename behavior use Create.
func (r projectRepo) Rename(ctx context.Context, id int64, name string) (*types.Project, error) {
	existing, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	exists, err := r.CheckNameExists(ctx, name, existing.PlatformID, &id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, types.NewError(types.NameCollision, "project name already exists", "name", name)
	}

	q := fmt.Sprintf(`UPDATE %s SET name = ? WHERE id = ?`, r.table())
	if _, err := r.e.exec.ExecContext(ctx, q, name, id); err != nil {
		return nil, types.Wrap(types.Transient, err, "rename project")
	}
	return r.Get(ctx, id)
}

func (r projectRepo) Update(ctx context.Context, id int64, description *string) (*types.Project, error) {
	if description == nil {
		return r.Get(ctx, id)
	}
	q := fmt.Sprintf(`UPDATE %s SET description = ? WHERE id = ?`, r.table())
	if _, err := r.e.exec.ExecContext(ctx, q, *description, id); err != nil {
		return nil, types.Wrap(types.Transient, err, "update project")
	}
	return r.Get(ctx, id)
}

func (r projectRepo) Delete(ctx context.Context, id int64) (bool, error) {
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.table())
	res, err := r.e.exec.ExecContext(ctx, q, id)
	if err != nil {
		return false, types.Wrap(types.Transient, err, "delete project")
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		r.e.emit(ctx, events.KindCompleted, "project.delete", map[string]interface{}{"project_id": id})
	}
	return n > 0, nil
}

func (r projectRepo) Count(ctx context.Context) (int, error) {
	var n int
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, r.table())
	if err := r.e.exec.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, types.Wrap(types.Transient, err, "count projects")
	}
	return n, nil
}

func (r projectRepo) Search(ctx context.Context, query string) ([]types.Project, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE name LIKE ? ORDER BY name`, projectCols, r.table())
	rows, err := r.e.exec.QueryContext(ctx, q, "%"+query+"%")
	if err != nil {
		return nil, types.Wrap(types.Transient, err, "search projects")
	}
	defer rows.Close()

	var out []types.Project
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
