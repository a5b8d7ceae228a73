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

type folderRepo struct{ e *Engine }

func (r folderRepo) table() string { return r.e.binder.Table(schema.TableFolders) }

const folderCols = `id, project_id, parent_id, name, created_at`

func (r folderRepo) scan(scanner interface{ Scan(...interface{}) error }) (*types.Folder, error) {
	var f types.Folder
	var parentID sql.NullInt64
	if err := scanner.Scan(&f.ID, &f.ProjectID, &parentID, &f.Name, &f.CreatedAt); err != nil {
		return nil, wrapNotFound(err)
	}
	if parentID.Valid {
		f.ParentID = &parentID.Int64
	}
	return &f, nil
}

func (r folderRepo) Get(ctx context.Context, id int64) (*types.Folder, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, folderCols, r.table())
	return r.scan(r.e.exec.QueryRowContext(ctx, q, id))
}

func (r folderRepo) CheckNameExists(ctx context.Context, projectID int64, parentID *int64, name string, excludeID *int64) (bool, error) {
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE project_id = ? AND LOWER(name) = LOWER(?)`, r.table())
	args := []interface{}{projectID, name}
	if parentID != nil {
		q += ` AND parent_id = ?`
		args = append(args, *parentID)
	} else {
		q += ` AND parent_id IS NULL`
	}
	if excludeID != nil {
		q += ` AND id <> ?`
		args = append(args, *excludeID)
	}
	var n int
	if err := r.e.exec.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return false, types.Wrap(types.Transient, err, "check folder name")
	}
	return n > 0, nil
}

func (r folderRepo) Create(ctx context.Context, projectID int64, parentID *int64, name string) (*types.Folder, error) {
	resolved, err := naming.Resolve(name, func(candidate string) (bool, error) {
		return r.CheckNameExists(ctx, projectID, parentID, candidate, nil)
	})
	if err != nil {
		return nil, types.Wrap(types.Transient, err, "resolve folder name")
	}
	id, err := insertReturningID(ctx, r.e, r.table(), []string{"project_id", "parent_id", "name"}, []interface{}{projectID, parentID, resolved})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r folderRepo) Rename(ctx context.Context, id int64, name string) (*types.Folder, error) {
	f, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	exists, err := r.CheckNameExists(ctx, f.ProjectID, f.ParentID, name, &id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, types.NewError(types.NameCollision, "folder name already exists", "name", name)
	}
	q := fmt.Sprintf(`UPDATE %s SET name = ? WHERE id = ?`, r.table())
	if _, err := r.e.exec.ExecContext(ctx, q, name, id); err != nil {
		return nil, types.Wrap(types.Transient, err, "rename folder")
	}
	return r.Get(ctx, id)
}

// Delete removes the folder record only. Its subfolders, files and rows are
// not deleted here, and no database FK cascade is relied on. Callers that
// need soft-delete semantics go through internal/trash and internal/orchestrate
// instead of this hard delete.
func (r folderRepo) Delete(ctx context.Context, id int64) (bool, error) {
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.table())
	res, err := r.e.exec.ExecContext(ctx, q, id)
	if err != nil {
		return false, types.Wrap(types.Transient, err, "delete folder")
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// listChildren lists the direct child folders of parentID within a project
// (parentID nil means the project's root folders), ordered by name.
func (r folderRepo) listChildren(ctx context.Context, projectID int64, parentID *int64) ([]types.Folder, error) {
	var where string
	args := []interface{}{projectID}
	if parentID == nil {
		where = "project_id = ? AND parent_id IS NULL"
	} else {
		where = "project_id = ? AND parent_id = ?"
		args = append(args, *parentID)
	}
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY name`, folderCols, r.table(), where)
	rows, err := r.e.exec.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, types.Wrap(types.Transient, err, "list child folders")
	}
	defer rows.Close()
	var out []types.Folder
	for rows.Next() {
		f, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

func (r folderRepo) GetWithContents(ctx context.Context, id int64) (*types.Folder, *types.FolderContents, error) {
	f, err := r.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	fileQ := fmt.Sprintf(`SELECT %s FROM %s WHERE folder_id = ? ORDER BY name`, strings.Join(fileRepo{r.e}.columns(), ", "), r.e.binder.Table(schema.TableFiles))
	fileRows, err := r.e.exec.QueryContext(ctx, fileQ, id)
	if err != nil {
		return nil, nil, types.Wrap(types.Transient, err, "list folder files")
	}
	defer fileRows.Close()
	var files []types.File
	for fileRows.Next() {
		fl, err := fileRepo{r.e}.scan(fileRows)
		if err != nil {
			return nil, nil, err
		}
		files = append(files, *fl)
	}
	if err := fileRows.Err(); err != nil {
		return nil, nil, types.Wrap(types.Transient, err, "scan folder files")
	}

	subQ := fmt.Sprintf(`SELECT %s FROM %s WHERE parent_id = ? ORDER BY name`, folderCols, r.table())
	subRows, err := r.e.exec.QueryContext(ctx, subQ, id)
	if err != nil {
		return nil, nil, types.Wrap(types.Transient, err, "list subfolders")
	}
	defer subRows.Close()
	var subs []types.Folder
	for subRows.Next() {
		sf, err := r.scan(subRows)
		if err != nil {
			return nil, nil, err
		}
		subs = append(subs, *sf)
	}
	if err := subRows.Err(); err != nil {
		return nil, nil, types.Wrap(types.Transient, err, "scan subfolders")
	}

	return f, &types.FolderContents{Files: files, Subfolders: subs}, nil
}

// IsDescendant reports whether a is somewhere under b in the folder tree,
// walking parent_id links. Used to reject moves that would introduce a cycle.
func (r folderRepo) IsDescendant(ctx context.Context, a, b int64) (bool, error) {
	current := a
	q := fmt.Sprintf(`SELECT parent_id FROM %s WHERE id = ?`, r.table())
	for depth := 0; depth < 10_000; depth++ {
		var parentID sql.NullInt64
		if err := r.e.exec.QueryRowContext(ctx, q, current).Scan(&parentID); err != nil {
			if err == sql.ErrNoRows {
				return false, nil
			}
			return false, types.Wrap(types.Transient, err, "walk folder ancestry")
		}
		if !parentID.Valid {
			return false, nil
		}
		if parentID.Int64 == b {
			return true, nil
		}
		current = parentID.Int64
	}
	return false, types.NewError(types.IntegrityViolation, "folder ancestry walk exceeded depth bound", "folder_id", a)
}

func (r folderRepo) Move(ctx context.Context, folderID int64, newParentID *int64) error {
	f, err := r.Get(ctx, folderID)
	if err != nil {
		return err
	}
	if newParentID != nil {
		if *newParentID == folderID {
			return types.NewError(types.CycleWouldBeIntroduced, "a folder cannot be its own parent", "folder_id", folderID)
		}
		target, err := r.Get(ctx, *newParentID)
		if err != nil {
			return err
		}
		if target.ProjectID != f.ProjectID {
			return types.NewError(types.InvalidScope, "move target is in a different project; use MoveCrossProject", "folder_id", folderID)
		}
		descendant, err := r.IsDescendant(ctx, *newParentID, folderID)
		if err != nil {
			return err
		}
		if descendant {
			return types.NewError(types.CycleWouldBeIntroduced, "move target is a descendant of the folder being moved", "folder_id", folderID)
		}
	}
	exists, err := r.CheckNameExists(ctx, f.ProjectID, newParentID, f.Name, &folderID)
	if err != nil {
		return err
	}
	if exists {
		return types.NewError(types.NameCollision, "a folder with this name already exists at the destination", "name", f.Name)
	}

	q := fmt.Sprintf(`UPDATE %s SET parent_id = ? WHERE id = ?`, r.table())
	if _, err := r.e.exec.ExecContext(ctx, q, newParentID, folderID); err != nil {
		return types.Wrap(types.Transient, err, "move folder")
	}
	return nil
}

func (r folderRepo) MoveCrossProject(ctx context.Context, folderID, targetProject int64, targetParent *int64) error {
	if r.e.binder.Mode() == schema.Offline {
		return types.NewError(types.CrossProjectNotSupportedOffline, "cross-project folder move requires the online backend", "folder_id", folderID)
	}

	f, err := r.Get(ctx, folderID)
	if err != nil {
		return err
	}
	if targetParent != nil {
		target, err := r.Get(ctx, *targetParent)
		if err != nil {
			return err
		}
		if target.ProjectID != targetProject {
			return types.NewError(types.InvalidScope, "target parent is not in the target project", "folder_id", folderID)
		}
	}
	name, err := naming.Resolve(f.Name, func(candidate string) (bool, error) {
		return r.CheckNameExists(ctx, targetProject, targetParent, candidate, nil)
	})
	if err != nil {
		return types.Wrap(types.Transient, err, "resolve move destination name")
	}

	q := fmt.Sprintf(`UPDATE %s SET project_id = ?, parent_id = ?, name = ? WHERE id = ?`, r.table())
	if _, err := r.e.exec.ExecContext(ctx, q, targetProject, targetParent, name, folderID); err != nil {
		return types.Wrap(types.Transient, err, "move folder cross-project")
	}

	if _, err := reassignDescendants(ctx, r.e, folderID, targetProject); err != nil {
		return err
	}

	r.e.emit(ctx, events.KindCompleted, "folder.move_cross_project", map[string]interface{}{"folder_id": folderID, "target_project_id": targetProject})
	return nil
}

// reassignDescendants updates project_id for every folder and file under
// folderID after a cross-project move of the folder itself.
func reassignDescendants(ctx context.Context, e *Engine, folderID, toProject int64) (int, error) {
	fr := folderRepo{e}
	_, contents, err := fr.GetWithContents(ctx, folderID)
	if err != nil {
		return 0, err
	}

	n := 0
	filesTable := e.binder.Table(schema.TableFiles)
	for _, file := range contents.Files {
		q := fmt.Sprintf(`UPDATE %s SET project_id = ? WHERE id = ?`, filesTable)
		if _, err := e.exec.ExecContext(ctx, q, toProject, file.ID); err != nil {
			return n, types.Wrap(types.Transient, err, "reassign file project")
		}
		n++
	}
	foldersTable := e.binder.Table(schema.TableFolders)
	for _, sub := range contents.Subfolders {
		q := fmt.Sprintf(`UPDATE %s SET project_id = ? WHERE id = ?`, foldersTable)
		if _, err := e.exec.ExecContext(ctx, q, toProject, sub.ID); err != nil {
			return n, types.Wrap(types.Transient, err, "reassign subfolder project")
		}
		n++
		subCount, err := reassignDescendants(ctx, e, sub.ID, toProject)
		if err != nil {
			return n, err
		}
		n += subCount
	}
	return n, nil
}

func (r folderRepo) Copy(ctx context.Context, folderID int64, targetProject *int64, targetParent *int64) (*types.Folder, error) {
	f, err := r.Get(ctx, folderID)
	if err != nil {
		return nil, err
	}
	destProject := f.ProjectID
	if targetProject != nil {
		destProject = *targetProject
	}
	if destProject != f.ProjectID && r.e.binder.Mode() == schema.Offline {
		return nil, types.NewError(types.CrossProjectNotSupportedOffline, "cross-project folder copy requires the online backend", "folder_id", folderID)
	}

	name, err := naming.Resolve(f.Name, func(candidate string) (bool, error) {
		return r.CheckNameExists(ctx, destProject, targetParent, candidate, nil)
	})
	if err != nil {
		return nil, types.Wrap(types.Transient, err, "resolve copy destination name")
	}

	id, err := insertReturningID(ctx, r.e, r.table(), []string{"project_id", "parent_id", "name"}, []interface{}{destProject, targetParent, name})
	if err != nil {
		return nil, err
	}
	dest, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	_, contents, err := r.GetWithContents(ctx, folderID)
	if err != nil {
		return nil, err
	}
	for _, file := range contents.Files {
		if _, err := fileRepo{r.e}.copyInto(ctx, file, destProject, &dest.ID); err != nil {
			return nil, err
		}
	}
	for _, sub := range contents.Subfolders {
		if _, err := r.Copy(ctx, sub.ID, &destProject, &dest.ID); err != nil {
			return nil, err
		}
	}

	r.e.emit(ctx, events.KindCompleted, "folder.copy", map[string]interface{}{"source_folder_id": folderID, "dest_folder_id": dest.ID})
	return dest, nil
}
