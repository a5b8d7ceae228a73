package sqlengine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ldm-sh/ldm/internal/events"
	"github.com/ldm-sh/ldm/internal/idgen"
	"github.com/ldm-sh/ldm/internal/schema"
	"github.com/ldm-sh/ldm/internal/types"
)

type tmRepo struct{ e *Engine }

func (r tmRepo) table() string            { return r.e.binder.Table(schema.TableTMs) }
func (r tmRepo) entriesTable() string     { return r.e.binder.Table(schema.TableTMEntries) }
func (r tmRepo) assignmentsTable() string { return r.e.binder.Table(schema.TableTMAssignments) }
func (r tmRepo) linksTable() string       { return r.e.binder.Table(schema.TableTMProjectLinks) }

const tmCols = `id, name, description, owner_id, source_lang, target_lang, entry_count, mode, status, indexed_at, created_at`

func (r tmRepo) scan(scanner interface{ Scan(...interface{}) error }) (*types.TM, error) {
	var tm types.TM
	var desc, owner sql.NullString
	var indexedAt sql.NullTime
	if err := scanner.Scan(&tm.ID, &tm.Name, &desc, &owner, &tm.SourceLang, &tm.TargetLang, &tm.EntryCount, &tm.Mode, &tm.Status, &indexedAt, &tm.CreatedAt); err != nil {
		return nil, wrapNotFound(err)
	}
	tm.Description = desc.String
	tm.OwnerID = owner.String
	if indexedAt.Valid {
		tm.IndexedAt = &indexedAt.Time
	}
	return &tm, nil
}

func (r tmRepo) Get(ctx context.Context, id int64) (*types.TM, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, tmCols, r.table())
	return r.scan(r.e.exec.QueryRowContext(ctx, q, id))
}

func (r tmRepo) GetAll(ctx context.Context) ([]types.TM, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s ORDER BY name`, tmCols, r.table())
	rows, err := r.e.exec.QueryContext(ctx, q)
	if err != nil {
		return nil, types.Wrap(types.Transient, err, "list tms")
	}
	defer rows.Close()
	var out []types.TM
	for rows.Next() {
		tm, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *tm)
	}
	return out, rows.Err()
}

func (r tmRepo) Create(ctx context.Context, name, sourceLang, targetLang, ownerID string) (*types.TM, error) {
	id, err := insertReturningID(ctx, r.e, r.table(),
		[]string{"name", "owner_id", "source_lang", "target_lang", "entry_count", "mode", "status"},
		[]interface{}{name, ownerID, sourceLang, targetLang, 0, string(types.TMModeStandard), string(types.TMReady)})
	if err != nil {
		return nil, err
	}
	tm, err := r.Get(ctx, id)
	if err == nil {
		r.e.emit(ctx, events.KindCompleted, "tm.create", map[string]interface{}{"tm_id": id, "name": name})
	}
	return tm, err
}

func (r tmRepo) Delete(ctx context.Context, id int64) (bool, error) {
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.table())
	res, err := r.e.exec.ExecContext(ctx, q, id)
	if err != nil {
		return false, types.Wrap(types.Transient, err, "delete tm")
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func scopeColumns(s types.Scope) (kind string, platformID, projectID, folderID sql.NullInt64) {
	kind = string(s.Kind)
	if s.Kind == types.ScopePlatform {
		platformID = sql.NullInt64{Int64: s.PlatformID, Valid: true}
	}
	if s.Kind == types.ScopeProject {
		projectID = sql.NullInt64{Int64: s.ProjectID, Valid: true}
	}
	if s.Kind == types.ScopeFolder {
		folderID = sql.NullInt64{Int64: s.FolderID, Valid: true}
	}
	return
}

// Assign sets the one TM <-> scope link for the given scope, replacing
// whatever TM was previously assigned there. The link starts inactive: per
// the assignment state machine {unassigned, assigned-inactive,
// assigned-active}, assign only ever produces assigned-inactive — Activate
// is the sole transition into assigned-active.
func (r tmRepo) Assign(ctx context.Context, tmID int64, target types.Scope) error {
	kind, platformID, projectID, folderID := scopeColumns(target)

	del := fmt.Sprintf(`DELETE FROM %s WHERE scope_kind = ? AND platform_id IS ? AND project_id IS ? AND folder_id IS ?`, r.assignmentsTable())
	if _, err := r.e.exec.ExecContext(ctx, del, kind, platformID, projectID, folderID); err != nil {
		return types.Wrap(types.Transient, err, "clear prior scope assignment")
	}

	ins := fmt.Sprintf(`INSERT INTO %s (tm_id, scope_kind, platform_id, project_id, folder_id, is_active, activated_at) VALUES (?, ?, ?, ?, ?, 0, NULL)`, r.assignmentsTable())
	if _, err := r.e.exec.ExecContext(ctx, ins, tmID, kind, platformID, projectID, folderID); err != nil {
		return types.Wrap(types.Transient, err, "assign tm")
	}
	r.e.emit(ctx, events.KindCompleted, "tm.assign", map[string]interface{}{"tm_id": tmID, "scope": kind})
	return nil
}

func (r tmRepo) Unassign(ctx context.Context, tmID int64) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE tm_id = ?`, r.assignmentsTable())
	_, err := r.e.exec.ExecContext(ctx, q, tmID)
	if err != nil {
		return types.Wrap(types.Transient, err, "unassign tm")
	}
	return nil
}

func (r tmRepo) Activate(ctx context.Context, tmID int64) error {
	return r.setActive(ctx, tmID, true)
}

func (r tmRepo) Deactivate(ctx context.Context, tmID int64) error {
	return r.setActive(ctx, tmID, false)
}

// setActive implements the assigned-inactive <-> assigned-active leg of the
// state machine. Activate from unassigned (no row at all) fails with
// InvalidScope, not NotFound: assign is the only operation that creates a
// scope link, and an activate call against a TM that was never assigned is
// a caller ordering error, not a missing-resource lookup.
func (r tmRepo) setActive(ctx context.Context, tmID int64, active bool) error {
	var activatedAt interface{}
	if active {
		activatedAt = time.Now().UTC()
	}
	q := fmt.Sprintf(`UPDATE %s SET is_active = ?, activated_at = ? WHERE tm_id = ?`, r.assignmentsTable())
	res, err := r.e.exec.ExecContext(ctx, q, boolToInt(active), activatedAt, tmID)
	if err != nil {
		return types.Wrap(types.Transient, err, "set tm assignment active")
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return types.NewError(types.InvalidScope, "tm has no scope assignment", "tm_id", tmID)
	}
	return nil
}

func (r tmRepo) GetAssignment(ctx context.Context, tmID int64) (*types.TMAssignment, error) {
	q := fmt.Sprintf(`SELECT scope_kind, platform_id, project_id, folder_id, is_active, activated_at FROM %s WHERE tm_id = ?`, r.assignmentsTable())
	var kind string
	var platformID, projectID, folderID sql.NullInt64
	var active bool
	var activatedAt sql.NullTime
	if err := r.e.exec.QueryRowContext(ctx, q, tmID).Scan(&kind, &platformID, &projectID, &folderID, &active, &activatedAt); err != nil {
		return nil, wrapNotFound(err)
	}
	a := &types.TMAssignment{TMID: tmID, Scope: types.Scope{Kind: types.ScopeKind(kind)}, IsActive: active}
	if platformID.Valid {
		a.Scope.PlatformID = platformID.Int64
	}
	if projectID.Valid {
		a.Scope.ProjectID = projectID.Int64
	}
	if folderID.Valid {
		a.Scope.FolderID = folderID.Int64
	}
	if activatedAt.Valid {
		a.ActivatedAt = &activatedAt.Time
	}
	return a, nil
}

func (r tmRepo) GetForScope(ctx context.Context, scope types.Scope, includeInactive bool) ([]types.TM, error) {
	kind, platformID, projectID, folderID := scopeColumns(scope)
	q := fmt.Sprintf(`SELECT t.%s FROM %s t JOIN %s a ON a.tm_id = t.id WHERE a.scope_kind = ? AND a.platform_id IS ? AND a.project_id IS ? AND a.folder_id IS ?`,
		strings.ReplaceAll(tmCols, ", ", ", t."), r.table(), r.assignmentsTable())
	args := []interface{}{kind, platformID, projectID, folderID}
	if !includeInactive {
		q += ` AND a.is_active = 1`
	}
	rows, err := r.e.exec.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, types.Wrap(types.Transient, err, "get tms for scope")
	}
	defer rows.Close()
	var out []types.TM
	for rows.Next() {
		tm, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *tm)
	}
	return out, rows.Err()
}

// GetActiveForFile resolves the scope chain folder -> project -> platform for
// a file's active TMs, nearest scope first.
func (r tmRepo) GetActiveForFile(ctx context.Context, fileID int64) ([]types.ScopedTM, error) {
	f, err := fileRepo{r.e}.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}

	var out []types.ScopedTM
	if f.FolderID != nil {
		tms, err := r.GetForScope(ctx, types.Scope{Kind: types.ScopeFolder, FolderID: *f.FolderID}, false)
		if err != nil {
			return nil, err
		}
		for _, tm := range tms {
			out = append(out, types.ScopedTM{TM: tm, Scope: types.ScopeFolder})
		}
	}

	projectTMs, err := r.GetForScope(ctx, types.Scope{Kind: types.ScopeProject, ProjectID: f.ProjectID}, false)
	if err != nil {
		return nil, err
	}
	for _, tm := range projectTMs {
		out = append(out, types.ScopedTM{TM: tm, Scope: types.ScopeProject})
	}

	proj, err := projectRepo{r.e}.Get(ctx, f.ProjectID)
	if err != nil {
		return nil, err
	}
	if proj.PlatformID != nil {
		platformTMs, err := r.GetForScope(ctx, types.Scope{Kind: types.ScopePlatform, PlatformID: *proj.PlatformID}, false)
		if err != nil {
			return nil, err
		}
		for _, tm := range platformTMs {
			out = append(out, types.ScopedTM{TM: tm, Scope: types.ScopePlatform})
		}
	}

	return out, nil
}

func (r tmRepo) LinkToProject(ctx context.Context, tmID, projectID int64, priority int) error {
	conflict := r.e.dialect.UpsertKeyConflict([]string{"tm_id", "project_id"}, []string{"priority"})
	q := fmt.Sprintf(`INSERT INTO %s (tm_id, project_id, priority) VALUES (?, ?, ?) %s`, r.linksTable(), conflict)
	_, err := r.e.exec.ExecContext(ctx, q, tmID, projectID, priority)
	if err != nil {
		return types.Wrap(types.Transient, err, "link tm to project")
	}
	return nil
}

func (r tmRepo) UnlinkFromProject(ctx context.Context, tmID, projectID int64) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE tm_id = ? AND project_id = ?`, r.linksTable())
	_, err := r.e.exec.ExecContext(ctx, q, tmID, projectID)
	if err != nil {
		return types.Wrap(types.Transient, err, "unlink tm from project")
	}
	return nil
}

func (r tmRepo) GetLinkedForProject(ctx context.Context, projectID int64) (*types.TM, error) {
	q := fmt.Sprintf(`SELECT t.%s FROM %s t JOIN %s l ON l.tm_id = t.id WHERE l.project_id = ? ORDER BY l.priority ASC LIMIT 1`,
		strings.ReplaceAll(tmCols, ", ", ", t."), r.table(), r.linksTable())
	return r.scan(r.e.exec.QueryRowContext(ctx, q, projectID))
}

func (r tmRepo) GetAllLinkedForProject(ctx context.Context, projectID int64) ([]types.TMProjectLink, error) {
	q := fmt.Sprintf(`SELECT tm_id, project_id, priority FROM %s WHERE project_id = ? ORDER BY priority ASC`, r.linksTable())
	rows, err := r.e.exec.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, types.Wrap(types.Transient, err, "list project tm links")
	}
	defer rows.Close()
	var out []types.TMProjectLink
	for rows.Next() {
		var l types.TMProjectLink
		if err := rows.Scan(&l.TMID, &l.ProjectID, &l.Priority); err != nil {
			return nil, types.Wrap(types.Transient, err, "scan project tm link")
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

const tmEntryCols = `id, tm_id, source_text, target_text, source_hash, string_id, is_confirmed, created_by, updated_at, updated_by, confirmed_by, confirmed_at`

func (r tmRepo) scanEntry(scanner interface{ Scan(...interface{}) error }) (*types.TMEntry, error) {
	var e types.TMEntry
	var stringID, createdBy, updatedBy, confirmedBy sql.NullString
	var confirmedAt sql.NullTime
	if err := scanner.Scan(&e.ID, &e.TMID, &e.SourceText, &e.TargetText, &e.SourceHash, &stringID, &e.IsConfirmed, &createdBy, &e.UpdatedAt, &updatedBy, &confirmedBy, &confirmedAt); err != nil {
		return nil, wrapNotFound(err)
	}
	e.StringID = stringID.String
	e.CreatedBy = createdBy.String
	e.UpdatedBy = updatedBy.String
	e.ConfirmedBy = confirmedBy.String
	if confirmedAt.Valid {
		e.ConfirmedAt = &confirmedAt.Time
	}
	return &e, nil
}

func (r tmRepo) AddEntry(ctx context.Context, tmID int64, source, target, stringID, createdBy string) (*types.TMEntry, error) {
	created, err := r.AddEntriesBulk(ctx, tmID, []types.TMEntry{{SourceText: source, TargetText: target, StringID: stringID, CreatedBy: createdBy}})
	if err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, types.NewError(types.Transient, "tm entry insert returned nothing", "tm_id", tmID)
	}
	return &created[0], nil
}

func (r tmRepo) AddEntriesBulk(ctx context.Context, tmID int64, entries []types.TMEntry) ([]types.TMEntry, error) {
	out := make([]types.TMEntry, 0, len(entries))
	now := nowISO8601Millis()
	for _, e := range entries {
		hash := idgen.SourceHash(e.SourceText)
		id, err := insertReturningID(ctx, r.e, r.entriesTable(),
			[]string{"tm_id", "source_text", "target_text", "source_hash", "string_id", "is_confirmed", "created_by", "updated_at", "updated_by"},
			[]interface{}{tmID, e.SourceText, e.TargetText, hash, e.StringID, boolToInt(e.IsConfirmed), e.CreatedBy, now, e.CreatedBy})
		if err != nil {
			return nil, err
		}
		created, err := r.getEntry(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *created)
	}
	if len(out) > 0 {
		if _, err := r.recountEntries(ctx, tmID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r tmRepo) getEntry(ctx context.Context, id int64) (*types.TMEntry, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, tmEntryCols, r.entriesTable())
	return r.scanEntry(r.e.exec.QueryRowContext(ctx, q, id))
}

func (r tmRepo) recountEntries(ctx context.Context, tmID int64) (int, error) {
	var n int
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE tm_id = ?`, r.entriesTable())
	if err := r.e.exec.QueryRowContext(ctx, q, tmID).Scan(&n); err != nil {
		return 0, types.Wrap(types.Transient, err, "count tm entries")
	}
	upd := fmt.Sprintf(`UPDATE %s SET entry_count = ? WHERE id = ?`, r.table())
	if _, err := r.e.exec.ExecContext(ctx, upd, n, tmID); err != nil {
		return 0, types.Wrap(types.Transient, err, "update tm entry count")
	}
	return n, nil
}

func (r tmRepo) GetEntries(ctx context.Context, tmID int64, offset, limit int) ([]types.TMEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE tm_id = ? ORDER BY id LIMIT ? OFFSET ?`, tmEntryCols, r.entriesTable())
	rows, err := r.e.exec.QueryContext(ctx, q, tmID, limit, offset)
	if err != nil {
		return nil, types.Wrap(types.Transient, err, "list tm entries")
	}
	defer rows.Close()
	var out []types.TMEntry
	for rows.Next() {
		e, err := r.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r tmRepo) GetAllEntries(ctx context.Context, tmID int64) ([]types.TMEntry, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE tm_id = ? ORDER BY id`, tmEntryCols, r.entriesTable())
	rows, err := r.e.exec.QueryContext(ctx, q, tmID)
	if err != nil {
		return nil, types.Wrap(types.Transient, err, "list all tm entries")
	}
	defer rows.Close()
	var out []types.TMEntry
	for rows.Next() {
		e, err := r.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// SearchEntries synthesizes a two-tier score rather than a calibrated rank:
// 100 for an exact case-insensitive source match, 80 for any other LIKE hit.
// Callers compare scores ordinally (exact beats partial), not as a
// continuous similarity measure.
func (r tmRepo) SearchEntries(ctx context.Context, tmID int64, query string, limit int) ([]types.TMSearchHit, error) {
	if limit <= 0 {
		limit = 20
	}
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE tm_id = ? AND (source_text LIKE ? OR target_text LIKE ?) ORDER BY id LIMIT ?`, tmEntryCols, r.entriesTable())
	rows, err := r.e.exec.QueryContext(ctx, q, tmID, "%"+query+"%", "%"+query+"%", limit)
	if err != nil {
		return nil, types.Wrap(types.Transient, err, "search tm entries")
	}
	defer rows.Close()
	var out []types.TMSearchHit
	for rows.Next() {
		e, err := r.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		score := 80.0
		if strings.EqualFold(e.SourceText, query) {
			score = 100
		}
		out = append(out, types.TMSearchHit{Entry: *e, Score: score})
	}
	return out, rows.Err()
}

func (r tmRepo) DeleteEntry(ctx context.Context, id int64) (bool, error) {
	e, err := r.getEntry(ctx, id)
	if err != nil {
		return false, err
	}
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.entriesTable())
	res, err := r.e.exec.ExecContext(ctx, q, id)
	if err != nil {
		return false, types.Wrap(types.Transient, err, "delete tm entry")
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		_, _ = r.recountEntries(ctx, e.TMID)
	}
	return n > 0, nil
}

func (r tmRepo) UpdateEntry(ctx context.Context, id int64, target string) (*types.TMEntry, error) {
	q := fmt.Sprintf(`UPDATE %s SET target_text = ?, updated_at = ? WHERE id = ?`, r.entriesTable())
	if _, err := r.e.exec.ExecContext(ctx, q, target, nowISO8601Millis(), id); err != nil {
		return nil, types.Wrap(types.Transient, err, "update tm entry")
	}
	return r.getEntry(ctx, id)
}

func (r tmRepo) ConfirmEntry(ctx context.Context, id int64, confirmedBy string) (*types.TMEntry, error) {
	q := fmt.Sprintf(`UPDATE %s SET is_confirmed = 1, confirmed_by = ?, confirmed_at = ? WHERE id = ?`, r.entriesTable())
	if _, err := r.e.exec.ExecContext(ctx, q, confirmedBy, time.Now().UTC(), id); err != nil {
		return nil, types.Wrap(types.Transient, err, "confirm tm entry")
	}
	return r.getEntry(ctx, id)
}

func (r tmRepo) BulkConfirmEntries(ctx context.Context, ids []int64, confirmedBy string) (int, error) {
	n := 0
	for _, id := range ids {
		if _, err := r.ConfirmEntry(ctx, id, confirmedBy); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (r tmRepo) GetGlossaryTerms(ctx context.Context, tmIDs []int64, maxSourceLength, limit int) ([]types.TMEntry, error) {
	if len(tmIDs) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 200
	}
	placeholders := strings.TrimRight(strings.Repeat("?, ", len(tmIDs)), ", ")
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE tm_id IN (%s) AND LENGTH(source_text) <= ? ORDER BY id LIMIT ?`, tmEntryCols, r.entriesTable(), placeholders)
	args := make([]interface{}, 0, len(tmIDs)+2)
	for _, id := range tmIDs {
		args = append(args, id)
	}
	args = append(args, maxSourceLength, limit)

	rows, err := r.e.exec.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, types.Wrap(types.Transient, err, "list glossary terms")
	}
	defer rows.Close()
	var out []types.TMEntry
	for rows.Next() {
		e, err := r.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r tmRepo) GetIndexes(ctx context.Context, tmID int64) ([]types.TMIndexInfo, error) {
	tm, err := r.Get(ctx, tmID)
	if err != nil {
		return nil, err
	}
	builtAt := ""
	if tm.IndexedAt != nil {
		builtAt = tm.IndexedAt.UTC().Format(time.RFC3339)
	}
	return []types.TMIndexInfo{{Type: "exact", Status: string(tm.Status), BuiltAt: builtAt}}, nil
}

func (r tmRepo) CountEntries(ctx context.Context, tmID int64) (int, error) {
	return r.recountEntries(ctx, tmID)
}

func (r tmRepo) SearchExact(ctx context.Context, tmID int64, source string) ([]types.TMEntry, error) {
	hash := idgen.SourceHash(source)
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE tm_id = ? AND source_hash = ?`, tmEntryCols, r.entriesTable())
	rows, err := r.e.exec.QueryContext(ctx, q, tmID, hash)
	if err != nil {
		return nil, types.Wrap(types.Transient, err, "exact-match tm entries")
	}
	defer rows.Close()
	var out []types.TMEntry
	for rows.Next() {
		e, err := r.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// SearchSimilar is online-only; see RowRepository.SuggestSimilar for the
// same shared-engine-vs-decorator split.
func (r tmRepo) SearchSimilar(ctx context.Context, tmID int64, source string, threshold float64, maxResults int) ([]types.TMSearchHit, error) {
	return nil, nil
}

func (r tmRepo) GetTree(ctx context.Context) (*types.TMTree, error) {
	tree := &types.TMTree{}

	unassigned, err := r.GetForScope(ctx, types.Scope{Kind: types.ScopeNone}, true)
	if err != nil {
		return nil, err
	}
	tree.Unassigned = unassigned

	platforms, err := platformRepo{r.e}.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range platforms {
		node := types.TMTreeNode{ID: p.ID, Name: p.Name}
		node.TMs, err = r.GetForScope(ctx, types.Scope{Kind: types.ScopePlatform, PlatformID: p.ID}, true)
		if err != nil {
			return nil, err
		}
		projects, err := projectRepo{r.e}.listByPlatform(ctx, &p.ID)
		if err != nil {
			return nil, err
		}
		for _, proj := range projects {
			pnode := types.TMTreeNode{ID: proj.ID, Name: proj.Name}
			pnode.TMs, err = r.GetForScope(ctx, types.Scope{Kind: types.ScopeProject, ProjectID: proj.ID}, true)
			if err != nil {
				return nil, err
			}
			pnode.Folders, err = r.folderTree(ctx, proj.ID, nil)
			if err != nil {
				return nil, err
			}
			node.Projects = append(node.Projects, pnode)
		}
		tree.Platforms = append(tree.Platforms, node)
	}
	return tree, nil
}

// folderTree recurses the project's folder hierarchy under parentID,
// attaching each folder's own scope TMs so folder-scope assignments surface
// in GetTree alongside platform- and project-scope ones.
func (r tmRepo) folderTree(ctx context.Context, projectID int64, parentID *int64) ([]types.TMTreeNode, error) {
	folders, err := folderRepo{r.e}.listChildren(ctx, projectID, parentID)
	if err != nil {
		return nil, err
	}
	var out []types.TMTreeNode
	for _, f := range folders {
		fnode := types.TMTreeNode{ID: f.ID, Name: f.Name}
		fnode.TMs, err = r.GetForScope(ctx, types.Scope{Kind: types.ScopeFolder, FolderID: f.ID}, true)
		if err != nil {
			return nil, err
		}
		fnode.Folders, err = r.folderTree(ctx, projectID, &f.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, fnode)
	}
	return out, nil
}

func nowISO8601Millis() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}
