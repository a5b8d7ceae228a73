package online

import (
	"context"

	"github.com/ldm-sh/ldm/internal/similarity"
	"github.com/ldm-sh/ldm/internal/storage"
	"github.com/ldm-sh/ldm/internal/types"
)

// similarRows decorates RowRepository, answering SuggestSimilar by scanning
// the TM entries active for the row's file or project scope and ranking
// them against the query source with character-trigram similarity. Every
// other method passes straight through to inner.
type similarRows struct {
	inner storage.RowRepository
	tms   storage.TMRepository
}

func (s similarRows) Get(ctx context.Context, id int64) (*types.Row, error) { return s.inner.Get(ctx, id) }
func (s similarRows) GetWithFile(ctx context.Context, id int64) (*types.Row, *types.File, error) {
	return s.inner.GetWithFile(ctx, id)
}
func (s similarRows) Create(ctx context.Context, row types.Row) (*types.Row, error) {
	return s.inner.Create(ctx, row)
}
func (s similarRows) Update(ctx context.Context, id int64, upd types.RowUpdate) (*types.Row, error) {
	return s.inner.Update(ctx, id, upd)
}
func (s similarRows) Delete(ctx context.Context, id int64) (bool, error) { return s.inner.Delete(ctx, id) }
func (s similarRows) BulkCreate(ctx context.Context, fileID int64, rows []types.Row) ([]types.Row, error) {
	return s.inner.BulkCreate(ctx, fileID, rows)
}
func (s similarRows) BulkUpdate(ctx context.Context, updates []types.BulkRowUpdate) (int, error) {
	return s.inner.BulkUpdate(ctx, updates)
}
func (s similarRows) GetForFile(ctx context.Context, fileID int64, filter types.RowFilter) ([]types.Row, int, error) {
	return s.inner.GetForFile(ctx, fileID, filter)
}
func (s similarRows) CountForFile(ctx context.Context, fileID int64) (int, error) {
	return s.inner.CountForFile(ctx, fileID)
}
func (s similarRows) AddEditHistory(ctx context.Context, entry types.EditHistoryEntry) error {
	return s.inner.AddEditHistory(ctx, entry)
}
func (s similarRows) GetEditHistory(ctx context.Context, rowID int64) ([]types.EditHistoryEntry, error) {
	return s.inner.GetEditHistory(ctx, rowID)
}

// SuggestSimilar ranks TM entries active for fileID (or projectID, when
// fileID is nil) against source. excludeRowID has no counterpart on TM
// entries (they aren't tied to a row) and is accepted only for interface
// parity with the offline stub.
func (s similarRows) SuggestSimilar(ctx context.Context, source string, fileID, projectID *int64, excludeRowID *int64, threshold float64, maxResults int) ([]types.TMSearchHit, error) {
	tmIDs, err := s.scopedTMIDs(ctx, fileID, projectID)
	if err != nil {
		return nil, err
	}
	return rankEntries(ctx, s.tms, tmIDs, source, threshold, maxResults)
}

func (s similarRows) scopedTMIDs(ctx context.Context, fileID, projectID *int64) ([]int64, error) {
	var seen = map[int64]bool{}
	var ids []int64
	add := func(id int64) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	if fileID != nil {
		scoped, err := s.tms.GetActiveForFile(ctx, *fileID)
		if err != nil {
			return nil, err
		}
		for _, st := range scoped {
			add(st.TM.ID)
		}
		return ids, nil
	}
	if projectID != nil {
		tms, err := s.tms.GetForScope(ctx, types.Scope{Kind: types.ScopeProject, ProjectID: *projectID}, false)
		if err != nil {
			return nil, err
		}
		for _, tm := range tms {
			add(tm.ID)
		}
	}
	return ids, nil
}

// similarTMs decorates TMRepository, answering SearchSimilar with a
// trigram-ranked scan of the TM's own entries. Every other method passes
// straight through to inner.
type similarTMs struct {
	inner storage.TMRepository
}

func (s similarTMs) Get(ctx context.Context, id int64) (*types.TM, error) { return s.inner.Get(ctx, id) }
func (s similarTMs) GetAll(ctx context.Context) ([]types.TM, error)      { return s.inner.GetAll(ctx) }
func (s similarTMs) Create(ctx context.Context, name, sourceLang, targetLang, ownerID string) (*types.TM, error) {
	return s.inner.Create(ctx, name, sourceLang, targetLang, ownerID)
}
func (s similarTMs) Delete(ctx context.Context, id int64) (bool, error) { return s.inner.Delete(ctx, id) }
func (s similarTMs) Assign(ctx context.Context, tmID int64, target types.Scope) error {
	return s.inner.Assign(ctx, tmID, target)
}
func (s similarTMs) Unassign(ctx context.Context, tmID int64) error { return s.inner.Unassign(ctx, tmID) }
func (s similarTMs) Activate(ctx context.Context, tmID int64) error { return s.inner.Activate(ctx, tmID) }
func (s similarTMs) Deactivate(ctx context.Context, tmID int64) error {
	return s.inner.Deactivate(ctx, tmID)
}
func (s similarTMs) GetAssignment(ctx context.Context, tmID int64) (*types.TMAssignment, error) {
	return s.inner.GetAssignment(ctx, tmID)
}
func (s similarTMs) GetForScope(ctx context.Context, scope types.Scope, includeInactive bool) ([]types.TM, error) {
	return s.inner.GetForScope(ctx, scope, includeInactive)
}
func (s similarTMs) GetActiveForFile(ctx context.Context, fileID int64) ([]types.ScopedTM, error) {
	return s.inner.GetActiveForFile(ctx, fileID)
}
func (s similarTMs) LinkToProject(ctx context.Context, tmID, projectID int64, priority int) error {
	return s.inner.LinkToProject(ctx, tmID, projectID, priority)
}
func (s similarTMs) UnlinkFromProject(ctx context.Context, tmID, projectID int64) error {
	return s.inner.UnlinkFromProject(ctx, tmID, projectID)
}
func (s similarTMs) GetLinkedForProject(ctx context.Context, projectID int64) (*types.TM, error) {
	return s.inner.GetLinkedForProject(ctx, projectID)
}
func (s similarTMs) GetAllLinkedForProject(ctx context.Context, projectID int64) ([]types.TMProjectLink, error) {
	return s.inner.GetAllLinkedForProject(ctx, projectID)
}
func (s similarTMs) AddEntry(ctx context.Context, tmID int64, source, target, stringID, createdBy string) (*types.TMEntry, error) {
	return s.inner.AddEntry(ctx, tmID, source, target, stringID, createdBy)
}
func (s similarTMs) AddEntriesBulk(ctx context.Context, tmID int64, entries []types.TMEntry) ([]types.TMEntry, error) {
	return s.inner.AddEntriesBulk(ctx, tmID, entries)
}
func (s similarTMs) GetEntries(ctx context.Context, tmID int64, offset, limit int) ([]types.TMEntry, error) {
	return s.inner.GetEntries(ctx, tmID, offset, limit)
}
func (s similarTMs) GetAllEntries(ctx context.Context, tmID int64) ([]types.TMEntry, error) {
	return s.inner.GetAllEntries(ctx, tmID)
}
func (s similarTMs) SearchEntries(ctx context.Context, tmID int64, query string, limit int) ([]types.TMSearchHit, error) {
	return s.inner.SearchEntries(ctx, tmID, query, limit)
}
func (s similarTMs) DeleteEntry(ctx context.Context, id int64) (bool, error) {
	return s.inner.DeleteEntry(ctx, id)
}
func (s similarTMs) UpdateEntry(ctx context.Context, id int64, target string) (*types.TMEntry, error) {
	return s.inner.UpdateEntry(ctx, id, target)
}
func (s similarTMs) ConfirmEntry(ctx context.Context, id int64, confirmedBy string) (*types.TMEntry, error) {
	return s.inner.ConfirmEntry(ctx, id, confirmedBy)
}
func (s similarTMs) BulkConfirmEntries(ctx context.Context, ids []int64, confirmedBy string) (int, error) {
	return s.inner.BulkConfirmEntries(ctx, ids, confirmedBy)
}
func (s similarTMs) GetGlossaryTerms(ctx context.Context, tmIDs []int64, maxSourceLength, limit int) ([]types.TMEntry, error) {
	return s.inner.GetGlossaryTerms(ctx, tmIDs, maxSourceLength, limit)
}
func (s similarTMs) GetIndexes(ctx context.Context, tmID int64) ([]types.TMIndexInfo, error) {
	return s.inner.GetIndexes(ctx, tmID)
}
func (s similarTMs) CountEntries(ctx context.Context, tmID int64) (int, error) {
	return s.inner.CountEntries(ctx, tmID)
}
func (s similarTMs) SearchExact(ctx context.Context, tmID int64, source string) ([]types.TMEntry, error) {
	return s.inner.SearchExact(ctx, tmID, source)
}
func (s similarTMs) SearchSimilar(ctx context.Context, tmID int64, source string, threshold float64, maxResults int) ([]types.TMSearchHit, error) {
	return rankEntries(ctx, s.inner, []int64{tmID}, source, threshold, maxResults)
}
func (s similarTMs) GetTree(ctx context.Context) (*types.TMTree, error) { return s.inner.GetTree(ctx) }

// rankEntries pools every entry of the given TMs and ranks them against
// source with character-trigram Jaccard similarity. This is a bounded
// full-scan, not a true index; acceptable for TM sizes this core targets,
// and the only option available without a database-side trigram extension.
func rankEntries(ctx context.Context, tms storage.TMRepository, tmIDs []int64, source string, threshold float64, maxResults int) ([]types.TMSearchHit, error) {
	if len(tmIDs) == 0 {
		return nil, nil
	}

	byKey := map[int64]types.TMEntry{}
	var candidates []similarity.Candidate
	nextKey := int64(0)
	for _, tmID := range tmIDs {
		entries, err := tms.GetAllEntries(ctx, tmID)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			nextKey++
			byKey[nextKey] = e
			candidates = append(candidates, similarity.Candidate{Key: nextKey, Source: e.SourceText})
		}
	}

	ranked := similarity.Rank(source, candidates, threshold, maxResults)
	out := make([]types.TMSearchHit, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, types.TMSearchHit{Entry: byKey[r.Key], Score: r.Score})
	}
	return out, nil
}
