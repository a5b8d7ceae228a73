package sqlengine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ldm-sh/ldm/internal/schema"
	"github.com/ldm-sh/ldm/internal/types"
)

// capabilityRepo implements CapabilityRepository for the online backend.
// The offline adapter wraps this with a decorator that returns empty reads
// and CapabilityRequiresOnline on every grant, since capability grants are
// an online-only concept; the shared engine itself stays backend-agnostic
// and simply reads/writes whatever table its binder points at.
type capabilityRepo struct{ e *Engine }

func (r capabilityRepo) table() string { return r.e.binder.Table(schema.TableCapabilities) }

const capabilityCols = `id, user_id, capability_name, granted_by, granted_at, expires_at`

func (r capabilityRepo) scan(scanner interface{ Scan(...interface{}) error }) (*types.CapabilityGrant, error) {
	var g types.CapabilityGrant
	var expiresAt sql.NullTime
	if err := scanner.Scan(&g.ID, &g.UserID, &g.CapabilityName, &g.GrantedBy, &g.GrantedAt, &expiresAt); err != nil {
		return nil, wrapNotFound(err)
	}
	if expiresAt.Valid {
		g.ExpiresAt = &expiresAt.Time
	}
	return &g, nil
}

func (r capabilityRepo) Grant(ctx context.Context, userID string, capability types.CapabilityName, grantedBy string, expiresAt *int64) (*types.CapabilityGrant, error) {
	var expires *time.Time
	if expiresAt != nil {
		t := time.Unix(*expiresAt, 0).UTC()
		expires = &t
	}
	id, err := insertReturningID(ctx, r.e, r.table(),
		[]string{"user_id", "capability_name", "granted_by", "granted_at", "expires_at"},
		[]interface{}{userID, string(capability), grantedBy, time.Now().UTC(), expires})
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, capabilityCols, r.table())
	return r.scan(r.e.exec.QueryRowContext(ctx, q, id))
}

func (r capabilityRepo) Revoke(ctx context.Context, id int64) (bool, error) {
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.table())
	res, err := r.e.exec.ExecContext(ctx, q, id)
	if err != nil {
		return false, types.Wrap(types.Transient, err, "revoke capability")
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r capabilityRepo) GetForUser(ctx context.Context, userID string) ([]types.CapabilityGrant, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE user_id = ? AND (expires_at IS NULL OR expires_at > ?)`, capabilityCols, r.table())
	rows, err := r.e.exec.QueryContext(ctx, q, userID, time.Now().UTC())
	if err != nil {
		return nil, types.Wrap(types.Transient, err, "list capabilities for user")
	}
	defer rows.Close()
	var out []types.CapabilityGrant
	for rows.Next() {
		g, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func (r capabilityRepo) Has(ctx context.Context, userID string, capability types.CapabilityName) (bool, error) {
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE user_id = ? AND capability_name = ? AND (expires_at IS NULL OR expires_at > ?)`, r.table())
	var n int
	if err := r.e.exec.QueryRowContext(ctx, q, userID, string(capability), time.Now().UTC()).Scan(&n); err != nil {
		return false, types.Wrap(types.Transient, err, "check capability")
	}
	return n > 0, nil
}
