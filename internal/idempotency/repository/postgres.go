package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	db "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/db/sqlc"
	idomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/idempotency/domain"
)

// Postgres stores records in dispatch_idempotency.
type Postgres struct{ q *db.Queries }

var _ idomain.Store = (*Postgres)(nil)

func NewPostgres(dbtx db.DBTX) *Postgres { return &Postgres{q: db.New(dbtx)} }

func ts(t time.Time) pgtype.Timestamptz { return pgtype.Timestamptz{Time: t, Valid: true} }

func (p *Postgres) Claim(ctx context.Context, key idomain.Key, now time.Time, ttl time.Duration) (idomain.Claim, bool, error) {
	// timestamptz keeps microseconds; Release matches on this value.
	now = now.UTC().Truncate(time.Microsecond)
	n, err := p.q.ClaimDispatch(ctx, db.ClaimDispatchParams{
		CorrelationID:    key.CorrelationID,
		NotificationType: key.NotificationType,
		DispatchedAt:     ts(now),
		ExpiresAt:        ts(now.Add(ttl)),
	})
	if err != nil {
		return idomain.Claim{}, false, fmt.Errorf("claim %s: %w", key, err)
	}
	if n == 0 {
		return idomain.Claim{}, false, nil
	}
	return idomain.Claim{Key: key, DispatchedAt: now}, true, nil
}

func (p *Postgres) Release(ctx context.Context, c idomain.Claim) error {
	_, err := p.q.ReleaseDispatch(ctx, db.ReleaseDispatchParams{
		CorrelationID:    c.Key.CorrelationID,
		NotificationType: c.Key.NotificationType,
		DispatchedAt:     ts(c.DispatchedAt),
	})
	if err != nil {
		return fmt.Errorf("release %s: %w", c.Key, err)
	}
	return nil
}
