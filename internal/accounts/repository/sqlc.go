package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	adomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/accounts/domain"
	db "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/db/sqlc"
)

// DB is satisfied by *pgxpool.Pool.
type DB interface {
	db.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

type SQLCRepository struct {
	pool DB
	q    *db.Queries
}

var _ adomain.Repository = (*SQLCRepository)(nil)

func New(pool DB) *SQLCRepository { return &SQLCRepository{pool: pool, q: db.New(pool)} }

func toPgUUID(id uuid.UUID) pgtype.UUID { return pgtype.UUID{Bytes: id, Valid: true} }

func toTimePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func (r *SQLCRepository) Get(ctx context.Context, kind adomain.Kind, id uuid.UUID) (adomain.Account, error) {
	switch kind {
	case adomain.KindAffiliate:
		row, err := r.q.GetAffiliateByID(ctx, toPgUUID(id))
		if err != nil {
			return adomain.Account{}, mapErr(err, kind, id)
		}
		return adomain.Account{
			ID:                id,
			Kind:              kind,
			Email:             row.Email,
			Name:              row.Name,
			AffiliateCode:     row.AffiliateCode,
			CredentialsSent:   row.CredentialsSent,
			CredentialsSentAt: toTimePtr(row.CredentialsSentAt),
		}, nil
	case adomain.KindBusinessUser:
		row, err := r.q.GetBusinessUserByID(ctx, toPgUUID(id))
		if err != nil {
			return adomain.Account{}, mapErr(err, kind, id)
		}
		name := row.ContactName
		if strings.TrimSpace(name) == "" {
			name = row.CompanyName
		}
		return adomain.Account{
			ID:                id,
			Kind:              kind,
			Email:             row.Email,
			Name:              name,
			CredentialsSent:   row.CredentialsSent,
			CredentialsSentAt: toTimePtr(row.CredentialsSentAt),
		}, nil
	}
	return adomain.Account{}, fmt.Errorf("unknown account kind %q", kind)
}

func mapErr(err error, kind adomain.Kind, id uuid.UUID) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", kind, id, adomain.ErrNotFound)
	}
	return fmt.Errorf("get %s %s: %w", kind, id, err)
}

func (r *SQLCRepository) HasLogin(ctx context.Context, email string) (bool, error) {
	_, err := r.q.GetLoginAccountByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup login: %w", err)
	}
	return true, nil
}

func (r *SQLCRepository) RecordCredentialsIssued(ctx context.Context, in adomain.Issued) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	q := r.q.WithTx(tx)

	fresh := in.PasswordHash != ""
	if fresh {
		n, err := q.CreateLoginAccount(ctx, db.CreateLoginAccountParams{
			ID:           toPgUUID(uuid.New()),
			Email:        in.Account.Email,
			PasswordHash: in.PasswordHash,
		})
		if err != nil {
			return fmt.Errorf("create login: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("create login for %s: %w", in.Account.Email, adomain.ErrLoginExists)
		}
	}
	at := pgtype.Timestamptz{Time: in.At, Valid: true}
	var n int64
	switch in.Account.Kind {
	case adomain.KindAffiliate:
		n, err = q.MarkAffiliateCredentialsSent(ctx, db.MarkAffiliateCredentialsSentParams{ID: toPgUUID(in.Account.ID), CredentialsSentAt: at, RequiresPasswordChange: fresh})
	case adomain.KindBusinessUser:
		n, err = q.MarkBusinessUserCredentialsSent(ctx, db.MarkBusinessUserCredentialsSentParams{ID: toPgUUID(in.Account.ID), CredentialsSentAt: at, RequiresPasswordChange: fresh})
	default:
		return fmt.Errorf("unknown account kind %q", in.Account.Kind)
	}
	if err != nil {
		return fmt.Errorf("mark credentials sent: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", in.Account.Kind, in.Account.ID, adomain.ErrNotFound)
	}
	return tx.Commit(ctx)
}

func (r *SQLCRepository) StoreResetCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	return r.q.CreatePasswordResetCode(ctx, db.CreatePasswordResetCodeParams{
		ID:        toPgUUID(uuid.New()),
		Email:     strings.ToLower(email),
		Code:      code,
		ExpiresAt: pgtype.Timestamptz{Time: expiresAt, Valid: true},
	})
}
