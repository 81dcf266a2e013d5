package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	db "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/db/sqlc"
)

type SQLCRepository struct{ q *db.Queries }

func New(dbtx db.DBTX) *SQLCRepository { return &SQLCRepository{q: db.New(dbtx)} }

func (r *SQLCRepository) Get(ctx context.Context, key string) (string, bool, error) {
	row, err := r.q.GetAppSetting(ctx, key)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.Value, true, nil
}

func (r *SQLCRepository) Upsert(ctx context.Context, key string, value string, secret bool) error {
	return r.q.UpsertAppSetting(ctx, db.UpsertAppSettingParams{
		ID:       pgtype.UUID{Bytes: uuid.New(), Valid: true},
		Key:      key,
		Value:    value,
		IsSecret: secret,
	})
}
