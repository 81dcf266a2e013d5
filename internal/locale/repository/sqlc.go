package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	db "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/db/sqlc"
	ldomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/locale/domain"
)

// Source names accepted in LOCALE_SOURCES.
const (
	SourceAffiliates    = "affiliates"
	SourceCustomers     = "customers"
	SourceBusinessUsers = "business_users"
)

type lookupFunc func(ctx context.Context, email string) (pgtype.Text, error)

// PostgresSource reads preferred_lang from one record table.
type PostgresSource struct {
	name   string
	lookup lookupFunc
}

func (s *PostgresSource) Name() string { return s.name }

func (s *PostgresSource) Lookup(ctx context.Context, identity string) (ldomain.Result, error) {
	v, err := s.lookup(ctx, identity)
	if errors.Is(err, pgx.ErrNoRows) {
		return ldomain.Miss, nil
	}
	if err != nil {
		return ldomain.Miss, fmt.Errorf("%s locale lookup: %w", s.name, err)
	}
	if !v.Valid {
		return ldomain.Miss, nil
	}
	l, ok := ldomain.Canonicalize(v.String)
	if !ok {
		return ldomain.Miss, nil
	}
	return ldomain.Hit(l), nil
}

// NewSources builds the ordered source list from names.
func NewSources(dbtx db.DBTX, names []string) ([]ldomain.Source, error) {
	q := db.New(dbtx)
	out := make([]ldomain.Source, 0, len(names))
	for _, n := range names {
		var fn lookupFunc
		switch n {
		case SourceAffiliates:
			fn = q.GetAffiliateLocaleByEmail
		case SourceCustomers:
			fn = q.GetCustomerLocaleByEmail
		case SourceBusinessUsers:
			fn = q.GetBusinessUserLocaleByEmail
		default:
			return nil, fmt.Errorf("unknown locale source %q", n)
		}
		out = append(out, &PostgresSource{name: n, lookup: fn})
	}
	return out, nil
}
