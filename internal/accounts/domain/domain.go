package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes the record tables that can receive credentials.
type Kind string

const (
	KindAffiliate    Kind = "affiliate"
	KindBusinessUser Kind = "business_user"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("account not found")

// ErrLoginExists is returned when a temporary password could not be stored
// because a login for the address was created concurrently.
var ErrLoginExists = errors.New("login already exists")

// Account is the part of an affiliate or business-user record the dispatch
// pipeline reads.
type Account struct {
	ID                uuid.UUID
	Kind              Kind
	Email             string
	Name              string
	AffiliateCode     string
	CredentialsSent   bool
	CredentialsSentAt *time.Time
}

// Issued describes a completed credential send.
type Issued struct {
	Account Account
	// PasswordHash is set when a new login was provisioned; empty for an
	// existing login.
	PasswordHash string
	At           time.Time
}

// Repository reads accounts and persists the audit side effects of sends.
type Repository interface {
	Get(ctx context.Context, kind Kind, id uuid.UUID) (Account, error)
	HasLogin(ctx context.Context, email string) (bool, error)
	// RecordCredentialsIssued provisions the login (when PasswordHash is
	// set) and marks the record's credential flags in one transaction.
	RecordCredentialsIssued(ctx context.Context, in Issued) error
	StoreResetCode(ctx context.Context, email, code string, expiresAt time.Time) error
}
