package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	adomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/accounts/domain"
	edomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/email/domain"
	evdomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/events/domain"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/fanout"
	idomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/idempotency/domain"
	ldomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/locale/domain"
	lsvc "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/locale/service"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/logger"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/platform/errs"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/templates"
)

// captureDelivery records every call and fails sends for listed recipients.
type captureDelivery struct {
	mu       sync.Mutex
	down     bool
	failFor  map[string]error
	verifies int
	sent     []edomain.Envelope
}

func (d *captureDelivery) VerifyConnection(context.Context) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.verifies++
	return !d.down
}

func (d *captureDelivery) Send(_ context.Context, env edomain.Envelope) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err, ok := d.failFor[env.To]; ok {
		return "", errs.Wrap(errs.DeliveryFailed, err, "transport rejected message")
	}
	d.sent = append(d.sent, env)
	return fmt.Sprintf("<msg-%d@test>", len(d.sent)), nil
}

func (d *captureDelivery) sentTo() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.sent))
	for _, e := range d.sent {
		out = append(out, e.To)
	}
	return out
}

func (d *captureDelivery) envelopeFor(to string) (edomain.Envelope, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range d.sent {
		if e.To == to {
			return e, true
		}
	}
	return edomain.Envelope{}, false
}

type memIdempotency struct {
	mu       sync.Mutex
	records  map[string]time.Time
	claims   int
	releases int
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{records: map[string]time.Time{}}
}

func (m *memIdempotency) Claim(_ context.Context, key idomain.Key, now time.Time, ttl time.Duration) (idomain.Claim, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claims++
	if at, ok := m.records[key.String()]; ok && now.Sub(at) < ttl {
		return idomain.Claim{}, false, nil
	}
	m.records[key.String()] = now
	return idomain.Claim{Key: key, DispatchedAt: now}, true, nil
}

func (m *memIdempotency) Release(_ context.Context, c idomain.Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releases++
	if at, ok := m.records[c.Key.String()]; ok && at.Equal(c.DispatchedAt) {
		delete(m.records, c.Key.String())
	}
	return nil
}

func (m *memIdempotency) has(key idomain.Key) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[key.String()]
	return ok
}

type storedCode struct {
	email, code string
	expiresAt   time.Time
}

type fakeAccounts struct {
	mu       sync.Mutex
	records  map[uuid.UUID]adomain.Account
	logins   map[string]bool
	issued   []adomain.Issued
	codes    []storedCode
	lookups  int
	auditErr error
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{records: map[uuid.UUID]adomain.Account{}, logins: map[string]bool{}}
}

func (f *fakeAccounts) add(a adomain.Account) adomain.Account {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	f.records[a.ID] = a
	return a
}

func (f *fakeAccounts) Get(_ context.Context, kind adomain.Kind, id uuid.UUID) (adomain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	a, ok := f.records[id]
	if !ok || a.Kind != kind {
		return adomain.Account{}, fmt.Errorf("%s %s: %w", kind, id, adomain.ErrNotFound)
	}
	return a, nil
}

func (f *fakeAccounts) HasLogin(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	return f.logins[strings.ToLower(email)], nil
}

func (f *fakeAccounts) RecordCredentialsIssued(_ context.Context, in adomain.Issued) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.auditErr != nil {
		return f.auditErr
	}
	f.issued = append(f.issued, in)
	return nil
}

func (f *fakeAccounts) StoreResetCode(_ context.Context, email, code string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.auditErr != nil {
		return f.auditErr
	}
	f.codes = append(f.codes, storedCode{email: email, code: code, expiresAt: expiresAt})
	return nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []evdomain.Event
}

func (p *capturePublisher) Publish(_ context.Context, e evdomain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// fixedLocale resolves every identity to the same locale.
type fixedLocale ldomain.Locale

func (f fixedLocale) ResolvePreferredLocale(context.Context, string) ldomain.Locale {
	return ldomain.Locale(f)
}

type mockSettings struct{ lists map[string][]string }

func (m mockSettings) GetString(_ context.Context, _ string, def string) (string, error) {
	return def, nil
}

func (m mockSettings) GetDuration(_ context.Context, _ string, def time.Duration) (time.Duration, error) {
	return def, nil
}

func (m mockSettings) GetInt(_ context.Context, _ string, def int) (int, error) { return def, nil }

func (m mockSettings) GetList(_ context.Context, key string, def []string) ([]string, error) {
	if v, ok := m.lists[key]; ok {
		return v, nil
	}
	return def, nil
}

type harness struct {
	svc      *Service
	delivery *captureDelivery
	idem     *memIdempotency
	accounts *fakeAccounts
	pub      *capturePublisher
}

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// newHarness wires the service with the real template provider, fan-out
// orchestrator and a locale resolver without sources.
func newHarness(t *testing.T, ops ...string) *harness {
	t.Helper()
	return newHarnessWithDefault(t, "sv", ops...)
}

// newHarnessWithDefault builds a harness whose default locale is def.
func newHarnessWithDefault(t *testing.T, def ldomain.Locale, ops ...string) *harness {
	t.Helper()
	tpl, err := templates.New(def)
	require.NoError(t, err)
	h := &harness{
		delivery: &captureDelivery{failFor: map[string]error{}},
		idem:     newMemIdempotency(),
		accounts: newFakeAccounts(),
		pub:      &capturePublisher{},
	}
	log := logger.Nop()
	h.svc = New(Deps{
		Locale:      lsvc.New(nil, def, time.Second, log),
		Templates:   tpl,
		Delivery:    h.delivery,
		FanOut:      fanout.New(h.delivery, 2, log),
		Idempotency: h.idem,
		Accounts:    h.accounts,
		Publisher:   h.pub,
	}, Options{
		AdminRole:     "admin",
		OpsRecipients: ops,
		DefaultLocale: def,
		ResetCodeTTL:  15 * time.Minute,
		PublicBaseURL: "https://shop.example.se/",
	}, log)
	h.svc.now = func() time.Time { return fixedNow }
	h.svc.newCode = func() (string, error) { return "424242", nil }
	h.svc.newPassword = func() (string, error) { return "TmpPass2345", nil }
	h.svc.hash = func(pw string) (string, error) { return "hashed:" + pw, nil }
	return h
}
