package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/accounts/domain"
	dd "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/dispatch/domain"
	evdomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/events/domain"
	idomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/idempotency/domain"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/platform/errs"
	sdomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/settings/domain"
)

var (
	user  = dd.Caller{Subject: "user-1", Roles: []string{"reseller"}}
	admin = dd.Caller{Subject: "admin-1", Roles: []string{"admin"}}
)

func consumerOrder() dd.OrderCreatedEvent {
	return dd.OrderCreatedEvent{
		OrderNumber:  "B2C-1001",
		Source:       "b2c",
		CustomerInfo: &dd.CustomerInfo{Email: "a@x.se"},
	}
}

func TestHandleOrderCreated_DefaultLocaleWithFanOut(t *testing.T) {
	h := newHarness(t, "ops1@shop.se", "ops2@shop.se")

	res, err := h.svc.HandleOrderCreated(context.Background(), consumerOrder())
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.NotEmpty(t, res.MessageID)
	assert.Equal(t, "sv", string(res.Locale))
	assert.Equal(t, "a@x.se", res.Recipient)
	assert.ElementsMatch(t, []string{"a@x.se", "ops1@shop.se", "ops2@shop.se"}, h.delivery.sentTo())
	require.Len(t, res.FanOut, 2)
	assert.Equal(t, "ops1@shop.se", res.FanOut[0].Recipient)
	assert.Equal(t, "ops2@shop.se", res.FanOut[1].Recipient)

	primary, ok := h.delivery.envelopeFor("a@x.se")
	require.True(t, ok)
	assert.Contains(t, primary.Subject, "B2C-1001")
	assert.NotEmpty(t, primary.Text)
	assert.Contains(t, h.pub.types(), evdomain.TypeDispatchCompleted)
}

func TestHandleOrderCreated_EnglishDefaultStillFansOut(t *testing.T) {
	h := newHarnessWithDefault(t, "en", "ops1@shop.se", "ops2@shop.se")

	res, err := h.svc.HandleOrderCreated(context.Background(), consumerOrder())
	require.NoError(t, err)

	assert.Equal(t, "en", string(res.Locale))
	require.Len(t, res.FanOut, 2)
	for _, o := range res.FanOut {
		assert.True(t, o.Success, o.Recipient)
	}
	ops, ok := h.delivery.envelopeFor("ops1@shop.se")
	require.True(t, ok)
	assert.Contains(t, ops.Subject, "B2C-1001")
}

func TestPasswordReset_InvalidEmailMakesNoCalls(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.PasswordReset(context.Background(), dd.Caller{}, dd.PasswordResetRequest{Email: "not-an-email", CorrelationID: "r-1"})
	require.Error(t, err)
	assert.Equal(t, errs.InvalidArgument, errs.KindOf(err))
	assert.Zero(t, h.delivery.verifies)
	assert.Empty(t, h.delivery.sentTo())
	assert.Zero(t, h.accounts.lookups)
	assert.Zero(t, h.idem.claims)
}

func TestCredentials_ExistingAccount(t *testing.T) {
	h := newHarness(t)
	acc := h.accounts.add(adomain.Account{Kind: adomain.KindAffiliate, Email: "Kim@Fiske.se", Name: "Kim", AffiliateCode: "KIM10"})
	h.accounts.logins["kim@fiske.se"] = true
	hashed := false
	h.svc.hash = func(string) (string, error) { hashed = true; return "", nil }

	res, err := h.svc.AffiliateCredentials(context.Background(), admin, dd.CredentialsRequest{TargetAccountID: acc.ID.String()})
	require.NoError(t, err)

	require.NotNil(t, res.ExistingAccount)
	assert.True(t, *res.ExistingAccount)
	assert.Equal(t, "kim@fiske.se", res.Recipient)
	assert.False(t, hashed)

	env, ok := h.delivery.envelopeFor("kim@fiske.se")
	require.True(t, ok)
	assert.NotContains(t, env.HTML, "Tillfälligt lösenord")
	assert.NotContains(t, env.HTML, "TmpPass2345")
	assert.Contains(t, env.HTML, "KIM10")

	require.Len(t, h.accounts.issued, 1)
	assert.Empty(t, h.accounts.issued[0].PasswordHash)
	assert.Equal(t, fixedNow, h.accounts.issued[0].At)
}

func TestCredentials_NewAccountGetsTemporaryPassword(t *testing.T) {
	h := newHarness(t)
	acc := h.accounts.add(adomain.Account{Kind: adomain.KindBusinessUser, Email: "inkop@fiskebutik.se", Name: "Inköp"})

	res, err := h.svc.CustomerCredentials(context.Background(), admin, dd.CredentialsRequest{TargetAccountID: acc.ID.String()})
	require.NoError(t, err)

	require.NotNil(t, res.ExistingAccount)
	assert.False(t, *res.ExistingAccount)
	env, ok := h.delivery.envelopeFor("inkop@fiskebutik.se")
	require.True(t, ok)
	assert.Contains(t, env.HTML, "TmpPass2345")
	require.Len(t, h.accounts.issued, 1)
	assert.Equal(t, "hashed:TmpPass2345", h.accounts.issued[0].PasswordHash)
	assert.Equal(t, acc.ID, h.accounts.issued[0].Account.ID)
}

func TestCredentials_UnknownTargetIsNotFound(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.AffiliateCredentials(context.Background(), admin, dd.CredentialsRequest{TargetAccountID: uuid.NewString(), CorrelationID: "cred-1"})
	require.Error(t, err)
	assert.Equal(t, errs.NotFound, errs.KindOf(err))
	assert.Zero(t, h.delivery.verifies)
	assert.False(t, h.idem.has(idomain.Key{CorrelationID: "cred-1", NotificationType: string(dd.TypeAffiliateCredentials)}))
}

func TestCredentials_AuditFailureKeepsSuccess(t *testing.T) {
	h := newHarness(t)
	acc := h.accounts.add(adomain.Account{Kind: adomain.KindAffiliate, Email: "kim@fiske.se"})
	h.accounts.auditErr = errors.New("connection reset")

	res, err := h.svc.AffiliateCredentials(context.Background(), admin, dd.CredentialsRequest{TargetAccountID: acc.ID.String()})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"audit write failed"}, res.Warnings)
}

func TestCredentials_LoginCreatedConcurrentlyIsAuditWarning(t *testing.T) {
	h := newHarness(t)
	acc := h.accounts.add(adomain.Account{Kind: adomain.KindBusinessUser, Email: "shared@fiske.se"})
	h.accounts.auditErr = fmt.Errorf("create login for shared@fiske.se: %w", adomain.ErrLoginExists)

	res, err := h.svc.CustomerCredentials(context.Background(), admin, dd.CredentialsRequest{TargetAccountID: acc.ID.String()})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"audit write failed"}, res.Warnings)
	require.Len(t, h.delivery.sent, 1)
}

func TestOrderConfirmation_FanOutPartialFailure(t *testing.T) {
	h := newHarness(t, "r1@shop.se", "r2@shop.se")
	h.delivery.failFor["r2@shop.se"] = errors.New("550 mailbox unavailable")

	res, err := h.svc.OrderConfirmation(context.Background(), user, dd.OrderConfirmationRequest{
		OrderID:   "ord-77",
		Source:    "b2c",
		Recipient: "buyer@x.se",
		OrderSnapshot: dd.OrderSnapshot{
			Items: []dd.OrderItem{{Name: "B8Shield 3-pack", Quantity: 2, Price: 149}},
			Total: 298,
		},
	})
	require.NoError(t, err)

	assert.True(t, res.Success)
	require.Len(t, res.FanOut, 2)
	assert.Equal(t, "r1@shop.se", res.FanOut[0].Recipient)
	assert.True(t, res.FanOut[0].Success)
	assert.Equal(t, "r2@shop.se", res.FanOut[1].Recipient)
	assert.False(t, res.FanOut[1].Success)
	assert.Equal(t, errs.DeliveryFailed, res.FanOut[1].Kind)
	assert.Contains(t, h.pub.types(), evdomain.TypeFanOutFailed)
	assert.Equal(t, "ord-77", res.CorrelationID, "order id is the default correlation id")
}

func TestVerifyFailure_NeverSends(t *testing.T) {
	h := newHarness(t, "ops@shop.se")
	h.delivery.down = true

	_, err := h.svc.HandleOrderCreated(context.Background(), consumerOrder())
	require.Error(t, err)
	assert.Equal(t, errs.DeliveryUnavailable, errs.KindOf(err))
	assert.Equal(t, 1, h.delivery.verifies)
	assert.Empty(t, h.delivery.sentTo())
	assert.False(t, h.idem.has(idomain.Key{CorrelationID: "B2C-1001", NotificationType: string(dd.TypeOrderConfirmation)}),
		"record is released so the redelivered event can retry")
	assert.Contains(t, h.pub.types(), evdomain.TypeDispatchFailed)
}

func TestHandleOrderCreated_ReplayIsDuplicate(t *testing.T) {
	h := newHarness(t, "ops@shop.se")
	ctx := context.Background()

	first, err := h.svc.HandleOrderCreated(ctx, consumerOrder())
	require.NoError(t, err)
	require.False(t, first.Duplicate)

	second, err := h.svc.HandleOrderCreated(ctx, consumerOrder())
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.True(t, second.Duplicate)
	assert.Empty(t, second.MessageID)
	assert.Len(t, h.delivery.sentTo(), 2, "one primary and one ops copy in total")
	assert.Contains(t, h.pub.types(), evdomain.TypeDispatchDuplicate)
}

func TestSendFailure_ReleasesClaimForRetry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.delivery.failFor["a@x.se"] = errors.New("421 try again later")

	_, err := h.svc.HandleOrderCreated(ctx, consumerOrder())
	require.Error(t, err)
	assert.Equal(t, errs.DeliveryFailed, errs.KindOf(err))

	delete(h.delivery.failFor, "a@x.se")
	res, err := h.svc.HandleOrderCreated(ctx, consumerOrder())
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.Equal(t, []string{"a@x.se"}, h.delivery.sentTo())
}

func TestHandleOrderCreated_BusinessAccountRecipient(t *testing.T) {
	h := newHarness(t)
	acc := h.accounts.add(adomain.Account{Kind: adomain.KindBusinessUser, Email: "inkop@fiskebutik.se", Name: "Fiskebutiken"})

	res, err := h.svc.HandleOrderCreated(context.Background(), dd.OrderCreatedEvent{
		OrderNumber: "B2B-2001",
		Source:      "b2b",
		AccountID:   acc.ID.String(),
		Items:       []dd.OrderItem{{Name: "B8Shield 10-pack", Quantity: 5, Price: 399}},
	})
	require.NoError(t, err)
	assert.Equal(t, "inkop@fiskebutik.se", res.Recipient)
	env, ok := h.delivery.envelopeFor("inkop@fiskebutik.se")
	require.True(t, ok)
	assert.Contains(t, env.HTML, "Fiskebutiken")
}

func TestHandleOrderCreated_Rejections(t *testing.T) {
	tests := []struct {
		name string
		ev   dd.OrderCreatedEvent
		want errs.Kind
	}{
		{name: "no recipient", ev: dd.OrderCreatedEvent{OrderNumber: "B2C-1", Source: "b2c"}, want: errs.InvalidArgument},
		{name: "bad source", ev: dd.OrderCreatedEvent{OrderNumber: "X-1", Source: "pos", CustomerInfo: &dd.CustomerInfo{Email: "a@x.se"}}, want: errs.InvalidArgument},
		{name: "unknown account", ev: dd.OrderCreatedEvent{OrderNumber: "B2B-9", Source: "b2b", AccountID: uuid.NewString()}, want: errs.NotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			_, err := h.svc.HandleOrderCreated(context.Background(), tt.ev)
			require.Error(t, err)
			assert.Equal(t, tt.want, errs.KindOf(err))
			assert.Empty(t, h.delivery.sentTo())
		})
	}
}

func TestAuthorization(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Welcome(ctx, dd.Caller{}, dd.WelcomeRequest{Email: "new@x.se"})
	assert.Equal(t, errs.Unauthenticated, errs.KindOf(err))

	status := dd.OrderStatusRequest{OrderID: "ord-1", Recipient: "buyer@x.se", Status: "shipped"}
	_, err = h.svc.OrderStatusChange(ctx, user, status)
	assert.Equal(t, errs.PermissionDenied, errs.KindOf(err))

	_, err = h.svc.AffiliateCredentials(ctx, dd.Caller{}, dd.CredentialsRequest{TargetAccountID: "not-a-uuid"})
	assert.Equal(t, errs.Unauthenticated, errs.KindOf(err), "authorization is checked before the payload")

	res, err := h.svc.OrderStatusChange(ctx, admin, status)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, res.FanOut)
}

func TestPasswordReset_KnownAccount(t *testing.T) {
	h := newHarness(t)
	h.accounts.logins["kim@fiske.se"] = true

	res, err := h.svc.PasswordReset(context.Background(), dd.Caller{}, dd.PasswordResetRequest{Email: " Kim@Fiske.se "})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "kim@fiske.se", res.Recipient)
	assert.Empty(t, res.MessageID)
	assert.Empty(t, res.Locale)

	env, ok := h.delivery.envelopeFor("kim@fiske.se")
	require.True(t, ok)
	assert.Contains(t, env.HTML, "424242")
	require.Len(t, h.accounts.codes, 1)
	assert.Equal(t, "424242", h.accounts.codes[0].code)
	assert.Equal(t, fixedNow.Add(h.svc.opts.ResetCodeTTL), h.accounts.codes[0].expiresAt)
}

func TestPasswordReset_UnknownAccountLooksTheSame(t *testing.T) {
	h := newHarness(t)

	res, err := h.svc.PasswordReset(context.Background(), dd.Caller{}, dd.PasswordResetRequest{Email: "ghost@x.se", CorrelationID: "pr-1"})
	require.NoError(t, err)
	assert.Equal(t, dd.Result{Success: true, Type: dd.TypePasswordReset, Recipient: "ghost@x.se", CorrelationID: "pr-1"}, res)
	assert.Empty(t, h.delivery.sentTo())
	assert.Empty(t, h.accounts.codes)
	assert.False(t, h.idem.has(idomain.Key{CorrelationID: "pr-1", NotificationType: string(dd.TypePasswordReset)}))
}

func TestAffiliateApplication_OpsOverrideFromSettings(t *testing.T) {
	h := newHarness(t, "config-ops@shop.se")
	h.svc.Settings = mockSettings{lists: map[string][]string{
		sdomain.KeyOpsRecipients: {"Partners@shop.se", "partners@shop.se", " "},
	}}

	res, err := h.svc.AffiliateApplication(context.Background(), dd.Caller{}, dd.ApplicationRequest{
		Email:         "fiskare@x.se",
		Name:          "Alex",
		ApplicationID: "app-9",
	})
	require.NoError(t, err)
	require.Len(t, res.FanOut, 1)
	assert.Equal(t, "partners@shop.se", res.FanOut[0].Recipient)
	assert.ElementsMatch(t, []string{"fiskare@x.se", "partners@shop.se"}, h.delivery.sentTo())
}

func TestWelcome_UsesResolvedLocale(t *testing.T) {
	h := newHarness(t)
	h.svc.Locale = fixedLocale("en")

	res, err := h.svc.Welcome(context.Background(), user, dd.WelcomeRequest{Email: "new@x.se", Name: "Sam"})
	require.NoError(t, err)
	assert.Equal(t, "en", string(res.Locale))
	env, ok := h.delivery.envelopeFor("new@x.se")
	require.True(t, ok)
	assert.Contains(t, env.HTML, `lang="en"`)
}

func TestCancelledBeforeSendReleasesClaim(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.delivery.down = true

	_, err := h.svc.Welcome(ctx, user, dd.WelcomeRequest{Email: "new@x.se", CorrelationID: "w-1"})
	require.Error(t, err)
	assert.False(t, h.idem.has(idomain.Key{CorrelationID: "w-1", NotificationType: string(dd.TypeWelcome)}))
	assert.Equal(t, 1, h.idem.releases)
}
