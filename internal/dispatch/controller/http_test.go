package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	amw "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/auth/middleware"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/config"
	dd "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/dispatch/domain"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/platform/errs"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/platform/ratelimit"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/platform/validation"
)

const signingKey = "dispatch-test-signing-key-000"

// recordingService captures the last call and answers with err when set.
type recordingService struct {
	caller dd.Caller
	req    any
	err    error
}

func (s *recordingService) answer(t dd.Type, caller dd.Caller, req any, recipient string) (dd.Result, error) {
	s.caller, s.req = caller, req
	if s.err != nil {
		return dd.Result{}, s.err
	}
	return dd.Result{Success: true, Type: t, Recipient: recipient, Locale: "sv", MessageID: "<m1@test>"}, nil
}

func (s *recordingService) OrderConfirmation(_ context.Context, c dd.Caller, r dd.OrderConfirmationRequest) (dd.Result, error) {
	return s.answer(dd.TypeOrderConfirmation, c, r, r.Recipient)
}

func (s *recordingService) OrderStatusChange(_ context.Context, c dd.Caller, r dd.OrderStatusRequest) (dd.Result, error) {
	return s.answer(dd.TypeOrderStatusChange, c, r, r.Recipient)
}

func (s *recordingService) Welcome(_ context.Context, c dd.Caller, r dd.WelcomeRequest) (dd.Result, error) {
	return s.answer(dd.TypeWelcome, c, r, r.Email)
}

func (s *recordingService) PasswordReset(_ context.Context, c dd.Caller, r dd.PasswordResetRequest) (dd.Result, error) {
	return s.answer(dd.TypePasswordReset, c, r, r.Email)
}

func (s *recordingService) AffiliateCredentials(_ context.Context, c dd.Caller, r dd.CredentialsRequest) (dd.Result, error) {
	return s.answer(dd.TypeAffiliateCredentials, c, r, "")
}

func (s *recordingService) CustomerCredentials(_ context.Context, c dd.Caller, r dd.CredentialsRequest) (dd.Result, error) {
	return s.answer(dd.TypeCustomerCredentials, c, r, "")
}

func (s *recordingService) AffiliateApplication(_ context.Context, c dd.Caller, r dd.ApplicationRequest) (dd.Result, error) {
	return s.answer(dd.TypeAffiliateApplication, c, r, r.Email)
}

type mockSettings struct{ ints map[string]int }

func (m mockSettings) GetString(_ context.Context, _ string, def string) (string, error) {
	return def, nil
}

func (m mockSettings) GetDuration(_ context.Context, _ string, def time.Duration) (time.Duration, error) {
	return def, nil
}

func (m mockSettings) GetInt(_ context.Context, key string, def int) (int, error) {
	if v, ok := m.ints[key]; ok {
		return v, nil
	}
	return def, nil
}

func (m mockSettings) GetList(_ context.Context, _ string, def []string) ([]string, error) {
	return def, nil
}

func setup(t *testing.T, settings mockSettings) (*echo.Echo, *recordingService) {
	t.Helper()
	svc := &recordingService{}
	e := echo.New()
	New(svc).
		WithJWT(amw.OptionalJWT(config.Config{JWTSigningKey: signingKey})).
		WithRateLimit(settings, ratelimit.NewMemoryStore()).
		Register(e)
	return e, svc
}

func do(e *echo.Echo, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func bearer(t *testing.T, roles ...string) map[string]string {
	t.Helper()
	tok, err := amw.Sign(signingKey, "user-7", roles, time.Minute)
	require.NoError(t, err)
	return map[string]string{echo.HeaderAuthorization: "Bearer " + tok}
}

func TestWelcome_PassesCallerAndIdempotencyKey(t *testing.T) {
	e, svc := setup(t, mockSettings{})
	h := bearer(t, "reseller")
	h[HeaderIdempotencyKey] = "welcome-42"

	rec := do(e, "/api/v1/notifications/welcome", `{"email":"new@x.se","name":"Sam","correlationId":"body-id"}`, h)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, dd.Caller{Subject: "user-7", Roles: []string{"reseller"}}, svc.caller)
	req := svc.req.(dd.WelcomeRequest)
	assert.Equal(t, "welcome-42", req.CorrelationID, "header wins over body")
	assert.Equal(t, "Sam", req.Name)

	var res dd.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, "<m1@test>", res.MessageID)
}

func TestAnonymousCallerReachesService(t *testing.T) {
	e, svc := setup(t, mockSettings{})
	svc.err = errs.E(errs.Unauthenticated, "authentication required")

	rec := do(e, "/api/v1/notifications/welcome", `{"email":"new@x.se"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, svc.caller.Authenticated())
}

func TestInvalidTokenRejected(t *testing.T) {
	e, svc := setup(t, mockSettings{})
	rec := do(e, "/api/v1/notifications/password-reset", `{"email":"a@x.se"}`, map[string]string{echo.HeaderAuthorization: "Bearer garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, svc.req)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		kind errs.Kind
		want int
	}{
		{errs.InvalidArgument, http.StatusBadRequest},
		{errs.PermissionDenied, http.StatusForbidden},
		{errs.NotFound, http.StatusNotFound},
		{errs.DeliveryUnavailable, http.StatusServiceUnavailable},
		{errs.DeliveryFailed, http.StatusBadGateway},
		{errs.Internal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			e, svc := setup(t, mockSettings{})
			svc.err = errs.E(tt.kind, "nope")
			rec := do(e, "/api/v1/notifications/customer-credentials", `{"targetAccountId":"5f1c3f0e-7d5b-4c36-9d0e-3c8a2b1e4f10"}`, bearer(t, "admin"))
			assert.Equal(t, tt.want, rec.Code)

			var body validation.ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.kind, body.Kind)
			assert.Equal(t, "nope", body.Message)
		})
	}
}

func TestMalformedJSON(t *testing.T) {
	e, svc := setup(t, mockSettings{})
	rec := do(e, "/api/v1/notifications/order-confirmation", `{"orderId":`, bearer(t))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid json")
	assert.Nil(t, svc.req)
}

func TestPasswordReset_AcceptedAndRateLimited(t *testing.T) {
	e, _ := setup(t, mockSettings{ints: map[string]int{"notify.ratelimit.password_reset.limit": 2}})

	for i := 0; i < 2; i++ {
		rec := do(e, "/api/v1/notifications/password-reset", `{"email":"a@x.se"}`, nil)
		require.Equal(t, http.StatusAccepted, rec.Code)
	}
	rec := do(e, "/api/v1/notifications/password-reset", `{"email":"a@x.se"}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// A different address has its own bucket.
	rec = do(e, "/api/v1/notifications/password-reset", `{"email":"b@x.se"}`, nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestRoutesReachTheirOperation(t *testing.T) {
	routes := map[string]string{
		"/api/v1/notifications/order-confirmation":    `{"orderId":"o1","source":"b2c","recipient":"a@x.se","orderSnapshot":{"items":[{"name":"x","quantity":1,"price":1}],"total":1}}`,
		"/api/v1/notifications/order-status":          `{"orderId":"o1","recipient":"a@x.se","status":"shipped"}`,
		"/api/v1/notifications/affiliate-credentials": `{"targetAccountId":"5f1c3f0e-7d5b-4c36-9d0e-3c8a2b1e4f10"}`,
		"/api/v1/notifications/affiliate-application": `{"email":"a@x.se","name":"Alex","applicationId":"app-1"}`,
	}
	want := map[string]any{
		"/api/v1/notifications/order-confirmation":    dd.OrderConfirmationRequest{},
		"/api/v1/notifications/order-status":          dd.OrderStatusRequest{},
		"/api/v1/notifications/affiliate-credentials": dd.CredentialsRequest{},
		"/api/v1/notifications/affiliate-application": dd.ApplicationRequest{},
	}
	for path, body := range routes {
		t.Run(path, func(t *testing.T) {
			e, svc := setup(t, mockSettings{})
			rec := do(e, path, body, bearer(t, "admin"))
			require.Less(t, rec.Code, 300, rec.Body.String())
			assert.IsType(t, want[path], svc.req)
		})
	}
}
