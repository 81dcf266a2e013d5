package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dd "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/dispatch/domain"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/platform/errs"
)

func TestClientNotify_SendsKeyAndToken(t *testing.T) {
	var got *http.Request
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"success":true,"type":"password-reset","recipient":"a@x.se"}`))
	}))
	defer srv.Close()

	payload, err := buildPayload(dd.TypePasswordReset, "", "", "a@x.se", "ignored")
	require.NoError(t, err)

	res, err := newClient(srv.URL+"/", "tok").Notify(context.Background(), dd.TypePasswordReset, "reset-1", payload)
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/notifications/password-reset", got.URL.Path)
	assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))
	assert.Equal(t, "reset-1", got.Header.Get("Idempotency-Key"))
	assert.Equal(t, map[string]string{"email": "a@x.se"}, body)
	assert.True(t, res.Success)
	assert.Equal(t, dd.TypePasswordReset, res.Type)
}

func TestClientNotify_DecodesErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"kind":"DeliveryUnavailable","message":"mail transport unavailable"}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, "").Notify(context.Background(), dd.TypeWelcome, "", json.RawMessage(`{"email":"a@x.se"}`))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, errs.DeliveryUnavailable, apiErr.Body.Kind)
	assert.Contains(t, err.Error(), "mail transport unavailable")
}

func TestClientNotify_PlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, "").Notify(context.Background(), dd.TypeWelcome, "", json.RawMessage(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")
}

func TestEndpointFor(t *testing.T) {
	assert.Equal(t, "order-status", endpointFor(dd.TypeOrderStatusChange))
	assert.Equal(t, "affiliate-application", endpointFor(dd.TypeAffiliateApplication))
	assert.Equal(t, "customer-credentials", endpointFor(dd.TypeCustomerCredentials))
}

func TestParseType(t *testing.T) {
	typ, err := parseType("Order-Status")
	require.NoError(t, err)
	assert.Equal(t, dd.TypeOrderStatusChange, typ)

	typ, err = parseType("affiliate-application-received")
	require.NoError(t, err)
	assert.Equal(t, dd.TypeAffiliateApplication, typ)

	_, err = parseType("sms")
	assert.Error(t, err)
}

func TestBuildPayload(t *testing.T) {
	b, err := buildPayload(dd.TypeWelcome, "", "", "new@x.se", "Sam")
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"new@x.se","name":"Sam"}`, string(b))

	b, err = buildPayload(dd.TypeOrderStatusChange, "", `{"orderId":"o1"}`, "", "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"orderId":"o1"}`, string(b))

	_, err = buildPayload(dd.TypeOrderStatusChange, "", "", "a@x.se", "")
	assert.Error(t, err, "shortcuts only cover welcome and password-reset")

	_, err = buildPayload(dd.TypeWelcome, "", "{", "", "")
	assert.Error(t, err)
}

func TestOrderMessage(t *testing.T) {
	msg, err := orderMessage(dd.OrderCreatedEvent{
		OrderNumber:  "B2C-1001",
		Source:       "b2c",
		CustomerInfo: &dd.CustomerInfo{Email: "a@x.se"},
	})
	require.NoError(t, err)
	assert.Equal(t, "B2C-1001", string(msg.Key))

	var ev dd.OrderCreatedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	assert.Equal(t, "a@x.se", ev.CustomerInfo.Email)

	_, err = orderMessage(dd.OrderCreatedEvent{OrderNumber: "B2C-1002", Source: "b2c"})
	assert.Error(t, err, "no recipient")

	_, err = orderMessage(dd.OrderCreatedEvent{OrderNumber: " ", Source: "b2c", AccountID: "x"})
	assert.Equal(t, errs.InvalidArgument, errs.KindOf(err))
}

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{"default_locale=en", "ops_recipients=a@x.se,b@x.se"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"default_locale": "en", "ops_recipients": "a@x.se,b@x.se"}, got)

	_, err = parseAssignments([]string{"=x"})
	assert.Error(t, err)
	_, err = parseAssignments([]string{"novalue"})
	assert.Error(t, err)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "****", maskSecret("abcd"))
	assert.Equal(t, "abcd****mnop", maskSecret("abcdefghmnop"))
}
