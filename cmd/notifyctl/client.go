package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	dd "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/dispatch/domain"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/platform/validation"
)

// Client talks to the notification API.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func newClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status int
	Body   validation.ErrorBody
}

func (e *APIError) Error() string {
	msg := e.Body.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Body.Kind != "" {
		return fmt.Sprintf("API error (%d %s): %s", e.Status, e.Body.Kind, msg)
	}
	return fmt.Sprintf("API error (%d): %s", e.Status, msg)
}

func (c *Client) do(ctx context.Context, method, path string, headers map[string]string, body, target any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	logVerbose("%s %s", method, c.BaseURL+path)
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	logVerbose("response status: %s", resp.Status)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(raw, &apiErr.Body) != nil {
			apiErr.Body.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}
	if target != nil {
		if err := json.Unmarshal(raw, target); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// Notify posts payload to the endpoint for typ. key, when set, is sent as
// the Idempotency-Key header.
func (c *Client) Notify(ctx context.Context, typ dd.Type, key string, payload any) (dd.Result, error) {
	var headers map[string]string
	if key != "" {
		headers = map[string]string{"Idempotency-Key": key}
	}
	var res dd.Result
	err := c.do(ctx, http.MethodPost, "/api/v1/notifications/"+endpointFor(typ), headers, payload, &res)
	return res, err
}

func endpointFor(typ dd.Type) string {
	switch typ {
	case dd.TypeOrderStatusChange:
		return "order-status"
	case dd.TypeAffiliateApplication:
		return "affiliate-application"
	}
	return string(typ)
}

type HealthResponse struct {
	Status  string `json:"status"`
	Time    string `json:"time"`
	Version string `json:"version"`
	DB      string `json:"db"`
	Cache   string `json:"cache"`
	Mail    string `json:"mail,omitempty"`
}

func (c *Client) Health(ctx context.Context, deep bool) (HealthResponse, error) {
	path := "/healthz"
	if deep {
		path += "?deep=1"
	}
	var h HealthResponse
	err := c.do(ctx, http.MethodGet, path, nil, nil, &h)
	return h, err
}

func (c *Client) GetSettings(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodGet, "/api/v1/notifications/settings", nil, nil, &out)
	return out, err
}

// PutSettings sends a partial update; only keys present in values change.
func (c *Client) PutSettings(ctx context.Context, values map[string]string) error {
	return c.do(ctx, http.MethodPut, "/api/v1/notifications/settings", nil, values, nil)
}
