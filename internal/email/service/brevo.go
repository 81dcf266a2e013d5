package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/config"
	edomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/email/domain"
)

var _ edomain.Transport = (*Brevo)(nil)

// unconfirmedIDPrefix marks local ids for accepted messages whose provider
// id was not returned.
const unconfirmedIDPrefix = "brevo-unconfirmed:"

type Brevo struct {
	cfg  config.Config
	http *http.Client
}

func NewBrevo(cfg config.Config) *Brevo {
	return &Brevo{cfg: cfg, http: &http.Client{}}
}

func (b *Brevo) Name() string { return "brevo" }

type brevoAddress struct {
	Email string `json:"email"`
}

type brevoEmail struct {
	To          []brevoAddress `json:"to"`
	Sender      brevoAddress   `json:"sender"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
	TextContent string         `json:"textContent,omitempty"`
}

type brevoSendResponse struct {
	MessageID string `json:"messageId"`
}

func (b *Brevo) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	if b.cfg.BrevoAPIKey == "" {
		return nil, fmt.Errorf("brevo not configured")
	}
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, b.cfg.BrevoBaseURL+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", b.cfg.BrevoAPIKey)
	return b.http.Do(req)
}

func (b *Brevo) Send(ctx context.Context, env edomain.Envelope) (string, error) {
	resp, err := b.do(ctx, http.MethodPost, "/smtp/email", brevoEmail{
		To:          []brevoAddress{{Email: env.To}},
		Sender:      brevoAddress{Email: env.From},
		Subject:     env.Subject,
		HTMLContent: env.HTML,
		TextContent: env.Text,
	})
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("brevo send failed: %s", resp.Status)
	}
	// A 2xx means accepted, even when the body is unreadable.
	var out brevoSendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.MessageID == "" {
		return unconfirmedIDPrefix + uuid.NewString(), nil
	}
	return out.MessageID, nil
}

func (b *Brevo) Verify(ctx context.Context) error {
	resp, err := b.do(ctx, http.MethodGet, "/account", nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("brevo account check failed: %s", resp.Status)
	}
	return nil
}
