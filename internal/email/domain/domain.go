package domain

import (
	"context"

	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/platform/errs"
)

// Envelope is one outbound message for one recipient. From defaults to the
// configured system address; Text is optional.
type Envelope struct {
	To      string
	From    string
	Subject string
	HTML    string
	Text    string
}

// Transport is an outbound mail provider.
type Transport interface {
	Name() string
	// Send submits env and returns the provider's message id.
	Send(ctx context.Context, env Envelope) (string, error)
	// Verify checks the provider is reachable and accepts our credentials.
	Verify(ctx context.Context) error
}

// Selector picks the transport to use for a call.
type Selector interface {
	Select(ctx context.Context) Transport
}

// Service is the delivery contract used by the dispatch pipeline.
type Service interface {
	// VerifyConnection reports whether the transport is usable. It never
	// fails; false means do not send.
	VerifyConnection(ctx context.Context) bool
	// Send delivers env and returns the transport-assigned message id.
	Send(ctx context.Context, env Envelope) (string, error)
}

// DeliveryOutcome is the result of one send attempt.
type DeliveryOutcome struct {
	Recipient string    `json:"recipient"`
	Success   bool      `json:"success"`
	MessageID string    `json:"messageId,omitempty"`
	Kind      errs.Kind `json:"kind,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Succeeded builds a successful outcome.
func Succeeded(recipient, messageID string) DeliveryOutcome {
	return DeliveryOutcome{Recipient: recipient, Success: true, MessageID: messageID}
}

// Failed builds a failed outcome carrying the caller-safe error message.
func Failed(recipient string, err error) DeliveryOutcome {
	return DeliveryOutcome{Recipient: recipient, Kind: errs.KindOf(err), Error: errs.PublicMessage(err)}
}
