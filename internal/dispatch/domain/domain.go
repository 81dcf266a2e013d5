// Package domain holds the request, result and policy types of the
// notification dispatch entry.
package domain

import (
	"slices"

	edomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/email/domain"
	ldomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/locale/domain"
)

// Type is a notification type.
type Type string

const (
	TypeWelcome              Type = "welcome"
	TypePasswordReset        Type = "password-reset"
	TypeOrderConfirmation    Type = "order-confirmation"
	TypeOrderStatusChange    Type = "order-status-change"
	TypeAffiliateCredentials Type = "affiliate-credentials"
	TypeCustomerCredentials  Type = "customer-credentials"
	TypeAffiliateApplication Type = "affiliate-application-received"
)

// Types lists every supported notification type.
var Types = []Type{
	TypeWelcome,
	TypePasswordReset,
	TypeOrderConfirmation,
	TypeOrderStatusChange,
	TypeAffiliateCredentials,
	TypeCustomerCredentials,
	TypeAffiliateApplication,
}

// Origin records how a dispatch was triggered.
type Origin string

const (
	OriginDirect Origin = "direct"
	OriginEvent  Origin = "event"
)

// AuthPolicy is the caller requirement of a notification type.
type AuthPolicy int

const (
	// AuthPublic types may be triggered anonymously.
	AuthPublic AuthPolicy = iota
	// AuthCaller types need an authenticated caller.
	AuthCaller
	// AuthAdmin types need the admin role.
	AuthAdmin
)

// Policy returns the caller requirement for t.
func (t Type) Policy() AuthPolicy {
	switch t {
	case TypePasswordReset, TypeAffiliateApplication:
		return AuthPublic
	case TypeOrderStatusChange, TypeAffiliateCredentials, TypeCustomerCredentials:
		return AuthAdmin
	default:
		return AuthCaller
	}
}

// Caller is the principal on whose behalf a dispatch runs. System callers
// are internal triggers such as the order event consumer.
type Caller struct {
	Subject string
	Roles   []string
	System  bool
}

// SystemCaller is used by the order-created event path.
var SystemCaller = Caller{Subject: "system:order-events", System: true}

func (c Caller) Authenticated() bool { return c.System || c.Subject != "" }

func (c Caller) HasRole(role string) bool { return slices.Contains(c.Roles, role) }

// State is a step of the dispatch state machine. Failed is reachable from
// any state before PrimarySent.
type State string

const (
	StateReceived             State = "received"
	StateValidated            State = "validated"
	StateLocaleResolved       State = "locale_resolved"
	StateRendered             State = "rendered"
	StateConnectivityVerified State = "connectivity_verified"
	StatePrimarySent          State = "primary_sent"
	StateFanOutAttempted      State = "fanout_attempted"
	StateCompleted            State = "completed"
	StateFailed               State = "failed"
)

// Sent reports whether the primary message has gone out in state s.
func (s State) Sent() bool {
	switch s {
	case StatePrimarySent, StateFanOutAttempted, StateCompleted:
		return true
	}
	return false
}

type OrderItem struct {
	Name     string  `json:"name" validate:"notblank"`
	SKU      string  `json:"sku,omitempty"`
	Quantity int     `json:"quantity" validate:"gte=1"`
	Price    float64 `json:"price" validate:"gte=0"`
}

// OrderSnapshot is the order content rendered into a confirmation.
type OrderSnapshot struct {
	OrderNumber     string      `json:"orderNumber,omitempty"`
	CustomerName    string      `json:"customerName,omitempty"`
	Items           []OrderItem `json:"items" validate:"required,min=1,dive"`
	Total           float64     `json:"total" validate:"gte=0"`
	Currency        string      `json:"currency,omitempty"`
	ShippingAddress string      `json:"shippingAddress,omitempty"`
}

// OrderConfirmationRequest confirms an order to its buyer and copies the
// operational recipients. The order id doubles as the correlation id when
// none is given.
type OrderConfirmationRequest struct {
	OrderID       string        `json:"orderId" validate:"notblank"`
	Source        string        `json:"source" validate:"oneof=b2b b2c"`
	Recipient     string        `json:"recipient" validate:"required,email"`
	OrderSnapshot OrderSnapshot `json:"orderSnapshot"`
	CorrelationID string        `json:"correlationId,omitempty"`
}

type OrderStatusRequest struct {
	OrderID        string `json:"orderId" validate:"notblank"`
	Recipient      string `json:"recipient" validate:"required,email"`
	Status         string `json:"status" validate:"oneof=pending confirmed processing shipped delivered cancelled"`
	CustomerName   string `json:"customerName,omitempty"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
	Note           string `json:"note,omitempty" validate:"max=2000"`
	CorrelationID  string `json:"correlationId,omitempty"`
}

type WelcomeRequest struct {
	Email         string `json:"email" validate:"required,email"`
	Name          string `json:"name,omitempty" validate:"max=200"`
	CorrelationID string `json:"correlationId,omitempty"`
}

type PasswordResetRequest struct {
	Email         string `json:"email" validate:"required,email"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// CredentialsRequest targets an affiliate or business-user record by id.
type CredentialsRequest struct {
	TargetAccountID string `json:"targetAccountId" validate:"required,uuid"`
	CorrelationID   string `json:"correlationId,omitempty"`
}

type ApplicationRequest struct {
	Email         string `json:"email" validate:"required,email"`
	Name          string `json:"name" validate:"notblank,max=200"`
	ApplicationID string `json:"applicationId" validate:"notblank"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// CustomerInfo carries the buyer of a consumer order.
type CustomerInfo struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
}

// OrderCreatedEvent is the payload published when an order is created.
// Consumer orders carry CustomerInfo; business orders carry AccountID.
type OrderCreatedEvent struct {
	OrderNumber  string        `json:"orderNumber" validate:"notblank"`
	Source       string        `json:"source" validate:"oneof=b2b b2c"`
	Items        []OrderItem   `json:"items" validate:"dive"`
	Total        float64       `json:"total" validate:"gte=0"`
	Currency     string        `json:"currency,omitempty"`
	CustomerInfo *CustomerInfo `json:"customerInfo,omitempty"`
	AccountID    string        `json:"accountId,omitempty"`
}

// Result is the outcome of one dispatch. Success reflects only the primary
// message; fan-out failures are reported in FanOut without changing it.
type Result struct {
	Success         bool                      `json:"success"`
	Type            Type                      `json:"type"`
	Recipient       string                    `json:"recipient"`
	Locale          ldomain.Locale            `json:"locale,omitempty"`
	MessageID       string                    `json:"messageId,omitempty"`
	CorrelationID   string                    `json:"correlationId,omitempty"`
	Duplicate       bool                      `json:"duplicate,omitempty"`
	FanOut          []edomain.DeliveryOutcome `json:"fanOut,omitempty"`
	ExistingAccount *bool                     `json:"existingAccount,omitempty"`
	// Warnings lists post-send problems that did not affect the primary
	// outcome, such as a failed audit write.
	Warnings []string `json:"warnings,omitempty"`
}
