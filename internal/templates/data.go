package templates

import (
	"fmt"
	"html/template"
	"strings"
)

// Template kinds that exist only for operational copies.
const (
	KindOrderOps       = "order-confirmation-ops"
	KindApplicationOps = "affiliate-application-ops"
)

// Welcome is the data for welcome messages.
type Welcome struct {
	Name     string
	LoginURL string
}

// PasswordReset is the data for password-reset messages.
type PasswordReset struct {
	Code             string
	ExpiresInMinutes int
	ResetURL         string
}

type OrderItem struct {
	Name      string
	SKU       string
	Quantity  int
	UnitPrice float64
}

// Order is the data for order confirmations and their operational copy.
type Order struct {
	OrderNumber     string
	Source          string
	CustomerName    string
	CustomerEmail   string
	Items           []OrderItem
	Total           float64
	Currency        string
	ShippingAddress string
}

type StatusChange struct {
	OrderNumber    string
	CustomerName   string
	Status         string
	TrackingNumber string
	Note           string
}

// Credentials is the data for affiliate and customer credential messages.
// TemporaryPassword is empty when ExistingAccount is set.
type Credentials struct {
	Name              string
	Email             string
	TemporaryPassword string
	ExistingAccount   bool
	AffiliateCode     string
	LoginURL          string
}

type Application struct {
	Name          string
	Email         string
	ApplicationID string
}

var statusLabels = map[string]map[string]string{
	"sv": {"pending": "Mottagen", "confirmed": "Bekräftad", "processing": "Behandlas", "shipped": "Skickad", "delivered": "Levererad", "cancelled": "Avbruten"},
	"en": {"pending": "Received", "confirmed": "Confirmed", "processing": "Processing", "shipped": "Shipped", "delivered": "Delivered", "cancelled": "Cancelled"},
}

var funcs = template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"statusLabel": func(lang, status string) string {
		if l, ok := statusLabels[lang][strings.ToLower(status)]; ok {
			return l
		}
		return status
	},
}
