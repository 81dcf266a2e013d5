package domain

import (
	"context"
	"time"
)

// Service provides typed access to runtime settings. Every getter returns
// def when the key is unset, blank or unparsable.
type Service interface {
	GetString(ctx context.Context, key string, def string) (string, error)
	GetDuration(ctx context.Context, key string, def time.Duration) (time.Duration, error)
	GetInt(ctx context.Context, key string, def int) (int, error)
	GetList(ctx context.Context, key string, def []string) ([]string, error)
}

// Repository abstracts storage of app settings.
type Repository interface {
	// Get returns (value, found, err) for an exact key.
	Get(ctx context.Context, key string) (string, bool, error)
	Upsert(ctx context.Context, key string, value string, secret bool) error
}

// Keys
const (
	// KeyEmailProvider selects the mail transport: smtp | brevo.
	KeyEmailProvider = "email.provider"
	KeyEmailFrom     = "email.from"
	// KeyOpsRecipients is a comma separated list of operational recipients.
	KeyOpsRecipients = "notify.ops_recipients"
	KeyDefaultLocale = "notify.default_locale"
)

// Rate limiting keys for the public notification endpoints.
// Windows are Go duration strings ("1m", "10s"); limits are integers.
const (
	KeyRLPasswordResetLimit  = "notify.ratelimit.password_reset.limit"
	KeyRLPasswordResetWindow = "notify.ratelimit.password_reset.window"
	KeyRLApplicationLimit    = "notify.ratelimit.application.limit"
	KeyRLApplicationWindow   = "notify.ratelimit.application.window"
)
