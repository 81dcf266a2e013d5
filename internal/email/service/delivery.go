package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/config"
	edomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/email/domain"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/metrics"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/platform/errs"
	sdomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/settings/domain"
)

var _ edomain.Service = (*Delivery)(nil)

// Delivery is the process-wide delivery service. Build one at startup and
// inject it; the transport selector is constructed on first use, exactly once.
type Delivery struct {
	newSelector func() edomain.Selector
	once        sync.Once
	selector    edomain.Selector

	from          string
	providerFrom  map[string]string
	settings      sdomain.Service
	sendTimeout   time.Duration
	verifyTimeout time.Duration
	log           zerolog.Logger
}

// NewDelivery returns a Delivery that builds its selector with newSelector.
func NewDelivery(newSelector func() edomain.Selector, cfg config.Config, log zerolog.Logger) *Delivery {
	return &Delivery{
		newSelector:   newSelector,
		from:          cfg.SMTPFrom,
		providerFrom:  map[string]string{"brevo": cfg.BrevoSender},
		sendTimeout:   cfg.EmailSendTimeout,
		verifyTimeout: cfg.EmailVerifyTimeout,
		log:           log,
	}
}

// WithSettings enables the email.from override.
func (d *Delivery) WithSettings(s sdomain.Service) *Delivery { d.settings = s; return d }

func (d *Delivery) transport(ctx context.Context) edomain.Transport {
	d.once.Do(func() { d.selector = d.newSelector() })
	return d.selector.Select(ctx)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (d *Delivery) VerifyConnection(ctx context.Context) (ok bool) {
	provider := "unknown"
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Str("provider", provider).Interface("panic", r).Msg("mail transport check panicked")
			ok = false
		}
		metrics.SetMailTransportUp(provider, ok)
	}()
	t := d.transport(ctx)
	provider = t.Name()
	ctx, cancel := withTimeout(ctx, d.verifyTimeout)
	defer cancel()
	start := time.Now()
	if err := t.Verify(ctx); err != nil {
		d.log.Warn().Err(err).Str("provider", provider).Dur("elapsed", time.Since(start)).Msg("mail transport unreachable")
		return false
	}
	d.log.Debug().Str("provider", provider).Dur("elapsed", time.Since(start)).Msg("mail transport verified")
	return true
}

func (d *Delivery) Send(ctx context.Context, env edomain.Envelope) (string, error) {
	to, err := ValidateAddress(env.To)
	if err != nil {
		return "", err
	}
	env.To = to

	t := d.transport(ctx)
	if strings.TrimSpace(env.From) == "" {
		env.From = d.defaultFrom(ctx, t.Name())
	}
	ctx, cancel := withTimeout(ctx, d.sendTimeout)
	defer cancel()
	start := time.Now()
	id, err := t.Send(ctx, env)
	elapsed := time.Since(start)
	metrics.ObserveMailSend(t.Name(), err == nil, elapsed.Seconds())
	if err != nil {
		d.log.Error().Err(err).Str("provider", t.Name()).Str("to", env.To).Dur("elapsed", elapsed).Msg("mail send failed")
		return "", errs.Wrap(errs.DeliveryFailed, err, "transport rejected message")
	}
	d.log.Info().Str("provider", t.Name()).Str("to", env.To).Str("message_id", id).Dur("elapsed", elapsed).Msg("mail sent")
	return id, nil
}

// defaultFrom returns the email.from override, else the sender configured
// for provider, else SMTP_FROM.
func (d *Delivery) defaultFrom(ctx context.Context, provider string) string {
	from := d.from
	if v := strings.TrimSpace(d.providerFrom[provider]); v != "" {
		from = v
	}
	if d.settings != nil {
		if v, err := d.settings.GetString(ctx, sdomain.KeyEmailFrom, from); err == nil && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return from
}

// ValidateAddress checks that addr is a single bare address and returns it
// trimmed. Failures are InvalidArgument.
func ValidateAddress(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", errs.E(errs.InvalidArgument, "recipient address is required")
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Address != addr {
		return "", errs.Wrap(errs.InvalidArgument, fmt.Errorf("parse %q: %w", addr, errOrMismatch(err)), "recipient is not a valid email address")
	}
	if !strings.Contains(addr[strings.LastIndex(addr, "@")+1:], ".") {
		return "", errs.E(errs.InvalidArgument, "recipient is not a valid email address")
	}
	return addr, nil
}

func errOrMismatch(err error) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("display names are not accepted")
}
