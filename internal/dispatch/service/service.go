package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	adomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/accounts/domain"
	dd "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/dispatch/domain"
	edomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/email/domain"
	evdomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/events/domain"
	idomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/idempotency/domain"
	ldomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/locale/domain"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/metrics"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/platform/errs"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/platform/validation"
	sdomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/settings/domain"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/templates"
)

// FanOut delivers operational copies; it never fails as a whole.
type FanOut interface {
	SendToMany(ctx context.Context, recipients []string, msg edomain.Envelope) []edomain.DeliveryOutcome
}

// Deps are the collaborators of the dispatch service. Settings and
// Publisher are optional.
type Deps struct {
	Locale      ldomain.Resolver
	Templates   templates.Renderer
	Delivery    edomain.Service
	FanOut      FanOut
	Idempotency idomain.Store
	Accounts    adomain.Repository
	Settings    sdomain.Service
	Publisher   evdomain.Publisher
}

type Options struct {
	AdminRole      string
	OpsRecipients  []string
	DefaultLocale  ldomain.Locale
	IdempotencyTTL time.Duration
	ResetCodeTTL   time.Duration
	PublicBaseURL  string
}

// Service runs notification requests through the dispatch state machine.
type Service struct {
	Deps
	opts     Options
	validate *validation.Validator
	log      zerolog.Logger

	now         func() time.Time
	newCode     func() (string, error)
	newPassword func() (string, error)
	hash        func(password string) (string, error)
}

func New(d Deps, opts Options, log zerolog.Logger) *Service {
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = 30 * 24 * time.Hour
	}
	if opts.ResetCodeTTL <= 0 {
		opts.ResetCodeTTL = 15 * time.Minute
	}
	if opts.DefaultLocale == "" {
		opts.DefaultLocale = "sv"
	}
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	return &Service{
		Deps:        d,
		opts:        opts,
		validate:    validation.New(),
		log:         log,
		now:         time.Now,
		newCode:     resetCode,
		newPassword: temporaryPassword,
		hash:        hashPassword,
	}
}

// plan describes one dispatch. Hooks run in pipeline order; nil hooks are
// skipped.
type plan struct {
	typ           dd.Type
	origin        dd.Origin
	caller        dd.Caller
	payload       any
	recipient     string
	correlationID string
	data          any

	// check adds validation the struct tags cannot express.
	check func() error
	// prepare runs after the idempotency gate. It may fill recipient and
	// data; skip ends the dispatch successfully without sending.
	prepare func(ctx context.Context, p *plan) (skip bool, err error)
	// audit persists side effects once the primary message is sent.
	audit  func(ctx context.Context, at time.Time) error
	ops    *opsCopy
	finish func(res *dd.Result)
}

// opsCopy is the operational message fanned out after the primary send.
type opsCopy struct {
	kind string
	data any
}

func (s *Service) dispatch(ctx context.Context, p *plan) (res dd.Result, err error) {
	started := time.Now()
	state := dd.StateReceived
	p.correlationID = strings.TrimSpace(p.correlationID)
	log := s.log.With().
		Str("type", string(p.typ)).
		Str("origin", string(p.origin)).
		Str("correlation_id", p.correlationID).
		Logger()
	to := func(next dd.State) {
		log.Debug().Str("from", string(state)).Str("to", string(next)).Msg("dispatch transition")
		state = next
	}
	res = dd.Result{Type: p.typ, CorrelationID: p.correlationID, Recipient: p.recipient}

	var claim *idomain.Claim
	defer func() {
		metrics.ObserveDispatchDuration(string(p.typ), time.Since(started).Seconds())
		if err == nil {
			return
		}
		if claim != nil && !state.Sent() {
			if rerr := s.Idempotency.Release(context.WithoutCancel(ctx), *claim); rerr != nil {
				log.Error().Err(rerr).Msg("release idempotency record")
			}
		}
		kind := errs.KindOf(err)
		log.Warn().Err(err).Str("state", string(state)).Str("kind", string(kind)).Msg("dispatch failed")
		to(dd.StateFailed)
		metrics.IncDispatchOutcome(string(p.typ), string(p.origin), string(kind))
		s.publish(ctx, evdomain.Event{
			Type:          evdomain.TypeDispatchFailed,
			CorrelationID: p.correlationID,
			Recipient:     p.recipient,
			ActorID:       p.caller.Subject,
			Meta:          map[string]string{"notification_type": string(p.typ), "kind": string(kind)},
		})
		res.Success = false
	}()

	if err := s.authorize(p.typ, p.caller); err != nil {
		return res, err
	}
	if err := s.validate.Validate(p.payload); err != nil {
		return res, err
	}
	if p.check != nil {
		if err := p.check(); err != nil {
			return res, err
		}
	}
	to(dd.StateValidated)

	if p.correlationID != "" {
		c, ok, err := s.Idempotency.Claim(ctx, idomain.Key{CorrelationID: p.correlationID, NotificationType: string(p.typ)}, s.now(), s.opts.IdempotencyTTL)
		if err != nil {
			return res, errs.Wrap(errs.Internal, err, "idempotency check failed")
		}
		if !ok {
			log.Info().Msg("duplicate dispatch suppressed")
			metrics.IncDispatchOutcome(string(p.typ), string(p.origin), "duplicate")
			s.publish(ctx, evdomain.Event{
				Type:          evdomain.TypeDispatchDuplicate,
				CorrelationID: p.correlationID,
				Recipient:     p.recipient,
				ActorID:       p.caller.Subject,
				Meta:          map[string]string{"notification_type": string(p.typ)},
			})
			res.Success, res.Duplicate = true, true
			to(dd.StateCompleted)
			return res, nil
		}
		claim = &c
	}

	if p.prepare != nil {
		skip, err := p.prepare(ctx, p)
		if err != nil {
			return res, err
		}
		res.Recipient = p.recipient
		if skip {
			// Nothing was sent, so a retry with the same key must not be
			// suppressed.
			if claim != nil {
				if rerr := s.Idempotency.Release(context.WithoutCancel(ctx), *claim); rerr != nil {
					log.Error().Err(rerr).Msg("release idempotency record")
				}
			}
			metrics.IncDispatchOutcome(string(p.typ), string(p.origin), "skipped")
			res.Success = true
			if p.finish != nil {
				p.finish(&res)
			}
			to(dd.StateCompleted)
			return res, nil
		}
	}
	if err := s.validate.Var("recipient", p.recipient, "required,email"); err != nil {
		return res, err
	}

	locale := s.Locale.ResolvePreferredLocale(ctx, p.recipient)
	res.Locale = locale
	to(dd.StateLocaleResolved)

	msg, err := s.Templates.Render(string(p.typ), locale, p.data)
	if err != nil {
		return res, errs.Wrap(errs.Internal, err, "render failed")
	}
	to(dd.StateRendered)

	if !s.Delivery.VerifyConnection(ctx) {
		return res, errs.E(errs.DeliveryUnavailable, "mail transport unavailable")
	}
	to(dd.StateConnectivityVerified)

	id, err := s.Delivery.Send(ctx, edomain.Envelope{To: p.recipient, Subject: msg.Subject, HTML: msg.HTML, Text: msg.Text})
	if err != nil {
		return res, err
	}
	res.Success, res.MessageID = true, id
	to(dd.StatePrimarySent)
	log.Info().Str("to", p.recipient).Str("message_id", id).Str("locale", string(locale)).Msg("primary message sent")

	if p.audit != nil {
		// The message is out; the audit write must not be lost to a
		// cancelled request.
		if aerr := p.audit(context.WithoutCancel(ctx), s.now()); aerr != nil {
			log.Error().Err(aerr).Msg("audit write failed after send")
			res.Warnings = append(res.Warnings, "audit write failed")
		}
	}

	if p.ops != nil {
		res.FanOut = s.fanOut(ctx, p, log)
		to(dd.StateFanOutAttempted)
	}

	if p.finish != nil {
		p.finish(&res)
	}
	to(dd.StateCompleted)
	metrics.IncDispatchOutcome(string(p.typ), string(p.origin), "success")
	s.publish(ctx, evdomain.Event{
		Type:          evdomain.TypeDispatchCompleted,
		CorrelationID: p.correlationID,
		Recipient:     p.recipient,
		ActorID:       p.caller.Subject,
		Meta: map[string]string{
			"notification_type": string(p.typ),
			"locale":            string(locale),
			"message_id":        id,
		},
	})
	return res, nil
}

func (s *Service) authorize(t dd.Type, c dd.Caller) error {
	switch t.Policy() {
	case dd.AuthCaller:
		if !c.Authenticated() {
			return errs.E(errs.Unauthenticated, "authentication required")
		}
	case dd.AuthAdmin:
		if !c.Authenticated() {
			return errs.E(errs.Unauthenticated, "authentication required")
		}
		if !c.System && !c.HasRole(s.opts.AdminRole) {
			return errs.E(errs.PermissionDenied, "admin role required")
		}
	}
	return nil
}

// fanOut renders the operational copy once and sends it to every ops
// recipient. Problems here never change the primary outcome.
func (s *Service) fanOut(ctx context.Context, p *plan, log zerolog.Logger) []edomain.DeliveryOutcome {
	recipients := s.opsRecipients(ctx)
	if len(recipients) == 0 || s.FanOut == nil {
		return nil
	}
	msg, err := s.Templates.Render(p.ops.kind, s.defaultLocale(ctx), p.ops.data)
	if err != nil {
		log.Error().Err(err).Str("kind", p.ops.kind).Msg("render operational copy")
		return nil
	}
	out := s.FanOut.SendToMany(ctx, recipients, edomain.Envelope{Subject: msg.Subject, HTML: msg.HTML, Text: msg.Text})
	for _, o := range out {
		metrics.IncFanOutOutcome(string(p.typ), o.Success)
		if o.Success {
			continue
		}
		s.publish(ctx, evdomain.Event{
			Type:          evdomain.TypeFanOutFailed,
			CorrelationID: p.correlationID,
			Recipient:     o.Recipient,
			Meta:          map[string]string{"notification_type": string(p.typ), "kind": string(o.Kind)},
		})
	}
	return out
}

// opsRecipients returns the operational list: the settings override when
// present, else configuration. Duplicates are dropped.
func (s *Service) opsRecipients(ctx context.Context) []string {
	list := s.opts.OpsRecipients
	if s.Settings != nil {
		v, err := s.Settings.GetList(ctx, sdomain.KeyOpsRecipients, list)
		if err != nil {
			s.log.Warn().Err(err).Msg("read ops recipients override")
		} else {
			list = v
		}
	}
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, r := range list {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

type defaultLocaler interface {
	DefaultLocale(ctx context.Context) ldomain.Locale
}

func (s *Service) defaultLocale(ctx context.Context) ldomain.Locale {
	if d, ok := s.Locale.(defaultLocaler); ok {
		return d.DefaultLocale(ctx)
	}
	return s.opts.DefaultLocale
}

func (s *Service) publish(ctx context.Context, e evdomain.Event) {
	if s.Publisher == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = s.now()
	}
	if err := s.Publisher.Publish(ctx, e); err != nil {
		s.log.Warn().Err(err).Str("event", e.Type).Msg("publish event")
	}
}

func (s *Service) loadAccount(ctx context.Context, kind adomain.Kind, id string) (adomain.Account, error) {
	uid, err := parseUUID(id)
	if err != nil {
		return adomain.Account{}, errs.Wrap(errs.InvalidArgument, err, "invalid targetAccountId")
	}
	acc, err := s.Accounts.Get(ctx, kind, uid)
	if errors.Is(err, adomain.ErrNotFound) {
		return adomain.Account{}, errs.Wrap(errs.NotFound, err, "account not found")
	}
	if err != nil {
		return adomain.Account{}, errs.Wrap(errs.Internal, err, "load account")
	}
	acc.Email = normalizeEmail(acc.Email)
	return acc, nil
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
