package dispatch

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	arepo "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/accounts/repository"
	amw "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/auth/middleware"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/config"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/dispatch/consumer"
	ctrl "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/dispatch/controller"
	svc "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/dispatch/service"
	edomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/email/domain"
	evsvc "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/events/service"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/fanout"
	idomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/idempotency/domain"
	irepo "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/idempotency/repository"
	ldomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/locale/domain"
	lrepo "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/locale/repository"
	lsvc "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/locale/service"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/logger"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/platform/ratelimit"
	sdomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/settings/domain"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/templates"
)

// Deps are the process-wide resources the dispatch module is built from.
// Redis is only required when IDEMPOTENCY_STORE=redis.
type Deps struct {
	PG       *pgxpool.Pool
	Redis    *redis.Client
	Delivery edomain.Service
	Settings sdomain.Service
	Log      zerolog.Logger
}

// Build wires the dispatch service with its locale sources, templates,
// fan-out and idempotency store.
func Build(cfg config.Config, d Deps) (*svc.Service, error) {
	def, ok := ldomain.Canonicalize(cfg.DefaultLocale)
	if !ok {
		return nil, fmt.Errorf("invalid DEFAULT_LOCALE %q", cfg.DefaultLocale)
	}
	sources, err := lrepo.NewSources(d.PG, cfg.LocaleSources)
	if err != nil {
		return nil, err
	}
	resolver := lsvc.New(sources, def, cfg.LocaleLookupTimeout, logger.Component(d.Log, "locale"))
	if d.Settings != nil {
		resolver.WithSettings(d.Settings)
	}
	tpl, err := templates.New(def)
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_LOCALE: %w", err)
	}

	var store idomain.Store = irepo.NewPostgres(d.PG)
	if cfg.IdempotencyStore == "redis" {
		if d.Redis == nil {
			return nil, fmt.Errorf("IDEMPOTENCY_STORE=redis needs a redis client")
		}
		store = irepo.NewRedis(d.Redis)
	}

	deps := svc.Deps{
		Locale:      resolver,
		Templates:   tpl,
		Delivery:    d.Delivery,
		FanOut:      fanout.New(d.Delivery, cfg.FanOutConcurrency, logger.Component(d.Log, "fanout")),
		Idempotency: store,
		Accounts:    arepo.New(d.PG),
		Publisher:   evsvc.NewLogger(d.Log),
	}
	if d.Settings != nil {
		deps.Settings = d.Settings
	}
	return svc.New(deps, svc.Options{
		AdminRole:      cfg.AdminRole,
		OpsRecipients:  cfg.OpsRecipients,
		DefaultLocale:  def,
		IdempotencyTTL: cfg.IdempotencyTTL,
		ResetCodeTTL:   cfg.ResetCodeTTL,
		PublicBaseURL:  cfg.PublicBaseURL,
	}, logger.Component(d.Log, "dispatch")), nil
}

// Register mounts the notification routes. rl may be nil for
// process-local rate limiting.
func Register(e *echo.Echo, s *svc.Service, cfg config.Config, settings sdomain.Service, rl ratelimit.Store) {
	ctrl.New(s).
		WithJWT(amw.OptionalJWT(cfg)).
		WithRateLimit(settings, rl).
		Register(e)
}

// NewConsumer returns the order-created consumer, or nil when no brokers
// are configured.
func NewConsumer(cfg config.Config, s *svc.Service, log zerolog.Logger) *consumer.Consumer {
	if len(cfg.KafkaBrokers) == 0 {
		return nil
	}
	return consumer.New(consumer.NewReader(cfg), s, logger.Component(log, "order-events"))
}
