package service

import (
	"context"
	"strings"

	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/config"
	edomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/email/domain"
	sdomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/settings/domain"
)

var _ edomain.Selector = (*Router)(nil)

// Router picks the transport from the email.provider setting, falling back
// to EMAIL_PROVIDER.
type Router struct {
	cfg      config.Config
	settings sdomain.Service
	smtp     edomain.Transport
	brevo    edomain.Transport
}

func NewRouter(settings sdomain.Service, cfg config.Config) *Router {
	return &Router{cfg: cfg, settings: settings, smtp: NewSMTP(cfg), brevo: NewBrevo(cfg)}
}

func (r *Router) Select(ctx context.Context) edomain.Transport {
	prov := r.cfg.EmailProvider
	if r.settings != nil {
		prov, _ = r.settings.GetString(ctx, sdomain.KeyEmailProvider, r.cfg.EmailProvider)
	}
	switch strings.ToLower(prov) {
	case "brevo":
		return r.brevo
	default:
		return r.smtp
	}
}
