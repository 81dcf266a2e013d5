package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	ldomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/locale/domain"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/metrics"
	sdomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/settings/domain"
)

// Resolver consults sources in order; the first hit wins. A failing source
// is logged and skipped. With no hit the default locale is returned.
//
// Sources are read without a shared snapshot, so a write landing during
// resolution may or may not be observed.
type Resolver struct {
	sources  []ldomain.Source
	def      ldomain.Locale
	timeout  time.Duration
	settings sdomain.Service
	log      zerolog.Logger
}

var _ ldomain.Resolver = (*Resolver)(nil)

func New(sources []ldomain.Source, def ldomain.Locale, timeout time.Duration, log zerolog.Logger) *Resolver {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Resolver{sources: sources, def: def, timeout: timeout, log: log}
}

// WithSettings lets the default locale be overridden at runtime.
func (r *Resolver) WithSettings(s sdomain.Service) *Resolver { r.settings = s; return r }

func (r *Resolver) ResolvePreferredLocale(ctx context.Context, identity string) ldomain.Locale {
	identity = strings.ToLower(strings.TrimSpace(identity))
	if identity != "" {
		for _, src := range r.sources {
			res, err := r.lookup(ctx, src, identity)
			if err != nil {
				metrics.IncLocaleSourceError(src.Name())
				r.log.Warn().Err(err).Str("source", src.Name()).Msg("locale lookup failed, trying next source")
				continue
			}
			if res.Found {
				metrics.IncLocaleResolution(src.Name())
				return res.Locale
			}
		}
	}
	metrics.IncLocaleResolution("default")
	return r.defaultLocale(ctx)
}

func (r *Resolver) lookup(ctx context.Context, src ldomain.Source, identity string) (ldomain.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return src.Lookup(ctx, identity)
}

// DefaultLocale returns the canonical fallback locale.
func (r *Resolver) DefaultLocale(ctx context.Context) ldomain.Locale { return r.defaultLocale(ctx) }

func (r *Resolver) defaultLocale(ctx context.Context) ldomain.Locale {
	if r.settings != nil {
		if v, err := r.settings.GetString(ctx, sdomain.KeyDefaultLocale, ""); err == nil && v != "" {
			if l, ok := ldomain.Canonicalize(v); ok {
				return l
			}
		}
	}
	return r.def
}
