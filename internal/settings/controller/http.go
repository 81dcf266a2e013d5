package controller

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	amw "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/auth/middleware"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/config"
	evdomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/events/domain"
	ldomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/locale/domain"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/platform/errs"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/platform/validation"
	sdomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/settings/domain"
)

// Controller exposes admin management of the notification runtime overrides.
// Only a whitelist of keys is accepted.
type Controller struct {
	repo      sdomain.Repository
	service   sdomain.Service
	adminRole string
	validate  *validation.Validator

	jwtMW echo.MiddlewareFunc
	pub   evdomain.Publisher
}

func New(repo sdomain.Repository, service sdomain.Service, adminRole string) *Controller {
	return &Controller{repo: repo, service: service, adminRole: adminRole, validate: validation.New()}
}

// WithJWT injects the JWT middleware for these endpoints.
func (h *Controller) WithJWT(mw echo.MiddlewareFunc) *Controller { h.jwtMW = mw; return h }

// WithPublisher injects an audit event publisher.
func (h *Controller) WithPublisher(p evdomain.Publisher) *Controller { h.pub = p; return h }

// Register mounts the settings endpoints.
func (h *Controller) Register(e *echo.Echo) {
	var mw []echo.MiddlewareFunc
	if h.jwtMW != nil {
		mw = append(mw, h.jwtMW)
	}
	mw = append(mw, h.requireAdmin)
	e.GET("/api/v1/notifications/settings", h.getSettings, mw...)
	e.PUT("/api/v1/notifications/settings", h.putSettings, mw...)
}

func (h *Controller) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := amw.Subject(c); !ok {
			return c.JSON(http.StatusUnauthorized, errs.Body{Kind: errs.Unauthenticated, Message: "unauthorized"})
		}
		if !amw.HasRole(c, h.adminRole) {
			return c.JSON(http.StatusForbidden, errs.Body{Kind: errs.PermissionDenied, Message: "admin role required"})
		}
		return next(c)
	}
}

type settingsResponse struct {
	EmailProvider       string   `json:"email_provider"`
	EmailFrom           string   `json:"email_from"`
	OpsRecipients       []string `json:"ops_recipients"`
	DefaultLocale       string   `json:"default_locale"`
	PasswordResetLimit  string   `json:"password_reset_limit"`
	PasswordResetWindow string   `json:"password_reset_window"`
	ApplicationLimit    string   `json:"application_limit"`
	ApplicationWindow   string   `json:"application_window"`
}

type putSettingsRequest struct {
	EmailProvider       *string `json:"email_provider"`
	EmailFrom           *string `json:"email_from"`
	OpsRecipients       *string `json:"ops_recipients"`
	DefaultLocale       *string `json:"default_locale"`
	PasswordResetLimit  *string `json:"password_reset_limit"`
	PasswordResetWindow *string `json:"password_reset_window"`
	ApplicationLimit    *string `json:"application_limit"`
	ApplicationWindow   *string `json:"application_window"`
}

func (h *Controller) getSettings(c echo.Context) error {
	ctx := c.Request().Context()
	prov, _ := h.service.GetString(ctx, sdomain.KeyEmailProvider, "")
	from, _ := h.service.GetString(ctx, sdomain.KeyEmailFrom, "")
	ops, _ := h.service.GetList(ctx, sdomain.KeyOpsRecipients, []string{})
	loc, _ := h.service.GetString(ctx, sdomain.KeyDefaultLocale, "")
	prl, _ := h.service.GetString(ctx, sdomain.KeyRLPasswordResetLimit, "")
	prw, _ := h.service.GetString(ctx, sdomain.KeyRLPasswordResetWindow, "")
	apl, _ := h.service.GetString(ctx, sdomain.KeyRLApplicationLimit, "")
	apw, _ := h.service.GetString(ctx, sdomain.KeyRLApplicationWindow, "")
	return c.JSON(http.StatusOK, settingsResponse{
		EmailProvider:       prov,
		EmailFrom:           from,
		OpsRecipients:       ops,
		DefaultLocale:       loc,
		PasswordResetLimit:  prl,
		PasswordResetWindow: prw,
		ApplicationLimit:    apl,
		ApplicationWindow:   apw,
	})
}

func (h *Controller) putSettings(c echo.Context) error {
	var req putSettingsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errs.Body{Kind: errs.InvalidArgument, Message: "invalid json"})
	}
	updates, err := h.normalize(req)
	if err != nil {
		return c.JSON(errs.HTTPStatus(errs.KindOf(err)), errs.ToBody(err))
	}

	ctx := c.Request().Context()
	changed := make([]string, 0, len(updates))
	for _, u := range updates {
		if err := h.repo.Upsert(ctx, u.key, u.value, false); err != nil {
			c.Logger().Errorf("settings upsert %s: %v", u.key, err)
			return c.JSON(http.StatusInternalServerError, errs.Body{Kind: errs.Internal, Message: "could not store settings"})
		}
		changed = append(changed, u.key)
	}
	if h.pub != nil && len(changed) > 0 {
		actor, _ := amw.Subject(c)
		_ = h.pub.Publish(ctx, evdomain.Event{
			Type:    evdomain.TypeSettingsUpdated,
			ActorID: actor,
			Meta:    map[string]string{"changed": strings.Join(changed, ",")},
			Time:    time.Now(),
		})
	}
	return c.NoContent(http.StatusNoContent)
}

type update struct{ key, value string }

// normalize validates the request and returns the writes in a stable order.
func (h *Controller) normalize(req putSettingsRequest) ([]update, error) {
	var out []update
	if req.EmailProvider != nil {
		v := strings.ToLower(strings.TrimSpace(*req.EmailProvider))
		if v != "" && v != "smtp" && v != "brevo" {
			return nil, errs.E(errs.InvalidArgument, "invalid email_provider")
		}
		out = append(out, update{sdomain.KeyEmailProvider, v})
	}
	if req.EmailFrom != nil {
		v := strings.TrimSpace(*req.EmailFrom)
		if v != "" {
			if err := h.validate.Var("email_from", v, "email"); err != nil {
				return nil, err
			}
		}
		out = append(out, update{sdomain.KeyEmailFrom, v})
	}
	if req.OpsRecipients != nil {
		list := config.SplitCSV(*req.OpsRecipients)
		for _, r := range list {
			if err := h.validate.Var("ops_recipients", r, "email"); err != nil {
				return nil, err
			}
		}
		out = append(out, update{sdomain.KeyOpsRecipients, strings.Join(list, ",")})
	}
	if req.DefaultLocale != nil {
		v := strings.TrimSpace(*req.DefaultLocale)
		if v != "" {
			loc, ok := ldomain.Canonicalize(v)
			if !ok {
				return nil, errs.E(errs.InvalidArgument, "invalid default_locale")
			}
			v = string(loc)
		}
		out = append(out, update{sdomain.KeyDefaultLocale, v})
	}
	for _, l := range []struct {
		field, key string
		val        *string
	}{
		{"password_reset_limit", sdomain.KeyRLPasswordResetLimit, req.PasswordResetLimit},
		{"application_limit", sdomain.KeyRLApplicationLimit, req.ApplicationLimit},
	} {
		if l.val == nil {
			continue
		}
		v := strings.TrimSpace(*l.val)
		if n, err := strconv.Atoi(v); v != "" && (err != nil || n <= 0) {
			return nil, errs.E(errs.InvalidArgument, "invalid %s", l.field)
		}
		out = append(out, update{l.key, v})
	}
	for _, w := range []struct {
		field, key string
		val        *string
	}{
		{"password_reset_window", sdomain.KeyRLPasswordResetWindow, req.PasswordResetWindow},
		{"application_window", sdomain.KeyRLApplicationWindow, req.ApplicationWindow},
	} {
		if w.val == nil {
			continue
		}
		v := strings.TrimSpace(*w.val)
		if d, err := time.ParseDuration(v); v != "" && (err != nil || d <= 0) {
			return nil, errs.E(errs.InvalidArgument, "invalid %s", w.field)
		}
		out = append(out, update{w.key, v})
	}
	return out, nil
}
