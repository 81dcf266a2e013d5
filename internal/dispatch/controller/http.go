package controller

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	amw "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/auth/middleware"
	dd "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/dispatch/domain"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/platform/errs"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/platform/ratelimit"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/platform/validation"
	sdomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/settings/domain"
)

// HeaderIdempotencyKey carries the correlation id of a direct request. It
// wins over a correlationId in the body.
const HeaderIdempotencyKey = "Idempotency-Key"

// Service is the dispatch entry as seen by HTTP callers.
type Service interface {
	OrderConfirmation(ctx context.Context, caller dd.Caller, req dd.OrderConfirmationRequest) (dd.Result, error)
	OrderStatusChange(ctx context.Context, caller dd.Caller, req dd.OrderStatusRequest) (dd.Result, error)
	Welcome(ctx context.Context, caller dd.Caller, req dd.WelcomeRequest) (dd.Result, error)
	PasswordReset(ctx context.Context, caller dd.Caller, req dd.PasswordResetRequest) (dd.Result, error)
	AffiliateCredentials(ctx context.Context, caller dd.Caller, req dd.CredentialsRequest) (dd.Result, error)
	CustomerCredentials(ctx context.Context, caller dd.Caller, req dd.CredentialsRequest) (dd.Result, error)
	AffiliateApplication(ctx context.Context, caller dd.Caller, req dd.ApplicationRequest) (dd.Result, error)
}

type Controller struct {
	svc Service

	jwtMW    echo.MiddlewareFunc
	settings sdomain.Service
	rl       ratelimit.Store
}

func New(svc Service) *Controller { return &Controller{svc: svc} }

// WithJWT injects the caller authentication middleware. Authorization per
// notification type is enforced by the service.
func (h *Controller) WithJWT(mw echo.MiddlewareFunc) *Controller { h.jwtMW = mw; return h }

// WithRateLimit enables settings-driven limits backed by store.
func (h *Controller) WithRateLimit(settings sdomain.Service, store ratelimit.Store) *Controller {
	h.settings = settings
	h.rl = store
	return h
}

func (h *Controller) Register(e *echo.Echo) {
	g := e.Group("/api/v1/notifications")
	if h.jwtMW != nil {
		g.Use(h.jwtMW)
	}

	mkPolicy := func(prefix, limKey, winKey string, defLim int, defWin time.Duration) ratelimit.Policy {
		p := ratelimit.Policy{Name: prefix, Window: defWin, Limit: defLim, Key: ratelimit.KeyEmailOrIP(prefix)}
		if h.settings != nil {
			p.WindowFunc = func(c echo.Context) time.Duration {
				d, _ := h.settings.GetDuration(c.Request().Context(), winKey, defWin)
				return d
			}
			p.LimitFunc = func(c echo.Context) int {
				n, _ := h.settings.GetInt(c.Request().Context(), limKey, defLim)
				return n
			}
		}
		return p
	}
	mkMW := func(p ratelimit.Policy) echo.MiddlewareFunc {
		if h.rl != nil {
			return ratelimit.MiddlewareWithStore(p, h.rl)
		}
		return ratelimit.Middleware(p)
	}
	rlReset := mkMW(mkPolicy("notify:password-reset", sdomain.KeyRLPasswordResetLimit, sdomain.KeyRLPasswordResetWindow, 5, time.Minute))
	rlApply := mkMW(mkPolicy("notify:application", sdomain.KeyRLApplicationLimit, sdomain.KeyRLApplicationWindow, 3, time.Minute))

	g.POST("/order-confirmation", h.orderConfirmation)
	g.POST("/order-status", h.orderStatus)
	g.POST("/welcome", h.welcome)
	g.POST("/password-reset", h.passwordReset, rlReset)
	g.POST("/affiliate-credentials", h.affiliateCredentials)
	g.POST("/customer-credentials", h.customerCredentials)
	g.POST("/affiliate-application", h.affiliateApplication, rlApply)
}

func caller(c echo.Context) dd.Caller {
	sub, ok := amw.Subject(c)
	if !ok {
		return dd.Caller{}
	}
	return dd.Caller{Subject: sub, Roles: amw.Roles(c)}
}

// bind decodes the JSON body and applies the Idempotency-Key header.
func bind(c echo.Context, req any, correlationID *string) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errs.Body{Kind: errs.InvalidArgument, Message: "invalid json"})
	}
	if key := strings.TrimSpace(c.Request().Header.Get(HeaderIdempotencyKey)); key != "" {
		*correlationID = key
	}
	return nil
}

func reply(c echo.Context, status int, res dd.Result, err error) error {
	if err != nil {
		return c.JSON(errs.HTTPStatus(errs.KindOf(err)), validation.ErrorResponse(err))
	}
	return c.JSON(status, res)
}

// orderConfirmation godoc
// @Summary      Send an order confirmation
// @Description  Confirms the order to the buyer and copies the operational recipients
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "correlation id; defaults to orderId"
// @Param        body  body  dd.OrderConfirmationRequest  true  "order"
// @Success      200   {object}  dd.Result
// @Failure      400   {object}  validation.ErrorBody
// @Failure      503   {object}  validation.ErrorBody
// @Router       /api/v1/notifications/order-confirmation [post]
func (h *Controller) orderConfirmation(c echo.Context) error {
	var req dd.OrderConfirmationRequest
	if err := bind(c, &req, &req.CorrelationID); err != nil {
		return err
	}
	res, err := h.svc.OrderConfirmation(c.Request().Context(), caller(c), req)
	return reply(c, http.StatusOK, res, err)
}

func (h *Controller) orderStatus(c echo.Context) error {
	var req dd.OrderStatusRequest
	if err := bind(c, &req, &req.CorrelationID); err != nil {
		return err
	}
	res, err := h.svc.OrderStatusChange(c.Request().Context(), caller(c), req)
	return reply(c, http.StatusOK, res, err)
}

func (h *Controller) welcome(c echo.Context) error {
	var req dd.WelcomeRequest
	if err := bind(c, &req, &req.CorrelationID); err != nil {
		return err
	}
	res, err := h.svc.Welcome(c.Request().Context(), caller(c), req)
	return reply(c, http.StatusOK, res, err)
}

// passwordReset godoc
// @Summary      Request a password reset code
// @Description  Always answers 202 for a well-formed address, whether or not an account exists
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Param        body  body  dd.PasswordResetRequest  true  "email"
// @Success      202   {object}  dd.Result
// @Failure      400   {object}  validation.ErrorBody
// @Failure      429   {object}  errs.Body
// @Router       /api/v1/notifications/password-reset [post]
func (h *Controller) passwordReset(c echo.Context) error {
	var req dd.PasswordResetRequest
	if err := bind(c, &req, &req.CorrelationID); err != nil {
		return err
	}
	res, err := h.svc.PasswordReset(c.Request().Context(), caller(c), req)
	return reply(c, http.StatusAccepted, res, err)
}

func (h *Controller) affiliateCredentials(c echo.Context) error {
	var req dd.CredentialsRequest
	if err := bind(c, &req, &req.CorrelationID); err != nil {
		return err
	}
	res, err := h.svc.AffiliateCredentials(c.Request().Context(), caller(c), req)
	return reply(c, http.StatusOK, res, err)
}

func (h *Controller) customerCredentials(c echo.Context) error {
	var req dd.CredentialsRequest
	if err := bind(c, &req, &req.CorrelationID); err != nil {
		return err
	}
	res, err := h.svc.CustomerCredentials(c.Request().Context(), caller(c), req)
	return reply(c, http.StatusOK, res, err)
}

// affiliateApplication godoc
// @Summary      Acknowledge an affiliate application
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Param        body  body  dd.ApplicationRequest  true  "application"
// @Success      202   {object}  dd.Result
// @Failure      400   {object}  validation.ErrorBody
// @Failure      429   {object}  errs.Body
// @Router       /api/v1/notifications/affiliate-application [post]
func (h *Controller) affiliateApplication(c echo.Context) error {
	var req dd.ApplicationRequest
	if err := bind(c, &req, &req.CorrelationID); err != nil {
		return err
	}
	res, err := h.svc.AffiliateApplication(c.Request().Context(), caller(c), req)
	return reply(c, http.StatusAccepted, res, err)
}
