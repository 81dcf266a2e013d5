package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/config"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/dispatch"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/email"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/logger"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/metrics"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/platform/ratelimit"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/platform/validation"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/settings"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/version"
)

// @title           Courier notification API
// @version         1.0
// @description     Transactional email dispatch for the reseller portal.
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization

func main() {
	_ = godotenv.Load()
	if handleCLICommand(os.Args[1:]) {
		return
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.AppEnv)
	log.Info().Str("addr", cfg.AppAddr).Str("version", version.String()).Msg("starting api server")

	pgCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid DATABASE_URL")
	}
	pgPool, err := pgxpool.NewWithConfig(context.Background(), pgCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to create pg pool")
	}
	defer pgPool.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	defer redisClient.Close()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit("64K"))
	e.Use(middleware.Logger())
	e.Use(middleware.Secure())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(origin string) (bool, error) {
			return matchCORSOrigin(origin, cfg.CORSAllowedOrigins), nil
		},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Idempotency-Key"},
	}))
	e.Use(metrics.HTTPMiddleware("/metrics", "/healthz"))

	e.Validator = validation.New()

	settingsSvc := settings.Register(e, pgPool, cfg, log)
	delivery := email.NewDelivery(cfg, settingsSvc, log)

	dispatchSvc, err := dispatch.Build(cfg, dispatch.Deps{
		PG:       pgPool,
		Redis:    redisClient,
		Delivery: delivery,
		Settings: settingsSvc,
		Log:      log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("dispatch setup")
	}
	dispatch.Register(e, dispatchSvc, cfg, settingsSvc, ratelimit.NewRedisStore(redisClient))

	e.GET("/healthz", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 500*time.Millisecond)
		defer cancel()

		dbStatus := "ok"
		start := time.Now()
		if err := pgPool.Ping(ctx); err != nil {
			dbStatus = "down"
		}
		metrics.ObserveDBPing(time.Since(start).Seconds())
		metrics.SetDBUp(dbStatus == "ok")

		cacheStatus := "ok"
		start = time.Now()
		if _, err := redisClient.Ping(ctx).Result(); err != nil {
			cacheStatus = "down"
		}
		metrics.ObserveRedisPing(time.Since(start).Seconds())
		metrics.SetRedisUp(cacheStatus == "ok")

		body := map[string]any{
			"status":  "ok",
			"time":    time.Now().UTC().Format(time.RFC3339),
			"version": version.String(),
			"db":      dbStatus,
			"cache":   cacheStatus,
		}
		// The mail check talks to the provider, so only run it on request.
		if c.QueryParam("deep") == "1" {
			mail := "ok"
			if !delivery.VerifyConnection(c.Request().Context()) {
				mail = "down"
			}
			body["mail"] = mail
		}
		return c.JSON(http.StatusOK, body)
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := e.Start(cfg.AppAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if c := dispatch.NewConsumer(cfg, dispatchSvc, log); c != nil {
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.OrderEventsTopic).Msg("consuming order events")
		g.Go(func() error { return c.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return e.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	log.Info().Msg("server stopped")
}
