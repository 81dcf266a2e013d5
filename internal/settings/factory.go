package settings

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	amw "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/auth/middleware"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/config"
	evsvc "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/events/service"
	ctrl "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/settings/controller"
	repo "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/settings/repository"
	svc "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/settings/service"
)

// Register wires the settings module, mounts its admin routes and returns
// the service for other modules to read overrides from.
func Register(e *echo.Echo, pg *pgxpool.Pool, cfg config.Config, log zerolog.Logger) *svc.Service {
	r := repo.New(pg)
	s := svc.New(r)
	ctrl.New(r, s, cfg.AdminRole).
		WithJWT(amw.NewJWT(cfg)).
		WithPublisher(evsvc.NewLogger(log)).
		Register(e)
	return s
}
