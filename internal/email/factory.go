package email

import (
	"github.com/rs/zerolog"

	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/config"
	edomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/email/domain"
	svc "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/email/service"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/logger"
	sdomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/settings/domain"
)

// NewDelivery builds the process-wide delivery service. Transports are
// constructed on first use; settings may be nil.
func NewDelivery(cfg config.Config, settings sdomain.Service, log zerolog.Logger) *svc.Delivery {
	d := svc.NewDelivery(func() edomain.Selector { return svc.NewRouter(settings, cfg) }, cfg, logger.Component(log, "email"))
	if settings != nil {
		d.WithSettings(settings)
	}
	return d
}
