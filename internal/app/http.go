package app

import (
	"context"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/groupbuy-backend/internal/http"
	httpH "github.com/yungbote/groupbuy-backend/internal/http/handlers"
	httpMW "github.com/yungbote/groupbuy-backend/internal/http/middleware"
	"github.com/yungbote/groupbuy-backend/internal/observability"
	"github.com/yungbote/groupbuy-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health        *httpH.HealthHandler
	Campaign      *httpH.CampaignHandler
	Participation *httpH.ParticipationHandler
}

func wireHandlers(log *logger.Logger, services Services, theDB *gorm.DB, rdb *redis.Client) Handlers {
	log.Info("Wiring handlers...")
	checks := map[string]httpH.Pinger{
		"db": func(ctx context.Context) error {
			sqlDB, err := theDB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return Handlers{
		Health:        httpH.NewHealthHandler(checks),
		Campaign:      httpH.NewCampaignHandler(services.Campaign),
		Participation: httpH.NewParticipationHandler(services.Participation),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireServer(log *logger.Logger, cfg Config, m *observability.Metrics, handlers Handlers, middleware Middleware) *http.Server {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return http.NewServer(http.RouterConfig{
		Log:                  log,
		Metrics:              m,
		ServiceName:          serviceName,
		CORSOrigins:          cfg.CORSOrigins,
		AuthMiddleware:       middleware.Auth,
		HealthHandler:        handlers.Health,
		CampaignHandler:      handlers.Campaign,
		ParticipationHandler: handlers.Participation,
	})
}
