package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/groupbuy-backend/internal/http/handlers"
	httpMW "github.com/yungbote/groupbuy-backend/internal/http/middleware"
	"github.com/yungbote/groupbuy-backend/internal/observability"
	"github.com/yungbote/groupbuy-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler        *httpH.HealthHandler
	CampaignHandler      *httpH.CampaignHandler
	ParticipationHandler *httpH.ParticipationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(httpMW.Metrics(cfg.Metrics))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	protected := r.Group("/api")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Campaigns
		if cfg.CampaignHandler != nil {
			protected.GET("/communities/:id/campaigns", cfg.CampaignHandler.ListByCommunity)
			protected.POST("/communities/:id/campaigns", cfg.CampaignHandler.Create)
			protected.GET("/campaigns/:id", cfg.CampaignHandler.Detail)
			protected.PUT("/campaigns/:id", cfg.CampaignHandler.Update)
			protected.DELETE("/campaigns/:id", cfg.CampaignHandler.Delete)
			protected.POST("/campaigns/:id/end", cfg.CampaignHandler.End)
		}

		// Participation
		if cfg.ParticipationHandler != nil {
			protected.POST("/campaigns/:id/participation", cfg.ParticipationHandler.Submit)
		}
	}

	return r
}
