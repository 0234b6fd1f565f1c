package app

import (
	"github.com/yungbote/groupbuy-backend/internal/data/db"
	"github.com/yungbote/groupbuy-backend/internal/platform/logger"
	"github.com/yungbote/groupbuy-backend/internal/services"
)

type Services struct {
	Auth          services.AuthService
	Closer        services.CampaignCloser
	Campaign      services.CampaignService
	Participation services.ParticipationService
}

func wireServices(txr *db.Transactor, log *logger.Logger, cfg Config, repos Repos) Services {
	log.Info("Wiring services...")
	closer := services.NewCampaignCloser(txr, log, repos.Campaign, repos.Participation)
	return Services{
		Auth:   services.NewAuthService(log, cfg.JWTSecretKey),
		Closer: closer,
		Campaign: services.NewCampaignService(
			txr, log, repos.Campaign, repos.Participation, repos.User, closer,
		),
		Participation: services.NewParticipationService(
			txr, log, repos.Campaign, repos.Participation, repos.User, closer,
		),
	}
}
