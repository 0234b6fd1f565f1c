package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/groupbuy-backend/internal/data/repos"
	"github.com/yungbote/groupbuy-backend/internal/platform/logger"
)

type Repos struct {
	User          repos.UserRepo
	Campaign      repos.CampaignRepo
	Participation repos.ParticipationRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:          repos.NewUserRepo(db, log),
		Campaign:      repos.NewCampaignRepo(db, log),
		Participation: repos.NewParticipationRepo(db, log),
	}
}
