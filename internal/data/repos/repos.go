package repos

import (
	"github.com/yungbote/groupbuy-backend/internal/data/repos/groupbuy"
	"github.com/yungbote/groupbuy-backend/internal/data/repos/user"
	"github.com/yungbote/groupbuy-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type UserRepo = user.UserRepo

type CampaignRepo = groupbuy.CampaignRepo
type ParticipationRepo = groupbuy.ParticipationRepo
type EndFilter = groupbuy.EndFilter

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }

func NewCampaignRepo(db *gorm.DB, baseLog *logger.Logger) CampaignRepo {
	return groupbuy.NewCampaignRepo(db, baseLog)
}
func NewParticipationRepo(db *gorm.DB, baseLog *logger.Logger) ParticipationRepo {
	return groupbuy.NewParticipationRepo(db, baseLog)
}
