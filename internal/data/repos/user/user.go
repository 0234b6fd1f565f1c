package user

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/groupbuy-backend/internal/domain"
	"github.com/yungbote/groupbuy-backend/internal/platform/dbctx"
	"github.com/yungbote/groupbuy-backend/internal/platform/logger"
)

// UserRepo reads the account projection shared with the identity service.
type UserRepo interface {
	GetByID(dbc dbctx.Context, userID uuid.UUID) (*types.User, error)
	GetByIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.User, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) GetByID(dbc dbctx.Context, userID uuid.UUID) (*types.User, error) {
	transaction := dbc.Resolve(ur.db)
	if userID == uuid.Nil {
		return nil, nil
	}
	var u types.User
	err := transaction.Where("id = ?", userID).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (ur *userRepo) GetByIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.User, error) {
	transaction := dbc.Resolve(ur.db)

	var results []*types.User

	if len(userIDs) == 0 {
		return results, nil
	}

	if err := transaction.
		Where("id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
