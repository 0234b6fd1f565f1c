package groupbuy

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/groupbuy-backend/internal/domain"
	"github.com/yungbote/groupbuy-backend/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-backend/internal/platform/dbctx"
	"github.com/yungbote/groupbuy-backend/internal/platform/logger"
)

// ParticipationRepo is plain storage for ledger rows; it applies no
// capacity or lifecycle rules.
type ParticipationRepo interface {
	FindActive(dbc dbctx.Context, campaignID, userID uuid.UUID) (*types.ParticipationRecord, error)
	FindAny(dbc dbctx.Context, campaignID, userID uuid.UUID) (*types.ParticipationRecord, error)
	SumActiveQuantity(dbc dbctx.Context, campaignID uuid.UUID, excludeUserID *uuid.UUID) (int64, error)
	CountActive(dbc dbctx.Context, campaignID uuid.UUID, excludeUserID *uuid.UUID) (int64, error)
	// Upsert inserts rec or, when the (campaign, user) row exists, overwrites
	// its quantity and state in place.
	Upsert(dbc dbctx.Context, rec *types.ParticipationRecord) error
	ListActive(dbc dbctx.Context, campaignID uuid.UUID) ([]*types.ParticipationRecord, error)
}

type participationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewParticipationRepo(db *gorm.DB, baseLog *logger.Logger) ParticipationRepo {
	return &participationRepo{
		db:  db,
		log: baseLog.With("repo", "ParticipationRepo"),
	}
}

func (r *participationRepo) FindActive(dbc dbctx.Context, campaignID, userID uuid.UUID) (*types.ParticipationRecord, error) {
	transaction := dbc.Resolve(r.db)
	return r.find(transaction.Where("state = ?", groupbuy.ParticipationActive), campaignID, userID)
}

func (r *participationRepo) FindAny(dbc dbctx.Context, campaignID, userID uuid.UUID) (*types.ParticipationRecord, error) {
	return r.find(dbc.Resolve(r.db), campaignID, userID)
}

func (r *participationRepo) find(q *gorm.DB, campaignID, userID uuid.UUID) (*types.ParticipationRecord, error) {
	if campaignID == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}
	var rec types.ParticipationRecord
	err := q.
		Where("campaign_id = ? AND user_id = ?", campaignID, userID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *participationRepo) activeScope(dbc dbctx.Context, campaignID uuid.UUID, excludeUserID *uuid.UUID) *gorm.DB {
	q := dbc.Resolve(r.db).
		Model(&types.ParticipationRecord{}).
		Where("campaign_id = ? AND state = ?", campaignID, groupbuy.ParticipationActive)
	if excludeUserID != nil && *excludeUserID != uuid.Nil {
		q = q.Where("user_id <> ?", *excludeUserID)
	}
	return q
}

func (r *participationRepo) SumActiveQuantity(dbc dbctx.Context, campaignID uuid.UUID, excludeUserID *uuid.UUID) (int64, error) {
	var total int64
	if campaignID == uuid.Nil {
		return 0, nil
	}
	err := r.activeScope(dbc, campaignID, excludeUserID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *participationRepo) CountActive(dbc dbctx.Context, campaignID uuid.UUID, excludeUserID *uuid.UUID) (int64, error) {
	var count int64
	if campaignID == uuid.Nil {
		return 0, nil
	}
	if err := r.activeScope(dbc, campaignID, excludeUserID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *participationRepo) Upsert(dbc dbctx.Context, rec *types.ParticipationRecord) error {
	transaction := dbc.Resolve(r.db)
	if rec == nil {
		return nil
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	return transaction.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "campaign_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "state", "updated_at"}),
		}).
		Create(rec).Error
}

func (r *participationRepo) ListActive(dbc dbctx.Context, campaignID uuid.UUID) ([]*types.ParticipationRecord, error) {
	transaction := dbc.Resolve(r.db)
	var out []*types.ParticipationRecord
	if campaignID == uuid.Nil {
		return out, nil
	}
	if err := transaction.
		Where("campaign_id = ? AND state = ?", campaignID, groupbuy.ParticipationActive).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
