package groupbuy

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/groupbuy-backend/internal/data/db"
	types "github.com/yungbote/groupbuy-backend/internal/domain"
	"github.com/yungbote/groupbuy-backend/internal/platform/dbctx"
	"github.com/yungbote/groupbuy-backend/internal/platform/logger"
)

// EndFilter selects campaigns to close. Conditions are ANDed; a zero filter
// matches nothing.
type EndFilter struct {
	IDs []uuid.UUID
	// ClosedBefore matches campaigns whose close_time is set and earlier.
	ClosedBefore *time.Time
}

func (f EndFilter) empty() bool {
	return len(f.IDs) == 0 && f.ClosedBefore == nil
}

type CampaignRepo interface {
	Create(dbc dbctx.Context, c *types.Campaign) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Campaign, error)
	// GetByIDForUpdate reads the row and, on postgres, holds a row lock until
	// the surrounding transaction ends.
	GetByIDForUpdate(dbc dbctx.Context, id uuid.UUID) (*types.Campaign, error)
	UpdateDetails(dbc dbctx.Context, c *types.Campaign) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
	ListByCommunity(dbc dbctx.Context, communityID uuid.UUID, limit, offset int) ([]*types.Campaign, error)
	IncrementViewCount(dbc dbctx.Context, id uuid.UUID) error
	// MarkEnded flips is_ended on every matching campaign that is still open
	// and returns how many rows changed.
	MarkEnded(dbc dbctx.Context, filter EndFilter) (int64, error)
}

type campaignRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCampaignRepo(db *gorm.DB, baseLog *logger.Logger) CampaignRepo {
	return &campaignRepo{
		db:  db,
		log: baseLog.With("repo", "CampaignRepo"),
	}
}

func (r *campaignRepo) Create(dbc dbctx.Context, c *types.Campaign) error {
	transaction := dbc.Resolve(r.db)
	if c == nil {
		return nil
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return transaction.Create(c).Error
}

func (r *campaignRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Campaign, error) {
	return r.get(dbc.Resolve(r.db), id)
}

func (r *campaignRepo) GetByIDForUpdate(dbc dbctx.Context, id uuid.UUID) (*types.Campaign, error) {
	transaction := dbc.Resolve(r.db)
	if db.IsPostgres(transaction) {
		transaction = transaction.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.get(transaction, id)
}

func (r *campaignRepo) get(q *gorm.DB, id uuid.UUID) (*types.Campaign, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var c types.Campaign
	err := q.Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateDetails writes the author-editable columns. is_ended and view_count
// have their own writers and are never touched here.
func (r *campaignRepo) UpdateDetails(dbc dbctx.Context, c *types.Campaign) error {
	transaction := dbc.Resolve(r.db)
	if c == nil || c.ID == uuid.Nil {
		return nil
	}
	return transaction.
		Model(&types.Campaign{}).
		Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"title":                   c.Title,
			"description":             c.Description,
			"product_name":            c.ProductName,
			"requested_product_count": c.RequestedProductCount,
			"unit_price":              c.UnitPrice,
			"external_link":           c.ExternalLink,
			"meeting_location":        c.MeetingLocation,
			"meeting_time":            c.MeetingTime,
			"open_time":               c.OpenTime,
			"close_time":              c.CloseTime,
			"person_limit":            c.PersonLimit,
			"end_choice":              c.EndChoice,
			"updated_at":              c.UpdatedAt,
		}).Error
}

// Delete removes the campaign together with its ledger rows.
func (r *campaignRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	transaction := dbc.Resolve(r.db)
	if id == uuid.Nil {
		return nil
	}
	if err := transaction.
		Where("campaign_id = ?", id).
		Delete(&types.ParticipationRecord{}).Error; err != nil {
		return err
	}
	return transaction.
		Where("id = ?", id).
		Delete(&types.Campaign{}).Error
}

func (r *campaignRepo) ListByCommunity(dbc dbctx.Context, communityID uuid.UUID, limit, offset int) ([]*types.Campaign, error) {
	transaction := dbc.Resolve(r.db)
	var out []*types.Campaign
	if communityID == uuid.Nil {
		return out, nil
	}
	q := transaction.
		Where("community_id = ?", communityID).
		Order("is_ended ASC").
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *campaignRepo) IncrementViewCount(dbc dbctx.Context, id uuid.UUID) error {
	transaction := dbc.Resolve(r.db)
	if id == uuid.Nil {
		return nil
	}
	return transaction.
		Model(&types.Campaign{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

func (r *campaignRepo) MarkEnded(dbc dbctx.Context, filter EndFilter) (int64, error) {
	transaction := dbc.Resolve(r.db)
	if filter.empty() {
		return 0, nil
	}
	q := transaction.
		Model(&types.Campaign{}).
		Where("is_ended = ?", false)
	if len(filter.IDs) > 0 {
		q = q.Where("id IN ?", filter.IDs)
	}
	if filter.ClosedBefore != nil {
		q = q.Where("close_time IS NOT NULL AND close_time < ?", filter.ClosedBefore.UTC())
	}
	res := q.Updates(map[string]interface{}{
		"is_ended":   true,
		"updated_at": time.Now().UTC().Truncate(time.Microsecond),
	})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
