package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/groupbuy-backend/internal/data/db"
	"github.com/yungbote/groupbuy-backend/internal/data/repos"
	types "github.com/yungbote/groupbuy-backend/internal/domain"
	"github.com/yungbote/groupbuy-backend/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-backend/internal/platform/dbctx"
	"github.com/yungbote/groupbuy-backend/internal/platform/logger"
)

type CampaignInput struct {
	CategoryID uuid.UUID
	Terms      groupbuy.Terms
	Schedule   groupbuy.Schedule
}

// CampaignView is a campaign with its derived, read-time state.
type CampaignView struct {
	*types.Campaign
	Status            groupbuy.Status `json:"status"`
	StatusLabel       string          `json:"status_label"`
	ParticipantCount  int64           `json:"participant_count"`
	ActiveQuantity    int64           `json:"active_quantity"`
	RemainingSlots    int64           `json:"remaining_slots"`
	RemainingQuantity *int64          `json:"remaining_quantity,omitempty"`
}

type ParticipantView struct {
	UserID   uuid.UUID `json:"user_id"`
	Nickname string    `json:"nickname"`
	ImageURL string    `json:"image_url,omitempty"`
	Quantity int       `json:"product_quantity"`
	JoinedAt time.Time `json:"joined_at"`
}

type CampaignDetail struct {
	CampaignView
	Participants []ParticipantView `json:"participants"`
	// ViewerQuantity is the caller's active quantity, 0 when not participating.
	ViewerQuantity int  `json:"viewer_quantity"`
	IsAuthor       bool `json:"is_author"`
}

type CampaignService interface {
	Create(ctx context.Context, authorID, communityID uuid.UUID, in CampaignInput) (*types.Campaign, error)
	Update(ctx context.Context, authorID, campaignID uuid.UUID, in CampaignInput) (*types.Campaign, error)
	Get(ctx context.Context, campaignID uuid.UUID) (*types.Campaign, error)
	Delete(ctx context.Context, authorID, campaignID uuid.UUID) error
	ListByCommunity(ctx context.Context, communityID uuid.UUID, limit, offset int) ([]*CampaignView, error)
	// Detail counts a view and returns the campaign with its participants.
	Detail(ctx context.Context, viewerID, campaignID uuid.UUID) (*CampaignDetail, error)
	SelfEnd(ctx context.Context, authorID, campaignID uuid.UUID) (*types.Campaign, error)
}

type campaignService struct {
	txr       *db.Transactor
	log       *logger.Logger
	campaigns repos.CampaignRepo
	ledger    repos.ParticipationRepo
	users     repos.UserRepo
	closer    CampaignCloser
	now       func() time.Time
}

func NewCampaignService(
	txr *db.Transactor,
	baseLog *logger.Logger,
	campaigns repos.CampaignRepo,
	ledger repos.ParticipationRepo,
	users repos.UserRepo,
	closer CampaignCloser,
) CampaignService {
	return &campaignService{
		txr:       txr,
		log:       baseLog.With("service", "CampaignService"),
		campaigns: campaigns,
		ledger:    ledger,
		users:     users,
		closer:    closer,
		now:       time.Now,
	}
}

func (s *campaignService) Create(ctx context.Context, authorID, communityID uuid.UUID, in CampaignInput) (*types.Campaign, error) {
	if authorID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing author", groupbuy.ErrValidation)
	}
	if communityID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing community", groupbuy.ErrValidation)
	}
	now := groupbuy.NormalizeTime(s.now())
	if err := groupbuy.ValidateTerms(in.Terms); err != nil {
		return nil, err
	}
	if err := groupbuy.ValidateNewSchedule(in.Schedule, now); err != nil {
		return nil, err
	}

	c := &types.Campaign{
		ID:          uuid.New(),
		AuthorID:    authorID,
		CommunityID: communityID,
		CategoryID:  in.CategoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	c.Apply(in.Terms, in.Schedule)

	if err := s.campaigns.Create(dbctx.Context{Ctx: ctx}, c); err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	s.log.Info("campaign created", "campaign_id", c.ID, "author_id", authorID, "community_id", communityID)
	return c, nil
}

func (s *campaignService) Update(ctx context.Context, authorID, campaignID uuid.UUID, in CampaignInput) (*types.Campaign, error) {
	if err := groupbuy.ValidateTerms(in.Terms); err != nil {
		return nil, err
	}

	var out *types.Campaign
	err := s.txr.WithTx(ctx, func(dbc dbctx.Context) error {
		now := groupbuy.NormalizeTime(s.now())
		c, err := s.lockOwned(dbc, authorID, campaignID)
		if err != nil {
			return err
		}
		if err := groupbuy.ValidateScheduleUpdate(c.Schedule(), in.Schedule, now); err != nil {
			return err
		}
		if in.CategoryID != uuid.Nil {
			c.CategoryID = in.CategoryID
		}
		c.Apply(in.Terms, in.Schedule)
		c.UpdatedAt = now
		if err := s.campaigns.UpdateDetails(dbc, c); err != nil {
			return fmt.Errorf("update campaign: %w", err)
		}
		// A lowered person limit or target can leave the campaign already full.
		if _, err := s.closer.CloseIfFull(dbc, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *campaignService) Get(ctx context.Context, campaignID uuid.UUID) (*types.Campaign, error) {
	c, err := s.campaigns.GetByID(dbctx.Context{Ctx: ctx}, campaignID)
	if err != nil {
		return nil, fmt.Errorf("load campaign: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("campaign %s: %w", campaignID, groupbuy.ErrNotFound)
	}
	return c, nil
}

func (s *campaignService) Delete(ctx context.Context, authorID, campaignID uuid.UUID) error {
	return s.txr.WithTx(ctx, func(dbc dbctx.Context) error {
		if _, err := s.lockOwned(dbc, authorID, campaignID); err != nil {
			return err
		}
		if err := s.campaigns.Delete(dbc, campaignID); err != nil {
			return fmt.Errorf("delete campaign: %w", err)
		}
		s.log.Info("campaign deleted", "campaign_id", campaignID, "author_id", authorID)
		return nil
	})
}

func (s *campaignService) SelfEnd(ctx context.Context, authorID, campaignID uuid.UUID) (*types.Campaign, error) {
	var out *types.Campaign
	err := s.txr.WithTx(ctx, func(dbc dbctx.Context) error {
		c, err := s.lockOwned(dbc, authorID, campaignID)
		if err != nil {
			return err
		}
		if _, err := s.closer.End(dbc, c.ID, CloseReasonAuthor); err != nil {
			return err
		}
		c.IsEnded = true
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// lockOwned loads a campaign under lock for an author-only mutation.
func (s *campaignService) lockOwned(dbc dbctx.Context, authorID, campaignID uuid.UUID) (*types.Campaign, error) {
	c, err := s.campaigns.GetByIDForUpdate(dbc, campaignID)
	if err != nil {
		return nil, fmt.Errorf("load campaign: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("campaign %s: %w", campaignID, groupbuy.ErrNotFound)
	}
	if !c.IsAuthor(authorID) {
		return nil, groupbuy.ErrNotAuthor
	}
	if c.IsEnded {
		return nil, groupbuy.ErrCampaignEnded
	}
	return c, nil
}

func (s *campaignService) ListByCommunity(ctx context.Context, communityID uuid.UUID, limit, offset int) ([]*CampaignView, error) {
	dbc := dbctx.Context{Ctx: ctx}
	list, err := s.campaigns.ListByCommunity(dbc, communityID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	now := s.now()
	out := make([]*CampaignView, 0, len(list))
	for _, c := range list {
		v, err := s.view(dbc, c, now)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *campaignService) Detail(ctx context.Context, viewerID, campaignID uuid.UUID) (*CampaignDetail, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if err := s.campaigns.IncrementViewCount(dbc, campaignID); err != nil {
		return nil, fmt.Errorf("count view: %w", err)
	}
	c, err := s.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	view, err := s.view(dbc, c, s.now())
	if err != nil {
		return nil, err
	}

	records, err := s.ledger.ListActive(dbc, c.ID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	userIDs := make([]uuid.UUID, 0, len(records))
	for _, r := range records {
		userIDs = append(userIDs, r.UserID)
	}
	users, err := s.users.GetByIDs(dbc, userIDs)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	byID := make(map[uuid.UUID]*types.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	detail := &CampaignDetail{
		CampaignView: *view,
		Participants: make([]ParticipantView, 0, len(records)),
		IsAuthor:     c.IsAuthor(viewerID),
	}
	for _, r := range records {
		pv := ParticipantView{UserID: r.UserID, Quantity: r.Quantity, JoinedAt: r.CreatedAt}
		if u := byID[r.UserID]; u != nil {
			pv.Nickname = u.Nickname
			pv.ImageURL = u.ImageURL
		}
		detail.Participants = append(detail.Participants, pv)
	}
	own, err := s.ledger.FindActive(dbc, c.ID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("load viewer participation: %w", err)
	}
	if own != nil {
		detail.ViewerQuantity = own.Quantity
	}
	return detail, nil
}

func (s *campaignService) view(dbc dbctx.Context, c *types.Campaign, now time.Time) (*CampaignView, error) {
	snap, err := s.closer.Snapshot(dbc, c)
	if err != nil {
		return nil, err
	}
	status := groupbuy.DeriveStatus(c, now)
	v := &CampaignView{
		Campaign:         c,
		Status:           status,
		StatusLabel:      status.Label(),
		ParticipantCount: snap.ActiveParticipants,
		ActiveQuantity:   snap.ActiveQuantity,
		RemainingSlots:   groupbuy.RemainingSlots(c, snap),
	}
	if remaining, ok := groupbuy.RemainingQuantity(c, snap.ActiveQuantity); ok {
		v.RemainingQuantity = &remaining
	}
	return v, nil
}
