package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/groupbuy-backend/internal/data/db"
	"github.com/yungbote/groupbuy-backend/internal/data/repos"
	types "github.com/yungbote/groupbuy-backend/internal/domain"
	"github.com/yungbote/groupbuy-backend/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-backend/internal/observability"
	"github.com/yungbote/groupbuy-backend/internal/platform/ctxutil"
	"github.com/yungbote/groupbuy-backend/internal/platform/dbctx"
	"github.com/yungbote/groupbuy-backend/internal/platform/logger"
)

type SubmitOutcome string

const (
	OutcomeJoined          SubmitOutcome = "joined"
	OutcomeRejoined        SubmitOutcome = "rejoined"
	OutcomeCancelled       SubmitOutcome = "cancelled"
	OutcomeQuantityUpdated SubmitOutcome = "quantity_updated"
)

// Message is the user-facing confirmation for the outcome.
func (o SubmitOutcome) Message() string {
	switch o {
	case OutcomeJoined:
		return "joined the group purchase"
	case OutcomeRejoined:
		return "rejoined the group purchase"
	case OutcomeCancelled:
		return "cancelled participation"
	case OutcomeQuantityUpdated:
		return "updated the product quantity"
	default:
		return ""
	}
}

type SubmitResult struct {
	Outcome       SubmitOutcome              `json:"outcome"`
	Participation *types.ParticipationRecord `json:"participation"`
	// CampaignClosed is set when this submission filled the campaign.
	CampaignClosed bool `json:"campaign_closed"`
}

type ParticipationService interface {
	// Submit joins, updates, cancels or rejoins userID's participation in a
	// campaign. Quantity 0 cancels an active participation.
	Submit(ctx context.Context, userID, campaignID uuid.UUID, quantity int) (*SubmitResult, error)
}

type participationService struct {
	txr       *db.Transactor
	log       *logger.Logger
	campaigns repos.CampaignRepo
	ledger    repos.ParticipationRepo
	users     repos.UserRepo
	closer    CampaignCloser
	now       func() time.Time
}

func NewParticipationService(
	txr *db.Transactor,
	baseLog *logger.Logger,
	campaigns repos.CampaignRepo,
	ledger repos.ParticipationRepo,
	users repos.UserRepo,
	closer CampaignCloser,
) ParticipationService {
	return &participationService{
		txr:       txr,
		log:       baseLog.With("service", "ParticipationService"),
		campaigns: campaigns,
		ledger:    ledger,
		users:     users,
		closer:    closer,
		now:       time.Now,
	}
}

func (s *participationService) Submit(ctx context.Context, userID, campaignID uuid.UUID, quantity int) (*SubmitResult, error) {
	ctx, span := observability.Tracer().Start(ctx, "ParticipationService.Submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("groupbuy.campaign_id", campaignID.String()),
		attribute.Int("groupbuy.quantity", quantity),
	)

	var result *SubmitResult
	err := s.txr.WithTx(ctx, func(dbc dbctx.Context) error {
		res, err := s.submit(dbc, userID, campaignID, quantity)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit failed")
		observability.Current().ObserveSubmit(APIError(err).Code)
		return nil, err
	}
	observability.Current().ObserveSubmit(string(result.Outcome))

	span.SetAttributes(
		attribute.String("groupbuy.outcome", string(result.Outcome)),
		attribute.Bool("groupbuy.closed", result.CampaignClosed),
	)
	fields := append([]interface{}{
		"campaign_id", campaignID,
		"user_id", userID,
		"outcome", result.Outcome,
		"quantity", quantity,
		"campaign_closed", result.CampaignClosed,
	}, ctxutil.LogFields(ctx)...)
	s.log.Info("participation submitted", fields...)
	return result, nil
}

// submit runs under the campaign row lock. It may be replayed by the
// transactor, so it keeps no state outside the returned result.
func (s *participationService) submit(dbc dbctx.Context, userID, campaignID uuid.UUID, quantity int) (*SubmitResult, error) {
	now := groupbuy.NormalizeTime(s.now())

	campaign, err := s.campaigns.GetByIDForUpdate(dbc, campaignID)
	if err != nil {
		return nil, fmt.Errorf("load campaign: %w", err)
	}
	if campaign == nil {
		return nil, fmt.Errorf("campaign %s: %w", campaignID, groupbuy.ErrNotFound)
	}

	user, err := s.users.GetByID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", userID, groupbuy.ErrNotFound)
	}
	if !user.HasCompleteProfile() {
		return nil, groupbuy.ErrIncompleteProfile
	}

	snap, err := s.closer.Snapshot(dbc, campaign)
	if err != nil {
		return nil, err
	}
	if groupbuy.IsFull(campaign, snap) {
		return nil, groupbuy.ErrCampaignFull
	}
	if campaign.IsEnded || groupbuy.PastCloseTime(campaign, now) {
		return nil, groupbuy.ErrCampaignEnded
	}

	existing, err := s.ledger.FindAny(dbc, campaignID, userID)
	if err != nil {
		return nil, fmt.Errorf("load participation: %w", err)
	}

	rec, outcome, err := s.transition(dbc, campaign, existing, userID, quantity, now)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.Upsert(dbc, rec); err != nil {
		return nil, fmt.Errorf("write participation: %w", err)
	}

	closed, err := s.closer.CloseIfFull(dbc, campaign)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{Outcome: outcome, Participation: rec, CampaignClosed: closed}, nil
}

func (s *participationService) transition(
	dbc dbctx.Context,
	campaign *types.Campaign,
	existing *types.ParticipationRecord,
	userID uuid.UUID,
	quantity int,
	now time.Time,
) (*types.ParticipationRecord, SubmitOutcome, error) {
	switch {
	case existing == nil:
		if quantity < 1 {
			return nil, "", groupbuy.ErrInvalidQuantity
		}
		if err := s.checkRemaining(dbc, campaign, userID, quantity); err != nil {
			return nil, "", err
		}
		return &types.ParticipationRecord{
			ID:         uuid.New(),
			CampaignID: campaign.ID,
			UserID:     userID,
			Quantity:   quantity,
			State:      groupbuy.ParticipationActive,
			CreatedAt:  now,
			UpdatedAt:  now,
		}, OutcomeJoined, nil

	case existing.IsDeleted():
		if quantity <= 0 || quantity == existing.Quantity {
			return nil, "", groupbuy.ErrInvalidQuantity
		}
		if err := s.checkRemaining(dbc, campaign, userID, quantity); err != nil {
			return nil, "", err
		}
		existing.Activate(quantity, now)
		return existing, OutcomeRejoined, nil

	default:
		if quantity < 0 || quantity == existing.Quantity {
			return nil, "", groupbuy.ErrInvalidQuantity
		}
		if quantity == 0 {
			existing.Cancel(now)
			return existing, OutcomeCancelled, nil
		}
		if err := s.checkRemaining(dbc, campaign, userID, quantity); err != nil {
			return nil, "", err
		}
		existing.Activate(quantity, now)
		return existing, OutcomeQuantityUpdated, nil
	}
}

// checkRemaining validates the caller's whole new demand against what
// the other non-author participants have already claimed. The author's
// demand never counts toward the target, so it never blocks members.
func (s *participationService) checkRemaining(dbc dbctx.Context, campaign *types.Campaign, userID uuid.UUID, quantity int) error {
	if !groupbuy.HasQuantityTarget(campaign) {
		return nil
	}
	others, err := s.ledger.SumActiveQuantity(dbc, campaign.ID, &userID)
	if err != nil {
		return fmt.Errorf("sum other demand: %w", err)
	}
	if !campaign.IsAuthor(userID) {
		own, err := s.ledger.FindActive(dbc, campaign.ID, campaign.AuthorID)
		if err != nil {
			return fmt.Errorf("load author demand: %w", err)
		}
		if own != nil {
			others -= int64(own.Quantity)
		}
	}
	remaining, _ := groupbuy.RemainingQuantity(campaign, others)
	if int64(quantity) > remaining {
		return groupbuy.ErrQuantityExceedsRemaining
	}
	return nil
}
