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
	"github.com/yungbote/groupbuy-backend/internal/platform/dbctx"
	"github.com/yungbote/groupbuy-backend/internal/platform/logger"
)

// Reasons recorded when a campaign is closed.
const (
	CloseReasonFull      = "full"
	CloseReasonAuthor    = "author"
	CloseReasonCloseTime = "close_time"
)

// CampaignCloser is the only writer of is_ended. Every path that ends a
// campaign goes through the same conditional update, so a campaign is closed
// at most once no matter which path gets there first.
type CampaignCloser interface {
	// CloseIfFull re-evaluates the end condition for a campaign read under
	// lock in dbc and closes it when met.
	CloseIfFull(dbc dbctx.Context, c *types.Campaign) (bool, error)
	// End closes a single campaign unconditionally.
	End(dbc dbctx.Context, campaignID uuid.UUID, reason string) (bool, error)
	// SweepExpired closes every open campaign whose close time has passed,
	// in one short transaction.
	SweepExpired(ctx context.Context) (int64, error)
	// Snapshot reads the ledger aggregate the evaluator works from.
	Snapshot(dbc dbctx.Context, c *types.Campaign) (types.CapacitySnapshot, error)
}

type campaignCloser struct {
	txr       *db.Transactor
	log       *logger.Logger
	campaigns repos.CampaignRepo
	ledger    repos.ParticipationRepo
	now       func() time.Time
}

func NewCampaignCloser(
	txr *db.Transactor,
	baseLog *logger.Logger,
	campaigns repos.CampaignRepo,
	ledger repos.ParticipationRepo,
) CampaignCloser {
	return &campaignCloser{
		txr:       txr,
		log:       baseLog.With("service", "CampaignCloser"),
		campaigns: campaigns,
		ledger:    ledger,
		now:       time.Now,
	}
}

func (s *campaignCloser) close(dbc dbctx.Context, filter repos.EndFilter, reason string) (int64, error) {
	n, err := s.campaigns.MarkEnded(dbc, filter)
	if err != nil {
		return 0, fmt.Errorf("mark ended (%s): %w", reason, err)
	}
	if n > 0 {
		s.log.Info("campaigns closed", "reason", reason, "count", n)
		observability.Current().AddCampaignsEnded(reason, n)
	}
	return n, nil
}

func (s *campaignCloser) Snapshot(dbc dbctx.Context, c *types.Campaign) (types.CapacitySnapshot, error) {
	count, err := s.ledger.CountActive(dbc, c.ID, &c.AuthorID)
	if err != nil {
		return types.CapacitySnapshot{}, fmt.Errorf("count active participants: %w", err)
	}
	qty, err := s.ledger.SumActiveQuantity(dbc, c.ID, &c.AuthorID)
	if err != nil {
		return types.CapacitySnapshot{}, fmt.Errorf("sum active quantity: %w", err)
	}
	return types.CapacitySnapshot{ActiveParticipants: count, ActiveQuantity: qty}, nil
}

func (s *campaignCloser) CloseIfFull(dbc dbctx.Context, c *types.Campaign) (bool, error) {
	if c == nil || c.IsEnded {
		return false, nil
	}
	snap, err := s.Snapshot(dbc, c)
	if err != nil {
		return false, err
	}
	if !groupbuy.IsFull(c, snap) {
		return false, nil
	}
	n, err := s.close(dbc, repos.EndFilter{IDs: []uuid.UUID{c.ID}}, CloseReasonFull)
	if err != nil {
		return false, err
	}
	if n > 0 {
		c.IsEnded = true
	}
	return n > 0, nil
}

func (s *campaignCloser) End(dbc dbctx.Context, campaignID uuid.UUID, reason string) (bool, error) {
	n, err := s.close(dbc, repos.EndFilter{IDs: []uuid.UUID{campaignID}}, reason)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *campaignCloser) SweepExpired(ctx context.Context) (int64, error) {
	ctx, span := observability.Tracer().Start(ctx, "CampaignCloser.SweepExpired")
	defer span.End()

	cutoff := groupbuy.NormalizeTime(s.now())
	var closed int64
	err := s.txr.WithTx(ctx, func(dbc dbctx.Context) error {
		n, err := s.close(dbc, repos.EndFilter{ClosedBefore: &cutoff}, CloseReasonCloseTime)
		if err != nil {
			return err
		}
		closed = n
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sweep failed")
		return 0, err
	}
	span.SetAttributes(attribute.Int64("groupbuy.closed", closed))
	return closed, nil
}
