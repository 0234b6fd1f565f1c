package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	types "github.com/yungbote/groupbuy-backend/internal/domain"
	"github.com/yungbote/groupbuy-backend/internal/domain/groupbuy"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, nickname, region string) *types.User {
	tb.Helper()
	now := groupbuy.NormalizeTime(time.Now())
	u := &types.User{
		ID:        uuid.New(),
		Nickname:  nickname,
		Region:    region,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// CampaignOption tweaks a seeded campaign before insert.
type CampaignOption func(c *types.Campaign)

func WithPersonLimit(n int) CampaignOption {
	return func(c *types.Campaign) { c.PersonLimit = n }
}

func WithRequestedCount(n int) CampaignOption {
	return func(c *types.Campaign) { c.RequestedProductCount = n }
}

func WithCloseTime(t time.Time) CampaignOption {
	return func(c *types.Campaign) {
		ct := groupbuy.NormalizeTime(t)
		c.CloseTime = &ct
	}
}

func WithOpenTime(t time.Time) CampaignOption {
	return func(c *types.Campaign) { c.OpenTime = groupbuy.NormalizeTime(t) }
}

func WithCommunity(id uuid.UUID) CampaignOption {
	return func(c *types.Campaign) { c.CommunityID = id }
}

func Ended() CampaignOption {
	return func(c *types.Campaign) { c.IsEnded = true }
}

// SeedCampaign inserts an open campaign: started an hour ago, meeting in a
// day, five person slots, no quantity target.
func SeedCampaign(tb testing.TB, ctx context.Context, tx *gorm.DB, authorID uuid.UUID, opts ...CampaignOption) *types.Campaign {
	tb.Helper()
	now := groupbuy.NormalizeTime(time.Now())
	c := &types.Campaign{
		ID:          uuid.New(),
		AuthorID:    authorID,
		CommunityID: uuid.New(),
		CategoryID:  uuid.New(),
		Title:       "cabbage split",
		ProductName: "cabbage",
		UnitPrice:   decimal.RequireFromString("1500"),
		OpenTime:    now.Add(-time.Hour),
		MeetingTime: now.Add(24 * time.Hour),
		PersonLimit: 5,
		EndChoice:   groupbuy.EndChoiceContinue,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed campaign: %v", err)
	}
	return c
}

func SeedParticipation(tb testing.TB, ctx context.Context, tx *gorm.DB, campaignID, userID uuid.UUID, quantity int, state types.ParticipationState) *types.ParticipationRecord {
	tb.Helper()
	now := groupbuy.NormalizeTime(time.Now())
	p := &types.ParticipationRecord{
		ID:         uuid.New(),
		CampaignID: campaignID,
		UserID:     userID,
		Quantity:   quantity,
		State:      state,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed participation: %v", err)
	}
	return p
}
