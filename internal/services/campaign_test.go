package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/groupbuy-backend/internal/data/repos/testutil"
	"github.com/yungbote/groupbuy-backend/internal/domain/groupbuy"
)

func campaignInput(open, meeting time.Time, closeAt *time.Time) CampaignInput {
	return CampaignInput{
		CategoryID: uuid.New(),
		Terms: groupbuy.Terms{
			Title:                 "bulk rice",
			ProductName:           "rice 20kg",
			RequestedProductCount: 0,
			UnitPrice:             decimal.RequireFromString("32000"),
			MeetingLocation:       "station exit 3",
			PersonLimit:           4,
			EndChoice:             groupbuy.EndChoiceQuit,
		},
		Schedule: groupbuy.Schedule{OpenTime: open, MeetingTime: meeting, CloseTime: closeAt},
	}
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestCreateCampaignSchedule(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, "author")
	community := uuid.New()
	now := env.now

	cases := []struct {
		name    string
		in      CampaignInput
		wantErr error
	}{
		{"open in an hour, meeting in two", campaignInput(now.Add(time.Hour), now.Add(2*time.Hour), nil), nil},
		{"meeting before open", campaignInput(now.Add(time.Hour), now.Add(30*time.Minute), nil), groupbuy.ErrInvalidSchedule},
		{"open in the past", campaignInput(now.Add(-time.Minute), now.Add(2*time.Hour), nil), groupbuy.ErrInvalidSchedule},
		{"open equals meeting", campaignInput(now.Add(time.Hour), now.Add(time.Hour), nil), groupbuy.ErrInvalidSchedule},
		{"close within window", campaignInput(now.Add(time.Hour), now.Add(3*time.Hour), ptrTime(now.Add(2*time.Hour))), nil},
		{"close equals meeting", campaignInput(now.Add(time.Hour), now.Add(3*time.Hour), ptrTime(now.Add(3*time.Hour))), nil},
		{"close before open", campaignInput(now.Add(time.Hour), now.Add(3*time.Hour), ptrTime(now.Add(30*time.Minute))), groupbuy.ErrInvalidSchedule},
		{"close after meeting", campaignInput(now.Add(time.Hour), now.Add(3*time.Hour), ptrTime(now.Add(4*time.Hour))), groupbuy.ErrInvalidSchedule},
	}
	for _, tc := range cases {
		c, err := env.campaign.Create(ctx, author.ID, community, tc.in)
		if tc.wantErr != nil {
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: Create: %v", tc.name, err)
		}
		if c.IsEnded || c.AuthorID != author.ID || c.CommunityID != community {
			t.Fatalf("%s: unexpected campaign: %+v", tc.name, c)
		}
	}
}

func TestCreateCampaignValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := env.now

	mutate := []struct {
		name string
		fn   func(in *CampaignInput)
	}{
		{"empty title", func(in *CampaignInput) { in.Terms.Title = "  " }},
		{"empty product", func(in *CampaignInput) { in.Terms.ProductName = "" }},
		{"zero person limit", func(in *CampaignInput) { in.Terms.PersonLimit = 0 }},
		{"negative count", func(in *CampaignInput) { in.Terms.RequestedProductCount = -1 }},
		{"negative price", func(in *CampaignInput) { in.Terms.UnitPrice = decimal.NewFromInt(-1) }},
		{"unknown end choice", func(in *CampaignInput) { in.Terms.EndChoice = "later" }},
	}
	for _, m := range mutate {
		in := campaignInput(now.Add(time.Hour), now.Add(2*time.Hour), nil)
		m.fn(&in)
		if _, err := env.campaign.Create(ctx, uuid.New(), uuid.New(), in); !errors.Is(err, groupbuy.ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", m.name, err)
		}
	}
}

func TestUpdateCampaign(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, "author")
	stranger := env.user(t, "stranger")
	c := env.seedCampaign(t, author.ID)

	in := campaignInput(c.OpenTime, c.MeetingTime.Add(time.Hour), nil)
	in.Terms.Title = "bulk rice, second round"

	if _, err := env.campaign.Update(ctx, stranger.ID, c.ID, in); !errors.Is(err, groupbuy.ErrNotAuthor) {
		t.Fatalf("expected ErrNotAuthor, got %v", err)
	}

	// open time already in the past is fine while unchanged
	updated, err := env.campaign.Update(ctx, author.ID, c.ID, in)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "bulk rice, second round" {
		t.Fatalf("unexpected title %q", updated.Title)
	}

	moved := campaignInput(env.now.Add(-30*time.Minute), c.MeetingTime, nil)
	if _, err := env.campaign.Update(ctx, author.ID, c.ID, moved); !errors.Is(err, groupbuy.ErrInvalidSchedule) {
		t.Fatalf("expected moving open time into the past to fail, got %v", err)
	}

	pastClose := campaignInput(c.OpenTime, c.MeetingTime, ptrTime(env.now.Add(-time.Minute)))
	if _, err := env.campaign.Update(ctx, author.ID, c.ID, pastClose); !errors.Is(err, groupbuy.ErrInvalidSchedule) {
		t.Fatalf("expected past close time to fail, got %v", err)
	}

	if _, err := env.campaign.Update(ctx, author.ID, uuid.New(), in); !errors.Is(err, groupbuy.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	ended := env.seedCampaign(t, author.ID, testutil.Ended())
	if _, err := env.campaign.Update(ctx, author.ID, ended.ID, in); !errors.Is(err, groupbuy.ErrCampaignEnded) {
		t.Fatalf("expected ErrCampaignEnded, got %v", err)
	}
}

func TestUpdateLoweringLimitClosesFullCampaign(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, "author")
	member := env.user(t, "member")
	c := env.seedCampaign(t, author.ID, testutil.WithPersonLimit(3))

	if _, err := env.participation.Submit(ctx, member.ID, c.ID, 1); err != nil {
		t.Fatalf("join: %v", err)
	}
	in := campaignInput(c.OpenTime, c.MeetingTime, nil)
	in.Terms.PersonLimit = 1
	updated, err := env.campaign.Update(ctx, author.ID, c.ID, in)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.IsEnded || !env.reload(t, c.ID).IsEnded {
		t.Fatalf("expected campaign to close once the limit is reached")
	}
}

func TestDeleteCampaign(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, "author")
	member := env.user(t, "member")
	c := env.seedCampaign(t, author.ID)
	if _, err := env.participation.Submit(ctx, member.ID, c.ID, 1); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := env.campaign.Delete(ctx, member.ID, c.ID); !errors.Is(err, groupbuy.ErrNotAuthor) {
		t.Fatalf("expected ErrNotAuthor, got %v", err)
	}
	if err := env.campaign.Delete(ctx, author.ID, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := env.campaign.Get(ctx, c.ID); !errors.Is(err, groupbuy.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if rows := env.ledgerRows(t, c.ID, member.ID); len(rows) != 0 {
		t.Fatalf("expected ledger rows removed, got %d", len(rows))
	}

	ended := env.seedCampaign(t, author.ID, testutil.Ended())
	if err := env.campaign.Delete(ctx, author.ID, ended.ID); !errors.Is(err, groupbuy.ErrCampaignEnded) {
		t.Fatalf("expected ErrCampaignEnded, got %v", err)
	}
}

func TestSelfEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, "author")
	member := env.user(t, "member")
	c := env.seedCampaign(t, author.ID)

	if _, err := env.campaign.SelfEnd(ctx, member.ID, c.ID); !errors.Is(err, groupbuy.ErrNotAuthor) {
		t.Fatalf("expected ErrNotAuthor, got %v", err)
	}
	ended, err := env.campaign.SelfEnd(ctx, author.ID, c.ID)
	if err != nil {
		t.Fatalf("SelfEnd: %v", err)
	}
	if !ended.IsEnded || !env.reload(t, c.ID).IsEnded {
		t.Fatalf("expected campaign ended")
	}
	if _, err := env.campaign.SelfEnd(ctx, author.ID, c.ID); !errors.Is(err, groupbuy.ErrCampaignEnded) {
		t.Fatalf("expected ErrCampaignEnded on second call, got %v", err)
	}
	if _, err := env.participation.Submit(ctx, member.ID, c.ID, 1); !errors.Is(err, groupbuy.ErrCampaignEnded) {
		t.Fatalf("expected submit on ended campaign to fail, got %v", err)
	}
}

func TestDetailAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, "author")
	a := env.user(t, "alice")
	b := env.user(t, "bob")
	community := uuid.New()
	c := env.seedCampaign(t, author.ID, testutil.WithCommunity(community), testutil.WithPersonLimit(3), testutil.WithRequestedCount(10))
	upcoming := env.seedCampaign(t, author.ID, testutil.WithCommunity(community), testutil.WithOpenTime(env.now.Add(time.Hour)))

	for _, step := range []struct {
		userID uuid.UUID
		qty    int
	}{{a.ID, 2}, {b.ID, 3}, {b.ID, 0}, {author.ID, 1}} {
		if _, err := env.participation.Submit(ctx, step.userID, c.ID, step.qty); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	detail, err := env.campaign.Detail(ctx, a.ID, c.ID)
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if detail.ViewCount != 1 {
		t.Fatalf("expected view count 1, got %d", detail.ViewCount)
	}
	if detail.Status != groupbuy.StatusInProgress || detail.StatusLabel != "진행 중" {
		t.Fatalf("unexpected status %q %q", detail.Status, detail.StatusLabel)
	}
	// the author's row is listed but never counted toward slots or quantity
	if detail.ParticipantCount != 1 || detail.ActiveQuantity != 2 || detail.RemainingSlots != 2 {
		t.Fatalf("unexpected counts: %+v", detail.CampaignView)
	}
	if detail.RemainingQuantity == nil || *detail.RemainingQuantity != 8 {
		t.Fatalf("unexpected remaining quantity: %v", detail.RemainingQuantity)
	}
	if len(detail.Participants) != 2 || detail.ViewerQuantity != 2 || detail.IsAuthor {
		t.Fatalf("unexpected participants: %+v viewer=%d", detail.Participants, detail.ViewerQuantity)
	}
	// a cancelled viewer has no current demand
	cancelled, err := env.campaign.Detail(ctx, b.ID, c.ID)
	if err != nil {
		t.Fatalf("Detail as cancelled viewer: %v", err)
	}
	if cancelled.ViewerQuantity != 0 {
		t.Fatalf("expected no viewer quantity for a cancelled row, got %d", cancelled.ViewerQuantity)
	}
	own, err := env.campaign.Detail(ctx, author.ID, c.ID)
	if err != nil {
		t.Fatalf("Detail as author: %v", err)
	}
	if !own.IsAuthor || own.ViewerQuantity != 1 {
		t.Fatalf("expected author view with quantity 1, got author=%v qty=%d", own.IsAuthor, own.ViewerQuantity)
	}

	if _, err := env.campaign.Detail(ctx, a.ID, uuid.New()); !errors.Is(err, groupbuy.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	list, err := env.campaign.ListByCommunity(ctx, community, 20, 0)
	if err != nil {
		t.Fatalf("ListByCommunity: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 campaigns, got %d", len(list))
	}
	for _, v := range list {
		if v.ID == upcoming.ID && v.Status != groupbuy.StatusNotStarted {
			t.Fatalf("expected upcoming campaign not started, got %q", v.Status)
		}
	}
}
