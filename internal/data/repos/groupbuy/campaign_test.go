package groupbuy

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/groupbuy-backend/internal/data/repos/testutil"
	types "github.com/yungbote/groupbuy-backend/internal/domain"
	"github.com/yungbote/groupbuy-backend/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-backend/internal/platform/dbctx"
)

func TestCampaignRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewCampaignRepo(db, testutil.Logger(t))

	author := testutil.SeedUser(t, ctx, tx, "author", "Seoul")
	now := groupbuy.NormalizeTime(time.Now())
	c := &types.Campaign{
		AuthorID:              author.ID,
		CommunityID:           uuid.New(),
		CategoryID:            uuid.New(),
		Title:                 "eggs",
		ProductName:           "eggs x30",
		RequestedProductCount: 10,
		UnitPrice:             decimal.RequireFromString("4200.50"),
		OpenTime:              now,
		MeetingTime:           now.Add(48 * time.Hour),
		PersonLimit:           3,
		EndChoice:             groupbuy.EndChoiceDiscuss,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := repo.Create(dbc, c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.ID == uuid.Nil {
		t.Fatalf("Create: expected id to be assigned")
	}

	got, err := repo.GetByID(dbc, c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.Title != "eggs" || !got.UnitPrice.Equal(decimal.RequireFromString("4200.5")) {
		t.Fatalf("GetByID: unexpected result: %+v", got)
	}
	if !got.OpenTime.Equal(now) {
		t.Fatalf("GetByID: open time %v want %v", got.OpenTime, now)
	}

	locked, err := repo.GetByIDForUpdate(dbc, c.ID)
	if err != nil || locked == nil {
		t.Fatalf("GetByIDForUpdate: %v %+v", err, locked)
	}

	none, err := repo.GetByID(dbc, uuid.New())
	if err != nil || none != nil {
		t.Fatalf("GetByID(missing): expected nil, got %+v err=%v", none, err)
	}

	got.Title = "eggs (free range)"
	got.PersonLimit = 4
	got.ViewCount = 99
	got.IsEnded = true
	if err := repo.UpdateDetails(dbc, got); err != nil {
		t.Fatalf("UpdateDetails: %v", err)
	}
	if err := repo.IncrementViewCount(dbc, c.ID); err != nil {
		t.Fatalf("IncrementViewCount: %v", err)
	}
	reloaded, _ := repo.GetByID(dbc, c.ID)
	if reloaded.Title != "eggs (free range)" || reloaded.PersonLimit != 4 {
		t.Fatalf("UpdateDetails: not applied: %+v", reloaded)
	}
	if reloaded.ViewCount != 1 || reloaded.IsEnded {
		t.Fatalf("UpdateDetails: must not touch view_count/is_ended: %+v", reloaded)
	}

	list, err := repo.ListByCommunity(dbc, c.CommunityID, 10, 0)
	if err != nil {
		t.Fatalf("ListByCommunity: %v", err)
	}
	if len(list) != 1 || list[0].ID != c.ID {
		t.Fatalf("ListByCommunity: unexpected result: %+v", list)
	}

	member := testutil.SeedUser(t, ctx, tx, "member", "Seoul")
	testutil.SeedParticipation(t, ctx, tx, c.ID, member.ID, 2, groupbuy.ParticipationActive)

	if err := repo.Delete(dbc, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	gone, _ := repo.GetByID(dbc, c.ID)
	if gone != nil {
		t.Fatalf("Delete: campaign still present")
	}
	var ledgerRows int64
	if err := tx.Model(&types.ParticipationRecord{}).Where("campaign_id = ?", c.ID).Count(&ledgerRows).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	if ledgerRows != 0 {
		t.Fatalf("Delete: expected ledger rows removed, got %d", ledgerRows)
	}
}

func TestCampaignRepoListOrdersOpenFirst(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewCampaignRepo(db, testutil.Logger(t))

	community := uuid.New()
	author := uuid.New()
	ended := testutil.SeedCampaign(t, ctx, tx, author, testutil.WithCommunity(community), testutil.Ended())
	open := testutil.SeedCampaign(t, ctx, tx, author, testutil.WithCommunity(community))
	testutil.SeedCampaign(t, ctx, tx, author)

	list, err := repo.ListByCommunity(dbc, community, 0, 0)
	if err != nil {
		t.Fatalf("ListByCommunity: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 campaigns, got %d", len(list))
	}
	if list[0].ID != open.ID || list[1].ID != ended.ID {
		t.Fatalf("expected open campaign first, got %v then %v", list[0].ID, list[1].ID)
	}
}

func TestCampaignRepoMarkEnded(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewCampaignRepo(db, testutil.Logger(t))

	now := time.Now().UTC()
	author := uuid.New()
	expired := testutil.SeedCampaign(t, ctx, tx, author, testutil.WithCloseTime(now.Add(-time.Minute)))
	future := testutil.SeedCampaign(t, ctx, tx, author, testutil.WithCloseTime(now.Add(time.Hour)))
	noClose := testutil.SeedCampaign(t, ctx, tx, author)
	alreadyEnded := testutil.SeedCampaign(t, ctx, tx, author, testutil.WithCloseTime(now.Add(-time.Hour)), testutil.Ended())

	n, err := repo.MarkEnded(dbc, EndFilter{})
	if err != nil || n != 0 {
		t.Fatalf("MarkEnded(empty): n=%d err=%v", n, err)
	}

	n, err = repo.MarkEnded(dbc, EndFilter{ClosedBefore: &now})
	if err != nil {
		t.Fatalf("MarkEnded: %v", err)
	}
	if n != 1 {
		t.Fatalf("MarkEnded: expected 1 row, got %d", n)
	}

	for _, tc := range []struct {
		c    *types.Campaign
		want bool
	}{
		{expired, true},
		{future, false},
		{noClose, false},
		{alreadyEnded, true},
	} {
		got, _ := repo.GetByID(dbc, tc.c.ID)
		if got.IsEnded != tc.want {
			t.Fatalf("campaign %s: is_ended=%v want %v", tc.c.ID, got.IsEnded, tc.want)
		}
	}

	n, err = repo.MarkEnded(dbc, EndFilter{ClosedBefore: &now})
	if err != nil || n != 0 {
		t.Fatalf("MarkEnded(second run): expected no-op, n=%d err=%v", n, err)
	}

	n, err = repo.MarkEnded(dbc, EndFilter{IDs: []uuid.UUID{noClose.ID}})
	if err != nil || n != 1 {
		t.Fatalf("MarkEnded(ids): n=%d err=%v", n, err)
	}
}
