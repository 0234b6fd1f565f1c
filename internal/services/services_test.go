package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/groupbuy-backend/internal/data/db"
	"github.com/yungbote/groupbuy-backend/internal/data/repos"
	"github.com/yungbote/groupbuy-backend/internal/data/repos/testutil"
	types "github.com/yungbote/groupbuy-backend/internal/domain"
	"github.com/yungbote/groupbuy-backend/internal/platform/dbctx"
)

type testEnv struct {
	db            *gorm.DB
	now           time.Time
	campaigns     repos.CampaignRepo
	ledger        repos.ParticipationRepo
	closer        *campaignCloser
	participation *participationService
	campaign      *campaignService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)

	txr := db.NewTransactor(gdb, log, db.TxOptions{MaxAttempts: 3, InitialBackoff: time.Millisecond})
	campaigns := repos.NewCampaignRepo(gdb, log)
	ledger := repos.NewParticipationRepo(gdb, log)
	users := repos.NewUserRepo(gdb, log)

	env := &testEnv{
		db:        gdb,
		now:       time.Now().UTC().Truncate(time.Second),
		campaigns: campaigns,
		ledger:    ledger,
	}
	clock := func() time.Time { return env.now }

	env.closer = NewCampaignCloser(txr, log, campaigns, ledger).(*campaignCloser)
	env.closer.now = clock
	env.participation = NewParticipationService(txr, log, campaigns, ledger, users, env.closer).(*participationService)
	env.participation.now = clock
	env.campaign = NewCampaignService(txr, log, campaigns, ledger, users, env.closer).(*campaignService)
	env.campaign.now = clock
	return env
}

func (e *testEnv) user(t *testing.T, nickname string) *types.User {
	t.Helper()
	return testutil.SeedUser(t, context.Background(), e.db, nickname, "Seoul")
}

func (e *testEnv) seedCampaign(t *testing.T, authorID uuid.UUID, opts ...testutil.CampaignOption) *types.Campaign {
	t.Helper()
	return testutil.SeedCampaign(t, context.Background(), e.db, authorID, opts...)
}

func (e *testEnv) reload(t *testing.T, id uuid.UUID) *types.Campaign {
	t.Helper()
	var c types.Campaign
	if err := e.db.Where("id = ?", id).First(&c).Error; err != nil {
		t.Fatalf("reload campaign: %v", err)
	}
	return &c
}

func (e *testEnv) ledgerRows(t *testing.T, campaignID, userID uuid.UUID) []types.ParticipationRecord {
	t.Helper()
	var rows []types.ParticipationRecord
	if err := e.db.Where("campaign_id = ? AND user_id = ?", campaignID, userID).Find(&rows).Error; err != nil {
		t.Fatalf("load ledger rows: %v", err)
	}
	return rows
}

func dbcFor(ctx context.Context) dbctx.Context {
	return dbctx.Context{Ctx: ctx}
}
