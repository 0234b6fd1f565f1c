//go:build integration

package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/groupbuy-backend/internal/data/db"
	"github.com/yungbote/groupbuy-backend/internal/data/repos"
	"github.com/yungbote/groupbuy-backend/internal/data/repos/testutil"
	types "github.com/yungbote/groupbuy-backend/internal/domain"
	"github.com/yungbote/groupbuy-backend/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-backend/internal/platform/dbctx"
)

func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("groupbuy"),
		postgres.WithUsername("groupbuy"),
		postgres.WithPassword("groupbuy"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	gdb, err := testutil.OpenPostgres(dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	return gdb
}

type pgEnv struct {
	db            *gorm.DB
	ledger        repos.ParticipationRepo
	participation ParticipationService
}

func newPGEnv(t *testing.T) *pgEnv {
	gdb := startPostgres(t)
	log := testutil.Logger(t)
	txr := db.NewTransactor(gdb, log, db.TxOptions{MaxAttempts: 5, LockTimeout: 5 * time.Second})
	campaigns := repos.NewCampaignRepo(gdb, log)
	ledger := repos.NewParticipationRepo(gdb, log)
	users := repos.NewUserRepo(gdb, log)
	closer := NewCampaignCloser(txr, log, campaigns, ledger)
	return &pgEnv{
		db:            gdb,
		ledger:        ledger,
		participation: NewParticipationService(txr, log, campaigns, ledger, users, closer),
	}
}

func (e *pgEnv) race(t *testing.T, c *types.Campaign, users []*types.User, qty int) (joined int64) {
	t.Helper()
	g, ctx := errgroup.WithContext(context.Background())
	for _, u := range users {
		u := u
		g.Go(func() error {
			_, err := e.participation.Submit(ctx, u.ID, c.ID, qty)
			switch {
			case err == nil:
				atomic.AddInt64(&joined, 1)
				return nil
			case errors.Is(err, groupbuy.ErrCampaignFull),
				errors.Is(err, groupbuy.ErrCampaignEnded),
				errors.Is(err, groupbuy.ErrQuantityExceedsRemaining):
				return nil
			default:
				return fmt.Errorf("user %s: %w", u.ID, err)
			}
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent submit: %v", err)
	}
	return joined
}

func seedUsers(t *testing.T, gdb *gorm.DB, n int) []*types.User {
	t.Helper()
	out := make([]*types.User, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, testutil.SeedUser(t, context.Background(), gdb, fmt.Sprintf("buyer-%d", i), "Seoul"))
	}
	return out
}

func TestConcurrentJoinsNeverExceedPersonLimit(t *testing.T) {
	env := newPGEnv(t)
	author := testutil.SeedUser(t, context.Background(), env.db, "author", "Seoul")
	c := testutil.SeedCampaign(t, context.Background(), env.db, author.ID, testutil.WithPersonLimit(3))

	joined := env.race(t, c, seedUsers(t, env.db, 20), 1)
	if joined != 3 {
		t.Fatalf("joined: want=3 got=%d", joined)
	}

	dbc := dbctx.Context{Ctx: context.Background()}
	active, err := env.ledger.CountActive(dbc, c.ID, &author.ID)
	if err != nil {
		t.Fatalf("CountActive: %v", err)
	}
	if active != 3 {
		t.Fatalf("active participants: want=3 got=%d", active)
	}
	var reloaded types.Campaign
	if err := env.db.Where("id = ?", c.ID).First(&reloaded).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.IsEnded {
		t.Fatalf("expected campaign to be closed once full")
	}
}

func TestConcurrentJoinsNeverExceedRequestedQuantity(t *testing.T) {
	env := newPGEnv(t)
	author := testutil.SeedUser(t, context.Background(), env.db, "author", "Seoul")
	c := testutil.SeedCampaign(t, context.Background(), env.db, author.ID,
		testutil.WithPersonLimit(50),
		testutil.WithRequestedCount(10),
	)

	env.race(t, c, seedUsers(t, env.db, 12), 3)

	dbc := dbctx.Context{Ctx: context.Background()}
	total, err := env.ledger.SumActiveQuantity(dbc, c.ID, nil)
	if err != nil {
		t.Fatalf("SumActiveQuantity: %v", err)
	}
	if total > 10 {
		t.Fatalf("active quantity %d exceeds requested count 10", total)
	}
	if total != 9 {
		t.Fatalf("active quantity: want=9 got=%d", total)
	}
}
