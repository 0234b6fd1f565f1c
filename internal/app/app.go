package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/groupbuy-backend/internal/data/db"
	"github.com/yungbote/groupbuy-backend/internal/http"
	"github.com/yungbote/groupbuy-backend/internal/jobs/closer"
	"github.com/yungbote/groupbuy-backend/internal/observability"
	"github.com/yungbote/groupbuy-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Redis    *redis.Client
	Server   *http.Server
	Closer   *closer.Scheduler
	Metrics  *observability.Metrics
	Cfg      Config
	Repos    Repos
	Services Services

	dbService    *db.Service
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New(ctx context.Context) (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)
	metrics := observability.Init(cfg.MetricsEnabled)

	dbService, err := db.NewService(cfg.DB(), log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init db: %w", err)
	}
	theDB := dbService.DB()
	if err := db.AutoMigrateAll(theDB); err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			_ = dbService.Close()
			log.Sync()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
	}

	txr := db.NewTransactor(theDB, log, cfg.Tx())
	reposet := wireRepos(theDB, log)
	serviceset := wireServices(txr, log, cfg, reposet)

	var sched *closer.Scheduler
	if cfg.CloserEnabled {
		var locker closer.Locker
		if rdb != nil {
			locker = closer.NewRedsyncLocker(rdb)
		}
		sched, err = closer.NewScheduler(log, serviceset.Closer, locker, cfg.Closer())
		if err != nil {
			if rdb != nil {
				_ = rdb.Close()
			}
			_ = dbService.Close()
			log.Sync()
			return nil, err
		}
	}

	handlerset := wireHandlers(log, serviceset, theDB, rdb)
	middleware := wireMiddleware(log, serviceset)
	server := wireServer(log, cfg, metrics, handlerset, middleware)

	return &App{
		Log:          log,
		DB:           theDB,
		Redis:        rdb,
		Server:       server,
		Closer:       sched,
		Metrics:      metrics,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		dbService:    dbService,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches the background work: the close-time sweep and the pool
// collectors.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.Metrics.StartDBCollector(ctx, a.Log, a.DB, 0)
	a.Metrics.StartRedisCollector(ctx, a.Log, a.Redis, 0)
	if a.Closer != nil {
		a.Closer.Start(ctx)
	}
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Log.Info("HTTP server listening", "addr", addr)
		return a.Server.Run(addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.Server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.dbService != nil {
		_ = a.dbService.Close()
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
