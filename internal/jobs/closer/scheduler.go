package closer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/yungbote/groupbuy-backend/internal/observability"
	"github.com/yungbote/groupbuy-backend/internal/platform/logger"
)

const lockKey = "groupbuy:closer:sweep"

// Sweeper closes campaigns whose close time has passed.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

type Config struct {
	Schedule string
	LockTTL  time.Duration
	Timeout  time.Duration
}

// Scheduler runs the close-time sweep on a cron schedule. A failed tick is
// logged and left for the next one.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	locker  Locker
	log     *logger.Logger
	cfg     Config
}

// NewScheduler builds a scheduler. locker may be nil for single-replica
// deployments.
func NewScheduler(baseLog *logger.Logger, sweeper Sweeper, locker Locker, cfg Config) (*Scheduler, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 5m"
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	log := baseLog.With("component", "CampaignCloserScheduler")
	cl := cronLogger{log: log}
	s := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cl),
			cron.SkipIfStillRunning(cl),
		)),
		sweeper: sweeper,
		locker:  locker,
		log:     log,
		cfg:     cfg,
	}
	if _, err := s.cron.AddFunc(cfg.Schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid closer schedule %q: %w", cfg.Schedule, err)
	}
	return s, nil
}

// Start runs the schedule until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("Starting campaign closer", "schedule", s.cfg.Schedule, "locked", s.locker != nil)
	s.cron.Start()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop halts the schedule and waits briefly for a running sweep.
func (s *Scheduler) Stop() {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("Campaign closer stopped")
	case <-time.After(5 * time.Second):
		s.log.Warn("Campaign closer forced to stop after timeout")
	}
}

// RunOnce performs a single guarded sweep. It reports whether a sweep ran.
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, lockKey, s.cfg.LockTTL)
		if errors.Is(err, ErrLockBusy) {
			s.log.Debug("Sweep skipped, lock held by another replica")
			return false
		}
		if err != nil {
			s.log.Warn("Sweep skipped, lock unavailable", "error", err)
			return false
		}
		defer func() {
			if err := release(context.Background()); err != nil {
				s.log.Warn("Failed to release sweep lock", "error", err)
			}
		}()
	}

	start := time.Now()
	closed, err := s.sweeper.SweepExpired(ctx)
	observability.Current().ObserveSweep(err, time.Since(start))
	if err != nil {
		s.log.Error("Sweep failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return false
	}
	s.log.Info("Sweep finished", "closed", closed, "duration_ms", time.Since(start).Milliseconds())
	return true
}

type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
