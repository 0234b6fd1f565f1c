package closer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// ErrLockBusy is returned when another replica holds the lock.
var ErrLockBusy = errors.New("lock held elsewhere")

// Locker guards a tick so only one replica sweeps at a time.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

type redsyncLocker struct {
	rs *redsync.Redsync
}

func NewRedsyncLocker(rdb *redis.Client) Locker {
	pool := goredis.NewPool(rdb)
	return &redsyncLocker{rs: redsync.New(pool)}
}

func (l *redsyncLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	mutex := l.rs.NewMutex(
		key,
		redsync.WithExpiry(ttl),
		redsync.WithTries(1), // a busy lock means another replica is already sweeping
	)
	if err := mutex.LockContext(ctx); err != nil {
		if errors.Is(err, redsync.ErrFailed) || strings.Contains(err.Error(), "lock already taken") {
			return nil, ErrLockBusy
		}
		return nil, err
	}
	return func(ctx context.Context) error {
		_, err := mutex.UnlockContext(ctx)
		return err
	}, nil
}
