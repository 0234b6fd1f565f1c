package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/yungbote/groupbuy-backend/internal/platform/dbctx"
	"github.com/yungbote/groupbuy-backend/internal/platform/logger"
)

type TxOptions struct {
	MaxAttempts    uint
	LockTimeout    time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Transactor runs units of work in a transaction and replays them when the
// database reports a serialization failure, deadlock or lock timeout.
type Transactor struct {
	db   *gorm.DB
	log  *logger.Logger
	opts TxOptions
}

func NewTransactor(db *gorm.DB, baseLog *logger.Logger, opts TxOptions) *Transactor {
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 25 * time.Millisecond
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 500 * time.Millisecond
	}
	return &Transactor{
		db:   db,
		log:  baseLog.With("component", "Transactor"),
		opts: opts,
	}
}

func (t *Transactor) DB() *gorm.DB { return t.db }

// WithTx executes fn inside a transaction. fn must be safe to re-run: every
// attempt starts from a fresh transaction and nothing is kept between them.
func (t *Transactor) WithTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.opts.InitialBackoff
	b.MaxInterval = t.opts.MaxBackoff

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if IsPostgres(tx) && t.opts.LockTimeout > 0 {
				stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", t.opts.LockTimeout.Milliseconds())
				if err := tx.Exec(stmt).Error; err != nil {
					return fmt.Errorf("set lock_timeout: %w", err)
				}
			}
			return fn(dbctx.Context{Ctx: ctx, Tx: tx})
		})
		if err == nil {
			return struct{}{}, nil
		}
		if !IsTransient(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		t.log.Warn("transient transaction failure", "attempt", attempt, "error", err)
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(t.opts.MaxAttempts),
	)
	return err
}

// IsTransient reports whether err is a storage conflict that a fresh
// transaction may not hit again.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", // serialization_failure
			"40P01", // deadlock_detected
			"55P03": // lock_not_available
			return true
		}
		return false
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}

	// Fallback for wrapped errors that lost their type.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "sqlstate 40001") ||
		strings.Contains(msg, "sqlstate 40p01") ||
		strings.Contains(msg, "sqlstate 55p03") ||
		strings.Contains(msg, "database is locked")
}
