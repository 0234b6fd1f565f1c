package observability

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/groupbuy-backend/internal/platform/logger"
)

// Metrics is a Prometheus text-format registry. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *GaugeVec

	submits        *CounterVec
	campaignsEnded *CounterVec
	sweeps         *CounterVec
	sweepLatency   *HistogramVec

	dbPool    *GaugeVec
	redisUp   *GaugeVec
	redisPing *GaugeVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Init builds the process-wide registry when enabled and returns it.
func Init(enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
	})
	return instance
}

// Current returns the registry installed by Init, or nil.
func Current() *Metrics {
	return instance
}

func NewMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("gb_api_requests_total", "API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"gb_api_request_duration_seconds",
			"API request latency in seconds by method/route.",
			[]string{"method", "route"},
			nil,
		),
		apiInflight:    NewGaugeVec("gb_api_inflight_requests", "In-flight API requests.", nil),
		submits:        NewCounterVec("gb_participation_submits_total", "Participation submissions by outcome or error code.", []string{"result"}),
		campaignsEnded: NewCounterVec("gb_campaigns_ended_total", "Campaigns closed by reason.", []string{"reason"}),
		sweeps:         NewCounterVec("gb_closer_sweeps_total", "Close-time sweeps by status.", []string{"status"}),
		sweepLatency: NewHistogramVec(
			"gb_closer_sweep_duration_seconds",
			"Close-time sweep duration in seconds.",
			nil,
			nil,
		),
		dbPool:    NewGaugeVec("gb_db_pool", "database/sql pool statistics.", []string{"stat"}),
		redisUp:   NewGaugeVec("gb_redis_up", "1 when the last redis ping succeeded.", nil),
		redisPing: NewGaugeVec("gb_redis_ping_seconds", "Last redis ping round trip.", nil),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.submits, m.campaignsEnded, m.sweeps, m.sweepLatency,
		m.dbPool, m.redisUp, m.redisPing,
	}
	for _, wr := range writers {
		if err := wr.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.Inc(method, route, strconv.Itoa(status))
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Add(1)
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Add(-1)
}

// ObserveSubmit records a submission's outcome, or its error code on failure.
func (m *Metrics) ObserveSubmit(result string) {
	if m == nil {
		return
	}
	m.submits.Inc(strings.TrimSpace(result))
}

func (m *Metrics) AddCampaignsEnded(reason string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.campaignsEnded.Add(float64(n), reason)
}

func (m *Metrics) ObserveSweep(err error, dur time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.sweeps.Inc(status)
	m.sweepLatency.Observe(dur.Seconds())
}

// StartDBCollector samples connection pool stats until ctx is done.
func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, interval time.Duration) {
	if m == nil || db == nil {
		return
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbPool.Set(float64(stats.OpenConnections), "open_connections")
				m.dbPool.Set(float64(stats.InUse), "in_use")
				m.dbPool.Set(float64(stats.Idle), "idle")
				m.dbPool.Set(float64(stats.WaitCount), "wait_count")
				m.dbPool.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.dbPool.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

// StartRedisCollector pings rdb until ctx is done. The client is owned by the
// caller.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb *redis.Client, interval time.Duration) {
	if m == nil || rdb == nil {
		return
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
