package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/yungbote/groupbuy-backend/internal/data/db"
	"github.com/yungbote/groupbuy-backend/internal/jobs/closer"
	"github.com/yungbote/groupbuy-backend/internal/observability"
)

type Config struct {
	Port           string   `env:"PORT" envDefault:"8080"`
	LogMode        string   `env:"LOG_MODE" envDefault:"development"`
	JWTSecretKey   string   `env:"JWT_SECRET_KEY,notEmpty"`
	CORSOrigins    []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	MetricsEnabled bool     `env:"METRICS_ENABLED" envDefault:"true"`

	DBDriver          string        `env:"DB_DRIVER" envDefault:"postgres"`
	PostgresHost      string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort      string        `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser      string        `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPassword  string        `env:"POSTGRES_PASSWORD"`
	PostgresName      string        `env:"POSTGRES_NAME" envDefault:"groupbuy"`
	PostgresSSLMode   string        `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	SQLitePath        string        `env:"SQLITE_PATH" envDefault:"groupbuy.db"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"20"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	DBLockTimeout     time.Duration `env:"DB_LOCK_TIMEOUT" envDefault:"2s"`
	TxMaxAttempts     uint          `env:"TX_MAX_ATTEMPTS" envDefault:"3"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	CloserEnabled  bool          `env:"CLOSER_ENABLED" envDefault:"true"`
	CloserSchedule string        `env:"CLOSER_SCHEDULE" envDefault:"@every 5m"`
	CloserLockTTL  time.Duration `env:"CLOSER_LOCK_TTL" envDefault:"1m"`
	CloserTimeout  time.Duration `env:"CLOSER_TIMEOUT" envDefault:"30s"`

	Otel observability.OtelConfig
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	switch cfg.DBDriver {
	case db.DriverPostgres, db.DriverSQLite:
	default:
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	return cfg, nil
}

func (c Config) DB() db.Config {
	return db.Config{
		Driver:           c.DBDriver,
		PostgresHost:     c.PostgresHost,
		PostgresPort:     c.PostgresPort,
		PostgresUser:     c.PostgresUser,
		PostgresPassword: c.PostgresPassword,
		PostgresName:     c.PostgresName,
		PostgresSSLMode:  c.PostgresSSLMode,
		SQLitePath:       c.SQLitePath,
		MaxOpenConns:     c.DBMaxOpenConns,
		MaxIdleConns:     c.DBMaxIdleConns,
		ConnMaxLifetime:  c.DBConnMaxLifetime,
	}
}

func (c Config) Tx() db.TxOptions {
	return db.TxOptions{MaxAttempts: c.TxMaxAttempts, LockTimeout: c.DBLockTimeout}
}

func (c Config) Closer() closer.Config {
	return closer.Config{Schedule: c.CloserSchedule, LockTTL: c.CloserLockTTL, Timeout: c.CloserTimeout}
}
