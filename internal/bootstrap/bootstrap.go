// Package bootstrap opens the shared dependencies used by every binary.
package bootstrap

import (
	"context"
	"strconv"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tablekit/backend/config"
	"github.com/tablekit/backend/internal/store"
	"github.com/tablekit/backend/internal/store/memory"
	"github.com/tablekit/backend/internal/store/postgres"
	"github.com/tablekit/backend/pkg/database"
	"github.com/tablekit/backend/pkg/mailer"
	"github.com/tablekit/backend/pkg/redis"
)

// NewLogger builds the production JSON logger.
func NewLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// Store is an opened persistence backend.
type Store struct {
	store.DB
	// Ping is nil for the in-memory driver.
	Ping  func(ctx context.Context) error
	Close func()
}

// OpenStore connects the configured driver. Postgres is migrated before use.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Store, error) {
	if cfg.Store.Driver == config.StoreMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		return &Store{DB: memory.New(), Close: func() {}}, nil
	}
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolOptions{
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, pool, logger); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{DB: postgres.New(pool), Ping: pool.Ping, Close: pool.Close}, nil
}

// OpenRedis connects to Redis, returning nil with a warning when it is unreachable.
func OpenRedis(ctx context.Context, cfg *config.Config, logger *zap.Logger) *redis.Client {
	rdb, err := redis.NewClient(ctx, redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		logger.Warn("redis unavailable; onboarding emails disabled", zap.Error(err))
		return nil
	}
	return rdb
}

// MailerConfig maps the email settings onto the SMTP sender.
func MailerConfig(cfg *config.Config) mailer.Config {
	return mailer.Config{
		Host:     cfg.Email.SMTPHost,
		Port:     strconv.Itoa(cfg.Email.SMTPPort),
		Username: cfg.Email.SMTPUser,
		Password: cfg.Email.SMTPPass,
		From:     cfg.Email.FromAddress,
		FromName: cfg.Email.FromName,
	}
}
