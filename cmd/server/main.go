// Package main runs the TableKit HTTP API with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tablekit/backend/config"
	"github.com/tablekit/backend/internal/auth"
	"github.com/tablekit/backend/internal/bootstrap"
	"github.com/tablekit/backend/internal/inquiries"
	"github.com/tablekit/backend/internal/onboarding"
	"github.com/tablekit/backend/internal/outlets"
	"github.com/tablekit/backend/internal/restaurants"
	"github.com/tablekit/backend/internal/router"
	"github.com/tablekit/backend/internal/users"
	"github.com/tablekit/backend/pkg/queue"
	"github.com/tablekit/backend/pkg/storage"
)

func main() {
	logger := bootstrap.NewLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	db, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store", zap.Error(err))
	}
	defer db.Close()

	checks := map[string]router.HealthCheck{}
	if db.Ping != nil {
		checks["database"] = db.Ping
	}

	// Onboarding needs Redis for setup tokens and the email queue.
	var (
		setupTokens users.SetupTokens
		onboarder   restaurants.Onboarder
	)
	if rdb := bootstrap.OpenRedis(ctx, cfg, logger); rdb != nil {
		defer rdb.Close()
		checks["redis"] = rdb.Healthy
		tokens := onboarding.NewTokenStore(rdb.Client, cfg.App.SetupTokenTTL)
		jobQueue := queue.NewQueue(rdb.Client, logger)
		setupTokens = tokens
		onboarder = onboarding.NewNotifier(tokens, jobQueue, cfg.App.PublicURL, logger)
	}

	var logos restaurants.LogoStore
	if cfg.AWS.LogoBucket != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			LogoBucket:      cfg.AWS.LogoBucket,
			Endpoint:        cfg.AWS.Endpoint,
			PublicBaseURL:   cfg.AWS.PublicBaseURL,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			logos = s3Client
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())

	usersSvc := users.NewService(jwtService, setupTokens, logger)
	restaurantsSvc := restaurants.NewService(usersSvc, logos, logger)
	outletsSvc := outlets.NewService(logger)
	inquiriesSvc := inquiries.NewService(restaurantsSvc, logger)

	engine := router.New(router.Deps{
		DB:          db,
		JWT:         jwtService,
		Users:       users.NewHandler(usersSvc, db, logger),
		Restaurants: restaurants.NewHandler(restaurantsSvc, db, onboarder, logger),
		Outlets:     outlets.NewHandler(outletsSvc, db, logger),
		Inquiries:   inquiries.NewHandler(inquiriesSvc, db, onboarder, logger),
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
		Checks:      checks,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
