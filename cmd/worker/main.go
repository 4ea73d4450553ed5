// Package main runs the background email worker.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/tablekit/backend/config"
	"github.com/tablekit/backend/internal/bootstrap"
	"github.com/tablekit/backend/internal/worker"
	"github.com/tablekit/backend/pkg/mailer"
	"github.com/tablekit/backend/pkg/queue"
)

func main() {
	logger := bootstrap.NewLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	rdb := bootstrap.OpenRedis(ctx, cfg, logger)
	if rdb == nil {
		logger.Fatal("redis is required by the worker")
	}
	defer rdb.Close()

	mailCfg := bootstrap.MailerConfig(cfg)
	if !mailCfg.Enabled() {
		logger.Warn("SMTP not configured; emails will only be logged")
	}
	processor := worker.NewEmailProcessor(mailer.New(mailCfg, logger), queue.NewQueue(rdb.Client, logger), logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		processor.Run(workerCtx)
	}()
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	<-done
	logger.Info("worker stopped")
}
