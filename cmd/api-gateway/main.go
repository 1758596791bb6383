package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-scheduler-api/internal/bootstrap"
	"github.com/noah-isme/sma-scheduler-api/pkg/config"
	"github.com/noah-isme/sma-scheduler-api/pkg/logger"
)

// @title SMA Scheduler API
// @version 1.0.0
// @description Course request auto-scheduler: requests, scheduler runs, enrollments and timetable templates.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := bootstrap.NewContainer(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to initialise dependencies", zap.Error(err))
	}
	defer container.Close()

	router := bootstrap.NewRouter(cfg, container, logr)
	srv := bootstrap.NewServer(fmt.Sprintf(":%d", cfg.Port), router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bootstrap.Serve(gctx, srv, logr)
	})
	if cfg.Scheduler.Enabled {
		container.Jobs.Start(gctx)
		g.Go(func() error {
			<-gctx.Done()
			container.Jobs.Stop()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logr.Error("server failed", zap.String("env", cfg.Env), zap.Error(err))
	}
	logr.Info("server stopped")
}
