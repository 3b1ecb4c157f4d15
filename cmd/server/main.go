package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"syllabus-gap/internal/app"
	"syllabus-gap/internal/config"
	"syllabus-gap/internal/observability"
	"syllabus-gap/internal/pkg/logger"
	"syllabus-gap/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.App.Environment)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer lg.Sync()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	shutdownTracing := observability.InitTracing(ctx, cfg.App, cfg.Telemetry, lg)

	c, err := app.NewContainer(cfg, lg)
	if err != nil {
		lg.Fatal("failed to init container", "err", err)
	}

	bootstrap, cleanup, err := app.Bootstrap(c)
	if err != nil {
		lg.Fatal("failed to bootstrap app", "err", err)
	}
	defer func() {
		if err := cleanup(); err != nil {
			lg.Warn("cleanup error", "err", err)
		}
	}()

	go c.Hub.Run(ctx)

	var cron *scheduler.Scheduler
	if c.Cleanup.Enabled() {
		cron = scheduler.New("conversation_cleanup", cfg.Cleanup.Schedule, c.Cleanup, lg)
		if err := cron.Start(ctx); err != nil {
			lg.Fatal("failed to start scheduler", "err", err)
		}
	}

	addr, err := app.ListenAddr(cfg.App.HTTPPort)
	if err != nil {
		lg.Fatal("invalid HTTP port", "err", err)
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("http server listening", "addr", addr, "env", cfg.App.Environment)
		errCh <- bootstrap.Fiber.Listen(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			lg.Error("server error", "err", err)
		}
	case sig := <-sigCh:
		lg.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := bootstrap.Fiber.ShutdownWithContext(shutdownCtx); err != nil {
			lg.Warn("shutdown error", "err", err)
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			lg.Warn("tracing shutdown error", "err", err)
		}
	}

	if cron != nil {
		cron.Stop()
	}
	stop()
}
