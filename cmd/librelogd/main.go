package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bilyfoster/librelog-backend/internal/app"
	"github.com/bilyfoster/librelog-backend/internal/platform/dbctx"
	"github.com/bilyfoster/librelog-backend/internal/platform/envutil"
	"github.com/bilyfoster/librelog-backend/internal/platform/logger"
)

func main() {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, log)
	if err != nil {
		log.Fatal("Bootstrap failed", "error", err)
	}

	// Periodic expiry sweep; the API layer drives everything else.
	sweepDays := envutil.Int("EXPIRY_NOTIFY_DAYS", 7)
	sweepEvery := time.Duration(envutil.Int("EXPIRY_SWEEP_MINUTES", 60)) * time.Minute

	log.Info("librelogd ready", "expiry_notify_days", sweepDays, "sweep_interval", sweepEvery)

	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()

	runSweep := func() {
		count, err := application.Services.Cut.NotifyExpiring(dbctx.Context{Ctx: ctx}, sweepDays)
		if err != nil {
			log.Warn("expiry sweep failed", "error", err)
			return
		}
		if count > 0 {
			log.Info("expiry sweep published events", "count", count)
		}
	}
	runSweep()

	for {
		select {
		case <-ctx.Done():
			log.Info("Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			application.Shutdown(shutdownCtx)
			cancel()
			return
		case <-ticker.C:
			runSweep()
		}
	}
}
