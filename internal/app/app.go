package app

import (
	"context"
	"fmt"

	"github.com/bilyfoster/librelog-backend/internal/db"
	"github.com/bilyfoster/librelog-backend/internal/platform/audiostore"
	"github.com/bilyfoster/librelog-backend/internal/platform/logger"
	"github.com/bilyfoster/librelog-backend/internal/platform/tracing"
)

// App is the wired traffic core handed to the API layer and worker
// processes.
type App struct {
	Log      *logger.Logger
	Config   Config
	Repos    Repos
	Services Services

	shutdownTracing func(context.Context) error
}

func New(ctx context.Context, log *logger.Logger) (*App, error) {
	cfg := LoadConfig(log)

	shutdownTracing := tracing.Init(ctx, log, cfg.ServiceName)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	gdb := pg.DB()

	store, err := audiostore.NewGCSStore(ctx, log)
	if err != nil {
		return nil, fmt.Errorf("init audio store: %w", err)
	}

	repos := wireRepos(gdb, log)
	svcs := wireServices(gdb, log, cfg, store, repos)

	return &App{
		Log:             log,
		Config:          cfg,
		Repos:           repos,
		Services:        svcs,
		shutdownTracing: shutdownTracing,
	}, nil
}

// Shutdown drains background QC work and flushes tracing.
func (a *App) Shutdown(ctx context.Context) {
	a.Services.Dispatcher.Wait()
	if err := a.Services.Notifier.Close(); err != nil {
		a.Log.Warn("notifier close failed", "error", err)
	}
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(ctx); err != nil {
			a.Log.Warn("tracing shutdown failed", "error", err)
		}
	}
}
