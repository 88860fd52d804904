package app

import (
	"gorm.io/gorm"

	"github.com/bilyfoster/librelog-backend/internal/platform/audiostore"
	"github.com/bilyfoster/librelog-backend/internal/platform/logger"
	"github.com/bilyfoster/librelog-backend/internal/services"
)

type Services struct {
	Checksum   services.ChecksumService
	Cut        services.CutService
	Version    services.VersionService
	QC         services.QCService
	Dispatcher services.QCDispatcher
	Notifier   services.Notifier
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, store audiostore.Store, r Repos) Services {
	log.Info("Wiring services...")

	notifier, err := services.NewRedisNotifier(log)
	if err != nil {
		log.Warn("Redis notifier unavailable, events disabled", "error", err)
		notifier = services.NewNopNotifier()
	}

	checksum := services.NewChecksumService(log, store)
	qc := services.NewQCService(db, log, store, r.QCResult, notifier, cfg.QCPolicy)
	dispatcher := services.NewQCDispatcher(log, qc, int64(cfg.QCMaxWorkers))
	cut := services.NewCutService(db, log, r.Copy, r.Cut, r.CutVersion, r.QCResult, checksum, notifier, dispatcher)
	version := services.NewVersionService(db, log, r.Cut, r.CutVersion, checksum, dispatcher)

	return Services{
		Checksum:   checksum,
		Cut:        cut,
		Version:    version,
		QC:         qc,
		Dispatcher: dispatcher,
		Notifier:   notifier,
	}
}
