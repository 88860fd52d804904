package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/bilyfoster/librelog-backend/internal/platform/dbctx"
	"github.com/bilyfoster/librelog-backend/internal/platform/logger"
)

// QCDispatcher hands QC analysis to background workers. Dispatch returns
// immediately; analysis failures are logged and never reach the mutation
// that triggered the dispatch.
type QCDispatcher interface {
	Dispatch(ref string, cutID, versionID *uuid.UUID)
	Wait()
}

type qcDispatcher struct {
	log     *logger.Logger
	qc      QCService
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
	timeout time.Duration
}

func NewQCDispatcher(baseLog *logger.Logger, qc QCService, maxWorkers int64) QCDispatcher {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &qcDispatcher{
		log:     baseLog.With("service", "QCDispatcher"),
		qc:      qc,
		sem:     semaphore.NewWeighted(maxWorkers),
		timeout: 5 * time.Minute,
	}
}

func (d *qcDispatcher) Dispatch(ref string, cutID, versionID *uuid.UUID) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.sem.Acquire(ctx, 1); err != nil {
			d.log.Warn("qc dispatch dropped, worker pool saturated", "audio_file_ref", ref, "error", err)
			return
		}
		defer d.sem.Release(1)

		if _, err := d.qc.Analyze(dbctx.Context{Ctx: ctx}, ref, cutID, versionID); err != nil {
			d.log.Error("background qc analysis failed", "audio_file_ref", ref, "error", err)
		}
	}()
}

// Wait blocks until in-flight analyses finish. Used at shutdown and in tests.
func (d *qcDispatcher) Wait() {
	d.wg.Wait()
}
