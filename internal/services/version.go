package services

import (
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/bilyfoster/librelog-backend/internal/data/repos"
	types "github.com/bilyfoster/librelog-backend/internal/domain/traffic"
	"github.com/bilyfoster/librelog-backend/internal/platform/dbctx"
	"github.com/bilyfoster/librelog-backend/internal/platform/faults"
	"github.com/bilyfoster/librelog-backend/internal/platform/logger"
	"github.com/bilyfoster/librelog-backend/internal/platform/tracing"
)

// casAttempts bounds retries when two writers race the version counter.
const casAttempts = 3

type VersionService interface {
	// SnapshotAndAdvance archives the cut's current payload state as a new
	// version row and advances the version counter. When newPayloadRef is
	// non-empty the cut's payload ref and checksum are replaced in the same
	// transaction.
	SnapshotAndAdvance(dbc dbctx.Context, cutID uuid.UUID, newPayloadRef, notes, actor string) (*types.CutVersion, error)

	// Rollback restores the payload recorded at targetVersion. The
	// pre-rollback state is archived first; history only ever grows.
	Rollback(dbc dbctx.Context, cutID uuid.UUID, targetVersion int, actor string) (*types.Cut, error)

	ListVersions(dbc dbctx.Context, cutID uuid.UUID) ([]*types.CutVersion, error)
}

type versionService struct {
	db         *gorm.DB
	log        *logger.Logger
	cutRepo    repos.CutRepo
	verRepo    repos.CutVersionRepo
	checksums  ChecksumService
	dispatcher QCDispatcher
}

func NewVersionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cutRepo repos.CutRepo,
	verRepo repos.CutVersionRepo,
	checksums ChecksumService,
	dispatcher QCDispatcher,
) VersionService {
	return &versionService{
		db:         db,
		log:        baseLog.With("service", "VersionService"),
		cutRepo:    cutRepo,
		verRepo:    verRepo,
		checksums:  checksums,
		dispatcher: dispatcher,
	}
}

func (vs *versionService) SnapshotAndAdvance(dbc dbctx.Context, cutID uuid.UUID, newPayloadRef, notes, actor string) (*types.CutVersion, error) {
	ctx, span := tracing.Tracer().Start(dbc.Ctx, "version.snapshot_and_advance")
	defer span.End()
	span.SetAttributes(attribute.String("cut_id", cutID.String()))
	dbc.Ctx = ctx

	updates := map[string]interface{}{}
	if newPayloadRef != "" {
		checksum, err := vs.checksums.Compute(dbc.Ctx, newPayloadRef)
		if err != nil {
			return nil, err
		}
		updates["audio_file_ref"] = newPayloadRef
		updates["content_checksum"] = checksum
	}

	version, err := vs.advanceWithRetry(dbc, cutID, notes, actor, updates)
	if err != nil {
		return nil, err
	}

	vs.log.Info("cut version advanced",
		"cut_id", cutID,
		"archived_version", version.VersionNumber,
		"new_payload", newPayloadRef != "",
	)

	if vs.dispatcher != nil && newPayloadRef != "" {
		vs.dispatcher.Dispatch(newPayloadRef, &cutID, &version.ID)
	}
	return version, nil
}

// advanceWithRetry runs the archive+CAS pair, retrying in a fresh transaction
// when another writer advanced the counter first. A caller-supplied
// transaction cannot be retried, so it gets a single attempt.
func (vs *versionService) advanceWithRetry(dbc dbctx.Context, cutID uuid.UUID, notes, actor string, updates map[string]interface{}) (*types.CutVersion, error) {
	attempts := casAttempts
	if dbc.Tx != nil {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		version, err := vs.advanceOnce(dbc, cutID, notes, actor, updates)
		if err == nil {
			return version, nil
		}
		if !faults.IsConflict(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (vs *versionService) advanceOnce(dbc dbctx.Context, cutID uuid.UUID, notes, actor string, updates map[string]interface{}) (*types.CutVersion, error) {
	var version *types.CutVersion

	run := func(tx *gorm.DB) error {
		cut, err := vs.cutRepo.GetByID(dbc.Ctx, tx, cutID)
		if err != nil {
			return err
		}
		if cut == nil {
			return faults.NotFound("cut_not_found", fmt.Errorf("cut %s does not exist", cutID))
		}

		version = &types.CutVersion{
			ID:              uuid.New(),
			CutID:           cut.ID,
			VersionNumber:   cut.Version,
			AudioFileRef:    cut.AudioFileRef,
			ContentChecksum: cut.ContentChecksum,
			Notes:           notes,
			ChangedBy:       actor,
		}
		if _, err := vs.verRepo.Create(dbc.Ctx, tx, []*types.CutVersion{version}); err != nil {
			return err
		}

		ok, err := vs.cutRepo.AdvanceVersion(dbc.Ctx, tx, cut.ID, cut.Version, updates)
		if err != nil {
			return err
		}
		if !ok {
			return faults.Conflict("version_race_lost", fmt.Errorf("cut %s version moved past %d", cut.ID, cut.Version))
		}
		return nil
	}

	var err error
	if dbc.Tx != nil {
		err = run(dbc.Tx)
	} else {
		err = vs.db.WithContext(dbc.Ctx).Transaction(run)
	}
	if err != nil {
		return nil, err
	}
	return version, nil
}

func (vs *versionService) Rollback(dbc dbctx.Context, cutID uuid.UUID, targetVersion int, actor string) (*types.Cut, error) {
	ctx, span := tracing.Tracer().Start(dbc.Ctx, "version.rollback")
	defer span.End()
	span.SetAttributes(
		attribute.String("cut_id", cutID.String()),
		attribute.Int("target_version", targetVersion),
	)
	dbc.Ctx = ctx

	var out *types.Cut

	run := func(tx *gorm.DB) error {
		target, err := vs.verRepo.GetByCutAndNumber(dbc.Ctx, tx, cutID, targetVersion)
		if err != nil {
			return err
		}
		if target == nil {
			return faults.NotFound("version_not_found", fmt.Errorf("cut %s has no version %d", cutID, targetVersion))
		}

		// Archive the pre-rollback state, then land the restored payload in
		// the same compare-and-swap.
		txc := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		if _, err := vs.advanceOnce(txc, cutID, fmt.Sprintf("rollback to version %d", targetVersion), actor, map[string]interface{}{
			"audio_file_ref":   target.AudioFileRef,
			"content_checksum": target.ContentChecksum,
		}); err != nil {
			return err
		}

		out, err = vs.cutRepo.GetByID(dbc.Ctx, tx, cutID)
		return err
	}

	var err error
	if dbc.Tx != nil {
		err = run(dbc.Tx)
	} else {
		err = vs.db.WithContext(dbc.Ctx).Transaction(run)
	}
	if err != nil {
		return nil, err
	}

	vs.log.Info("cut rolled back",
		"cut_id", cutID,
		"target_version", targetVersion,
		"current_version", out.Version,
	)
	return out, nil
}

func (vs *versionService) ListVersions(dbc dbctx.Context, cutID uuid.UUID) ([]*types.CutVersion, error) {
	return vs.verRepo.GetByCutID(dbc.Ctx, dbc.Tx, cutID)
}
