package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bilyfoster/librelog-backend/internal/data/repos"
	types "github.com/bilyfoster/librelog-backend/internal/domain/traffic"
	"github.com/bilyfoster/librelog-backend/internal/platform/dbctx"
	"github.com/bilyfoster/librelog-backend/internal/platform/faults"
	"github.com/bilyfoster/librelog-backend/internal/platform/logger"
)

type CreateCutInput struct {
	CopyID              uuid.UUID
	CutLabel            string
	CutName             string
	AudioFileRef        string
	RotationWeight      *float64 // nil defaults to 1.0
	DaypartRestrictions []string
	ProgramAssociations []string
	ExpiresAt           *time.Time
	Notes               string
	Tags                []string
	Actor               string
}

// UpdateCutInput carries partial-update semantics: nil pointer fields are
// left untouched.
type UpdateCutInput struct {
	CutName             *string
	Notes               *string
	Tags                []string
	RotationWeight      *float64
	DaypartRestrictions []string
	ProgramAssociations []string
	ExpiresAt           *time.Time
	ClearExpiry         bool
	Active              *bool
}

type CutService interface {
	CreateCut(dbc dbctx.Context, in CreateCutInput) (*types.Cut, error)
	UpdateCut(dbc dbctx.Context, id uuid.UUID, in UpdateCutInput) (*types.Cut, error)
	DeleteCut(dbc dbctx.Context, id uuid.UUID) error

	GetCut(dbc dbctx.Context, id uuid.UUID) (*types.Cut, error)
	ListByCopy(dbc dbctx.Context, copyID uuid.UUID, activeOnly bool) ([]*types.Cut, error)
	ListExpiringWithin(dbc dbctx.Context, days int) ([]*types.Cut, error)

	// NotifyExpiring publishes a cut_expiring event per cut inside the window
	// and returns how many were published.
	NotifyExpiring(dbc dbctx.Context, days int) (int, error)
}

type cutService struct {
	db         *gorm.DB
	log        *logger.Logger
	copyRepo   repos.CopyRepo
	cutRepo    repos.CutRepo
	verRepo    repos.CutVersionRepo
	qcRepo     repos.QCResultRepo
	checksums  ChecksumService
	notifier   Notifier
	dispatcher QCDispatcher
}

func NewCutService(
	db *gorm.DB,
	baseLog *logger.Logger,
	copyRepo repos.CopyRepo,
	cutRepo repos.CutRepo,
	verRepo repos.CutVersionRepo,
	qcRepo repos.QCResultRepo,
	checksums ChecksumService,
	notifier Notifier,
	dispatcher QCDispatcher,
) CutService {
	return &cutService{
		db:         db,
		log:        baseLog.With("service", "CutService"),
		copyRepo:   copyRepo,
		cutRepo:    cutRepo,
		verRepo:    verRepo,
		qcRepo:     qcRepo,
		checksums:  checksums,
		notifier:   notifier,
		dispatcher: dispatcher,
	}
}

func (cs *cutService) inTx(dbc dbctx.Context, fn func(tx *gorm.DB) error) error {
	if dbc.Tx != nil {
		return fn(dbc.Tx)
	}
	return cs.db.WithContext(dbc.Ctx).Transaction(fn)
}

func (cs *cutService) CreateCut(dbc dbctx.Context, in CreateCutInput) (*types.Cut, error) {
	label := strings.TrimSpace(in.CutLabel)
	if label == "" {
		return nil, faults.Invalid("missing_cut_label", fmt.Errorf("cut label is required"))
	}
	weight := 1.0
	if in.RotationWeight != nil {
		weight = *in.RotationWeight
	}
	if weight < 0 {
		return nil, faults.Invalid("negative_rotation_weight", fmt.Errorf("rotation weight %v < 0", weight))
	}

	checksum := ""
	if in.AudioFileRef != "" {
		sum, err := cs.checksums.Compute(dbc.Ctx, in.AudioFileRef)
		if err != nil {
			return nil, err
		}
		checksum = sum
	}

	cut := &types.Cut{
		ID:                  uuid.New(),
		CopyID:              in.CopyID,
		CutLabel:            label,
		CutName:             in.CutName,
		Notes:               in.Notes,
		Tags:                types.EncodeIDList(in.Tags),
		AudioFileRef:        in.AudioFileRef,
		ContentChecksum:     checksum,
		Version:             1,
		RotationWeight:      weight,
		DaypartRestrictions: types.EncodeIDList(in.DaypartRestrictions),
		ProgramAssociations: types.EncodeIDList(in.ProgramAssociations),
		ExpiresAt:           in.ExpiresAt,
		Active:              true,
		CreatedBy:           in.Actor,
	}

	err := cs.inTx(dbc, func(tx *gorm.DB) error {
		exists, err := cs.copyRepo.Exists(dbc.Ctx, tx, in.CopyID)
		if err != nil {
			return err
		}
		if !exists {
			return faults.NotFound("copy_not_found", fmt.Errorf("copy %s does not exist", in.CopyID))
		}

		existing, err := cs.cutRepo.GetByCopyAndLabel(dbc.Ctx, tx, in.CopyID, label)
		if err != nil {
			return err
		}
		if existing != nil {
			return faults.Duplicate("duplicate_cut_label", fmt.Errorf("cut %q already exists for copy %s", label, in.CopyID))
		}

		if _, err := cs.cutRepo.Create(dbc.Ctx, tx, []*types.Cut{cut}); err != nil {
			return err
		}
		return cs.copyRepo.AdjustCutCount(dbc.Ctx, tx, in.CopyID, 1)
	})
	if err != nil {
		return nil, err
	}

	cs.log.Info("cut created",
		"cut_id", cut.ID,
		"copy_id", cut.CopyID,
		"cut_label", cut.CutLabel,
	)

	// QC runs out of band; the create never waits on it.
	if cs.dispatcher != nil && cut.AudioFileRef != "" {
		cs.dispatcher.Dispatch(cut.AudioFileRef, &cut.ID, nil)
	}
	return cut, nil
}

func (cs *cutService) UpdateCut(dbc dbctx.Context, id uuid.UUID, in UpdateCutInput) (*types.Cut, error) {
	if in.RotationWeight != nil && *in.RotationWeight < 0 {
		return nil, faults.Invalid("negative_rotation_weight", fmt.Errorf("rotation weight %v < 0", *in.RotationWeight))
	}

	updates := map[string]interface{}{}
	if in.CutName != nil {
		updates["cut_name"] = *in.CutName
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if in.Tags != nil {
		updates["tags"] = types.EncodeIDList(in.Tags)
	}
	if in.RotationWeight != nil {
		updates["rotation_weight"] = *in.RotationWeight
	}
	if in.DaypartRestrictions != nil {
		updates["daypart_restrictions"] = types.EncodeIDList(in.DaypartRestrictions)
	}
	if in.ProgramAssociations != nil {
		updates["program_associations"] = types.EncodeIDList(in.ProgramAssociations)
	}
	if in.ClearExpiry {
		updates["expires_at"] = nil
	} else if in.ExpiresAt != nil {
		updates["expires_at"] = *in.ExpiresAt
	}
	if in.Active != nil {
		updates["active"] = *in.Active
	}

	var out *types.Cut
	err := cs.inTx(dbc, func(tx *gorm.DB) error {
		cut, err := cs.cutRepo.GetByID(dbc.Ctx, tx, id)
		if err != nil {
			return err
		}
		if cut == nil {
			return faults.NotFound("cut_not_found", fmt.Errorf("cut %s does not exist", id))
		}
		if len(updates) > 0 {
			if err := cs.cutRepo.UpdateFields(dbc.Ctx, tx, id, updates); err != nil {
				return err
			}
		}
		out, err = cs.cutRepo.GetByID(dbc.Ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (cs *cutService) DeleteCut(dbc dbctx.Context, id uuid.UUID) error {
	err := cs.inTx(dbc, func(tx *gorm.DB) error {
		cut, err := cs.cutRepo.GetByID(dbc.Ctx, tx, id)
		if err != nil {
			return err
		}
		if cut == nil {
			return faults.NotFound("cut_not_found", fmt.Errorf("cut %s does not exist", id))
		}

		if err := cs.verRepo.FullDeleteByCutIDs(dbc.Ctx, tx, []uuid.UUID{id}); err != nil {
			return err
		}
		if err := cs.qcRepo.FullDeleteByCutIDs(dbc.Ctx, tx, []uuid.UUID{id}); err != nil {
			return err
		}
		if err := cs.cutRepo.FullDeleteByIDs(dbc.Ctx, tx, []uuid.UUID{id}); err != nil {
			return err
		}
		return cs.copyRepo.AdjustCutCount(dbc.Ctx, tx, cut.CopyID, -1)
	})
	if err != nil {
		return err
	}
	cs.log.Info("cut deleted", "cut_id", id)
	return nil
}

func (cs *cutService) GetCut(dbc dbctx.Context, id uuid.UUID) (*types.Cut, error) {
	cut, err := cs.cutRepo.GetByID(dbc.Ctx, dbc.Tx, id)
	if err != nil {
		return nil, err
	}
	if cut == nil {
		return nil, faults.NotFound("cut_not_found", fmt.Errorf("cut %s does not exist", id))
	}
	return cut, nil
}

func (cs *cutService) ListByCopy(dbc dbctx.Context, copyID uuid.UUID, activeOnly bool) ([]*types.Cut, error) {
	return cs.cutRepo.GetByCopyID(dbc.Ctx, dbc.Tx, copyID, activeOnly)
}

func (cs *cutService) ListExpiringWithin(dbc dbctx.Context, days int) ([]*types.Cut, error) {
	if days < 0 {
		return nil, faults.Invalid("negative_window", fmt.Errorf("expiry window %d < 0", days))
	}
	now := time.Now().UTC()
	return cs.cutRepo.GetExpiringWithin(dbc.Ctx, dbc.Tx, now, time.Duration(days)*24*time.Hour)
}

func (cs *cutService) NotifyExpiring(dbc dbctx.Context, days int) (int, error) {
	cuts, err := cs.ListExpiringWithin(dbc, days)
	if err != nil {
		return 0, err
	}
	if cs.notifier == nil {
		return 0, nil
	}
	published := 0
	for _, cut := range cuts {
		event := Event{
			Type:   EventCutExpiring,
			CutID:  cut.ID.String(),
			CopyID: cut.CopyID.String(),
			Detail: map[string]interface{}{
				"cut_label":  cut.CutLabel,
				"expires_at": cut.ExpiresAt,
			},
		}
		if err := cs.notifier.Publish(dbc.Ctx, event); err != nil {
			cs.log.Warn("expiry event publish failed", "cut_id", cut.ID, "error", err)
			continue
		}
		published++
	}
	return published, nil
}
