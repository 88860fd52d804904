package traffic

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/bilyfoster/librelog-backend/internal/domain/traffic"
	"github.com/bilyfoster/librelog-backend/internal/platform/logger"
)

type QCResultRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.QCResult) ([]*types.QCResult, error)

	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.QCResult, error)
	GetByCutID(ctx context.Context, tx *gorm.DB, cutID uuid.UUID) ([]*types.QCResult, error)

	// UpdateFields exists solely for the override path; analysis rows are
	// otherwise immutable.
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error

	FullDeleteByCutIDs(ctx context.Context, tx *gorm.DB, cutIDs []uuid.UUID) error
}

type qcResultRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQCResultRepo(db *gorm.DB, baseLog *logger.Logger) QCResultRepo {
	return &qcResultRepo{db: db, log: baseLog.With("repo", "QCResultRepo")}
}

func (r *qcResultRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.QCResult) ([]*types.QCResult, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.QCResult{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *qcResultRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.QCResult, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.QCResult
	if err := t.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *qcResultRepo) GetByCutID(ctx context.Context, tx *gorm.DB, cutID uuid.UUID) ([]*types.QCResult, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.QCResult
	if cutID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("cut_id = ?", cutID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *qcResultRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return t.WithContext(ctx).Model(&types.QCResult{}).Where("id = ?", id).Updates(updates).Error
}

func (r *qcResultRepo) FullDeleteByCutIDs(ctx context.Context, tx *gorm.DB, cutIDs []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(cutIDs) == 0 {
		return nil
	}
	return t.WithContext(ctx).Where("cut_id IN ?", cutIDs).Delete(&types.QCResult{}).Error
}
