package traffic

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/bilyfoster/librelog-backend/internal/domain/traffic"
	"github.com/bilyfoster/librelog-backend/internal/platform/logger"
)

type CutVersionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.CutVersion) ([]*types.CutVersion, error)

	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CutVersion, error)
	GetByCutID(ctx context.Context, tx *gorm.DB, cutID uuid.UUID) ([]*types.CutVersion, error)
	GetByCutAndNumber(ctx context.Context, tx *gorm.DB, cutID uuid.UUID, number int) (*types.CutVersion, error)
	CountByCutID(ctx context.Context, tx *gorm.DB, cutID uuid.UUID) (int64, error)

	FullDeleteByCutIDs(ctx context.Context, tx *gorm.DB, cutIDs []uuid.UUID) error
}

type cutVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCutVersionRepo(db *gorm.DB, baseLog *logger.Logger) CutVersionRepo {
	return &cutVersionRepo{db: db, log: baseLog.With("repo", "CutVersionRepo")}
}

func (r *cutVersionRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.CutVersion) ([]*types.CutVersion, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.CutVersion{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *cutVersionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CutVersion, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.CutVersion
	if err := t.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *cutVersionRepo) GetByCutID(ctx context.Context, tx *gorm.DB, cutID uuid.UUID) ([]*types.CutVersion, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.CutVersion
	if cutID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("cut_id = ?", cutID).
		Order("version_number DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *cutVersionRepo) GetByCutAndNumber(ctx context.Context, tx *gorm.DB, cutID uuid.UUID, number int) (*types.CutVersion, error) {
	if cutID == uuid.Nil || number < 1 {
		return nil, nil
	}
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.CutVersion
	if err := t.WithContext(ctx).
		Where("cut_id = ? AND version_number = ?", cutID, number).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *cutVersionRepo) CountByCutID(ctx context.Context, tx *gorm.DB, cutID uuid.UUID) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if cutID == uuid.Nil {
		return 0, nil
	}
	var count int64
	if err := t.WithContext(ctx).Model(&types.CutVersion{}).Where("cut_id = ?", cutID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *cutVersionRepo) FullDeleteByCutIDs(ctx context.Context, tx *gorm.DB, cutIDs []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(cutIDs) == 0 {
		return nil
	}
	return t.WithContext(ctx).Where("cut_id IN ?", cutIDs).Delete(&types.CutVersion{}).Error
}
