package traffic

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/bilyfoster/librelog-backend/internal/domain/traffic"
	"github.com/bilyfoster/librelog-backend/internal/platform/logger"
)

type CopyRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Copy) ([]*types.Copy, error)

	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Copy, error)
	Exists(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)

	// AdjustCutCount applies delta to cut_count, flooring at zero. Callers run
	// it inside the same transaction as the cut mutation it accounts for.
	AdjustCutCount(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta int) error
}

type copyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCopyRepo(db *gorm.DB, baseLog *logger.Logger) CopyRepo {
	return &copyRepo{db: db, log: baseLog.With("repo", "CopyRepo")}
}

func (r *copyRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Copy) ([]*types.Copy, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Copy{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *copyRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Copy, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Copy
	if err := t.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *copyRepo) Exists(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	t := tx
	if t == nil {
		t = r.db
	}
	var count int64
	if err := t.WithContext(ctx).Model(&types.Copy{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *copyRepo) AdjustCutCount(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta int) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if delta == 0 {
		return nil
	}
	// CASE keeps the floor portable across postgres and sqlite.
	expr := gorm.Expr("CASE WHEN cut_count + ? < 0 THEN 0 ELSE cut_count + ? END", delta, delta)
	return t.WithContext(ctx).Model(&types.Copy{}).
		Where("id = ?", id).
		Update("cut_count", expr).Error
}
