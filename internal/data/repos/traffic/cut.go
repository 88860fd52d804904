package traffic

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/bilyfoster/librelog-backend/internal/domain/traffic"
	"github.com/bilyfoster/librelog-backend/internal/platform/logger"
)

type CutRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Cut) ([]*types.Cut, error)

	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Cut, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Cut, error)
	GetByCopyID(ctx context.Context, tx *gorm.DB, copyID uuid.UUID, activeOnly bool) ([]*types.Cut, error)
	GetByCopyAndLabel(ctx context.Context, tx *gorm.DB, copyID uuid.UUID, label string) (*types.Cut, error)
	GetExpiringWithin(ctx context.Context, tx *gorm.DB, now time.Time, window time.Duration) ([]*types.Cut, error)

	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error

	// AdvanceVersion performs the optimistic compare-and-swap that serializes
	// concurrent mutations: the update only lands when the row still carries
	// fromVersion, and it always sets version = fromVersion+1 alongside any
	// extra field updates. Returns false when another writer won the race.
	AdvanceVersion(ctx context.Context, tx *gorm.DB, id uuid.UUID, fromVersion int, updates map[string]interface{}) (bool, error)

	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type cutRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCutRepo(db *gorm.DB, baseLog *logger.Logger) CutRepo {
	return &cutRepo{db: db, log: baseLog.With("repo", "CutRepo")}
}

func (r *cutRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Cut) ([]*types.Cut, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Cut{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *cutRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Cut, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(ctx, tx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *cutRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Cut, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Cut
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *cutRepo) GetByCopyID(ctx context.Context, tx *gorm.DB, copyID uuid.UUID, activeOnly bool) ([]*types.Cut, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Cut
	if copyID == uuid.Nil {
		return out, nil
	}
	q := t.WithContext(ctx).Where("copy_id = ?", copyID)
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	if err := q.Order("cut_label ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *cutRepo) GetByCopyAndLabel(ctx context.Context, tx *gorm.DB, copyID uuid.UUID, label string) (*types.Cut, error) {
	if copyID == uuid.Nil || label == "" {
		return nil, nil
	}
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Cut
	if err := t.WithContext(ctx).
		Where("copy_id = ? AND cut_label = ?", copyID, label).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *cutRepo) GetExpiringWithin(ctx context.Context, tx *gorm.DB, now time.Time, window time.Duration) ([]*types.Cut, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Cut
	deadline := now.Add(window)
	if err := t.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at > ? AND expires_at <= ?", now, deadline).
		Order("expires_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *cutRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return t.WithContext(ctx).Model(&types.Cut{}).Where("id = ?", id).Updates(updates).Error
}

func (r *cutRepo) AdvanceVersion(ctx context.Context, tx *gorm.DB, id uuid.UUID, fromVersion int, updates map[string]interface{}) (bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	merged := make(map[string]interface{}, len(updates)+1)
	for k, v := range updates {
		merged[k] = v
	}
	merged["version"] = fromVersion + 1
	res := t.WithContext(ctx).Model(&types.Cut{}).
		Where("id = ? AND version = ?", id, fromVersion).
		Updates(merged)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *cutRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(ctx).Where("id IN ?", ids).Delete(&types.Cut{}).Error
}
