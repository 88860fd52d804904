package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/bilyfoster/librelog-backend/internal/domain/traffic"
)

func SeedCopy(tb testing.TB, ctx context.Context, tx *gorm.DB, title string) *types.Copy {
	tb.Helper()
	c := &types.Copy{
		ID:         uuid.New(),
		Title:      title,
		Advertiser: "Acme Motors",
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed copy: %v", err)
	}
	return c
}

func SeedCut(tb testing.TB, ctx context.Context, tx *gorm.DB, copyID uuid.UUID, label string) *types.Cut {
	tb.Helper()
	cut := &types.Cut{
		ID:             uuid.New(),
		CopyID:         copyID,
		CutLabel:       label,
		CutName:        "cut " + label,
		AudioFileRef:   "audio/" + label + ".wav",
		Version:        1,
		RotationWeight: 1.0,
		Active:         true,
	}
	if err := tx.WithContext(ctx).Create(cut).Error; err != nil {
		tb.Fatalf("seed cut: %v", err)
	}
	return cut
}

func SeedCutVersion(tb testing.TB, ctx context.Context, tx *gorm.DB, cutID uuid.UUID, number int) *types.CutVersion {
	tb.Helper()
	v := &types.CutVersion{
		ID:              uuid.New(),
		CutID:           cutID,
		VersionNumber:   number,
		AudioFileRef:    "audio/archived.wav",
		ContentChecksum: "checksum",
		ChangedBy:       "tester",
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed cut version: %v", err)
	}
	return v
}

func SeedQCResult(tb testing.TB, ctx context.Context, tx *gorm.DB, cutID uuid.UUID) *types.QCResult {
	tb.Helper()
	r := &types.QCResult{
		ID:           uuid.New(),
		CutID:        &cutID,
		AudioFileRef: "audio/analyzed.wav",
		FormatValid:  true,
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed qc result: %v", err)
	}
	return r
}

func PtrTime(v time.Time) *time.Time { return &v }
