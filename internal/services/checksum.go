package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/bilyfoster/librelog-backend/internal/platform/audiostore"
	"github.com/bilyfoster/librelog-backend/internal/platform/faults"
	"github.com/bilyfoster/librelog-backend/internal/platform/logger"
)

type ChecksumService interface {
	// Compute streams the payload and returns its hex-encoded SHA-256 digest.
	Compute(ctx context.Context, ref string) (string, error)

	// Verify recomputes the digest and compares it to the recorded value.
	Verify(ctx context.Context, ref, expected string) (bool, error)
}

type checksumService struct {
	log   *logger.Logger
	store audiostore.Store
}

func NewChecksumService(baseLog *logger.Logger, store audiostore.Store) ChecksumService {
	return &checksumService{
		log:   baseLog.With("service", "ChecksumService"),
		store: store,
	}
}

func (cs *checksumService) Compute(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", faults.Invalid("missing_audio_file_ref", fmt.Errorf("audio file ref is required"))
	}

	reader, err := cs.store.Reader(ctx, ref)
	if err != nil {
		return "", faults.Unavailable("audio_payload_unreadable", fmt.Errorf("open %q: %w", ref, err))
	}
	defer reader.Close()

	h := sha256.New()
	if _, err := io.Copy(h, reader); err != nil {
		return "", faults.Unavailable("audio_payload_unreadable", fmt.Errorf("read %q: %w", ref, err))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (cs *checksumService) Verify(ctx context.Context, ref, expected string) (bool, error) {
	sum, err := cs.Compute(ctx, ref)
	if err != nil {
		return false, err
	}
	return sum == expected, nil
}
