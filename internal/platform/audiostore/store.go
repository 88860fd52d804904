package audiostore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"

	"github.com/bilyfoster/librelog-backend/internal/platform/envutil"
	"github.com/bilyfoster/librelog-backend/internal/platform/logger"
)

// Store is the read-side collaborator over the audio asset bucket. The bytes
// themselves are owned by the upload pipeline; this core only streams them for
// checksumming and QC analysis.
type Store interface {
	Reader(ctx context.Context, ref string) (io.ReadCloser, error)
	Exists(ctx context.Context, ref string) (bool, error)
	Attrs(ctx context.Context, ref string) (*ObjectAttrs, error)
}

type ObjectAttrs struct {
	Size        int64
	ContentType string
	Updated     time.Time
}

type gcsStore struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
}

func NewGCSStore(ctx context.Context, log *logger.Logger) (Store, error) {
	bucket := envutil.String("AUDIO_GCS_BUCKET_NAME", "")
	if bucket == "" {
		return nil, fmt.Errorf("missing AUDIO_GCS_BUCKET_NAME")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &gcsStore{
		log:    log.With("service", "AudioStore"),
		client: client,
		bucket: bucket,
	}, nil
}

type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	r.cancel()
	return err
}

func (s *gcsStore) Reader(ctx context.Context, ref string) (io.ReadCloser, error) {
	// Context stays alive for the life of the reader; cancelled on Close.
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)
	r, err := s.client.Bucket(s.bucket).Object(ref).NewReader(ctx2)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open audio reader %q: %w", ref, err)
	}
	return &readCloserWithCancel{ReadCloser: r, cancel: cancel}, nil
}

func (s *gcsStore) Exists(ctx context.Context, ref string) (bool, error) {
	ctx2, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err := s.client.Bucket(s.bucket).Object(ref).Attrs(ctx2)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat audio object %q: %w", ref, err)
	}
	return true, nil
}

func (s *gcsStore) Attrs(ctx context.Context, ref string) (*ObjectAttrs, error) {
	ctx2, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	attrs, err := s.client.Bucket(s.bucket).Object(ref).Attrs(ctx2)
	if err != nil {
		return nil, fmt.Errorf("stat audio object %q: %w", ref, err)
	}
	return &ObjectAttrs{
		Size:        attrs.Size,
		ContentType: attrs.ContentType,
		Updated:     attrs.Updated,
	}, nil
}
