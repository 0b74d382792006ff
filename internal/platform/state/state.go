// Package state provides the object-store blob layer that holds sync state
// (snapshot manifests, time-off mappings, sync metrics) between runs
package state

import (
	"context"
	stderrs "errors"
	"io"

	"cloud.google.com/go/storage"

	perr "hrhub/internal/platform/errors"
	"hrhub/internal/platform/logger"
)

// Blobs is the minimal object-store port the state repos need
type Blobs interface {
	// Get returns the blob bytes or a NotFound error when the object is absent
	Get(ctx context.Context, name string) ([]byte, error)
	// Put overwrites the blob atomically
	Put(ctx context.Context, name string, data []byte) error
}

// GCS implements Blobs over a Cloud Storage bucket
type GCS struct {
	client *storage.Client
	bucket string
	log    logger.Logger
}

// NewGCS opens a Cloud Storage client against the given bucket.
// Credentials come from the ambient environment (GOOGLE_APPLICATION_CREDENTIALS or metadata)
func NewGCS(ctx context.Context, bucket string) (*GCS, error) {
	if bucket == "" {
		return nil, perr.InvalidArgf("state bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "state gcs client failed")
	}
	return &GCS{client: client, bucket: bucket, log: *logger.Named("state")}, nil
}

// Get reads an object in full
func (g *GCS) Get(ctx context.Context, name string) ([]byte, error) {
	r, err := g.client.Bucket(g.bucket).Object(name).NewReader(ctx)
	if err != nil {
		if stderrs.Is(err, storage.ErrObjectNotExist) {
			return nil, perr.NotFoundf("state object %s not found", name)
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "state read %s failed", name)
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "state read %s failed", name)
	}
	return data, nil
}

// Put overwrites an object; GCS object writes are atomic on Close
func (g *GCS) Put(ctx context.Context, name string, data []byte) error {
	w := g.client.Bucket(g.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "state write %s failed", name)
	}
	if err := w.Close(); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "state write %s failed", name)
	}
	g.log.Debug().Str("object", name).Int("bytes", len(data)).Msg("state object written")
	return nil
}

// Close releases the underlying client
func (g *GCS) Close() error { return g.client.Close() }

// Memory is an in-process Blobs used by tests and local runs
type Memory struct {
	objects map[string][]byte
}

// NewMemory returns an empty in-memory blob store
func NewMemory() *Memory { return &Memory{objects: map[string][]byte{}} }

// Get returns a copy of the stored bytes
func (m *Memory) Get(_ context.Context, name string) ([]byte, error) {
	data, ok := m.objects[name]
	if !ok {
		return nil, perr.NotFoundf("state object %s not found", name)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Put stores a copy of the bytes
func (m *Memory) Put(_ context.Context, name string, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	m.objects[name] = cp
	return nil
}
