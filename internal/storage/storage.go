// Package storage keeps project documents outside the database.
package storage

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"time"

	"github.com/DanielPPerez/API-Estancia2/internal/config"
	"github.com/DanielPPerez/API-Estancia2/internal/metrics"
	"github.com/DanielPPerez/API-Estancia2/internal/models"
	"github.com/oklog/ulid/v2"
)

// DocumentStore saves uploaded documents and resolves their public URLs
type DocumentStore interface {
	// Store saves r and returns the reference kept on the project row
	Store(ctx context.Context, kind models.DocumentKind, filename string, r io.Reader) (string, error)
	// Delete removes a stored document; unknown references are not an error
	Delete(ctx context.Context, ref string) error
	// URLFor turns a stored reference into a URL clients can fetch
	URLFor(ref string) string
	// Ping reports whether the backend is reachable
	Ping(ctx context.Context) error
	Name() string
}

// New builds the store selected by STORAGE_DRIVER
func New(cfg *config.Config) (DocumentStore, error) {
	switch cfg.StorageDriver {
	case "local", "":
		return NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL)
	case "cloudinary":
		return NewCloudinaryStore(cfg.CloudinaryURL, cfg.CloudinaryFolder)
	}
	return nil, fmt.Errorf("unsupported storage driver: %s", cfg.StorageDriver)
}

// ObjectKey names a new object <kind>-<ulid>, sortable by upload time
func ObjectKey(kind models.DocumentKind, now time.Time) string {
	id := ulid.MustNew(ulid.Timestamp(now), rand.Reader)
	return fmt.Sprintf("%s-%s", kind, id.String())
}

// Instrumented counts calls per backend and bounds each call by timeout
type Instrumented struct {
	DocumentStore
	timeout time.Duration
}

// Instrument wraps store with metrics and a per-call timeout
func Instrument(store DocumentStore, timeout time.Duration) *Instrumented {
	return &Instrumented{DocumentStore: store, timeout: timeout}
}

func (s *Instrumented) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Instrumented) Store(ctx context.Context, kind models.DocumentKind, filename string, r io.Reader) (string, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	ref, err := s.DocumentStore.Store(ctx, kind, filename, r)
	metrics.StorageOperations.WithLabelValues(s.Name(), "store", metrics.Result(err)).Inc()
	return ref, err
}

func (s *Instrumented) Delete(ctx context.Context, ref string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	err := s.DocumentStore.Delete(ctx, ref)
	metrics.StorageOperations.WithLabelValues(s.Name(), "delete", metrics.Result(err)).Inc()
	return err
}
