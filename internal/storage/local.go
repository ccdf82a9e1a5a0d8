package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/DanielPPerez/API-Estancia2/internal/models"
)

// PublicPrefix is the route the local store is served under
const PublicPrefix = "/uploads"

// LocalStore writes documents under a directory served as static files
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates dir if needed
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if dir == "" {
		return nil, errors.New("upload directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) Name() string { return "local" }

func (s *LocalStore) Dir() string { return s.dir }

// Store writes r to <dir>/<kind>-<ulid><ext> and returns "/uploads/<name>"
func (s *LocalStore) Store(ctx context.Context, kind models.DocumentKind, filename string, r io.Reader) (string, error) {
	name := ObjectKey(kind, time.Now()) + strings.ToLower(filepath.Ext(filename))
	target := filepath.Join(s.dir, name)

	f, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", name, err)
	}
	if _, err := io.Copy(f, &ctxReader{ctx: ctx, r: r}); err != nil {
		f.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("failed to close %s: %w", name, err)
	}

	return path.Join(PublicPrefix, name), nil
}

func (s *LocalStore) Delete(_ context.Context, ref string) error {
	name, ok := s.nameOf(ref)
	if !ok {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) URLFor(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return s.baseURL + ref
}

func (s *LocalStore) Ping(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.dir)
	}
	return nil
}

// nameOf accepts only references this store produced
func (s *LocalStore) nameOf(ref string) (string, bool) {
	if !strings.HasPrefix(ref, PublicPrefix+"/") {
		return "", false
	}
	name := strings.TrimPrefix(ref, PublicPrefix+"/")
	if name == "" || strings.ContainsAny(name, `/\`) || name == ".." {
		return "", false
	}
	return name, true
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
