package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrNotFound = errors.New("snapshot not found")

// StateStore persists fetch snapshots keyed by name.
type StateStore interface {
	Save(ctx context.Context, key string, data []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// NoopStore discards everything; used when saving is disabled.
type NoopStore struct{}

func (NoopStore) Save(_ context.Context, _ string, _ []byte) error {
	return nil
}

func (NoopStore) Load(_ context.Context, _ string) ([]byte, error) {
	return nil, ErrNotFound
}

func (NoopStore) Delete(_ context.Context, _ string) error {
	return nil
}

// FileStore persists snapshots as JSON blobs on disk under BaseDir, one file per key.
type FileStore struct {
	BaseDir string
}

// Keys are flattened to a single path element.
func (f *FileStore) pathFor(key string) string {
	safe := filepath.Base(key)
	return filepath.Join(f.BaseDir, safe+".json")
}

func (f *FileStore) ensureDir() error {
	if f.BaseDir == "" {
		f.BaseDir = "data"
	}
	return os.MkdirAll(f.BaseDir, 0o755)
}

func validKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("empty key")
	}
	if key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}

// Path returns where key is (or would be) stored.
func (f *FileStore) Path(key string) string {
	return f.pathFor(key)
}

func (f *FileStore) Save(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validKey(key); err != nil {
		return err
	}
	if err := f.ensureDir(); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	return os.WriteFile(f.pathFor(key), data, 0o600)
}

func (f *FileStore) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validKey(key); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(f.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (f *FileStore) Delete(_ context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := os.Remove(f.pathFor(key)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}
