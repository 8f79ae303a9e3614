package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// LocalStorage persists evidence bytes on the local filesystem under a
// single base directory. Stored paths are relative to that directory so the
// base can move without invalidating records.
type LocalStorage struct {
	basePath string
	log      zerolog.Logger
}

func NewLocalStorage(basePath string, log zerolog.Logger) (*LocalStorage, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{
		basePath: abs,
		log:      log.With().Str("component", "local-storage").Logger(),
	}, nil
}

// Save writes body to a new file named name. O_EXCL guards against reusing
// an existing name. The returned path is the name itself.
func (s *LocalStorage) Save(ctx context.Context, name string, body io.Reader, size int64) (string, error) {
	full, err := s.resolve(name)
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	written, err := io.Copy(f, body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(full)
		return "", fmt.Errorf("write file: %w", err)
	}
	if size > 0 && written != size {
		os.Remove(full)
		return "", fmt.Errorf("short write: wrote %d of %d bytes", written, size)
	}

	return name, nil
}

func (s *LocalStorage) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

func (s *LocalStorage) Delete(ctx context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func (s *LocalStorage) Exists(ctx context.Context, path string) (bool, error) {
	full, err := s.resolve(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat file: %w", err)
}

// Health verifies the base directory is writable.
func (s *LocalStorage) Health(ctx context.Context) error {
	probe := filepath.Join(s.basePath, ".healthcheck")
	if err := os.WriteFile(probe, []byte("ok"), 0o640); err != nil {
		return fmt.Errorf("storage not writable: %w", err)
	}
	os.Remove(probe)
	return nil
}

// resolve joins path under the base directory, rejecting anything that would
// escape it.
func (s *LocalStorage) resolve(path string) (string, error) {
	clean := filepath.Clean(path)
	if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage path %q", path)
	}
	return filepath.Join(s.basePath, clean), nil
}
