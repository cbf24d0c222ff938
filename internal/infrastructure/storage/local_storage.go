package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	appmembership "github.com/onixgym/backend/internal/application/membership"
	"go.uber.org/zap"
)

var _ appmembership.CardStore = (*LocalCardStore)(nil)

// LocalCardStore writes card images below a directory on disk. It backs
// single-node and development setups where no bucket is available.
type LocalCardStore struct {
	root    string
	baseURL string
	logger  *zap.Logger
}

// NewLocalCardStore creates the root directory if needed. baseURL is what
// the HTTP layer serves root under; empty yields file:// URLs.
func NewLocalCardStore(root, baseURL string, logger *zap.Logger) (*LocalCardStore, error) {
	if root == "" {
		return nil, errors.New("storage local directory is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalCardStore{
		root:    abs,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}, nil
}

// Root returns the absolute storage directory
func (s *LocalCardStore) Root() string {
	return s.root
}

// Put writes data to a temp file and renames it over the target, so
// readers never observe a half-written image.
func (s *LocalCardStore) Put(ctx context.Context, key string, data []byte, _ string) (string, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create object directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to move object into place: %w", err)
	}

	s.logger.Debug("Card image written", zap.String("path", path), zap.Int("bytes", len(data)))
	return s.URL(ctx, key)
}

// Get reads the file stored under key
func (s *LocalCardStore) Get(_ context.Context, key string) ([]byte, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, appmembership.ErrCardImageNotFound
		}
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, nil
}

// URL joins key onto the base URL, or returns a file:// URL
func (s *LocalCardStore) URL(_ context.Context, key string) (string, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return "", err
	}
	if s.baseURL == "" {
		return "file://" + filepath.ToSlash(path), nil
	}
	return joinURL(s.baseURL, key), nil
}

// Exists reports whether a file is stored under key
func (s *LocalCardStore) Exists(_ context.Context, key string) (bool, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}
}

// Delete removes the file; a missing file is not an error
func (s *LocalCardStore) Delete(_ context.Context, key string) error {
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (s *LocalCardStore) pathFor(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if !strings.HasPrefix(path, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("storage key %q escapes the storage directory", key)
	}
	return path, nil
}
