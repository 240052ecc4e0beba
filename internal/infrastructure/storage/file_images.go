package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/mobit-catalog/internal/domain/entity"
	"github.com/yourusername/mobit-catalog/internal/domain/repository"
)

type fileImageStore struct {
	dir    string
	logger *zap.Logger
}

// NewFileImageStore flat-directory image store
func NewFileImageStore(dir string, logger *zap.Logger) repository.ImageStore {
	return &fileImageStore{dir: dir, logger: logger}
}

// Put writes data under name inside the image directory
func (s *fileImageStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	if !validName(name) {
		return "", fmt.Errorf("invalid image file name %q", name)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create image directory %s: %w", s.dir, err)
	}

	path := filepath.Join(s.dir, name)

	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if bytes.Equal(existing, data) {
			s.logger.Debug("image already stored", zap.String("path", path))
			return path, nil
		}
		return "", fmt.Errorf("%w: %s", entity.ErrNameCollision, name)
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("check %s: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: %s", entity.ErrNameCollision, name)
		}
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close %s: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("verify %s: %w", path, err)
	}
	if info.Size() != int64(len(data)) {
		os.Remove(path)
		return "", fmt.Errorf("verify %s: wrote %d of %d bytes", path, info.Size(), len(data))
	}

	s.logger.Info("image stored", zap.String("path", path), zap.Int("bytes", len(data)))
	return path, nil
}

// Describe stats a stored path for rendering
func (s *fileImageStore) Describe(ctx context.Context, path string) entity.ImageView {
	view := entity.ImageView{Path: path, Name: filepath.Base(path)}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return view
	}
	view.Exists = true
	view.Size = info.Size()
	return view
}

// Read returns an image's bytes
func (s *fileImageStore) Read(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", path, err)
	}
	return data, nil
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}
