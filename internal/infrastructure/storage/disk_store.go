package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/you/companionsvc/domain"
)

// DiskStore keeps avatars as plain files in one directory
type DiskStore struct {
	dir string
}

// NewDiskStore creates dir when missing
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Save writes the object atomically under name
func (s *DiskStore) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("write avatar: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close avatar: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("store avatar: %w", err)
	}
	return nil
}

// Open returns the stored object or domain.ErrAvatarNotFound
func (s *DiskStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, domain.ErrAvatarNotFound
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrAvatarNotFound
		}
		return nil, fmt.Errorf("open avatar: %w", err)
	}
	return f, nil
}

// Delete removes the object; a missing object is not an error
func (s *DiskStore) Delete(ctx context.Context, name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete avatar: %w", err)
	}
	return nil
}

// path rejects names that would leave the upload directory
func (s *DiskStore) path(name string) (string, error) {
	if name == "" || name != domain.SafeFilename(name) || name[0] == '.' {
		return "", domain.ErrInvalidAvatar
	}
	return filepath.Join(s.dir, name), nil
}

var _ domain.AvatarStore = (*DiskStore)(nil)
