package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no blob exists for a handle.
var ErrNotFound = errors.New("file not found")

// Store is the byte-addressable file storage collaborator. A handle is
// an opaque string identifying a stored blob.
type Store interface {
	// Download returns the bytes stored under handle.
	Download(handle string) ([]byte, error)
	// Upload stores data under a handle derived from name and returns
	// that handle. Uploading to an existing handle replaces the blob.
	Upload(name string, data []byte) (string, error)
}

// DirStore stores blobs as files under a single directory. The handle
// is the sanitized file name, so re-uploading under the same name
// replaces the previous revision (last write wins).
type DirStore struct {
	root string
}

// NewDirStore creates the directory if needed.
func NewDirStore(root string) (*DirStore, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root must not be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage dir: %w", err)
	}
	return &DirStore{root: root}, nil
}

func (s *DirStore) Download(handle string) ([]byte, error) {
	p, err := s.path(handle)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, handle)
		}
		return nil, fmt.Errorf("reading %q: %w", handle, err)
	}
	return data, nil
}

func (s *DirStore) Upload(name string, data []byte) (string, error) {
	handle := sanitizeName(name)
	if handle == "" {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	p, err := s.path(handle)
	if err != nil {
		return "", err
	}
	// Write via temp file + rename so a concurrent reader never sees a
	// partially written blob.
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %q: %w", handle, err)
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		_ = os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return handle, nil
}

func (s *DirStore) path(handle string) (string, error) {
	if handle == "" || handle != sanitizeName(handle) {
		return "", fmt.Errorf("invalid handle %q", handle)
	}
	return filepath.Join(s.root, handle), nil
}

// sanitizeName reduces a requested file name to a flat handle: path
// separators and parent references are stripped so a handle can never
// escape the storage directory.
func sanitizeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return ""
	}
	return name
}
