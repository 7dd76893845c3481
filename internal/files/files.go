// Package files stores uploaded transfer documents on local disk and hands
// back stable URL paths that the API serves under /files/.
package files

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// URLPrefix is the path under which stored files are served.
const URLPrefix = "/files/"

// Store is a local-disk file store.
type Store struct {
	dir string
}

// NewStore creates the upload directory if needed and returns a store over it.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes data under a random file name with the given extension and
// returns the URL path it will be served from.
func (s *Store) Save(subdir, ext string, data []byte) (string, error) {
	name := uuid.NewString() + ext
	dir := filepath.Join(s.dir, filepath.FromSlash(subdir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating file directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}

	return URLPrefix + path.Join(subdir, name), nil
}

// Delete removes the file behind a URL path. Best-effort: a missing file is
// not an error.
func (s *Store) Delete(url string) error {
	p, err := s.Resolve(url)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

// Resolve maps a URL path back to a disk path, refusing anything outside the
// upload directory.
func (s *Store) Resolve(url string) (string, error) {
	if !strings.HasPrefix(url, URLPrefix) {
		return "", fmt.Errorf("not a file URL: %s", url)
	}

	rel := path.Clean(strings.TrimPrefix(url, URLPrefix))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("invalid file path: %s", url)
	}

	return filepath.Join(s.dir, filepath.FromSlash(rel)), nil
}
