package filestore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var ErrTooLarge = errors.New("file exceeds maximum upload size")

// LocalStore keeps uploads as plain files in one directory.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir failed: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Save writes r to name inside the store and returns the full path and the
// byte count. Content longer than maxSize is rejected and nothing is kept.
func (s *LocalStore) Save(name string, r io.Reader, maxSize int64) (string, int64, error) {
	path := filepath.Join(s.dir, filepath.Base(name))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("create upload file failed: %w", err)
	}

	src := r
	if maxSize > 0 {
		src = io.LimitReader(r, maxSize+1)
	}
	n, copyErr := io.Copy(f, src)
	closeErr := f.Close()
	switch {
	case copyErr != nil:
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("write upload file failed: %w", copyErr)
	case closeErr != nil:
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("close upload file failed: %w", closeErr)
	case maxSize > 0 && n > maxSize:
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, maxSize)
	}
	return path, n, nil
}

// Remove deletes a stored file. A file that is already gone is not an error.
func (s *LocalStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove upload file failed: %w", err)
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeName reduces a client supplied filename to a portable base name.
func SafeName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = unsafeChars.ReplaceAllString(base, "_")
	base = strings.TrimLeft(base, "._")
	if base == "" {
		return "upload"
	}
	return base
}
