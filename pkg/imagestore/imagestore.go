package imagestore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	// ErrUnsupportedFormat is returned when a filename has no extension or an
	// extension outside the accepted set.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrContentMismatch is returned when the file's bytes are not the image
	// type its extension claims.
	ErrContentMismatch = errors.New("file content is not a supported image")
)

// allowedTypes maps accepted extensions to the MIME type the content must
// actually have.
var allowedTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
}

// Store persists uploaded recipe images under a single directory.
type Store struct {
	dir string
}

// NewStore creates the upload directory if needed and returns a Store.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory images are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Allowed reports whether the filename carries an accepted image extension.
// The check is case-insensitive.
func Allowed(filename string) bool {
	_, ok := allowedTypes[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Save validates an upload and writes it under a collision-free name.
// The extension decides acceptance, the sniffed content must match it, and
// the stored name is a fresh UUID so identical client filenames never
// overwrite each other. The stored filename is returned.
func (s *Store) Save(filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	want, ok := allowedTypes[ext]
	if !ok {
		return "", ErrUnsupportedFormat
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read upload %s: %w", filename, err)
	}
	if !mimetype.Detect(data).Is(want) {
		return "", ErrContentMismatch
	}

	stored := uuid.New().String() + ext
	if err := os.WriteFile(filepath.Join(s.dir, stored), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image %s: %w", stored, err)
	}
	return stored, nil
}
