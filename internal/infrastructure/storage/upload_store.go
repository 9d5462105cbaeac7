// Package storage keeps uploaded import files until the import that reads them finishes.
package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an upload key does not exist
var ErrNotFound = errors.New("storage: upload not found")

// ErrInvalidKey is returned for keys that were not issued by the store
var ErrInvalidKey = errors.New("storage: invalid upload key")

// UploadStore saves an upload under a generated key and hands it back for reading
type UploadStore interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// newKey generates a collision-free key keeping the original extension
func newKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) > 10 {
		ext = ""
	}
	return uuid.NewString() + ext
}

// validKey rejects anything that could escape the store's namespace
func validKey(key string) bool {
	return key != "" &&
		key == filepath.Base(key) &&
		!strings.ContainsAny(key, `/\`) &&
		key != "." && key != ".."
}
