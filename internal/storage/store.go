// Package storage keeps the bytes of task attachments. Objects are
// addressed by opaque keys generated here; client file names only ever
// contribute a sanitized extension.
package storage

import (
	"context"
	"errors"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrInvalidKey     = errors.New("invalid storage key")
)

type Store interface {
	// Put stores data and returns the generated key. The original file
	// name is only used to derive the key's extension.
	Put(ctx context.Context, data []byte, filename string) (string, error)

	// Get returns the stored bytes or ErrObjectNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object or returns ErrObjectNotFound.
	Delete(ctx context.Context, key string) error

	// List returns every object currently held by the store.
	List(ctx context.Context) ([]ObjectInfo, error)
}

type ObjectInfo struct {
	Key     string
	Size    int64
	ModTime time.Time
}

var keyPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}(\.[a-z0-9]{1,10})?$`)

func newKey(filename string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String() + sanitizeExt(filename), nil
}

func validateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return ErrInvalidKey
	}
	return nil
}

// sanitizeExt returns the lowercased extension of the base name of
// filename, or "" unless it consists of ASCII letters and digits only.
func sanitizeExt(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	ext := strings.ToLower(path.Ext(base))
	if ext == "" || ext == base {
		return ""
	}

	ext = ext[1:]
	if ext == "" || len(ext) > 10 {
		return ""
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return "." + ext
}
