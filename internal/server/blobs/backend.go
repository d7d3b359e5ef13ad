// Package blobs stores file contents under opaque keys. Keys are
// slash-separated and relative to the backend root; only the storage engine
// derives them.
package blobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/dmitrijs2005/cloudstorage/internal/common"
)

// Backend is a blob store with staged writes and non-overwriting moves.
type Backend interface {
	// Init prepares the root (directory or bucket). Failure is fatal for the
	// server.
	Init(ctx context.Context) error
	Exists(ctx context.Context, key string) (bool, error)
	// WriteTemp stages r under a fresh temporary key. Content longer than
	// limit fails with ErrTooLarge and leaves nothing behind.
	WriteTemp(ctx context.Context, r io.Reader, limit int64) (tmpKey string, n int64, err error)
	// Move renames from to to. It fails with common.ErrorAlreadyExists when
	// to is taken and never overwrites.
	Move(ctx context.Context, from, to string) error
	// Read returns the whole blob; a missing blob is common.ErrorNotFound.
	Read(ctx context.Context, key string) ([]byte, error)
	// Remove deletes key. A missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// ErrTooLarge is returned by WriteTemp when the content exceeds the limit.
var ErrTooLarge = fmt.Errorf("content too large: %w", common.ErrorInvalidInput)

// tempPrefix is the key prefix of staged writes.
const tempPrefix = ".tmp"

var errBadKey = errors.New("invalid blob key")

// cleanKey rejects keys that are empty, absolute or escape the root.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.ContainsRune(key, '\\') || strings.ContainsRune(key, 0) {
		return "", fmt.Errorf("%w: %q", errBadKey, key)
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", errBadKey, key)
	}
	return cleaned, nil
}

// ctxReader stops a copy as soon as ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
