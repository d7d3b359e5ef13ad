package blobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"

	"github.com/dmitrijs2005/cloudstorage/internal/common"
	"github.com/dmitrijs2005/cloudstorage/internal/filex"
	"github.com/spf13/afero"
)

// FSBackend keeps blobs as files below a root directory.
//
// Move checks the destination before renaming. Callers serialize operations
// on the same key; across processes, keys are unique per record.
type FSBackend struct {
	fs   afero.Fs
	root string
}

// NewFSBackend returns a backend rooted at root. Call Init before use.
func NewFSBackend(fsys afero.Fs, root string) *FSBackend {
	return &FSBackend{fs: fsys, root: root}
}

// Root is the absolute root after Init.
func (b *FSBackend) Root() string {
	return b.root
}

func (b *FSBackend) Init(ctx context.Context) error {
	root, err := filex.EnsureDir(b.fs, b.root)
	if err != nil {
		return fmt.Errorf("init upload root: %w", err)
	}
	b.root = root
	if _, err := filex.EnsureDir(b.fs, filepath.Join(root, tempPrefix)); err != nil {
		return fmt.Errorf("init temp dir: %w", err)
	}
	return nil
}

func (b *FSBackend) path(key string) (string, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(b.root, filepath.FromSlash(cleaned)), nil
}

func (b *FSBackend) Exists(ctx context.Context, key string) (bool, error) {
	p, err := b.path(key)
	if err != nil {
		return false, err
	}
	return afero.Exists(b.fs, p)
}

func (b *FSBackend) WriteTemp(ctx context.Context, r io.Reader, limit int64) (string, int64, error) {
	f, err := afero.TempFile(b.fs, filepath.Join(b.root, tempPrefix), "upload-*")
	if err != nil {
		return "", 0, fmt.Errorf("create temp: %w", err)
	}
	tmpPath := f.Name()

	n, err := io.Copy(f, io.LimitReader(ctxReader{ctx: ctx, r: r}, limit+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > limit {
		err = ErrTooLarge
	}
	if err != nil {
		_ = b.fs.Remove(tmpPath)
		if errors.Is(err, ErrTooLarge) {
			return "", 0, err
		}
		return "", 0, fmt.Errorf("write temp: %w", err)
	}

	return path.Join(tempPrefix, filepath.Base(tmpPath)), n, nil
}

func (b *FSBackend) Move(ctx context.Context, from, to string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := b.path(from)
	if err != nil {
		return err
	}
	dst, err := b.path(to)
	if err != nil {
		return err
	}

	taken, err := afero.Exists(b.fs, dst)
	if err != nil {
		return fmt.Errorf("stat %s: %w", to, err)
	}
	if taken {
		return fmt.Errorf("move to %s: %w", to, common.ErrorAlreadyExists)
	}

	if err := b.fs.MkdirAll(filepath.Dir(dst), filex.DirPerm); err != nil {
		return fmt.Errorf("mkdir for %s: %w", to, err)
	}
	if err := b.fs.Rename(src, dst); err != nil {
		return fmt.Errorf("move %s to %s: %w", from, to, err)
	}
	return nil
}

func (b *FSBackend) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := b.path(key)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(b.fs, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", key, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (b *FSBackend) Remove(ctx context.Context, key string) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	if err := b.fs.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
