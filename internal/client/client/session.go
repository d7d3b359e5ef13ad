package client

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/cloudstorage/internal/filex"
	"github.com/spf13/afero"
)

const tokenFilePerm = 0o600

// TokenStore keeps the session token between CLI invocations.
type TokenStore struct {
	fs   afero.Fs
	path string
}

func NewTokenStore(fsys afero.Fs, path string) *TokenStore {
	return &TokenStore{fs: fsys, path: path}
}

func (t *TokenStore) Path() string { return t.path }

// Load returns the saved token, or ErrNotLoggedIn when there is none.
func (t *TokenStore) Load() (string, error) {
	b, err := afero.ReadFile(t.fs, t.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNotLoggedIn
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}

	token := strings.TrimSpace(string(b))
	if token == "" {
		return "", ErrNotLoggedIn
	}
	return token, nil
}

func (t *TokenStore) Save(token string) error {
	if _, err := filex.EnsureDir(t.fs, filepath.Dir(t.path)); err != nil {
		return err
	}
	if err := afero.WriteFile(t.fs, t.path, []byte(token), tokenFilePerm); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

// Clear removes the saved token. A missing file is fine.
func (t *TokenStore) Clear() error {
	err := t.fs.Remove(t.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}
