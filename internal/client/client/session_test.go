package client

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenStore_RoundTrip(t *testing.T) {
	fsys := afero.NewMemMapFs()
	store := NewTokenStore(fsys, "/home/u/.cloudstorage/token")

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	require.NoError(t, store.Save("abc"))
	fi, err := fsys.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, "-rw-------", fi.Mode().Perm().String())

	token, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	require.NoError(t, store.Clear())
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	assert.NoError(t, store.Clear(), "clearing twice is fine")
}

func TestTokenStore_BlankFileIsLoggedOut(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/token", []byte("  \n"), 0o600))

	_, err := NewTokenStore(fsys, "/token").Load()
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}
