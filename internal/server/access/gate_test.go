package access

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/dmitrijs2005/cloudstorage/internal/common"
	"github.com/dmitrijs2005/cloudstorage/internal/logging"
	"github.com/dmitrijs2005/cloudstorage/internal/server/auth"
	"github.com/dmitrijs2005/cloudstorage/internal/server/models"
	"github.com/dmitrijs2005/cloudstorage/internal/server/revocation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	byID map[string]*models.User
	err  error
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type fixture struct {
	gate    *Gate
	tokens  *auth.TokenService
	revoked *revocation.Registry
	users   *fakeUsers
	logs    *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := auth.NewTokenService([]byte("gate-secret"), time.Hour)
	require.NoError(t, err)

	logs := &bytes.Buffer{}
	logger := logging.NewJSONLogger(logs, slog.LevelDebug)
	revoked := revocation.NewRegistry(revocation.TokenExpiry(tokens), logger)
	users := &fakeUsers{byID: map[string]*models.User{"u1": {ID: "u1", UserName: "alice"}}}

	return &fixture{
		gate:    NewGate(tokens, revoked, users, logger),
		tokens:  tokens,
		revoked: revoked,
		users:   users,
		logs:    logs,
	}
}

func (f *fixture) issue(t *testing.T, id string) string {
	t.Helper()
	tok, err := f.tokens.Issue(&models.User{ID: id})
	require.NoError(t, err)
	return tok
}

func TestAuthenticate_Success(t *testing.T) {
	f := newFixture(t)
	tok := f.issue(t, "u1")

	u, err := f.gate.Authenticate(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.UserName)

	u, err = f.gate.Authenticate(context.Background(), "Bearer "+tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}

func TestAuthenticate_Rejections(t *testing.T) {
	f := newFixture(t)

	revokedTok := f.issue(t, "u1")
	require.NoError(t, f.revoked.Revoke(revokedTok))

	other, err := auth.NewTokenService([]byte("other-secret"), time.Hour)
	require.NoError(t, err)
	forged, err := other.Issue(&models.User{ID: "u1"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		reason string
	}{
		{name: "missing", token: "", reason: "missing token"},
		{name: "garbage", token: "not-a-token", reason: "invalid token"},
		{name: "wrong key", token: forged, reason: "invalid token"},
		{name: "revoked", token: revokedTok, reason: "revoked token"},
		{name: "revoked with prefix", token: "Bearer " + revokedTok, reason: "revoked token"},
		{name: "deleted user", token: f.issue(t, "u-gone"), reason: "unknown subject"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.logs.Reset()
			u, err := f.gate.Authenticate(context.Background(), tt.token)
			assert.Nil(t, u)
			assert.Equal(t, common.ErrorUnauthorized, err, "same external signal for every reason")
			assert.Contains(t, f.logs.String(), tt.reason)
		})
	}
}

func TestAuthenticate_UserStoreFailure(t *testing.T) {
	f := newFixture(t)
	tok := f.issue(t, "u1")
	f.users.err = errors.New("connection refused")

	_, err := f.gate.Authenticate(context.Background(), tok)
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.NotContains(t, err.Error(), "connection refused")
}

func TestUserContext(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithUser(context.Background(), &models.User{ID: "u1"})
	u, ok := UserFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", u.ID)

	_, ok = UserFromContext(WithUser(context.Background(), nil))
	assert.False(t, ok)
}
