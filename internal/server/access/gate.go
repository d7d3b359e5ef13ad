// Package access resolves a presented token to an authenticated user.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cloudstorage/internal/common"
	"github.com/dmitrijs2005/cloudstorage/internal/logging"
	"github.com/dmitrijs2005/cloudstorage/internal/server/models"
)

type TokenValidator interface {
	Validate(raw string) bool
	SubjectOf(raw string) (string, error)
}

type RevocationChecker interface {
	IsRevoked(raw string) bool
}

type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Gate composes token validation, the revocation set and the credential
// store. Every rejection is reported as common.ErrorUnauthorized; the
// reason only goes to the log.
type Gate struct {
	tokens  TokenValidator
	revoked RevocationChecker
	users   UserLookup
	logger  logging.Logger
}

func NewGate(tokens TokenValidator, revoked RevocationChecker, users UserLookup, logger logging.Logger) *Gate {
	return &Gate{
		tokens:  tokens,
		revoked: revoked,
		users:   users,
		logger:  logger.With("module", "access"),
	}
}

// Authenticate returns the user the token belongs to. A failing credential
// store lookup other than not-found is common.ErrorInternal.
func (g *Gate) Authenticate(ctx context.Context, raw string) (*models.User, error) {
	if raw == "" {
		return nil, g.reject(ctx, "missing token")
	}
	if !g.tokens.Validate(raw) {
		return nil, g.reject(ctx, "invalid token")
	}
	if g.revoked.IsRevoked(raw) {
		return nil, g.reject(ctx, "revoked token")
	}

	userID, err := g.tokens.SubjectOf(raw)
	if err != nil {
		return nil, g.reject(ctx, "no subject")
	}

	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, g.reject(ctx, "unknown subject", "user_id", userID)
		}
		g.logger.Error(ctx, "user lookup failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("user lookup: %w", common.ErrorInternal)
	}

	return user, nil
}

func (g *Gate) reject(ctx context.Context, reason string, args ...any) error {
	g.logger.Warn(ctx, "token rejected", append([]any{"reason", reason}, args...)...)
	return common.ErrorUnauthorized
}

type ctxKey struct{}

// WithUser stores an authenticated user in ctx.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFromContext returns the user stored by WithUser.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*models.User)
	return u, ok && u != nil
}
