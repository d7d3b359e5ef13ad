// Package services contains server-side business logic. This file implements
// UserService: registration, login against bcrypt hashes, and logout by
// token revocation.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/cloudstorage/internal/common"
	"github.com/dmitrijs2005/cloudstorage/internal/logging"
	"github.com/dmitrijs2005/cloudstorage/internal/server/models"
	"github.com/dmitrijs2005/cloudstorage/internal/server/repositories/repomanager"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
	VerifyMissing(password string)
}

type TokenIssuer interface {
	Issue(user *models.User) (string, error)
	Validate(raw string) bool
}

type Revoker interface {
	Revoke(raw string) error
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	tokens      TokenIssuer
	revoker     Revoker
	logger      logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher, tokens TokenIssuer, revoker Revoker, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		revoker:     revoker,
		logger:      logger.With("module", "users"),
	}
}

// Register creates a user. A taken username is common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrorInvalidInput)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.repomanager.Users(s.db).Create(ctx, &models.User{UserName: username, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login returns a fresh session token. Unknown users and wrong passwords are
// both common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, userName, password string) (string, error) {
	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.VerifyMissing(password)
			s.logger.Warn(ctx, "login failed", "reason", "unknown user")
			return "", common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "user lookup failed", "error", err)
		return "", common.ErrorInternal
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.logger.Warn(ctx, "login failed", "reason", "bad password", "user_id", user.ID)
		return "", common.ErrorUnauthorized
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.Error(ctx, "issue token failed", "user_id", user.ID, "error", err)
		return "", common.ErrorInternal
	}
	return token, nil
}

// Logout revokes a token. Blank or invalid tokens are common.ErrorInvalidInput;
// logging out twice is fine.
func (s *UserService) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" || !s.tokens.Validate(token) {
		return fmt.Errorf("%w: token is blank or invalid", common.ErrorInvalidInput)
	}
	return s.revoker.Revoke(token)
}
