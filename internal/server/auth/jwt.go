// Package auth issues and checks session tokens and verifies passwords.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/cloudstorage/internal/common"
	"github.com/dmitrijs2005/cloudstorage/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the lifetime of an issued token.
const DefaultTokenTTL = 24 * time.Hour

// Claims carries the user id in the standard subject claim. Every token also
// gets a random jti so two tokens issued in the same second never collide.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenService signs and validates HS256 tokens with one secret key that is
// held for the whole process lifetime.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret []byte, ttl time.Duration) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: secret, ttl: ttl, now: time.Now}, nil
}

// Issue returns a signed token whose subject is user.ID.
func (s *TokenService) Issue(user *models.User) (string, error) {
	if user == nil || user.ID == "" {
		return "", errors.New("issue token: user has no id")
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate reports whether raw (optionally "Bearer "-prefixed) carries a
// good signature and has not expired. It never panics on malformed input.
func (s *TokenService) Validate(raw string) bool {
	_, err := s.parse(raw)
	return err == nil
}

// SubjectOf returns the user id of a valid token, or common.ErrInvalidToken.
func (s *TokenService) SubjectOf(raw string) (string, error) {
	claims, err := s.parse(raw)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ExpiresAt returns the expiry of a valid token.
func (s *TokenService) ExpiresAt(raw string) (time.Time, error) {
	claims, err := s.parse(raw)
	if err != nil {
		return time.Time{}, err
	}
	return claims.ExpiresAt.Time, nil
}

func (s *TokenService) parse(raw string) (*Claims, error) {
	tokenString := Sanitize(raw)
	if tokenString == "" {
		return nil, common.ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// Sanitize strips surrounding blanks and an optional "Bearer " prefix. A bare
// "Bearer" with nothing after it sanitizes to "".
func Sanitize(raw string) string {
	s := strings.TrimSpace(raw)
	scheme := strings.TrimSpace(common.BearerPrefix)
	if rest, ok := strings.CutPrefix(s, scheme); ok && (rest == "" || rest[0] == ' ' || rest[0] == '\t') {
		s = rest
	}
	return strings.TrimSpace(s)
}
