// Package revocation keeps the set of tokens logged out before they expired.
package revocation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/cloudstorage/internal/common"
	"github.com/dmitrijs2005/cloudstorage/internal/logging"
	"github.com/dmitrijs2005/cloudstorage/internal/server/auth"
)

// ExpiryFunc reports when a token would expire on its own. Tokens it cannot
// date (ok == false) stay revoked for the life of the registry.
type ExpiryFunc func(token string) (exp time.Time, ok bool)

// Registry is safe for concurrent use. A Revoke that has returned is seen by
// every later IsRevoked from any goroutine.
type Registry struct {
	mu      sync.RWMutex
	revoked map[string]time.Time

	expiry ExpiryFunc
	now    func() time.Time
	logger logging.Logger
}

func NewRegistry(expiry ExpiryFunc, logger logging.Logger) *Registry {
	if expiry == nil {
		expiry = func(string) (time.Time, bool) { return time.Time{}, false }
	}
	return &Registry{
		revoked: make(map[string]time.Time),
		expiry:  expiry,
		now:     time.Now,
		logger:  logger.With("module", "revocation"),
	}
}

// Revoke adds the normalized token to the set. Blank input fails with
// common.ErrorInvalidInput; revoking a token twice is a no-op.
func (r *Registry) Revoke(raw string) error {
	token := auth.Sanitize(raw)
	if token == "" {
		return fmt.Errorf("revoke blank token: %w", common.ErrorInvalidInput)
	}

	exp, ok := r.expiry(token)
	if !ok {
		exp = time.Time{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.revoked[token]; !exists {
		r.revoked[token] = exp
	}
	return nil
}

// IsRevoked reports membership of the normalized token. Blank input is never
// revoked.
func (r *Registry) IsRevoked(raw string) bool {
	token := auth.Sanitize(raw)
	if token == "" {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.revoked[token]
	return ok
}

// Len returns the number of tracked tokens.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.revoked)
}

// Prune drops entries whose token has already expired and returns how many
// were removed. Expired tokens fail validation anyway.
func (r *Registry) Prune() int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for token, exp := range r.revoked {
		if !exp.IsZero() && !now.Before(exp) {
			delete(r.revoked, token)
			removed++
		}
	}
	return removed
}

// Run prunes every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.Prune(); n > 0 {
				r.logger.Debug(ctx, "pruned revoked tokens", "removed", n, "remaining", r.Len())
			}
		}
	}
}

// TokenExpiry adapts a token service to ExpiryFunc.
func TokenExpiry(tokens *auth.TokenService) ExpiryFunc {
	return func(token string) (time.Time, bool) {
		exp, err := tokens.ExpiresAt(token)
		if err != nil {
			return time.Time{}, false
		}
		return exp, true
	}
}
