package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/timebank/internal/domain"
	"github.com/spec-kit/timebank/internal/repository"
)

const (
	// DefaultTokenTTL is the sliding session window.
	DefaultTokenTTL = 30 * time.Minute
	tokenLengthBytes = 32
)

// TokenAuthenticator issues, validates and slides opaque bearer tokens.
// Absent or expired tokens are reported as a nil token, not as an error.
type TokenAuthenticator struct {
	store  repository.Store
	ttl    time.Duration
	now    func() time.Time
	random io.Reader
	logger *zap.Logger
}

// TokenOption customizes a TokenAuthenticator.
type TokenOption func(*TokenAuthenticator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) TokenOption {
	return func(a *TokenAuthenticator) { a.now = now }
}

// WithRandom overrides the entropy source.
func WithRandom(r io.Reader) TokenOption {
	return func(a *TokenAuthenticator) { a.random = r }
}

// NewTokenAuthenticator builds an authenticator over the token store.
func NewTokenAuthenticator(store repository.Store, ttl time.Duration, logger *zap.Logger, opts ...TokenOption) *TokenAuthenticator {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &TokenAuthenticator{
		store:  store,
		ttl:    ttl,
		now:    time.Now,
		random: rand.Reader,
		logger: logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// TTL returns the sliding window length.
func (a *TokenAuthenticator) TTL() time.Duration {
	return a.ttl
}

// Issue deletes every existing token of the user and stores a fresh one,
// forcing any previous session to log out.
func (a *TokenAuthenticator) Issue(ctx context.Context, userID string, userType domain.UserType) (string, error) {
	if userID == "" || !userType.Valid() {
		return "", fmt.Errorf("issue token: invalid subject %q/%q", userID, userType)
	}

	tokenStr, err := a.generate()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	err = a.store.WithTx(ctx, func(repos repository.Repositories) error {
		revoked, err := repos.Tokens.DeleteByUser(ctx, userID, userType)
		if err != nil {
			return fmt.Errorf("revoke previous tokens: %w", err)
		}
		if revoked > 0 {
			a.logger.Debug("revoked previous sessions",
				zap.String("user_id", userID),
				zap.Int64("count", revoked))
		}
		return repos.Tokens.Create(ctx, &domain.Token{
			Token:     tokenStr,
			UserID:    userID,
			UserType:  userType,
			ExpiresAt: a.now().Add(a.ttl),
		})
	})
	if err != nil {
		return "", err
	}

	a.logger.Info("issued token", zap.String("user_id", userID), zap.String("user_type", string(userType)))
	return tokenStr, nil
}

// Validate looks the token up without touching it.
func (a *TokenAuthenticator) Validate(ctx context.Context, tokenStr string) (*domain.Token, error) {
	return a.validate(ctx, a.store.Repos(), tokenStr)
}

// ValidateAndRefresh validates the token and, on success, pushes its expiry to now + TTL.
// Concurrent refreshes of the same token are last-write-wins.
func (a *TokenAuthenticator) ValidateAndRefresh(ctx context.Context, tokenStr string) (*domain.Token, error) {
	repos := a.store.Repos()
	token, err := a.validate(ctx, repos, tokenStr)
	if err != nil || token == nil {
		return nil, err
	}

	expiresAt := a.now().Add(a.ttl)
	if err := repos.Tokens.UpdateExpiry(ctx, token.ID, expiresAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	token.ExpiresAt = expiresAt

	a.logger.Debug("refreshed token expiration", zap.String("user_id", token.UserID))
	return token, nil
}

// Invalidate deletes the token. Unknown tokens are ignored.
func (a *TokenAuthenticator) Invalidate(ctx context.Context, tokenStr string) error {
	if tokenStr == "" {
		return nil
	}
	deleted, err := a.store.Repos().Tokens.DeleteByToken(ctx, tokenStr)
	if err != nil {
		return fmt.Errorf("invalidate token: %w", err)
	}
	if deleted {
		a.logger.Info("invalidated token")
	}
	return nil
}

func (a *TokenAuthenticator) validate(ctx context.Context, repos repository.Repositories, tokenStr string) (*domain.Token, error) {
	if tokenStr == "" {
		return nil, nil
	}
	token, err := repos.Tokens.GetByToken(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup token: %w", err)
	}
	if token.Expired(a.now()) {
		return nil, nil
	}
	return token, nil
}

func (a *TokenAuthenticator) generate() (string, error) {
	buf := make([]byte, tokenLengthBytes)
	if _, err := io.ReadFull(a.random, buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
