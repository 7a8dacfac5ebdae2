package memory

import (
	"context"
	"time"

	"github.com/spec-kit/timebank/internal/domain"
	"github.com/spec-kit/timebank/internal/repository"
)

type tokenRepo struct {
	s  *Store
	tx bool
}

func (r *tokenRepo) Create(_ context.Context, token *domain.Token) error {
	defer r.s.guard(r.tx)()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.data.tokens[token.Token]; exists {
		return errDuplicateToken
	}
	r.s.data.nextTokenID++
	token.ID = r.s.data.nextTokenID
	token.CreatedAt = now()
	token.UpdatedAt = token.CreatedAt
	r.s.data.tokens[token.Token] = *token
	return nil
}

func (r *tokenRepo) GetByToken(_ context.Context, tokenStr string) (*domain.Token, error) {
	defer r.s.guard(r.tx)()

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	token, ok := r.s.data.tokens[tokenStr]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &token, nil
}

func (r *tokenRepo) UpdateExpiry(_ context.Context, id int64, expiresAt time.Time) error {
	defer r.s.guard(r.tx)()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for key, token := range r.s.data.tokens {
		if token.ID == id {
			token.ExpiresAt = expiresAt
			token.UpdatedAt = now()
			r.s.data.tokens[key] = token
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *tokenRepo) DeleteByToken(_ context.Context, tokenStr string) (bool, error) {
	defer r.s.guard(r.tx)()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.tokens[tokenStr]; !ok {
		return false, nil
	}
	delete(r.s.data.tokens, tokenStr)
	return true, nil
}

func (r *tokenRepo) DeleteByUser(_ context.Context, userID string, userType domain.UserType) (int64, error) {
	defer r.s.guard(r.tx)()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var deleted int64
	for key, token := range r.s.data.tokens {
		if token.UserID == userID && token.UserType == userType {
			delete(r.s.data.tokens, key)
			deleted++
		}
	}
	return deleted, nil
}
