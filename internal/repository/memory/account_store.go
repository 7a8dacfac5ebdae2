package memory

import (
	"context"
	"errors"

	"github.com/spec-kit/timebank/internal/domain"
	"github.com/spec-kit/timebank/internal/repository"
)

var (
	errDuplicateToken   = errors.New("memory: duplicate token")
	errDuplicateAccount = errors.New("memory: duplicate user id")
)

type accountRepo struct {
	s        *Store
	tx       bool
	userType domain.UserType
}

func (r *accountRepo) table() map[string]domain.Account {
	if r.userType == domain.UserTypeStaff {
		return r.s.data.staff
	}
	return r.s.data.students
}

func (r *accountRepo) Create(_ context.Context, account *domain.Account) error {
	defer r.s.guard(r.tx)()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	table := r.table()
	if _, exists := table[account.UserID]; exists {
		return errDuplicateAccount
	}
	r.s.data.nextAcctID++
	account.ID = r.s.data.nextAcctID
	account.Type = r.userType
	account.CreatedAt = now()
	account.UpdatedAt = account.CreatedAt
	table[account.UserID] = *account
	return nil
}

func (r *accountRepo) GetByUserID(_ context.Context, userID string) (*domain.Account, error) {
	defer r.s.guard(r.tx)()

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	account, ok := r.table()[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &account, nil
}
