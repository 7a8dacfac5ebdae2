package repository

import (
	"context"

	"github.com/spec-kit/timebank/internal/domain"
)

// AccountRepository defines persistence access for student or staff logins.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByUserID(ctx context.Context, userID string) (*domain.Account, error)
}

type accountRepository struct {
	db       DBTX
	userType domain.UserType
	insert   string
	selectBy string
}

// NewStudentRepository returns the stu_user implementation.
func NewStudentRepository(db DBTX) AccountRepository {
	return &accountRepository{
		db:       db,
		userType: domain.UserTypeStudent,
		insert: `
        INSERT INTO stu_user (user_id, password)
        VALUES ($1, $2)
        RETURNING id, created_at, updated_at`,
		selectBy: `
        SELECT id, user_id, password, created_at, updated_at
        FROM stu_user WHERE user_id=$1`,
	}
}

// NewStaffRepository returns the sta_user implementation.
func NewStaffRepository(db DBTX) AccountRepository {
	return &accountRepository{
		db:       db,
		userType: domain.UserTypeStaff,
		insert: `
        INSERT INTO sta_user (user_id, password)
        VALUES ($1, $2)
        RETURNING id, created_at, updated_at`,
		selectBy: `
        SELECT id, user_id, password, created_at, updated_at
        FROM sta_user WHERE user_id=$1`,
	}
}

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	account.Type = r.userType
	return r.db.QueryRow(ctx, r.insert, account.UserID, account.PasswordHash).
		Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
}

func (r *accountRepository) GetByUserID(ctx context.Context, userID string) (*domain.Account, error) {
	account := domain.Account{Type: r.userType}
	if err := r.db.QueryRow(ctx, r.selectBy, userID).Scan(
		&account.ID,
		&account.UserID,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &account, nil
}
