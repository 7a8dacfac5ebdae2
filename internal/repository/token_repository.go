package repository

import (
	"context"
	"time"

	"github.com/spec-kit/timebank/internal/domain"
)

// TokenRepository manages opaque bearer token persistence.
type TokenRepository interface {
	Create(ctx context.Context, token *domain.Token) error
	GetByToken(ctx context.Context, token string) (*domain.Token, error)
	UpdateExpiry(ctx context.Context, id int64, expiresAt time.Time) error
	DeleteByToken(ctx context.Context, token string) (bool, error)
	DeleteByUser(ctx context.Context, userID string, userType domain.UserType) (int64, error)
}

type tokenRepository struct {
	db DBTX
}

// NewTokenRepository constructs repository.
func NewTokenRepository(db DBTX) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(ctx context.Context, token *domain.Token) error {
	const query = `
        INSERT INTO token (token, user_id, user_type, expires_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		token.Token,
		token.UserID,
		token.UserType,
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt, &token.UpdatedAt)
}

func (r *tokenRepository) GetByToken(ctx context.Context, tokenStr string) (*domain.Token, error) {
	const query = `
        SELECT id, token, user_id, user_type, expires_at, created_at, updated_at
        FROM token WHERE token=$1`
	var token domain.Token
	if err := r.db.QueryRow(ctx, query, tokenStr).Scan(
		&token.ID,
		&token.Token,
		&token.UserID,
		&token.UserType,
		&token.ExpiresAt,
		&token.CreatedAt,
		&token.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &token, nil
}

func (r *tokenRepository) UpdateExpiry(ctx context.Context, id int64, expiresAt time.Time) error {
	const query = `UPDATE token SET expires_at=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.db.Exec(ctx, query, expiresAt, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *tokenRepository) DeleteByToken(ctx context.Context, tokenStr string) (bool, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM token WHERE token=$1`, tokenStr)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *tokenRepository) DeleteByUser(ctx context.Context, userID string, userType domain.UserType) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM token WHERE user_id=$1 AND user_type=$2`, userID, userType)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
