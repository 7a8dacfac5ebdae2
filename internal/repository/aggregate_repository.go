package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/timebank/internal/domain"
)

// AggregateRepository persists per-student aggregates. Upsert is the live write
// path used by request handling; UpsertMany is the batch path used by the
// recalculation job and overwrites whatever the live path wrote.
type AggregateRepository interface {
	GetByUserID(ctx context.Context, userID string) (*domain.StudentAggregate, error)
	Upsert(ctx context.Context, agg *domain.StudentAggregate) error
	UpsertMany(ctx context.Context, aggs []domain.StudentAggregate) error
}

type aggregateRepository struct {
	db DBTX
}

// NewAggregateRepository returns a Postgres-backed implementation.
func NewAggregateRepository(db DBTX) AggregateRepository {
	return &aggregateRepository{db: db}
}

const upsertAggregateQuery = `
        INSERT INTO stu_details (user_id, accumulated_points, accumulated_credits,
                                 requests_made, requests_approved, total_point_additions)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (user_id) DO UPDATE SET
            accumulated_points = EXCLUDED.accumulated_points,
            accumulated_credits = EXCLUDED.accumulated_credits,
            requests_made = EXCLUDED.requests_made,
            requests_approved = EXCLUDED.requests_approved,
            total_point_additions = EXCLUDED.total_point_additions,
            updated_at = NOW()
        RETURNING id, created_at, updated_at`

func (r *aggregateRepository) GetByUserID(ctx context.Context, userID string) (*domain.StudentAggregate, error) {
	const query = `
        SELECT id, user_id, accumulated_points, accumulated_credits, requests_made,
               requests_approved, total_point_additions, created_at, updated_at
        FROM stu_details WHERE user_id=$1`

	var agg domain.StudentAggregate
	if err := r.db.QueryRow(ctx, query, userID).Scan(
		&agg.ID,
		&agg.UserID,
		&agg.AccumulatedPoints,
		&agg.AccumulatedCredits,
		&agg.RequestsMade,
		&agg.RequestsApproved,
		&agg.TotalPointAdditions,
		&agg.CreatedAt,
		&agg.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &agg, nil
}

func (r *aggregateRepository) Upsert(ctx context.Context, agg *domain.StudentAggregate) error {
	return r.db.QueryRow(ctx, upsertAggregateQuery, aggregateArgs(agg)...).
		Scan(&agg.ID, &agg.CreatedAt, &agg.UpdatedAt)
}

func (r *aggregateRepository) UpsertMany(ctx context.Context, aggs []domain.StudentAggregate) error {
	if len(aggs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := range aggs {
		batch.Queue(upsertAggregateQuery, aggregateArgs(&aggs[i])...)
	}

	results := r.db.SendBatch(ctx, batch)
	for i := range aggs {
		if err := results.QueryRow().Scan(&aggs[i].ID, &aggs[i].CreatedAt, &aggs[i].UpdatedAt); err != nil {
			_ = results.Close()
			return fmt.Errorf("upsert aggregate %s: %w", aggs[i].UserID, err)
		}
	}
	return results.Close()
}

func aggregateArgs(agg *domain.StudentAggregate) []any {
	return []any{
		agg.UserID,
		agg.AccumulatedPoints,
		agg.AccumulatedCredits,
		agg.RequestsMade,
		agg.RequestsApproved,
		agg.TotalPointAdditions,
	}
}
