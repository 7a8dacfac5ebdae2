package memory

import (
	"context"

	"github.com/spec-kit/timebank/internal/domain"
	"github.com/spec-kit/timebank/internal/repository"
)

type aggregateRepo struct {
	s  *Store
	tx bool
}

func (r *aggregateRepo) GetByUserID(_ context.Context, userID string) (*domain.StudentAggregate, error) {
	defer r.s.guard(r.tx)()

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	agg, ok := r.s.data.aggregates[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &agg, nil
}

func (r *aggregateRepo) Upsert(_ context.Context, agg *domain.StudentAggregate) error {
	defer r.s.guard(r.tx)()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.upsertLocked(agg)
	return nil
}

func (r *aggregateRepo) UpsertMany(_ context.Context, aggs []domain.StudentAggregate) error {
	defer r.s.guard(r.tx)()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range aggs {
		r.upsertLocked(&aggs[i])
	}
	return nil
}

func (r *aggregateRepo) upsertLocked(agg *domain.StudentAggregate) {
	ts := now()
	if existing, ok := r.s.data.aggregates[agg.UserID]; ok {
		agg.ID = existing.ID
		agg.CreatedAt = existing.CreatedAt
	} else {
		r.s.data.nextAggID++
		agg.ID = r.s.data.nextAggID
		agg.CreatedAt = ts
	}
	agg.UpdatedAt = ts
	r.s.data.aggregates[agg.UserID] = *agg
}
