package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/timebank/internal/domain"
	"github.com/spec-kit/timebank/internal/repository"
	"github.com/spec-kit/timebank/internal/repository/memory"
)

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func mustCreate(t *testing.T, store repository.Store, event domain.Event) domain.Event {
	t.Helper()
	if err := store.Repos().Events.Create(context.Background(), &event); err != nil {
		t.Fatalf("create event: %v", err)
	}
	return event
}

var errAggregateWrite = errors.New("aggregate write failed")

// failingStore runs transactions on a memory store but fails every aggregate write.
type failingStore struct {
	*memory.Store
}

func (s failingStore) WithTx(ctx context.Context, fn func(repository.Repositories) error) error {
	return s.Store.WithTx(ctx, func(repos repository.Repositories) error {
		repos.Aggregates = failingAggregates{repos.Aggregates}
		return fn(repos)
	})
}

type failingAggregates struct {
	repository.AggregateRepository
}

func (failingAggregates) Upsert(context.Context, *domain.StudentAggregate) error {
	return errAggregateWrite
}

func (failingAggregates) UpsertMany(context.Context, []domain.StudentAggregate) error {
	return errAggregateWrite
}
