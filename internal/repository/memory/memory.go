// Package memory is an in-process implementation of the repository contracts.
// It backs the service tests and DSN-less development runs.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/timebank/internal/domain"
	"github.com/spec-kit/timebank/internal/repository"
)

// Store keeps every table in maps guarded by one mutex. Transactions and
// standalone operations are serialized on txMu, so a rollback never discards
// a write made outside the transaction.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data state
}

type state struct {
	events      []domain.Event
	aggregates  map[string]domain.StudentAggregate
	tokens      map[string]domain.Token
	students    map[string]domain.Account
	staff       map[string]domain.Account
	nextEventID int64
	nextAggID   int64
	nextTokenID int64
	nextAcctID  int64
}

var _ repository.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{data: state{
		aggregates: make(map[string]domain.StudentAggregate),
		tokens:     make(map[string]domain.Token),
		students:   make(map[string]domain.Account),
		staff:      make(map[string]domain.Account),
	}}
}

// Repos returns repositories whose every call waits for any open transaction.
// Calling them from inside a WithTx callback deadlocks; use the callback's
// repositories there.
func (s *Store) Repos() repository.Repositories {
	return s.repos(false)
}

func (s *Store) repos(tx bool) repository.Repositories {
	return repository.Repositories{
		Events:     &eventRepo{s: s, tx: tx},
		Aggregates: &aggregateRepo{s: s, tx: tx},
		Tokens:     &tokenRepo{s: s, tx: tx},
		Students:   &accountRepo{s: s, tx: tx, userType: domain.UserTypeStudent},
		Staff:      &accountRepo{s: s, tx: tx, userType: domain.UserTypeStaff},
	}
}

// WithTx runs fn exclusively and restores the snapshot taken at its start
// when fn fails.
func (s *Store) WithTx(ctx context.Context, fn func(repository.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	if err := fn(s.repos(true)); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// guard holds txMu for the duration of a standalone operation.
func (s *Store) guard(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

// Events returns a copy of the event log in insertion order.
func (s *Store) Events() []domain.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Event, len(s.data.events))
	copy(out, s.data.events)
	return out
}

// Aggregates returns a copy of every stored aggregate keyed by user id.
func (s *Store) Aggregates() map[string]domain.StudentAggregate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.StudentAggregate, len(s.data.aggregates))
	for k, v := range s.data.aggregates {
		out[k] = v
	}
	return out
}

func (d state) clone() state {
	out := d
	out.events = append([]domain.Event(nil), d.events...)
	out.aggregates = cloneMap(d.aggregates)
	out.tokens = cloneMap(d.tokens)
	out.students = cloneMap(d.students)
	out.staff = cloneMap(d.staff)
	return out
}

func cloneMap[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func now() time.Time {
	return time.Now().UTC()
}
