package memory

import (
	"context"

	"github.com/spec-kit/timebank/internal/domain"
	"github.com/spec-kit/timebank/internal/repository"
)

type eventRepo struct {
	s  *Store
	tx bool
}

func (r *eventRepo) Create(_ context.Context, event *domain.Event) error {
	defer r.s.guard(r.tx)()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.data.nextEventID++
	event.ID = r.s.data.nextEventID
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now()
	}
	r.s.data.events = append(r.s.data.events, *event)
	return nil
}

func (r *eventRepo) GetByID(_ context.Context, id int64) (*domain.Event, error) {
	defer r.s.guard(r.tx)()

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, event := range r.s.data.events {
		if event.ID == id {
			out := event
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *eventRepo) ListAcceptedByStudents(_ context.Context) ([]domain.Event, error) {
	defer r.s.guard(r.tx)()

	return r.list(domain.EventTypeAccepted), nil
}

func (r *eventRepo) ListAcceptedOrRejectedByStudents(_ context.Context) ([]domain.Event, error) {
	defer r.s.guard(r.tx)()

	return r.list(domain.EventTypeAccepted, domain.EventTypeRejected), nil
}

func (r *eventRepo) ListByStudents(_ context.Context) ([]domain.Event, error) {
	defer r.s.guard(r.tx)()

	return r.list(domain.EventTypePending, domain.EventTypeAccepted, domain.EventTypeRejected), nil
}

func (r *eventRepo) list(types ...domain.EventType) []domain.Event {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.Event
	for _, event := range r.s.data.events {
		if _, ok := event.SubjectStudent(); !ok {
			continue
		}
		for _, t := range types {
			if event.Type == t {
				out = append(out, event)
				break
			}
		}
	}
	return out
}
