package repository

import (
	"context"

	"github.com/spec-kit/timebank/internal/domain"
)

// EventRepository is the append-only event log.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id int64) (*domain.Event, error)
	// ListAcceptedByStudents returns accepted events that have a subject student.
	ListAcceptedByStudents(ctx context.Context) ([]domain.Event, error)
	// ListAcceptedOrRejectedByStudents returns decided events that have a subject student.
	ListAcceptedOrRejectedByStudents(ctx context.Context) ([]domain.Event, error)
	// ListByStudents returns every pending, accepted or rejected event with a subject student.
	ListByStudents(ctx context.Context) ([]domain.Event, error)
}

type eventRepository struct {
	db DBTX
}

// NewEventRepository returns a Postgres-backed implementation.
func NewEventRepository(db DBTX) EventRepository {
	return &eventRepository{db: db}
}

const eventColumns = `id, created_at, init_stu_id, init_sta_id, recv_stu_id, recv_sta_id,
        ref_event_id, point_diff, credit_diff, type, content_html`

func (r *eventRepository) Create(ctx context.Context, event *domain.Event) error {
	const query = `
        INSERT INTO event (init_stu_id, init_sta_id, recv_stu_id, recv_sta_id, ref_event_id,
                           point_diff, credit_diff, type, content_html)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, created_at`

	return r.db.QueryRow(ctx, query,
		event.InitStuID,
		event.InitStaID,
		event.RecvStuID,
		event.RecvStaID,
		event.RefEventID,
		event.PointDiff,
		event.CreditDiff,
		event.Type,
		event.ContentHTML,
	).Scan(&event.ID, &event.CreatedAt)
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM event WHERE id=$1`

	var event domain.Event
	if err := scanEvent(r.db.QueryRow(ctx, query, id), &event); err != nil {
		return nil, notFound(err)
	}
	return &event, nil
}

func (r *eventRepository) ListAcceptedByStudents(ctx context.Context) ([]domain.Event, error) {
	return r.listByStudents(ctx, domain.EventTypeAccepted)
}

func (r *eventRepository) ListAcceptedOrRejectedByStudents(ctx context.Context) ([]domain.Event, error) {
	return r.listByStudents(ctx, domain.EventTypeAccepted, domain.EventTypeRejected)
}

func (r *eventRepository) ListByStudents(ctx context.Context) ([]domain.Event, error) {
	return r.listByStudents(ctx, domain.EventTypePending, domain.EventTypeAccepted, domain.EventTypeRejected)
}

func (r *eventRepository) listByStudents(ctx context.Context, types ...domain.EventType) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + `
        FROM event
        WHERE type = ANY($1)
          AND COALESCE(init_stu_id, recv_stu_id) IS NOT NULL
        ORDER BY id ASC`

	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}

	rows, err := r.db.Query(ctx, query, names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Event
	for rows.Next() {
		var event domain.Event
		if err := scanEvent(rows, &event); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner, event *domain.Event) error {
	return row.Scan(
		&event.ID,
		&event.CreatedAt,
		&event.InitStuID,
		&event.InitStaID,
		&event.RecvStuID,
		&event.RecvStaID,
		&event.RefEventID,
		&event.PointDiff,
		&event.CreditDiff,
		&event.Type,
		&event.ContentHTML,
	)
}
