package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/timebank/internal/domain"
	"github.com/spec-kit/timebank/internal/events"
	"github.com/spec-kit/timebank/internal/observability"
	"github.com/spec-kit/timebank/internal/repository"
	apperrors "github.com/spec-kit/timebank/pkg/util/errorutil"
)

// PointsService runs the student request and staff validation flow.
type PointsService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// PointsDependencies bundles what the points service needs.
type PointsDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// ValidateInput is a staff decision on a pending request.
type ValidateInput struct {
	RequestID   int64
	PointDiff   int
	CreditDiff  int
	Accepted    bool
	ContentHTML string
}

// LookupResult tags the outcome of resolving a referenced request.
type LookupResult int

const (
	LookupFound LookupResult = iota
	LookupNotFound
	LookupNoInitiator
)

// RequestLookup is the resolved reference of a validation.
type RequestLookup struct {
	Result    LookupResult
	Request   *domain.Event
	StudentID string
}

// NewPointsService constructs the service.
func NewPointsService(deps PointsDependencies) *PointsService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PointsService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// SubmitRequest appends a pending event for the student and bumps their live
// request counter in the same transaction.
func (s *PointsService) SubmitRequest(ctx context.Context, studentID string, pointChange int, contentHTML string) (*domain.Event, error) {
	if studentID == "" {
		return nil, apperrors.NewValidationError("student id is required", nil)
	}

	event := &domain.Event{
		InitStuID:   &studentID,
		PointDiff:   pointChange,
		CreditDiff:  0,
		Type:        domain.EventTypePending,
		ContentHTML: contentHTML,
	}

	err := s.store.WithTx(ctx, func(repos repository.Repositories) error {
		if err := repos.Events.Create(ctx, event); err != nil {
			return fmt.Errorf("create request event: %w", err)
		}
		agg, err := loadAggregate(ctx, repos.Aggregates, studentID)
		if err != nil {
			return err
		}
		agg.RequestsMade++
		if err := repos.Aggregates.Upsert(ctx, agg); err != nil {
			return fmt.Errorf("update aggregate: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLedgerEvent(event.Type)
	s.logger.Info("points requested",
		zap.Int64("event_id", event.ID),
		zap.String("student_id", studentID),
		zap.Int("point_change", pointChange))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventPointsRequested,
		LedgerID: event.ID,
		Actor:    studentActor(studentID),
		Payload:  events.PointsRequestedPayload{StudentID: studentID, PointChange: pointChange},
	})
	return event, nil
}

// ValidateRequest records a staff decision on a request and applies it to the
// student's live aggregate. Points move only on acceptance; credits move on
// both outcomes. Nothing is written when the reference does not resolve.
func (s *PointsService) ValidateRequest(ctx context.Context, staffID string, input ValidateInput) (*domain.Event, error) {
	if staffID == "" {
		return nil, apperrors.NewValidationError("staff id is required", nil)
	}
	if input.RequestID <= 0 {
		return nil, apperrors.NewValidationError("requestId must be positive", map[string]any{"requestId": input.RequestID})
	}

	eventType := domain.EventTypeRejected
	if input.Accepted {
		eventType = domain.EventTypeAccepted
	}

	var decision *domain.Event
	err := s.store.WithTx(ctx, func(repos repository.Repositories) error {
		lookup, err := LookupRequest(ctx, repos.Events, input.RequestID)
		if err != nil {
			return err
		}
		switch lookup.Result {
		case LookupNotFound:
			return apperrors.NewNotFound("request", map[string]any{"requestId": input.RequestID})
		case LookupNoInitiator:
			return apperrors.NewInvalidReference("referenced event has no student initiator", map[string]any{"requestId": input.RequestID})
		}

		studentID := lookup.StudentID
		refID := input.RequestID
		decision = &domain.Event{
			InitStaID:   &staffID,
			RecvStuID:   &studentID,
			RefEventID:  &refID,
			PointDiff:   input.PointDiff,
			CreditDiff:  input.CreditDiff,
			Type:        eventType,
			ContentHTML: input.ContentHTML,
		}
		if err := repos.Events.Create(ctx, decision); err != nil {
			return fmt.Errorf("create decision event: %w", err)
		}

		agg, err := loadAggregate(ctx, repos.Aggregates, studentID)
		if err != nil {
			return err
		}
		applyDecision(agg, decision)
		if err := repos.Aggregates.Upsert(ctx, agg); err != nil {
			return fmt.Errorf("update aggregate: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	studentID := *decision.RecvStuID
	s.metrics.RecordLedgerEvent(decision.Type)
	s.logger.Info("points request validated",
		zap.Int64("event_id", decision.ID),
		zap.Int64("request_id", input.RequestID),
		zap.String("staff_id", staffID),
		zap.String("student_id", studentID),
		zap.String("outcome", string(decision.Type)))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventPointsValidated,
		LedgerID: decision.ID,
		Actor:    staffActor(staffID),
		Payload: events.PointsValidatedPayload{
			RequestID:  input.RequestID,
			StudentID:  studentID,
			Outcome:    decision.Type,
			PointDiff:  decision.PointDiff,
			CreditDiff: decision.CreditDiff,
		},
	})
	return decision, nil
}

// Details returns the student's current aggregate, or the baseline when the
// student has no row yet.
func (s *PointsService) Details(ctx context.Context, studentID string) (*domain.StudentAggregate, error) {
	return loadAggregate(ctx, s.store.Repos().Aggregates, studentID)
}

// LookupRequest resolves the request a validation refers to.
func LookupRequest(ctx context.Context, repo repository.EventRepository, requestID int64) (RequestLookup, error) {
	event, err := repo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return RequestLookup{Result: LookupNotFound}, nil
		}
		return RequestLookup{}, fmt.Errorf("load request: %w", err)
	}
	if event.InitStuID == nil || *event.InitStuID == "" {
		return RequestLookup{Result: LookupNoInitiator, Request: event}, nil
	}
	return RequestLookup{Result: LookupFound, Request: event, StudentID: *event.InitStuID}, nil
}

func applyDecision(agg *domain.StudentAggregate, decision *domain.Event) {
	agg.RequestsMade++
	agg.AccumulatedCredits += decision.CreditDiff
	if decision.Type != domain.EventTypeAccepted {
		return
	}
	agg.AccumulatedPoints += decision.PointDiff
	agg.RequestsApproved++
	if decision.PointDiff > 0 {
		agg.TotalPointAdditions += decision.PointDiff
	}
}

func loadAggregate(ctx context.Context, repo repository.AggregateRepository, studentID string) (*domain.StudentAggregate, error) {
	agg, err := repo.GetByUserID(ctx, studentID)
	if err == nil {
		return agg, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NewStudentAggregate(studentID), nil
	}
	return nil, fmt.Errorf("load aggregate: %w", err)
}

func (s *PointsService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func studentActor(studentID string) events.Actor {
	return events.Actor{Type: domain.UserTypeStudent, UserID: studentID}
}

func staffActor(staffID string) events.Actor {
	return events.Actor{Type: domain.UserTypeStaff, UserID: staffID}
}
