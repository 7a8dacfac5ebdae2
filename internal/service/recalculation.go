package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/timebank/internal/domain"
	"github.com/spec-kit/timebank/internal/events"
	"github.com/spec-kit/timebank/internal/observability"
	"github.com/spec-kit/timebank/internal/repository"
)

// RecalcResult summarizes one recalculation pass.
type RecalcResult struct {
	Students int
	Events   int
	Duration time.Duration
}

// Recalculator rebuilds every student aggregate from the event log.
type Recalculator struct {
	store      repository.Store
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// RecalculatorDependencies bundles what the recalculator needs.
type RecalculatorDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewRecalculator constructs the recalculator.
func NewRecalculator(deps RecalculatorDependencies) *Recalculator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recalculator{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Run scans the log and overwrites the aggregate of every student that has at
// least one event. The scans and the batch upsert share one transaction.
func (r *Recalculator) Run(ctx context.Context) (RecalcResult, error) {
	started := r.now()
	var result RecalcResult

	err := r.store.WithTx(ctx, func(repos repository.Repositories) error {
		accepted, err := repos.Events.ListAcceptedByStudents(ctx)
		if err != nil {
			return fmt.Errorf("scan accepted events: %w", err)
		}
		decided, err := repos.Events.ListAcceptedOrRejectedByStudents(ctx)
		if err != nil {
			return fmt.Errorf("scan decided events: %w", err)
		}
		all, err := repos.Events.ListByStudents(ctx)
		if err != nil {
			return fmt.Errorf("scan events: %w", err)
		}

		aggs := BuildAggregates(accepted, decided, all)
		if err := repos.Aggregates.UpsertMany(ctx, aggs); err != nil {
			return fmt.Errorf("write aggregates: %w", err)
		}
		result.Students = len(aggs)
		result.Events = len(all)
		return nil
	})
	result.Duration = r.now().Sub(started)
	if err != nil {
		r.metrics.RecordRecalculation(observability.RecalcFailure, result.Duration, 0)
		return RecalcResult{Duration: result.Duration}, err
	}

	r.metrics.RecordRecalculation(observability.RecalcSuccess, result.Duration, result.Students)
	r.logger.Info("balances recalculated",
		zap.Int("students", result.Students),
		zap.Int("events", result.Events),
		zap.Duration("duration", result.Duration))
	if r.dispatcher != nil {
		_ = r.dispatcher.Publish(ctx, events.Event{
			Type:      events.EventBalancesRecalculated,
			Actor:     events.Actor{Type: domain.UserTypeStaff},
			Timestamp: r.now(),
			Payload: events.BalancesRecalculatedPayload{
				Students: result.Students,
				Events:   result.Events,
				Duration: result.Duration,
			},
		})
	}
	return result, nil
}

// RunScheduled is the job entry point. Failures are logged and dropped; the
// next tick is the retry.
func (r *Recalculator) RunScheduled(ctx context.Context) {
	if _, err := r.Run(ctx); err != nil {
		r.logger.Error("scheduled balance recalculation failed", zap.Error(err))
	}
}

// BuildAggregates folds the three scans into one aggregate per student seen in
// any of them, sorted by user id.
func BuildAggregates(accepted, decided, all []domain.Event) []domain.StudentAggregate {
	points := map[string]int{}
	credits := map[string]int{}
	made := map[string]int{}
	approved := map[string]int{}
	additions := map[string]int{}
	students := map[string]struct{}{}

	for _, e := range accepted {
		id, ok := e.SubjectStudent()
		if !ok {
			continue
		}
		students[id] = struct{}{}
		points[id] += e.PointDiff
		approved[id]++
		if e.PointDiff > 0 {
			additions[id] += e.PointDiff
		}
	}
	for _, e := range decided {
		id, ok := e.SubjectStudent()
		if !ok {
			continue
		}
		students[id] = struct{}{}
		credits[id] += e.CreditDiff
	}
	for _, e := range all {
		id, ok := e.SubjectStudent()
		if !ok {
			continue
		}
		students[id] = struct{}{}
		made[id]++
	}

	out := make([]domain.StudentAggregate, 0, len(students))
	for id := range students {
		out = append(out, domain.StudentAggregate{
			UserID:              id,
			AccumulatedPoints:   domain.InitialPoints + points[id],
			AccumulatedCredits:  domain.InitialCredits + credits[id],
			RequestsMade:        made[id],
			RequestsApproved:    approved[id],
			TotalPointAdditions: additions[id],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}
