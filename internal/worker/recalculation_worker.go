package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/timebank/internal/config"
	"github.com/spec-kit/timebank/internal/lock"
	"github.com/spec-kit/timebank/internal/observability"
	"github.com/spec-kit/timebank/internal/service"
)

const recalcLockName = "balance-recalculation"

// ErrRecalculationRunning is returned by TriggerNow when another run holds the lock.
var ErrRecalculationRunning = errors.New("balance recalculation already running")

// Runner is the recalculation driven by the worker. Scheduled ticks call
// RunScheduled; on-demand triggers call Run and see its error.
type Runner interface {
	Run(ctx context.Context) (service.RecalcResult, error)
	RunScheduled(ctx context.Context)
}

// RecalculationWorker runs the balance recalculation on its cron schedule and
// on demand, never overlapping with itself.
type RecalculationWorker struct {
	runner  Runner
	lock    lock.Lock
	cfg     config.RecalcConfig
	metrics *observability.Metrics
	logger  *zap.Logger
	cron    *cron.Cron
}

// NewRecalculationWorker wires the scheduler. A nil lock falls back to a
// process-local one.
func NewRecalculationWorker(runner Runner, runLock lock.Lock, cfg config.RecalcConfig, metrics *observability.Metrics, logger *zap.Logger) (*RecalculationWorker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if runLock == nil {
		runLock = lock.NewLocal()
	}

	cronLogger := zapCronLogger{logger: logger.Named("cron")}
	w := &RecalculationWorker{
		runner:  runner,
		lock:    runLock,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
		cron: cron.New(
			cron.WithLocation(cfg.Location()),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
	}

	if _, err := w.cron.AddFunc(cfg.Schedule, w.tick); err != nil {
		return nil, fmt.Errorf("invalid recalculation schedule %q: %w", cfg.Schedule, err)
	}
	return w, nil
}

// Start begins the schedule, running once immediately when configured to.
func (w *RecalculationWorker) Start() {
	if !w.cfg.Enabled {
		w.logger.Info("balance recalculation schedule disabled")
		return
	}
	w.cron.Start()
	w.logger.Info("balance recalculation scheduled",
		zap.String("schedule", w.cfg.Schedule),
		zap.String("timezone", w.cfg.Location().String()))
	if w.cfg.RunOnStartup {
		go w.tick()
	}
}

// Stop halts the schedule and waits for an in-flight run until ctx is done.
func (w *RecalculationWorker) Stop(ctx context.Context) {
	done := w.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		w.logger.Warn("balance recalculation still running at shutdown")
	}
}

// TriggerNow runs one recalculation synchronously under the run lock.
func (w *RecalculationWorker) TriggerNow(ctx context.Context) (service.RecalcResult, error) {
	release, err := w.acquire(ctx)
	if err != nil {
		return service.RecalcResult{}, err
	}
	defer release()
	return w.runner.Run(ctx)
}

func (w *RecalculationWorker) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.LockTTL())
	defer cancel()

	release, err := w.acquire(ctx)
	if err != nil {
		if errors.Is(err, ErrRecalculationRunning) {
			w.logger.Info("balance recalculation skipped; another run holds the lock")
			return
		}
		w.logger.Error("scheduled balance recalculation not started", zap.Error(err))
		return
	}
	defer release()
	w.runner.RunScheduled(ctx)
}

// acquire takes the run lock. Lock errors count as failed runs and a held
// lock counts as a skipped one.
func (w *RecalculationWorker) acquire(ctx context.Context) (func(), error) {
	acquired, err := w.lock.Acquire(ctx, recalcLockName, w.cfg.LockTTL())
	if err != nil {
		w.metrics.RecordRecalculation(observability.RecalcFailure, 0, 0)
		return nil, fmt.Errorf("acquire recalculation lock: %w", err)
	}
	if !acquired {
		w.metrics.RecordRecalculation(observability.RecalcSkipped, 0, 0)
		return nil, ErrRecalculationRunning
	}
	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := w.lock.Release(releaseCtx, recalcLockName); err != nil {
			w.logger.Warn("release recalculation lock", zap.Error(err))
		}
	}, nil
}

// zapCronLogger adapts zap to cron.Logger.
type zapCronLogger struct {
	logger *zap.Logger
}

func (l zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
