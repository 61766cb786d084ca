package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/localrank/backend/internal/domain"
	"github.com/localrank/backend/internal/metrics"
	"go.uber.org/zap"
)

// streamBuffer lets a run get slightly ahead of a slow consumer
const streamBuffer = 16

// Orchestrator drives every row of a run, strictly one after another
type Orchestrator struct {
	processor *QueryProcessor
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrchestrator creates an orchestrator around a query processor
func NewOrchestrator(processor *QueryProcessor, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{processor: processor, logger: logger, now: time.Now}
}

// Run processes rows in order and returns the completed result.
//
// Progress events are sent on events before each row, after each page fetch
// and after each row. A nil events channel disables progress reporting. Run
// never sends the terminal event itself; see Stream.
//
// The first provider error aborts the run. When ctx is cancelled no further
// provider calls are made and the error wraps domain.ErrStreamDisconnected.
func (o *Orchestrator) Run(
	ctx context.Context,
	runID string,
	rows []domain.QueryRow,
	locale domain.Locale,
	events chan<- domain.Event,
) (*domain.RunResult, error) {
	if len(rows) == 0 {
		return nil, domain.InputError(domain.ErrNoValidRows)
	}

	run := NewRunContext(runID, locale, len(rows), o.now)
	emit := func() error {
		if events == nil {
			return nil
		}
		select {
		case events <- domain.ProgressEvent(run.Progress()):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	run.onPage = emit

	logger := o.logger.With(zap.String("run_id", runID))
	logger.Info("run started",
		zap.Int("queries", run.Total),
		zap.String("gl", run.Locale.GL),
		zap.String("hl", run.Locale.HL))

	result, err := o.runRows(ctx, run, rows, emit)
	status := runStatus(err)
	metrics.ObserveRun(string(status), run.Elapsed())

	fields := []zap.Field{
		zap.String("status", string(status)),
		zap.Int("processed", run.Stats.QueriesProcessed),
		zap.Int("places", run.Stats.PlacesFound),
		zap.Int("api_calls", run.Stats.APICallsMade),
		zap.Duration("elapsed", run.Elapsed()),
	}
	switch status {
	case domain.RunStatusCompleted:
		logger.Info("run completed", fields...)
	case domain.RunStatusCancelled:
		logger.Info("run cancelled by consumer", fields...)
	default:
		logger.Error("run failed", append(fields, zap.Error(err))...)
	}
	return result, err
}

func (o *Orchestrator) runRows(ctx context.Context, run *RunContext, rows []domain.QueryRow, emit func() error) (*domain.RunResult, error) {
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, disconnected(err)
		}

		run.Stats.CurrentQuery = row.Keyword
		run.Stats.CurrentPage = 0
		if err := emit(); err != nil {
			return nil, disconnected(err)
		}

		if _, err := o.processor.Process(ctx, run, row); err != nil {
			if ctx.Err() != nil {
				return nil, disconnected(ctx.Err())
			}
			return nil, err
		}

		run.Stats.QueriesProcessed++
		run.refreshRates()
		if err := emit(); err != nil {
			return nil, disconnected(err)
		}
	}
	return run.Result(), nil
}

// Stream runs the pipeline on its own goroutine and returns its events.
// The last event is either complete or error, after which the channel is
// closed. When ctx is cancelled the channel is closed without a terminal event.
func (o *Orchestrator) Stream(
	ctx context.Context,
	runID string,
	rows []domain.QueryRow,
	locale domain.Locale,
) <-chan domain.Event {
	events := make(chan domain.Event, streamBuffer)

	go func() {
		defer close(events)

		result, err := o.Run(ctx, runID, rows, locale, events)
		if errors.Is(err, domain.ErrStreamDisconnected) {
			return
		}

		final := domain.CompleteEvent(result)
		if err != nil {
			final = domain.ErrorEvent(err)
		}
		select {
		case events <- final:
		case <-ctx.Done():
		}
	}()

	return events
}

func disconnected(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrStreamDisconnected, err)
}

func runStatus(err error) domain.RunStatus {
	switch {
	case err == nil:
		return domain.RunStatusCompleted
	case errors.Is(err, domain.ErrStreamDisconnected):
		return domain.RunStatusCancelled
	default:
		return domain.RunStatusFailed
	}
}
