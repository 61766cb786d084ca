package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/localrank/backend/internal/domain"
	"go.uber.org/zap"
)

// RunServiceConfig holds configuration for the run service
type RunServiceConfig struct {
	TTL           time.Duration
	HistoryLimit  int
	PreviewLimit  int
	DefaultLocale domain.Locale
	Logger        *zap.Logger
}

// RunService starts runs and keeps their outcome around for downloads
type RunService struct {
	orchestrator  *Orchestrator
	runs          domain.RunRepository
	ttl           time.Duration
	historyLimit  int
	previewLimit  int
	defaultLocale domain.Locale
	logger        *zap.Logger
	now           func() time.Time
	newID         func() string
}

// RunPreview is the compact view of a finished run
type RunPreview struct {
	Run             *domain.Run          `json:"run"`
	Stats           *domain.RunStats     `json:"stats,omitempty"`
	Preview         []domain.PlaceResult `json:"preview"`
	Representatives int                  `json:"representatives"`
}

// NewRunService creates a new run service with dependencies
func NewRunService(orchestrator *Orchestrator, runs domain.RunRepository, config RunServiceConfig) *RunService {
	ttl := config.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	historyLimit := config.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = 10
	}
	previewLimit := config.PreviewLimit
	if previewLimit <= 0 {
		previewLimit = 100
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RunService{
		orchestrator:  orchestrator,
		runs:          runs,
		ttl:           ttl,
		historyLimit:  historyLimit,
		previewLimit:  previewLimit,
		defaultLocale: config.DefaultLocale.WithDefaults(),
		logger:        logger,
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

// Process runs rows to completion and returns the finished run.
// The run record is kept even when processing fails.
func (s *RunService) Process(ctx context.Context, fileName string, rows []domain.QueryRow, locale domain.Locale) (*domain.Run, error) {
	run := s.begin(ctx, fileName, rows, locale)

	result, err := s.orchestrator.Run(ctx, run.ID, rows, run.Locale, nil)
	s.finish(ctx, run, result, err)
	return run, err
}

// Stream starts a run in the background and returns its record and events.
// The events follow Orchestrator.Stream. The record is updated once the
// stream ends, including when ctx is cancelled.
func (s *RunService) Stream(ctx context.Context, fileName string, rows []domain.QueryRow, locale domain.Locale) (*domain.Run, <-chan domain.Event) {
	run := s.begin(ctx, fileName, rows, locale)
	snapshot := *run

	in := s.orchestrator.Stream(ctx, run.ID, rows, run.Locale)
	out := make(chan domain.Event, streamBuffer)

	go func() {
		defer close(out)

		var (
			result *domain.RunResult
			err    error = domain.ErrStreamDisconnected
		)
		for ev := range in {
			switch ev.Type {
			case domain.EventComplete:
				result, err = ev.Result, nil
			case domain.EventError:
				err = ev.Err
			}
			select {
			case out <- ev:
			case <-ctx.Done():
			}
		}
		s.finish(ctx, run, result, err)
	}()

	return &snapshot, out
}

// Get returns a run by ID
func (s *RunService) Get(ctx context.Context, id string) (*domain.Run, error) {
	return s.runs.Get(ctx, id)
}

// List returns the most recent runs, newest first
func (s *RunService) List(ctx context.Context) ([]*domain.Run, error) {
	return s.runs.List(ctx, s.historyLimit)
}

// Results returns the full result of a completed run
func (s *RunService) Results(ctx context.Context, id string) (*domain.Run, *domain.RunResult, error) {
	run, err := s.runs.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if run.Status != domain.RunStatusCompleted || run.Result == nil {
		return run, nil, domain.ErrRunIncomplete
	}
	return run, run.Result, nil
}

// Preview returns the run with its reduced results, capped at the preview limit
func (s *RunService) Preview(ctx context.Context, id string) (*RunPreview, error) {
	run, err := s.runs.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	preview := &RunPreview{Run: run, Preview: []domain.PlaceResult{}}
	if run.Result == nil {
		return preview, nil
	}

	stats := run.Result.Stats
	preview.Stats = &stats
	reduced := ReduceResults(run.Result.AllPlaces)
	preview.Representatives = len(reduced)
	if len(reduced) > s.previewLimit {
		reduced = reduced[:s.previewLimit]
	}
	preview.Preview = reduced
	return preview, nil
}

func (s *RunService) begin(ctx context.Context, fileName string, rows []domain.QueryRow, locale domain.Locale) *domain.Run {
	if locale.GL == "" {
		locale.GL = s.defaultLocale.GL
	}
	if locale.HL == "" {
		locale.HL = s.defaultLocale.HL
	}

	run := &domain.Run{
		ID:           s.newID(),
		FileName:     fileName,
		Locale:       locale.WithDefaults(),
		TotalQueries: len(rows),
		Status:       domain.RunStatusRunning,
		StartedAt:    s.now(),
	}
	s.save(ctx, run)
	return run
}

func (s *RunService) finish(ctx context.Context, run *domain.Run, result *domain.RunResult, err error) {
	run.FinishedAt = s.now()
	run.Result = result
	run.Status = runStatus(err)
	if err != nil && !errors.Is(err, domain.ErrStreamDisconnected) {
		run.Error = err.Error()
	}
	s.save(context.WithoutCancel(ctx), run)
}

// save stores run, logging failures
func (s *RunService) save(ctx context.Context, run *domain.Run) {
	if err := s.runs.Save(ctx, run, s.ttl); err != nil {
		s.logger.Warn("failed to save run", zap.String("run_id", run.ID), zap.Error(err))
	}
}
