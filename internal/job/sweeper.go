package job

import (
	"context"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const defaultSweepSpec = "@every 10m"

// Sweepable is anything that can drop its expired entries
type Sweepable interface {
	Sweep() int
}

// Sweeper periodically evicts expired runs on a cron schedule.
type Sweeper struct {
	spec   string
	target Sweepable
	logger *zap.Logger
	cron   *cron.Cron
}

// NewSweeper builds a sweeper for target. An empty spec means every ten minutes.
func NewSweeper(spec string, target Sweepable, logger *zap.Logger) *Sweeper {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		spec = defaultSweepSpec
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{spec: spec, target: target, logger: logger}
}

// Start registers the sweep and returns a function that stops it.
// The sweep also stops when parent is cancelled.
func (s *Sweeper) Start(parent context.Context) (context.CancelFunc, error) {
	c := cron.New()
	if _, err := c.AddFunc(s.spec, s.RunOnce); err != nil {
		return func() {}, err
	}
	s.cron = c
	c.Start()
	s.logger.Info("run sweeper started", zap.String("cron", s.spec))

	var once sync.Once
	stop := func() {
		once.Do(func() {
			<-c.Stop().Done()
			s.logger.Info("run sweeper stopped")
		})
	}

	go func() {
		<-parent.Done()
		stop()
	}()

	return stop, nil
}

// RunOnce evicts expired entries immediately.
func (s *Sweeper) RunOnce() {
	if removed := s.target.Sweep(); removed > 0 {
		s.logger.Debug("expired runs evicted", zap.Int("removed", removed))
	}
}
