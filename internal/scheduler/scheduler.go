// Package scheduler runs the periodic maintenance jobs: analytics event
// pruning and tracker buffer flushing.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Default maintenance cadence, used when the config store has no override.
const (
	DefaultRetentionDays        = 30
	DefaultFlushIntervalSeconds = 10
)

// Pruner deletes events older than the cutoff.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// Flusher drains buffered analytics events to storage.
type Flusher interface {
	Flush(ctx context.Context)
}

// ConfigSource resolves tunables by dotted path; nil means not configured.
type ConfigSource interface {
	Get(path string) any
}

// Scheduler manages scheduled tasks for the application.
type Scheduler struct {
	scheduler *gocron.Scheduler
	pruner    Pruner
	flusher   Flusher
	config    ConfigSource
	log       *zap.SugaredLogger
}

// New creates a new scheduler instance.
func New(pruner Pruner, flusher Flusher, config ConfigSource, log *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		pruner:    pruner,
		flusher:   flusher,
		config:    config,
		log:       log,
	}
}

// Start begins running all scheduled tasks. The flush interval is read once
// at startup; retention is re-read on every prune run so overrides take
// effect without a restart.
func (s *Scheduler) Start() {
	s.scheduler.Every(1).Day().At("03:00").Do(s.pruneOldEvents)

	interval := s.intSetting("analytics.flushIntervalSeconds", DefaultFlushIntervalSeconds)
	s.scheduler.Every(interval).Seconds().Do(func() {
		s.flusher.Flush(context.Background())
	})

	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// RunPruneNow forces an immediate prune pass.
func (s *Scheduler) RunPruneNow(ctx context.Context) (int64, error) {
	retention := s.intSetting("analytics.retentionDays", DefaultRetentionDays)
	cutoff := time.Now().AddDate(0, 0, -retention)
	return s.pruner.Prune(ctx, cutoff)
}

func (s *Scheduler) pruneOldEvents() {
	deleted, err := s.RunPruneNow(context.Background())
	if err != nil {
		s.log.Warnw("failed to prune analytics events", "error", err)
		return
	}
	if deleted > 0 {
		s.log.Infow("pruned analytics events", "deleted", deleted)
	}
}

func (s *Scheduler) intSetting(path string, fallback int) int {
	if s.config == nil {
		return fallback
	}
	switch v := s.config.Get(path).(type) {
	case int:
		if v > 0 {
			return v
		}
	case float64:
		if v > 0 {
			return int(v)
		}
	}
	return fallback
}
