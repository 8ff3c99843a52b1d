package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/aldorifkifirmansyah/LetVision/internal/history"
)

// DefaultSchedule runs retention cleanup daily at 03:00.
const DefaultSchedule = "0 3 * * *"

// cleanupTimeout bounds a single cleanup run.
const cleanupTimeout = 2 * time.Minute

// Cleaner removes expired history records.
type Cleaner interface {
	CleanupExpired(ctx context.Context, window history.Retention) ([]string, error)
}

// Scheduler runs retention cleanup at startup and then on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	cleaner  Cleaner
	window   history.Retention
	schedule string
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance. An empty schedule uses DefaultSchedule.
func NewScheduler(cleaner Cleaner, window history.Retention, schedule string, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if window.IsZero() {
		window = history.DefaultRetention
	}

	// Standard 5-field parser (min, hour, dom, month, dow).
	c := cron.New()

	return &Scheduler{
		cron:     c,
		cleaner:  cleaner,
		window:   window,
		schedule: schedule,
		logger:   logger,
	}
}

// Start runs one cleanup immediately, then schedules the periodic job.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule), zap.String("retention", s.window.String()))

	s.RunOnce(ctx)

	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running cleanup to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// RunOnce performs a single cleanup pass. Failures are logged, not returned.
func (s *Scheduler) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, cleanupTimeout)
	defer cancel()

	removed, err := s.cleaner.CleanupExpired(ctx, s.window)
	if err != nil {
		s.logger.Error("retention cleanup failed", zap.Error(err), zap.Int("removed", len(removed)))
		return
	}
	s.logger.Debug("retention cleanup finished", zap.Int("removed", len(removed)))
}
