package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/config"
	"github.com/mamadbah2/herdbook/internal/domain/models"
	"github.com/mamadbah2/herdbook/internal/service/diet"
	"github.com/mamadbah2/herdbook/internal/service/notify"
	"github.com/mamadbah2/herdbook/internal/service/reporting"
)

// Consumption is the diet service capability the daily job drives.
type Consumption interface {
	AdvanceDay(ctx context.Context, today time.Time) (diet.DaySummary, error)
	ListInventory(ctx context.Context) ([]models.InventoryItem, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron        *cron.Cron
	schedule    string
	location    *time.Location
	consumption Consumption
	notifier    notify.Notifier
	now         func() time.Time
	logger      *zap.Logger
}

// NewScheduler creates a scheduler that advances the feed consumption day on
// cfg.CronSchedule, evaluated in cfg.Timezone.
func NewScheduler(cfg config.ConsumptionConfig, consumption Consumption, notifier notify.Notifier, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.NewLog(logger)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	return &Scheduler{
		cron:        cron.New(cron.WithLocation(loc)),
		schedule:    cfg.CronSchedule,
		location:    loc,
		consumption: consumption,
		notifier:    notifier,
		now:         time.Now,
		logger:      logger,
	}, nil
}

// Start registers the daily job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runDaily); err != nil {
		return fmt.Errorf("schedule daily consumption %q: %w", s.schedule, err)
	}
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule), zap.String("timezone", s.location.String()))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits up to timeout for a running job.
func (s *Scheduler) Stop(timeout time.Duration) {
	s.logger.Info("stopping scheduler")
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-time.After(timeout):
		s.logger.Warn("scheduled job still running after stop timeout")
	}
}

func (s *Scheduler) runDaily() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if _, err := s.RunDaily(ctx); err != nil {
		s.logger.Error("daily consumption finished with errors", zap.Error(err))
	}
}

// RunDaily advances the consumption day to today in the scheduler's timezone
// and notifies the operator of what was consumed.
func (s *Scheduler) RunDaily(ctx context.Context) (diet.DaySummary, error) {
	today := s.now().In(s.location)
	s.logger.Info("advancing consumption day", zap.Time("today", today))

	summary, runErr := s.consumption.AdvanceDay(ctx, today)
	if summary.Applied == 0 && summary.Failed == 0 && len(summary.Depleted) == 0 {
		return summary, runErr
	}

	items, err := s.consumption.ListInventory(ctx)
	if err != nil {
		s.logger.Warn("inventory lookup for notification failed", zap.Error(err))
	}
	if err := s.notifier.Notify(ctx, reporting.DailyConsumptionMessage(summary, items)); err != nil {
		s.logger.Error("failed to send consumption summary", zap.Error(err))
	}
	return summary, runErr
}
