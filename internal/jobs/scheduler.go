// internal/jobs/scheduler.go
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/assetdesk/internal/config"
	"github.com/javajoker/assetdesk/internal/services"
)

// ReminderSweeper sends reminders that have come due.
type ReminderSweeper interface {
	SendDueReminders(ctx context.Context, now time.Time) (services.SweepResult, error)
}

// AssetRecounter repairs drift between stored asset counts and products.
type AssetRecounter interface {
	RecountAssetTypes(ctx context.Context) ([]services.CountCorrection, error)
}

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// jobTimeout bounds a single run of any job.
const jobTimeout = 5 * time.Minute

type Scheduler struct {
	cron      *cron.Cron
	reminders ReminderSweeper
	recounter AssetRecounter
	now       func() time.Time
}

func NewScheduler(cfg config.SchedulerConfig, reminders ReminderSweeper, recounter AssetRecounter) (*Scheduler, error) {
	logger := cron.PrintfLogger(logrus.StandardLogger())
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithParser(cronParser),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		reminders: reminders,
		recounter: recounter,
		now:       time.Now,
	}

	if _, err := s.cron.AddFunc(cfg.ReminderSpec, func() { s.RunReminderSweep(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", cfg.ReminderSpec, err)
	}
	if _, err := s.cron.AddFunc(cfg.RecountSpec, func() { s.RunRecount(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid recount schedule %q: %w", cfg.RecountSpec, err)
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logrus.WithField("jobs", len(s.cron.Entries())).Info("Scheduler started")
}

// Stop prevents new runs and returns a context that is done once running
// jobs have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) RunReminderSweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	if _, err := s.reminders.SendDueReminders(ctx, s.now().UTC()); err != nil {
		logrus.WithError(err).Error("Reminder sweep failed")
	}
}

func (s *Scheduler) RunRecount(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	corrections, err := s.recounter.RecountAssetTypes(ctx)
	if err != nil {
		logrus.WithError(err).Error("Asset count reconciliation failed")
		return
	}
	logrus.WithField("corrected", len(corrections)).Info("Asset count reconciliation finished")
}
