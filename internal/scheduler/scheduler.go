// Package scheduler runs the time-based triggers of the credit ledger. It
// holds no business logic: the jobs delegate to the same services the admin
// endpoints use, so a scheduled run and a manual run are indistinguishable.
package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
	"github.com/vibelabs/vibephoto-backend/internal/services"
)

type Scheduler struct {
	cron    *cron.Cron
	renewal *services.RenewalService
}

func New(renewal *services.RenewalService) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelInfo))
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cronLogger))),
		renewal: renewal,
	}
}

// Start registers the renewal sweep on the given cron expression and starts
// the scheduler.
func (s *Scheduler) Start(renewalSchedule string) error {
	if _, err := s.cron.AddFunc(renewalSchedule, s.runRenewals); err != nil {
		return err
	}
	slog.Info("scheduled renewal sweep", "schedule", renewalSchedule)
	s.cron.Start()
	return nil
}

// Stop returns a context that is done once any running job has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runRenewals() {
	slog.Info("starting scheduled renewal sweep")
	summary, err := s.renewal.Run(context.Background())
	if err != nil {
		slog.Error("scheduled renewal sweep failed", "error", err)
		return
	}
	slog.Info("scheduled renewal sweep finished",
		"processed", summary.TotalProcessed,
		"renewed", summary.TotalRenewed,
		"skipped", summary.TotalSkipped,
	)
}
