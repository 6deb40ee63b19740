// Package scheduler runs the periodic reconciliation refresh. Generation
// only reaches up to a rolling horizon, so reconciliation has to be re-run
// on a schedule to keep newly-due dates populated.
package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"moneta/internal/logger"
	"moneta/internal/services"
)

// Scheduler owns the cron runner for recurring reconciliation.
type Scheduler struct {
	cron *cron.Cron
}

// New builds a scheduler that reconciles on the given cron spec.
func New(recurringService services.RecurringServicer, spec string) (*Scheduler, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		now := time.Now().UTC()
		if err := recurringService.Reconcile(now); err != nil {
			logger.Get().Errorw("scheduled reconciliation failed", "error", err)
			return
		}
		logger.Get().Infow("scheduled reconciliation complete", "now", now.Format(time.RFC3339))
	})
	if err != nil {
		return nil, err
	}
	return &Scheduler{cron: c}, nil
}

// Start launches the cron runner in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the cron runner, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
