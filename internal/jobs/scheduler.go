// Package jobs hosts background cron work.
package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// CounterReconciler repairs stored vote counters from the vote ledger.
type CounterReconciler interface {
	ReconcileCounters(ctx context.Context) (int64, error)
}

type Scheduler struct {
	cron       *cron.Cron
	reconciler CounterReconciler
	schedule   string
}

func NewScheduler(reconciler CounterReconciler, schedule string) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		reconciler: reconciler,
		schedule:   schedule,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunReconcile(ctx) }); err != nil {
		return err
	}

	s.cron.Start()
	log.WithField("schedule", s.schedule).Info("[CRON] scheduler started")
	return nil
}

// RunReconcile performs one reconciliation pass. Failures are logged, never fatal.
func (s *Scheduler) RunReconcile(ctx context.Context) {
	fixed, err := s.reconciler.ReconcileCounters(ctx)
	if err != nil {
		log.WithError(err).Error("[CRON] vote counter reconciliation failed")
		return
	}
	log.WithField("repaired", fixed).Debug("[CRON] vote counter reconciliation finished")
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("[CRON] scheduler stopped")
}
