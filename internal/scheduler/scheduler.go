package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/shiftwise/shiftwise/internal/capacity"
	"github.com/shiftwise/shiftwise/internal/models"

	log "github.com/sirupsen/logrus"
)

// Scheduler runs reconciliation passes on a cron schedule.
type Scheduler struct {
	cron       *cron.Cron
	reconciler *capacity.Reconciler
}

// New constructs a Scheduler for the given cron spec. An empty spec
// returns a nil scheduler, which disables scheduled passes.
func New(reconciler *capacity.Reconciler, spec string) (*Scheduler, error) {
	if spec == "" {
		return nil, nil
	}
	if reconciler == nil {
		return nil, fmt.Errorf("scheduler: nil reconciler")
	}

	s := &Scheduler{cron: cron.New(), reconciler: reconciler}
	if _, errAdd := s.cron.AddFunc(spec, s.runPass); errAdd != nil {
		return nil, fmt.Errorf("scheduler: invalid schedule %q: %w", spec, errAdd)
	}
	return s, nil
}

// Start begins scheduled passes and stops them when ctx is cancelled.
// Cancellation between organizations is safe: completed corrections keep
// their audit trail, unprocessed organizations wait for the next pass.
func (s *Scheduler) Start(ctx context.Context) {
	if s == nil || s.cron == nil {
		return
	}
	s.cron.Start()
	go func() {
		<-ctx.Done()
		stopCtx := s.cron.Stop()
		<-stopCtx.Done()
	}()
}

// runPass executes one scheduled reconciliation pass.
func (s *Scheduler) runPass() {
	result, errRun := s.reconciler.Run(context.Background(), capacity.Trigger{Source: models.TriggerScheduled})
	if errRun != nil {
		log.WithError(errRun).Error("scheduled reconciliation pass failed")
		return
	}
	if errPartial := result.PartialFailure(); errPartial != nil {
		log.WithError(errPartial).WithField("pass_id", result.PassID).Warn("scheduled reconciliation pass partially failed")
	}
}
