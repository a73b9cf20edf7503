package job

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler periodically submits an aggregation job for every company,
// additive to the HTTP-triggered submission path. Grounded on
// ternarybob-quaero's use of robfig/cron for its own background jobs.
type Scheduler struct {
	cron        *cron.Cron
	coordinator *Coordinator
	log         *logrus.Entry
}

func NewScheduler(coordinator *Coordinator, log *logrus.Entry) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		coordinator: coordinator,
		log:         log,
	}
}

// Start registers a periodic aggregation run at the given cron
// expression and starts the scheduler's own goroutine.
func (s *Scheduler) Start(ctx context.Context, expr string) error {
	_, err := s.cron.AddFunc(expr, func() {
		if _, err := s.coordinator.Submit(ctx, AllCompanies, KindAggregation); err != nil {
			if _, already := err.(ErrAlreadyRunning); already {
				s.log.Debug("scheduled aggregation skipped: already running")
				return
			}
			s.log.WithError(err).Error("scheduled aggregation submission failed")
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}
