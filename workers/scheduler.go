package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"
)

const (
	JobReconcileDeposits = "reconcile_gateway_deposits"
	JobSweepStaleMatches = "sweep_stale_matches"
)

// DepositReconciler re-polls the gateway for deposits stuck in pending
type DepositReconciler interface {
	ReconcilePendingGatewayDeposits(ctx context.Context, olderThan time.Time) (int, error)
}

// MatchSweeper cancels open matches whose start time has long passed
type MatchSweeper interface {
	SweepStaleMatches(ctx context.Context, cutoff time.Time) (int, error)
}

// JobRecorder receives the outcome of every job run
type JobRecorder interface {
	RecordJob(job string, duration time.Duration, err error)
}

// Config controls job intervals
type Config struct {
	ReconcileInterval  time.Duration
	ReconcileAfter     time.Duration
	StaleMatchInterval time.Duration
	StaleMatchGrace    time.Duration
}

// Scheduler runs the periodic maintenance jobs
type Scheduler struct {
	config     Config
	reconciler DepositReconciler
	sweeper    MatchSweeper
	recorder   JobRecorder
	scheduler  gocron.Scheduler
	now        func() time.Time
}

// NewScheduler creates a scheduler. recorder may be nil.
func NewScheduler(config Config, reconciler DepositReconciler, sweeper MatchSweeper, recorder JobRecorder) (*Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		config:     config,
		reconciler: reconciler,
		sweeper:    sweeper,
		recorder:   recorder,
		scheduler:  sched,
		now:        time.Now,
	}, nil
}

// Start registers the jobs and starts the scheduler. Jobs stop when ctx is cancelled or Shutdown is called.
func (s *Scheduler) Start(ctx context.Context) error {
	jobs := []struct {
		name     string
		interval time.Duration
		run      func(context.Context) error
	}{
		{JobReconcileDeposits, s.config.ReconcileInterval, s.reconcileDeposits},
		{JobSweepStaleMatches, s.config.StaleMatchInterval, s.sweepStaleMatches},
	}

	for _, job := range jobs {
		if job.interval <= 0 {
			log.WithField("job", job.name).Info("Job disabled")
			continue
		}

		name, run := job.name, job.run
		_, err := s.scheduler.NewJob(
			gocron.DurationJob(job.interval),
			gocron.NewTask(func() { s.runJob(ctx, name, run) }),
			gocron.WithName(name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", name, err)
		}

		log.WithFields(log.Fields{
			"job":      name,
			"interval": job.interval,
		}).Info("Scheduled job")
	}

	s.scheduler.Start()
	return nil
}

// Shutdown stops the scheduler and waits for running jobs
func (s *Scheduler) Shutdown() error {
	return s.scheduler.Shutdown()
}

func (s *Scheduler) runJob(ctx context.Context, name string, run func(context.Context) error) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	err := run(ctx)
	elapsed := time.Since(start)

	if s.recorder != nil {
		s.recorder.RecordJob(name, elapsed, err)
	}

	if err != nil {
		log.WithFields(log.Fields{
			"job":   name,
			"error": err,
		}).Error("Scheduled job failed")
	}
}

func (s *Scheduler) reconcileDeposits(ctx context.Context) error {
	settled, err := s.reconciler.ReconcilePendingGatewayDeposits(ctx, s.now().Add(-s.config.ReconcileAfter))
	if err != nil {
		return err
	}
	if settled > 0 {
		log.WithField("settled", settled).Info("Reconciled gateway deposits")
	}
	return nil
}

func (s *Scheduler) sweepStaleMatches(ctx context.Context) error {
	cancelled, err := s.sweeper.SweepStaleMatches(ctx, s.now().Add(-s.config.StaleMatchGrace))
	if err != nil {
		return err
	}
	if cancelled > 0 {
		log.WithField("cancelled", cancelled).Info("Cancelled stale matches")
	}
	return nil
}
