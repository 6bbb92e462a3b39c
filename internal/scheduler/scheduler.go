package scheduler

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"realtywizard/server/internal/models"
	"realtywizard/server/internal/queue"
)

// JobType represents the different maintenance jobs
type JobType int

const (
	JobTypeSessionSweep JobType = iota
	JobTypeGeocodeBackfill
)

// String returns the string representation of a JobType
func (j JobType) String() string {
	switch j {
	case JobTypeSessionSweep:
		return "session_sweep"
	case JobTypeGeocodeBackfill:
		return "geocode_backfill"
	default:
		return "unknown"
	}
}

// Sweeper closes idle wizard sessions.
type Sweeper interface {
	Sweep(ttl time.Duration) int
}

// Backlog lists saved properties that still need coordinates.
type Backlog interface {
	PropertiesMissingCoordinates(ctx context.Context, limit int) ([]models.Property, error)
}

// Pusher accepts geocoding batches.
type Pusher interface {
	Push(jobs []queue.Job) error
}

// Scheduler runs the periodic maintenance jobs
type Scheduler struct {
	cron     *cron.Cron
	logger   *logrus.Logger
	sweeper  Sweeper
	ttl      time.Duration
	backlog  Backlog
	pusher   Pusher
	batch    int
	jobMutex sync.Mutex // Ensures sequential job execution
}

// NewScheduler creates a new scheduler
func NewScheduler(sweeper Sweeper, ttl time.Duration, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Scheduler{
		cron:    cron.New(),
		logger:  logger,
		sweeper: sweeper,
		ttl:     ttl,
	}
}

// EnableBackfill makes the backfill job push up to batch properties without
// coordinates to the geocoding queue.
func (s *Scheduler) EnableBackfill(backlog Backlog, pusher Pusher, batch int) {
	s.backlog = backlog
	s.pusher = pusher
	s.batch = batch
}

// Register adds the session sweep and, when enabled, the geocoding backfill.
func (s *Scheduler) Register(sweepSpec, backfillSpec string) error {
	if _, err := s.cron.AddFunc(sweepSpec, s.runSessionSweep); err != nil {
		return fmt.Errorf("invalid %s schedule %q: %w", JobTypeSessionSweep, sweepSpec, err)
	}
	if s.backlog != nil && s.pusher != nil {
		if _, err := s.cron.AddFunc(backfillSpec, s.runGeocodeBackfill); err != nil {
			return fmt.Errorf("invalid %s schedule %q: %w", JobTypeGeocodeBackfill, backfillSpec, err)
		}
	}
	return nil
}

// Start begins the scheduled tasks
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.WithField("jobs", len(s.cron.Entries())).Info("Scheduler started")
}

// Stop gracefully stops the scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runSessionSweep() {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	closed := s.sweeper.Sweep(s.ttl)
	s.logger.WithFields(logrus.Fields{
		"job_type": JobTypeSessionSweep.String(),
		"closed":   closed,
	}).Debug("Scheduled job completed")
}

func (s *Scheduler) runGeocodeBackfill() {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	props, err := s.backlog.PropertiesMissingCoordinates(ctx, s.batch)
	if err != nil {
		s.logger.WithError(err).WithField("job_type", JobTypeGeocodeBackfill.String()).Error("Scheduled job failed")
		return
	}
	if len(props) == 0 {
		return
	}

	jobs := make([]queue.Job, 0, len(props))
	for i := range props {
		jobs = append(jobs, queue.JobFor(&props[i]))
	}
	if err := s.pusher.Push(jobs); err != nil {
		s.logger.WithError(err).WithField("job_type", JobTypeGeocodeBackfill.String()).Warn("Could not queue backfill batch")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"job_type":   JobTypeGeocodeBackfill.String(),
		"properties": len(jobs),
	}).Info("Queued properties for geocoding")
}
