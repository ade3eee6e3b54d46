package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	logMsgJobStarted   = "job started"
	logMsgJobFinished  = "job finished"
	logMsgJobFailed    = "job failed"
	logMsgJobPanicked  = "job panicked"
	logMsgJobScheduled = "job scheduled"
	logMsgJobSkipped   = "job skipped"
	logMsgShutdown     = "scheduler stopped"
	logAttrJob         = "job"
	logAttrRunID       = "run_id"
	logAttrInterval    = "interval"
	logAttrDuration    = "duration"
	logAttrError       = "error"
	logAttrPanic       = "panic"
)

// Logger interface used by the scheduler for job lifecycle reporting.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Job is one recurring unit of work. Run receives a context that is
// canceled when the scheduler shuts down.
type Job struct {
	Name       string
	Interval   time.Duration
	RunAtStart bool
	Run        func(ctx context.Context) error
}

// Scheduler drives a set of jobs, each on its own ticker goroutine.
// Because a job's next tick is only consumed after the previous run
// returns, a slow run delays the next one instead of overlapping it.
type Scheduler struct {
	jobs   []Job
	logger Logger
	wg     sync.WaitGroup
}

// New creates a scheduler for the given jobs.
func New(logger Logger, jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs, logger: logger}
}

// Add appends a job. Must not be called after Run.
func (s *Scheduler) Add(job Job) {
	s.jobs = append(s.jobs, job)
}

// Run starts all jobs and blocks until ctx is canceled and every
// job goroutine has returned.
func (s *Scheduler) Run(ctx context.Context) {
	for _, job := range s.jobs {
		if job.Interval <= 0 {
			s.logger.Warn(logMsgJobSkipped, logAttrJob, job.Name, logAttrError, "non-positive interval")
			continue
		}

		s.logger.Info(logMsgJobScheduled, logAttrJob, job.Name, logAttrInterval, job.Interval.String())

		s.wg.Add(1)
		go s.runJobLoop(ctx, job)
	}

	s.wg.Wait()
	s.logger.Info(logMsgShutdown)
}

func (s *Scheduler) runJobLoop(ctx context.Context, job Job) {
	defer s.wg.Done()

	if job.RunAtStart {
		s.runOnce(ctx, job)
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, job)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	if ctx.Err() != nil {
		return
	}

	runID := uuid.New().String()
	start := time.Now()

	s.logger.Debug(logMsgJobStarted, logAttrJob, job.Name, logAttrRunID, runID)

	err := s.safeRun(ctx, job, runID)
	duration := time.Since(start)

	switch {
	case err != nil:
		s.logger.Error(logMsgJobFailed,
			logAttrJob, job.Name,
			logAttrRunID, runID,
			logAttrDuration, duration.String(),
			logAttrError, err.Error())
	default:
		s.logger.Debug(logMsgJobFinished,
			logAttrJob, job.Name,
			logAttrRunID, runID,
			logAttrDuration, duration.String())
	}
}

// safeRun converts a panicking job run into an error so one bad pass
// cannot take the whole process down.
func (s *Scheduler) safeRun(ctx context.Context, job Job, runID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(logMsgJobPanicked, logAttrJob, job.Name, logAttrRunID, runID, logAttrPanic, fmt.Sprintf("%v", r))
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
		}
	}()

	return job.Run(ctx)
}
