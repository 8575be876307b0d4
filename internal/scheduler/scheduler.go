// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/logging"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/metrics"
)

// defaultJobTimeout bounds a single job run
const defaultJobTimeout = time.Minute

// Job is one unit of periodic work
type Job func(ctx context.Context) error

// OTPPurger removes expired password reset codes
type OTPPurger interface {
	PurgeExpiredOTPs(ctx context.Context, now time.Time) (int64, error)
}

// DepthSource reports the depth of the payment queues
type DepthSource interface {
	GetQueueDepth() (int, error)
	GetDLQDepth() (int, error)
}

// Scheduler runs registered jobs on their cron schedules
type Scheduler struct {
	cron    *cron.Cron
	logger  *logging.Logger
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	running map[string]bool
}

// New creates a scheduler using standard five-field cron specs and
// descriptors such as "@every 15m"
func New(logger *logging.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		logger:  logger,
		timeout: defaultJobTimeout,
		ctx:     ctx,
		cancel:  cancel,
		running: make(map[string]bool),
	}
}

// AddJob registers job under name on spec
func (s *Scheduler) AddJob(name, spec string, job Job) error {
	if _, err := s.cron.AddFunc(spec, func() { s.Run(name, job) }); err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", spec, name, err)
	}

	s.logger.WithField("job", name).WithField("spec", spec).Info("Scheduled job registered")
	return nil
}

// Run executes job once. A run is skipped while a previous run of the same
// job is still in progress.
func (s *Scheduler) Run(name string, job Job) {
	s.mu.Lock()
	if s.running[name] {
		s.mu.Unlock()
		metrics.RecordScheduledJob(name, "skipped")
		s.logger.WithField("job", name).Warn("Previous run still in progress, skipping")
		return
	}
	s.running[name] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.running, name)
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	if err := job(ctx); err != nil {
		metrics.RecordScheduledJob(name, "failure")
		s.logger.WithField("job", name).WithError(err).Error("Scheduled job failed")
		return
	}

	metrics.RecordScheduledJob(name, "success")
	s.logger.WithField("job", name).WithField("duration_ms", time.Since(start).Milliseconds()).Debug("Scheduled job completed")
}

// Start begins running scheduled jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started")
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// PurgeExpiredOTPsJob clears password reset codes past their expiry
func PurgeExpiredOTPsJob(purger OTPPurger, logger *logging.Logger) Job {
	return func(ctx context.Context) error {
		purged, err := purger.PurgeExpiredOTPs(ctx, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to purge expired OTPs: %w", err)
		}
		if purged > 0 {
			logger.Infof("Purged %d expired password reset codes", purged)
		}
		return nil
	}
}

// QueueDepthJob exports the payment queue and dead letter queue depths
func QueueDepthJob(source DepthSource, queueName, dlqName string) Job {
	return func(ctx context.Context) error {
		depth, err := source.GetQueueDepth()
		if err != nil {
			return err
		}
		metrics.SetQueueDepth(queueName, depth)

		dlqDepth, err := source.GetDLQDepth()
		if err != nil {
			return err
		}
		metrics.SetQueueDepth(dlqName, dlqDepth)

		return nil
	}
}
