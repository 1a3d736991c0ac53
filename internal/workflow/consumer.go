// Package workflow runs the background consumer: a poll loop that reclaims
// expired leases, claims pending jobs, and drives each one through the
// processing pipeline with a bounded retry budget.
package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"intervue/internal/config"
	"intervue/internal/logging"
	"intervue/internal/processor"
	"intervue/internal/queue"
	"intervue/internal/services"
)

// Consumer polls the queue and processes claimed jobs one at a time.
type Consumer struct {
	store     *queue.Store
	processor *processor.Processor
	logger    *slog.Logger

	pollInterval       time.Duration
	errorRetryInterval time.Duration
	maxAttempts        int
	lease              time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewConsumer constructs a consumer from configuration.
func NewConsumer(cfg *config.Config, store *queue.Store, proc *processor.Processor, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Consumer{
		store:              store,
		processor:          proc,
		logger:             logging.NewComponentLogger(logger, "workflow"),
		pollInterval:       time.Duration(cfg.Workflow.PollInterval) * time.Second,
		errorRetryInterval: time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		maxAttempts:        cfg.Workflow.MaxAttempts,
		lease:              time.Duration(cfg.Workflow.LeaseSeconds) * time.Second,
	}
}

// Start begins background processing.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("consumer already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.running = true
	c.wg.Add(1)
	c.mu.Unlock()

	go c.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for the in-flight job to
// finish or abort.
func (c *Consumer) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	c.running = false
	c.cancel = nil
	c.mu.Unlock()

	cancel()
	c.wg.Wait()
}

func (c *Consumer) run(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if reclaimed, err := c.store.ReclaimExpired(ctx); err != nil {
			c.logger.Warn("reclaim expired leases failed; stuck jobs may remain",
				logging.Error(err),
				logging.String(logging.FieldEventType, "lease_reclaim_failed"))
		} else if reclaimed > 0 {
			c.logger.Info("expired leases reclaimed",
				logging.Int64("job_count", reclaimed),
				logging.String(logging.FieldEventType, "lease_reclaimed"))
		}

		job, err := c.store.Claim(ctx, c.lease)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("failed to claim next job",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_claim_failed"))
			c.sleep(ctx, c.errorRetryInterval)
			continue
		}
		if job == nil {
			c.sleep(ctx, c.pollInterval)
			continue
		}

		if err := c.processJob(ctx, job); err != nil && errors.Is(err, context.Canceled) {
			return
		}
	}
}

// ProcessOnce claims and processes at most one runnable job. It returns the
// job that ran, or nil when the queue had nothing runnable. Used by tests and
// the foreground drain path.
func (c *Consumer) ProcessOnce(ctx context.Context) (*queue.Job, error) {
	if _, err := c.store.ReclaimExpired(ctx); err != nil {
		return nil, err
	}
	job, err := c.store.Claim(ctx, c.lease)
	if err != nil || job == nil {
		return nil, err
	}
	return job, c.processJob(ctx, job)
}

func (c *Consumer) processJob(ctx context.Context, job *queue.Job) error {
	jobCtx := services.WithSessionID(ctx, job.SessionID)
	jobCtx = services.WithRequestID(jobCtx, uuid.NewString())

	logger := c.logger.With(
		logging.Int64("job_id", job.ID),
		logging.String(logging.FieldSessionID, job.SessionID),
		logging.String(logging.FieldUserID, job.UserID),
		logging.Int("attempt", job.Attempts),
	)
	logger.Info("job claimed", logging.String(logging.FieldEventType, "job_started"))

	err := c.processor.Process(jobCtx, job.UserID, job.SessionID)
	if err == nil {
		if markErr := c.store.MarkCompleted(ctx, job.ID); markErr != nil {
			logger.Error("mark job completed", logging.Error(markErr))
			return markErr
		}
		logger.Info("job completed", logging.String(logging.FieldEventType, "job_completed"))
		return nil
	}

	if errors.Is(err, context.Canceled) {
		// Shutdown mid-job: leave the lease in place so the job is
		// redelivered after it expires.
		logger.Info("job interrupted by shutdown",
			logging.String(logging.FieldEventType, "job_interrupted"))
		return err
	}

	if services.IsRetryable(err) && job.Attempts < c.maxAttempts {
		requeued, requeueErr := c.store.Requeue(ctx, job.ID, err.Error())
		if requeueErr != nil {
			logger.Error("requeue job", logging.Error(requeueErr))
			return requeueErr
		}
		logger.Warn("job requeued for retry",
			logging.Error(err),
			logging.String(logging.FieldEventType, "job_requeued"),
			logging.String(logging.FieldErrorKind, services.FailureKind(err)),
			logging.String("next_attempt_at", requeued.NextAttemptAt.Format(time.RFC3339)))
		return nil
	}

	if markErr := c.store.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
		logger.Error("mark job failed", logging.Error(markErr))
		return markErr
	}
	logger.Error("job failed",
		logging.Error(err),
		logging.String(logging.FieldEventType, "job_failed"),
		logging.String(logging.FieldErrorKind, services.FailureKind(err)))
	return nil
}

func (c *Consumer) sleep(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		delay = time.Second
	}
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}
