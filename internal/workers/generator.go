// Package workers contains the background consumers that drain the job
// queue: recurring-task generation and per-owner sweeps.
package workers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nicunursekatie/adhd-planner/internal/queue"
	"github.com/nicunursekatie/adhd-planner/internal/store"
)

// Generator processes recurring-task generation jobs against per-owner
// sessions.
type Generator struct {
	sessions *store.Manager
	jobQueue queue.JobQueue // for re-enqueueing delayed retries
	log      *zap.Logger
	now      func() time.Time
}

// NewGenerator builds a generation worker.
func NewGenerator(sessions *store.Manager, jobQueue queue.JobQueue, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{
		sessions: sessions,
		jobQueue: jobQueue,
		log:      log,
		now:      time.Now,
	}
}

// Run consumes jobs until ctx is cancelled or the delivery stream dies.
func (g *Generator) Run(ctx context.Context, prefetch int) error {
	msgs, errs, err := g.jobQueue.Consume(ctx, prefetch)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case consumeErr, ok := <-errs:
			if !ok {
				return nil
			}
			g.log.Error("consume_stream_failed", zap.Error(consumeErr))
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := g.ProcessJob(ctx, msg); err != nil {
				g.log.Warn("job_processing_failed",
					zap.String("job_id", msg.GetJob().ID.String()),
					zap.String("job_type", string(msg.GetJob().Type)),
					zap.Error(err))
			}
		}
	}
}

// ProcessJob dispatches one delivery by job type and settles its ack state.
func (g *Generator) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	switch job.Type {
	case queue.JobTypeGenerateRecurring:
		if err := g.processGenerate(ctx, job); err != nil {
			return g.handleJobError(ctx, msg, job, err)
		}
	case queue.JobTypeOwnerSweep:
		if err := g.processSweep(ctx, job); err != nil {
			return g.handleJobError(ctx, msg, job, err)
		}
	default:
		// Unknown type goes straight to the DLQ.
		if nackErr := msg.Nack(false); nackErr != nil {
			g.log.Warn("nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack job: %w", ackErr)
	}
	return nil
}

func (g *Generator) processGenerate(ctx context.Context, job *queue.Job) error {
	if job.RecurringTaskID == "" {
		return fmt.Errorf("recurring_task_id is required for generation job")
	}
	st, err := g.sessions.Get(ctx, job.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to load session for %s: %w", job.OwnerID, err)
	}
	task, err := st.GenerateTaskFromRecurring(ctx, job.RecurringTaskID)
	if err != nil {
		return err
	}
	if task == nil {
		// Template deleted between enqueue and processing; nothing to do.
		g.log.Info("recurring_template_gone",
			zap.String("owner_id", job.OwnerID),
			zap.String("recurring_task_id", job.RecurringTaskID))
	}
	return nil
}

func (g *Generator) processSweep(ctx context.Context, job *queue.Job) error {
	st, err := g.sessions.Get(ctx, job.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to load session for %s: %w", job.OwnerID, err)
	}
	generated, err := st.GenerateDueRecurring(ctx, g.now())
	if len(generated) > 0 {
		g.log.Info("owner_sweep_generated",
			zap.String("owner_id", job.OwnerID),
			zap.Int("tasks", len(generated)))
	}
	return err
}

// handleJobError retries through the delayed exchange while budget lasts,
// then dead-letters.
func (g *Generator) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) error {
	if job.CanRetry() && g.jobQueue != nil {
		notBefore := g.now().Add(retryDelay(job.RetryCount))
		retry := *job
		retry.NotBefore = &notBefore
		retry.RetryCount++

		if ackErr := msg.Ack(); ackErr != nil {
			g.log.Warn("ack_before_retry_failed", zap.Error(ackErr))
		}
		if enqueueErr := g.jobQueue.Enqueue(ctx, &retry); enqueueErr != nil {
			return fmt.Errorf("failed to re-enqueue job %s: %w", job.ID, enqueueErr)
		}
		g.log.Info("job_retry_scheduled",
			zap.String("job_id", job.ID.String()),
			zap.Int("attempt", retry.RetryCount),
			zap.Time("not_before", notBefore),
			zap.Error(err))
		return nil
	}

	if nackErr := msg.Nack(false); nackErr != nil {
		g.log.Warn("nack_to_dlq_failed", zap.Error(nackErr))
	}
	return fmt.Errorf("job failed (max retries): %w", err)
}

func retryDelay(retryCount int) time.Duration {
	return time.Duration(retryCount+1) * 30 * time.Second
}
