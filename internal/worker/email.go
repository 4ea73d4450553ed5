package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tablekit/backend/pkg/mailer"
	"github.com/tablekit/backend/pkg/metrics"
	"github.com/tablekit/backend/pkg/queue"
)

// JobSource is the queue the processor drains.
type JobSource interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) (bool, error)
}

// EmailProcessor delivers queued email jobs.
type EmailProcessor struct {
	sender  mailer.Sender
	queue   JobSource
	logger  *zap.Logger
	backoff time.Duration
	timeout time.Duration
}

// NewEmailProcessor creates an email processor.
func NewEmailProcessor(sender mailer.Sender, q JobSource, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{
		sender:  sender,
		queue:   q,
		logger:  logger,
		backoff: queue.RetryBackoff,
		timeout: 30 * time.Second,
	}
}

// Process executes one email job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.RecipientEmail == "" {
		return fmt.Errorf("job %s has no recipient", job.ID)
	}

	sendCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.sender.Send(sendCtx, mailer.Message{
		To:      []string{payload.RecipientEmail},
		Subject: payload.Subject,
		HTML:    payload.BodyHTML,
	}); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	fields := []zap.Field{zap.String("job_id", job.ID), zap.String("template", payload.Template)}
	if payload.UserID != nil {
		fields = append(fields, zap.String("user_id", payload.UserID.String()))
	}
	p.logger.Info("email delivered", fields...)
	return nil
}

// Handle processes one job and retries it on failure.
func (p *EmailProcessor) Handle(ctx context.Context, job *queue.Job) {
	start := time.Now()
	p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)), zap.Int("attempt", job.Attempt))
	err := p.Process(ctx, job)
	if err == nil {
		metrics.RecordQueueJob(string(job.Type), "success", start)
		return
	}

	p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
	dead, reErr := p.queue.Retry(ctx, job)
	switch {
	case reErr != nil:
		p.logger.Error("retry enqueue failed", zap.String("job_id", job.ID), zap.Error(reErr))
		metrics.RecordQueueJob(string(job.Type), "lost", start)
	case dead:
		metrics.RecordQueueJob(string(job.Type), "dead_letter", start)
	default:
		metrics.RecordQueueJob(string(job.Type), "retry", start)
	}
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx, queue.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			sleep(ctx, p.backoff)
			continue
		}
		if job == nil {
			continue
		}

		attempt := job.Attempt
		p.Handle(ctx, job)
		if job.Attempt > attempt {
			sleep(ctx, p.backoff)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
