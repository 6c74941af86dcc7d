// Package worker processes background jobs dequeued from Redis.
package worker

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/gatherly/backend/pkg/queue"
)

// EmailSender delivers one email. Implementations may talk to SMTP or an
// email API; the worker only cares about success or failure.
type EmailSender interface {
	Send(ctx context.Context, to, subject, bodyHTML string) error
}

// LogSender is an EmailSender that only logs, for environments without a
// configured email provider.
type LogSender struct {
	Logger *zap.Logger
}

// Send logs the email instead of delivering it.
func (s *LogSender) Send(_ context.Context, to, subject, _ string) error {
	s.Logger.Info("email (log only)", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// EmailProcessor consumes email jobs from the queue and sends them.
type EmailProcessor struct {
	jobs   *queue.Queue
	sender EmailSender
	logger *zap.Logger
}

// NewEmailProcessor creates an email job processor.
func NewEmailProcessor(jobs *queue.Queue, sender EmailSender, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{jobs: jobs, sender: sender, logger: logger}
}

// Run processes jobs until ctx is cancelled.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, _, err := p.jobs.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("dequeue failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}
		if job.Type != queue.JobTypeEmail {
			p.logger.Warn("unexpected job type", zap.String("type", string(job.Type)), zap.String("job_id", job.ID))
			continue
		}

		var payload queue.EmailPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			p.logger.Warn("invalid email payload", zap.Error(err), zap.String("job_id", job.ID))
			continue
		}

		if err := p.sender.Send(ctx, payload.RecipientEmail, payload.Subject, payload.BodyHTML); err != nil {
			p.logger.Error("send email failed", zap.Error(err),
				zap.String("job_id", job.ID),
				zap.String("registration_id", payload.RegistrationID.String()))
			if err := p.jobs.Retry(ctx, job); err != nil {
				p.logger.Error("retry failed", zap.Error(err), zap.String("job_id", job.ID))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}

		p.logger.Info("confirmation email sent",
			zap.String("job_id", job.ID),
			zap.String("event_id", payload.EventID.String()),
			zap.String("registration_id", payload.RegistrationID.String()))
	}
}
