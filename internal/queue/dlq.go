package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/therealutkarshpriyadarshi/subtitler/pkg/models"
)

const (
	DeadLetterQueueName    = "render_jobs_dlq"
	DeadLetterExchangeName = "subtitler_dlq"
	RetryQueueName         = "render_jobs_retry"

	// MaxRetries is the number of redeliveries after the first attempt
	MaxRetries = 3

	retryHeader = "x-retry-count"
)

// PermanentError marks a handler failure that must not be retried
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent wraps err so the consumer dead-letters the job immediately
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

type action int

const (
	actionAck action = iota
	actionRetry
	actionDeadLetter
)

func disposition(err error, attempt int) action {
	if err == nil {
		return actionAck
	}
	var perm *PermanentError
	if errors.As(err, &perm) || attempt >= MaxRetries {
		return actionDeadLetter
	}
	return actionRetry
}

// SetupDeadLetterQueue declares the retry and dead letter queues
func (q *Queue) SetupDeadLetterQueue() error {
	err := q.channel.ExchangeDeclare(
		DeadLetterExchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare DLQ exchange: %w", err)
	}

	if _, err := q.channel.QueueDeclare(DeadLetterQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}

	if err := q.channel.QueueBind(DeadLetterQueueName, DeadLetterQueueName, DeadLetterExchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind DLQ: %w", err)
	}

	// expired retry messages flow back into the main queue
	retryArgs := amqp.Table{
		"x-dead-letter-exchange":    ExchangeName,
		"x-dead-letter-routing-key": RenderQueueName,
	}
	if _, err := q.channel.QueueDeclare(RetryQueueName, true, false, false, false, retryArgs); err != nil {
		return fmt.Errorf("failed to declare retry queue: %w", err)
	}

	q.logger.Debug("Dead letter queue infrastructure set up")
	return nil
}

// PublishToRetryQueue schedules another attempt of job after a backoff
func (q *Queue) PublishToRetryQueue(ctx context.Context, job *models.RenderJob, retries int) error {
	if retries >= MaxRetries {
		return q.PublishToDeadLetterQueue(ctx, job, "max retries exceeded")
	}

	msg, err := newPublishing(job, retries+1)
	if err != nil {
		return err
	}
	delay := calculateBackoffDelay(retries)
	msg.Expiration = fmt.Sprintf("%d", delay.Milliseconds())

	if err := q.channel.PublishWithContext(ctx, "", RetryQueueName, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish to retry queue: %w", err)
	}

	q.logger.WithJobID(job.ID).WithField("retry", retries+1).Infof("Render job queued for retry in %v", delay)
	return nil
}

// PublishToDeadLetterQueue parks a failed job with its failure reason
func (q *Queue) PublishToDeadLetterQueue(ctx context.Context, job *models.RenderJob, reason string) error {
	msg, err := newPublishing(job, 0)
	if err != nil {
		return err
	}
	msg.Headers["x-failure-reason"] = reason
	msg.Headers["x-failed-at"] = time.Now().Format(time.RFC3339)

	if err := q.channel.PublishWithContext(ctx, DeadLetterExchangeName, DeadLetterQueueName, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish to DLQ: %w", err)
	}

	q.logger.WithJobID(job.ID).WithField("reason", reason).Warn("Render job moved to dead letter queue")
	return nil
}

// GetDLQDepth returns the number of messages in the dead letter queue
func (q *Queue) GetDLQDepth() (int, error) {
	info, err := q.channel.QueueInspect(DeadLetterQueueName)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect DLQ: %w", err)
	}

	return info.Messages, nil
}

// calculateBackoffDelay doubles from 10s and caps at 5 minutes
func calculateBackoffDelay(retryCount int) time.Duration {
	delay := 10 * time.Second * (1 << retryCount)
	if delay > 5*time.Minute {
		delay = 5 * time.Minute
	}
	return delay
}

func retryCount(headers amqp.Table) int {
	switch v := headers[retryHeader].(type) {
	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	case uint8:
		return int(v)
	default:
		return 0
	}
}
