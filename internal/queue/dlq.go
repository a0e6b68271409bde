package queue

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/therealutkarshpriyadarshi/vidtube/pkg/models"
)

const (
	DeadLetterQueueName    = "vidtube_cleanup_dlq"
	DeadLetterExchangeName = "vidtube_dlq"
	RetryQueueName         = "vidtube_cleanup_retry"
	MaxRetries             = 5
)

// Step is what happens to a task after the handler ran
type Step int

const (
	StepDone Step = iota
	StepRetry
	StepDeadLetter
)

// NextStep decides the fate of a handled task. Attempt counts prior failures.
func NextStep(task *models.CleanupTask, handleErr error, maxRetries int) Step {
	if handleErr == nil {
		return StepDone
	}
	if task.Attempt+1 >= maxRetries {
		return StepDeadLetter
	}
	return StepRetry
}

// SetupDeadLetterQueue sets up the dead letter queue infrastructure
func (q *Queue) SetupDeadLetterQueue() error {
	// Declare dead letter exchange
	err := q.channel.ExchangeDeclare(
		DeadLetterExchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare DLQ exchange: %w", err)
	}

	// Declare dead letter queue
	_, err = q.channel.QueueDeclare(
		DeadLetterQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}

	// Bind DLQ to exchange
	err = q.channel.QueueBind(
		DeadLetterQueueName,
		DeadLetterQueueName,
		DeadLetterExchangeName,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to bind DLQ: %w", err)
	}

	// Expired retry messages flow back into the cleanup queue
	retryArgs := amqp.Table{
		"x-dead-letter-exchange":    ExchangeName,
		"x-dead-letter-routing-key": CleanupQueueName,
		"x-message-ttl":             int32(time.Hour / time.Millisecond),
	}

	_, err = q.channel.QueueDeclare(
		RetryQueueName,
		true,
		false,
		false,
		false,
		retryArgs,
	)
	if err != nil {
		return fmt.Errorf("failed to declare retry queue: %w", err)
	}

	return nil
}

// PublishToRetryQueue schedules another attempt of the task after a backoff
func (q *Queue) PublishToRetryQueue(ctx context.Context, task *models.CleanupTask) error {
	retry := *task
	retry.Attempt++

	body, err := encodeTask(&retry)
	if err != nil {
		return err
	}

	// Calculate exponential backoff delay
	delay := calculateBackoffDelay(task.Attempt)

	err = q.channel.PublishWithContext(ctx,
		"",
		RetryQueueName,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
			MessageId:    retry.ID,
			Headers:      amqp.Table{"x-retry-count": int32(retry.Attempt)},
			Expiration:   fmt.Sprintf("%d", delay.Milliseconds()),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to retry queue: %w", err)
	}

	q.logger.WithTaskID(task.ID).Infof("cleanup task queued for retry #%d in %v", retry.Attempt, delay)
	return nil
}

// PublishToDeadLetterQueue parks a task that exhausted its retries
func (q *Queue) PublishToDeadLetterQueue(ctx context.Context, task *models.CleanupTask, reason string) error {
	body, err := encodeTask(task)
	if err != nil {
		return err
	}

	headers := amqp.Table{
		"x-failure-reason": reason,
		"x-failed-at":      time.Now().Format(time.RFC3339),
	}

	err = q.channel.PublishWithContext(ctx,
		DeadLetterExchangeName,
		DeadLetterQueueName,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
			MessageId:    task.ID,
			Headers:      headers,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to DLQ: %w", err)
	}

	q.logger.WithTaskID(task.ID).Warnf("cleanup task moved to dead letter queue: %s", reason)
	return nil
}

// calculateBackoffDelay calculates exponential backoff delay
func calculateBackoffDelay(retryCount int) time.Duration {
	// Exponential backoff: 30s, 1min, 2min, 4min, 8min
	baseDelay := 30 * time.Second
	if retryCount > 10 {
		retryCount = 10
	}
	delay := baseDelay * (1 << retryCount) // 2^retryCount

	// Cap at 1 hour
	if delay > 1*time.Hour {
		delay = 1 * time.Hour
	}

	return delay
}

// GetDLQDepth returns the number of messages in the dead letter queue
func (q *Queue) GetDLQDepth() (int, error) {
	info, err := q.channel.QueueInspect(DeadLetterQueueName)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect DLQ: %w", err)
	}

	return info.Messages, nil
}
