package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/config"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/logging"
	"github.com/therealutkarshpriyadarshi/vidtube/pkg/models"
)

const (
	CleanupQueueName = "vidtube_cleanup"
	ExchangeName     = "vidtube"
)

// Handler processes one cleanup task
type Handler func(ctx context.Context, task *models.CleanupTask) error

// Queue provides message queue operations
type Queue struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	maxRetries int
	logger     *logging.Logger
}

// URL builds the AMQP connection URL
func URL(cfg config.QueueConfig) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Vhost)
}

// New creates a new queue client and declares the cleanup topology
func New(cfg config.QueueConfig, logger *logging.Logger) (*Queue, error) {
	conn, err := amqp.Dial(URL(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if logger == nil {
		logger = logging.Nop()
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = MaxRetries
	}

	q := &Queue{
		conn:       conn,
		channel:    channel,
		maxRetries: maxRetries,
		logger:     logger,
	}

	if err := q.declare(); err != nil {
		q.Close()
		return nil, err
	}
	if err := q.SetupDeadLetterQueue(); err != nil {
		q.Close()
		return nil, err
	}

	return q, nil
}

func (q *Queue) declare() error {
	// Declare exchange
	err := q.channel.ExchangeDeclare(
		ExchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	// Declare queue
	_, err = q.channel.QueueDeclare(
		CleanupQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	// Bind queue to exchange
	err = q.channel.QueueBind(
		CleanupQueueName,
		CleanupQueueName,
		ExchangeName,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	return nil
}

// Close closes the queue connection
func (q *Queue) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

// Publish publishes a cleanup task to the queue
func (q *Queue) Publish(ctx context.Context, task *models.CleanupTask) error {
	body, err := encodeTask(task)
	if err != nil {
		return err
	}

	err = q.channel.PublishWithContext(ctx,
		ExchangeName,
		CleanupQueueName,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
			MessageId:    task.ID,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish cleanup task: %w", err)
	}

	return nil
}

// Consume starts consuming cleanup tasks. Failed tasks go to the retry queue
// until the retry budget is spent, then to the dead letter queue.
func (q *Queue) Consume(ctx context.Context, handler Handler) error {
	// Set QoS to limit concurrent processing
	err := q.channel.Qos(
		1,     // prefetch count
		0,     // prefetch size
		false, // global
	)
	if err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := q.channel.Consume(
		CleanupQueueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				q.deliver(ctx, msg, handler)
			}
		}
	}()

	return nil
}

func (q *Queue) deliver(ctx context.Context, msg amqp.Delivery, handler Handler) {
	task, err := decodeTask(msg.Body)
	if err != nil {
		q.logger.WarnWithErr("dropping malformed cleanup task", err)
		msg.Nack(false, false)
		return
	}

	handleErr := handler(ctx, task)
	q.logger.WithTaskID(task.ID).LogCleanupTask(task.ID, task.VideoID, task.Attempt, handleErr)

	var routeErr error
	switch next := NextStep(task, handleErr, q.maxRetries); next {
	case StepRetry:
		routeErr = q.PublishToRetryQueue(ctx, task)
	case StepDeadLetter:
		routeErr = q.PublishToDeadLetterQueue(ctx, task, handleErr.Error())
	}

	if routeErr != nil {
		// Redeliver rather than lose the task
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}

// GetQueueDepth returns the number of messages in the queue
func (q *Queue) GetQueueDepth() (int, error) {
	info, err := q.channel.QueueInspect(CleanupQueueName)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect queue: %w", err)
	}

	return info.Messages, nil
}

func encodeTask(task *models.CleanupTask) ([]byte, error) {
	body, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cleanup task: %w", err)
	}
	return body, nil
}

func decodeTask(body []byte) (*models.CleanupTask, error) {
	var task models.CleanupTask
	if err := json.Unmarshal(body, &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cleanup task: %w", err)
	}
	if task.VideoID == "" && len(task.PublicIDs) == 0 {
		return nil, fmt.Errorf("cleanup task %s has nothing to clean", task.ID)
	}
	return &task, nil
}
