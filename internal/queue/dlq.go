package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/metrics"
	"github.com/therealutkarshpriyadarshi/coursehub/pkg/models"
)

const (
	DeadLetterQueueName    = "payment_events_dlq"
	DeadLetterExchangeName = "payments_dlq"
	RetryQueueName         = "payment_events_retry"

	retryCountHeader    = "x-retry-count"
	failureReasonHeader = "x-failure-reason"
	failedAtHeader      = "x-failed-at"

	baseRetryDelay = 5 * time.Second
	maxRetryDelay  = 5 * time.Minute
)

// setupDeadLetterQueue declares the dead letter and retry queues. Messages
// in the retry queue expire back onto the main exchange.
func (q *Queue) setupDeadLetterQueue() error {
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

	_, err = q.channel.QueueDeclare(DeadLetterQueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}

	if err := q.channel.QueueBind(DeadLetterQueueName, DeadLetterQueueName, DeadLetterExchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind DLQ: %w", err)
	}

	retryArgs := amqp.Table{
		"x-dead-letter-exchange":    ExchangeName,
		"x-dead-letter-routing-key": PaymentQueueName,
	}

	if _, err := q.channel.QueueDeclare(RetryQueueName, true, false, false, false, retryArgs); err != nil {
		return fmt.Errorf("failed to declare retry queue: %w", err)
	}

	return nil
}

// publishToRetryQueue schedules the event for redelivery after a backoff delay
func (q *Queue) publishToRetryQueue(ctx context.Context, event models.PaymentEvent, retryCount int) error {
	headers := amqp.Table{retryCountHeader: int32(retryCount + 1)}
	delay := calculateBackoffDelay(retryCount)

	if err := q.publish(ctx, "", RetryQueueName, event, headers, fmt.Sprintf("%d", delay.Milliseconds())); err != nil {
		return fmt.Errorf("failed to publish to retry queue: %w", err)
	}

	metrics.RecordQueueMessage(PaymentQueueName, "retried")
	return nil
}

// deadLetter moves the raw message to the DLQ and acknowledges the original.
// If the DLQ publish fails the original is requeued instead.
func (q *Queue) deadLetter(ctx context.Context, msg amqp.Delivery, body []byte, reason string) {
	headers := amqp.Table{
		failureReasonHeader: reason,
		failedAtHeader:      time.Now().Format(time.RFC3339),
		retryCountHeader:    int32(retryCountOf(msg.Headers)),
	}

	err := q.publishRaw(ctx, DeadLetterExchangeName, DeadLetterQueueName, msg.MessageId, body, headers, "")
	if err != nil {
		q.logger.WithError(err).Error("Failed to publish to DLQ, requeueing")
		if nackErr := msg.Nack(false, true); nackErr != nil {
			q.logger.WithError(nackErr).Error("Failed to nack message")
		}
		return
	}

	q.ack(msg)
	metrics.RecordQueueMessage(PaymentQueueName, "dead_lettered")
	q.logger.WithField("message_id", msg.MessageId).Warnf("Message moved to dead letter queue: %s", reason)
}

// GetDLQDepth returns the number of messages in the dead letter queue
func (q *Queue) GetDLQDepth() (int, error) {
	info, err := q.channel.QueueInspect(DeadLetterQueueName)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect DLQ: %w", err)
	}

	return info.Messages, nil
}

// isTerminal reports whether retrying err can never succeed
func isTerminal(err error) bool {
	return errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrInvalidInput)
}

// calculateBackoffDelay doubles the delay per attempt: 5s, 10s, 20s... capped at 5 minutes
func calculateBackoffDelay(retryCount int) time.Duration {
	if retryCount > 16 {
		return maxRetryDelay
	}
	delay := baseRetryDelay * (1 << retryCount)
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

func retryCountOf(headers amqp.Table) int {
	switch v := headers[retryCountHeader].(type) {
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
	default:
		return 0
	}
}
