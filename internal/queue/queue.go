package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/config"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/logging"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/metrics"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/tracing"
	"github.com/therealutkarshpriyadarshi/coursehub/pkg/models"
)

const (
	PaymentQueueName = "payment_events"
	ExchangeName     = "payments"
)

// channel is the subset of *amqp.Channel the queue uses
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	QueueInspect(name string) (amqp.Queue, error)
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// PaymentHandler processes one verified payment event
type PaymentHandler func(ctx context.Context, event models.PaymentEvent) error

// Queue carries payment events from the webhook to the reconciliation worker
type Queue struct {
	conn       *amqp.Connection
	channel    channel
	maxRetries int
	logger     *logging.Logger
}

// New connects to RabbitMQ and declares the payment topology
func New(cfg config.QueueConfig, logger *logging.Logger) (*Queue, error) {
	conn, err := amqp.Dial(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q, err := NewWithChannel(ch, cfg.MaxRetries, logger)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	q.conn = conn

	return q, nil
}

// NewWithChannel declares the topology on an open channel
func NewWithChannel(ch channel, maxRetries int, logger *logging.Logger) (*Queue, error) {
	q := &Queue{channel: ch, maxRetries: maxRetries, logger: logger}

	err := ch.ExchangeDeclare(
		ExchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = ch.QueueDeclare(
		PaymentQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(PaymentQueueName, PaymentQueueName, ExchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	if err := q.setupDeadLetterQueue(); err != nil {
		return nil, err
	}

	return q, nil
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

// PublishPaymentEvent publishes a verified payment event
func (q *Queue) PublishPaymentEvent(ctx context.Context, event models.PaymentEvent) error {
	span, ctx := tracing.StartSpan(ctx, "queue.publish_payment_event")
	defer tracing.FinishSpan(span)
	tracing.SetTag(span, "event_id", event.EventID)

	headers := amqp.Table{retryCountHeader: int32(0)}
	for k, v := range tracing.InjectHeaders(span) {
		headers[k] = v
	}

	if err := q.publish(ctx, ExchangeName, PaymentQueueName, event, headers, ""); err != nil {
		tracing.LogError(span, err)
		return fmt.Errorf("failed to publish payment event: %w", err)
	}

	metrics.RecordQueueMessage(PaymentQueueName, "published")
	return nil
}

// ConsumePaymentEvents delivers payment events to handler until ctx is done
// or the channel closes. Messages are acknowledged manually: a failed
// message is retried with backoff up to the configured limit, terminal
// failures go straight to the dead letter queue.
func (q *Queue) ConsumePaymentEvents(ctx context.Context, prefetch int, handler PaymentHandler) error {
	if err := q.channel.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := q.channel.Consume(
		PaymentQueueName,
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

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("payment event channel closed")
			}
			q.handleDelivery(ctx, msg, handler)
		}
	}
}

// GetQueueDepth returns the number of messages in the queue
func (q *Queue) GetQueueDepth() (int, error) {
	info, err := q.channel.QueueInspect(PaymentQueueName)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect queue: %w", err)
	}

	return info.Messages, nil
}

func (q *Queue) handleDelivery(ctx context.Context, msg amqp.Delivery, handler PaymentHandler) {
	span, ctx := tracing.StartSpanFromHeaders(ctx, "queue.consume_payment_event", msg.Headers)
	defer tracing.FinishSpan(span)

	var event models.PaymentEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		tracing.LogError(span, err)
		q.deadLetter(ctx, msg, msg.Body, "malformed payload: "+err.Error())
		return
	}

	log := q.logger.WithField("event_id", event.EventID)
	retryCount := retryCountOf(msg.Headers)

	err := handler(ctx, event)
	if err == nil {
		q.ack(msg)
		metrics.RecordQueueMessage(PaymentQueueName, "acked")
		return
	}

	tracing.LogError(span, err)

	if isTerminal(err) {
		log.WithError(err).Warn("Payment event rejected permanently")
		q.deadLetter(ctx, msg, msg.Body, err.Error())
		return
	}

	if retryCount >= q.maxRetries {
		log.WithError(err).Error("Payment event exhausted retries")
		q.deadLetter(ctx, msg, msg.Body, "max retries exceeded: "+err.Error())
		return
	}

	if pubErr := q.publishToRetryQueue(ctx, event, retryCount); pubErr != nil {
		log.WithError(pubErr).Error("Failed to schedule retry, requeueing")
		if nackErr := msg.Nack(false, true); nackErr != nil {
			log.WithError(nackErr).Error("Failed to nack message")
		}
		return
	}

	q.ack(msg)
	log.Warnf("Payment event scheduled for retry #%d", retryCount+1)
}

func (q *Queue) publish(ctx context.Context, exchange, key string, event models.PaymentEvent, headers amqp.Table, expiration string) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal payment event: %w", err)
	}
	return q.publishRaw(ctx, exchange, key, event.EventID, body, headers, expiration)
}

func (q *Queue) publishRaw(ctx context.Context, exchange, key, messageID string, body []byte, headers amqp.Table, expiration string) error {
	return q.channel.PublishWithContext(ctx,
		exchange,
		key,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    messageID,
			Body:         body,
			Timestamp:    time.Now(),
			Headers:      headers,
			Expiration:   expiration,
		},
	)
}

func (q *Queue) ack(msg amqp.Delivery) {
	if err := msg.Ack(false); err != nil {
		q.logger.WithError(err).Error("Failed to ack message")
	}
}
