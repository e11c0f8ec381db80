package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	// DefaultQueueName is the default queue name
	DefaultQueueName = "askdev_trend_jobs"
	// DefaultDLQName is the default dead letter queue name
	DefaultDLQName = "askdev_trend_jobs_dlq"
	// DefaultExchangeName is the default exchange name
	DefaultExchangeName = "askdev_jobs"
	// DefaultDelayedExchangeName needs the rabbitmq_delayed_message_exchange plugin.
	DefaultDelayedExchangeName = "askdev_jobs_delayed"

	jobsRoutingKey = "jobs"
	dlqRoutingKey  = "dlq"
)

// ErrQueueClosed is returned when the connection is gone.
var ErrQueueClosed = errors.New("queue connection closed")

// RabbitMQQueue implements JobQueue using RabbitMQ
type RabbitMQQueue struct {
	conn                *amqp.Connection
	channel             *amqp.Channel
	publishMu           sync.Mutex
	log                 *zap.Logger
	queueName           string
	dlqName             string
	exchangeName        string
	delayedExchangeName string
	delayedAvailable    bool
}

// NewRabbitMQQueue dials amqpURL and declares the exchanges and queues.
func NewRabbitMQQueue(amqpURL string, log *zap.Logger) (*RabbitMQQueue, error) {
	if log == nil {
		log = zap.NewNop()
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q := &RabbitMQQueue{
		conn:                conn,
		channel:             ch,
		log:                 log,
		queueName:           DefaultQueueName,
		dlqName:             DefaultDLQName,
		exchangeName:        DefaultExchangeName,
		delayedExchangeName: DefaultDelayedExchangeName,
	}
	if err := q.setup(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup queues: %w", err)
	}
	return q, nil
}

func (q *RabbitMQQueue) setup() error {
	err := q.channel.ExchangeDeclare(
		q.delayedExchangeName,
		"x-delayed-message",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		amqp.Table{"x-delayed-type": "direct"},
	)
	if err != nil {
		// a failed declare closes the channel
		if q.channel.IsClosed() {
			newCh, openErr := q.conn.Channel()
			if openErr != nil {
				return fmt.Errorf("failed to reopen channel after delayed exchange error: %w", openErr)
			}
			q.channel = newCh
		}
		q.log.Warn("delayed_exchange_unavailable",
			zap.String("exchange", q.delayedExchangeName),
			zap.Error(err),
		)
	} else {
		q.delayedAvailable = true
	}

	if err := q.channel.ExchangeDeclare(q.exchangeName, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	if _, err := q.channel.QueueDeclare(q.dlqName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}
	if err := q.channel.QueueBind(q.dlqName, dlqRoutingKey, q.exchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind DLQ: %w", err)
	}

	queueArgs := amqp.Table{
		"x-dead-letter-exchange":    q.exchangeName,
		"x-dead-letter-routing-key": dlqRoutingKey,
	}
	if _, err := q.channel.QueueDeclare(q.queueName, true, false, false, false, queueArgs); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := q.channel.QueueBind(q.queueName, jobsRoutingKey, q.exchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue to exchange: %w", err)
	}
	if q.delayedAvailable {
		if err := q.channel.QueueBind(q.queueName, jobsRoutingKey, q.delayedExchangeName, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue to delayed exchange: %w", err)
		}
	}
	return nil
}

// Enqueue adds a job to the queue
func (q *RabbitMQQueue) Enqueue(ctx context.Context, job *Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	publishing, exchange := q.publishingFor(job, body, time.Now())

	q.publishMu.Lock()
	defer q.publishMu.Unlock()
	if err := q.channel.PublishWithContext(ctx, exchange, jobsRoutingKey, false, false, publishing); err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}
	return nil
}

// publishingFor builds the message and picks the exchange. Without the delay
// plugin, delayed jobs go to the direct exchange and the job processor waits
// out NotBefore before running them.
func (q *RabbitMQQueue) publishingFor(job *Job, body []byte, now time.Time) (amqp.Publishing, string) {
	p := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID.String(),
		Timestamp:    job.CreatedAt,
		Type:         string(job.Type),
	}
	if job.NotAfter != nil {
		if ttl := job.NotAfter.Sub(now); ttl > 0 {
			p.Expiration = strconv.FormatInt(ttl.Milliseconds(), 10)
		}
	}

	exchange := q.exchangeName
	if job.NotBefore != nil && q.delayedAvailable {
		if delay := job.NotBefore.Sub(now); delay > 0 {
			exchange = q.delayedExchangeName
			p.Headers = amqp.Table{"x-delay": delay.Milliseconds()}
		}
	}
	return p, exchange
}

// Consume returns a channel of messages delivered on a dedicated AMQP channel.
func (q *RabbitMQQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error) {
	if prefetchCount < 1 {
		prefetchCount = 1
	}
	consumeCh, err := q.conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create consumer channel: %w", err)
	}
	if err := consumeCh.Qos(prefetchCount, 0, false); err != nil {
		_ = consumeCh.Close()
		return nil, nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := consumeCh.Consume(
		q.queueName,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = consumeCh.Close()
		return nil, nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	msgChan := make(chan *Message, prefetchCount)
	errChan := make(chan error, 1)

	go func() {
		defer close(msgChan)
		defer close(errChan)
		defer func() { _ = consumeCh.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					errChan <- ErrQueueClosed
					return
				}

				job, err := admitDelivery(delivery.Body)
				if err != nil {
					_ = delivery.Nack(false, false)
					if !errors.Is(err, errJobExpired) {
						q.log.Error("invalid_job_message_dead_lettered",
							zap.String("message_id", delivery.MessageId),
							zap.Error(err),
						)
					}
					continue
				}

				msg := &Message{Job: job, DeliveryTag: delivery.DeliveryTag, Channel: consumeCh}
				select {
				case <-ctx.Done():
					_ = delivery.Nack(false, true)
					return
				case msgChan <- msg:
				}
			}
		}
	}()

	return msgChan, errChan, nil
}

var errJobExpired = errors.New("job expired")

// admitDelivery decodes a delivery body. Jobs whose NotBefore is still ahead
// are admitted; the processor holds them until then.
func admitDelivery(body []byte) (*Job, error) {
	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, fmt.Errorf("failed to decode job: %w", err)
	}
	if job.IsExpired() {
		return nil, errJobExpired
	}
	return &job, nil
}

// PurgeOlderThan acknowledges dead-lettered messages published before
// now-retention and returns the rest to the DLQ.
func (q *RabbitMQQueue) PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error) {
	ch, err := q.conn.Channel()
	if err != nil {
		return 0, fmt.Errorf("failed to open purge channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	info, err := ch.QueueDeclarePassive(q.dlqName, true, false, false, false, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect DLQ: %w", err)
	}

	cutoff := time.Now().Add(-retention)
	purged := 0
	var kept []amqp.Delivery
	defer func() {
		for _, d := range kept {
			_ = d.Nack(false, true)
		}
	}()

	for i := 0; i < info.Messages; i++ {
		if err := ctx.Err(); err != nil {
			return purged, err
		}
		d, ok, err := ch.Get(q.dlqName, false)
		if err != nil {
			return purged, fmt.Errorf("failed to read DLQ: %w", err)
		}
		if !ok {
			break
		}
		if isOlderThan(d.Timestamp, cutoff) {
			if err := d.Ack(false); err != nil {
				return purged, fmt.Errorf("failed to ack DLQ message: %w", err)
			}
			purged++
			continue
		}
		kept = append(kept, d)
	}
	return purged, nil
}

// isOlderThan treats a missing timestamp as old enough to purge.
func isOlderThan(ts, cutoff time.Time) bool {
	return ts.IsZero() || ts.Before(cutoff)
}

// HealthCheck reports whether the connection is still open.
func (q *RabbitMQQueue) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if q.conn == nil || q.conn.IsClosed() {
		return ErrQueueClosed
	}
	return nil
}

// Close closes the queue connection
func (q *RabbitMQQueue) Close() error {
	var err error
	if q.channel != nil {
		err = q.channel.Close()
	}
	if q.conn != nil {
		if closeErr := q.conn.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

var (
	_ JobQueue  = (*RabbitMQQueue)(nil)
	_ DLQPurger = (*RabbitMQQueue)(nil)
)
