package queue

import (
	"context"
	"time"
)

// MessageInterface is a delivered job awaiting acknowledgement.
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetJob() *Job
}

// JobQueue is the interface for job queues
type JobQueue interface {
	// Enqueue publishes a job. Jobs with a future NotBefore are delayed.
	Enqueue(ctx context.Context, job *Job) error

	// Consume delivers messages until ctx is cancelled or the connection drops.
	// prefetchCount bounds unacknowledged messages held by this consumer.
	// The caller must Ack or Nack every message.
	Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error)

	Close() error

	HealthCheck(ctx context.Context) error
}

// DLQPurger removes dead-lettered messages older than retention.
type DLQPurger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error)
}
