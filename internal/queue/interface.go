package queue

import (
	"context"
	"time"
)

// MessageInterface is the delivery contract workers consume. Mock
// implementations stand in for live AMQP deliveries in tests.
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetJob() *Job
}

// JobQueue is the broker contract.
type JobQueue interface {
	// Enqueue publishes a job. NotBefore routes through the delayed
	// exchange when set; NotAfter becomes the message TTL.
	Enqueue(ctx context.Context, job *Job) error

	// Consume streams messages until ctx is cancelled. The caller acks
	// or nacks every message; prefetchCount bounds unacknowledged
	// messages per consumer.
	Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error)

	// Close tears down the broker connection.
	Close() error

	// HealthCheck verifies the connection is usable.
	HealthCheck(ctx context.Context) error
}

// DLQPurger removes dead-lettered messages past their retention. The
// garbage collector drives it.
type DLQPurger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error)
}
