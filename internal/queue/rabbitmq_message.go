package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// Message pairs a Job with its AMQP delivery state.
type Message struct {
	Job         *Job
	DeliveryTag uint64
	Channel     *amqp.Channel
}

var _ MessageInterface = (*Message)(nil)

// Ack acknowledges the message.
func (m *Message) Ack() error {
	return m.Channel.Ack(m.DeliveryTag, false)
}

// Nack negatively acknowledges the message, optionally requeueing.
func (m *Message) Nack(requeue bool) error {
	return m.Channel.Nack(m.DeliveryTag, false, requeue)
}

// GetJob returns the carried job.
func (m *Message) GetJob() *Job {
	return m.Job
}
