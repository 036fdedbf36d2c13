// Package queue abstracts the message brokers BandWatch can publish
// detection results to and consume event streams from. Four backends are
// supported: NATS JetStream, Redis Streams, Apache Kafka, and an in-memory
// queue for tests and local development.
package queue

import "context"

// MessageHandler processes a single delivered message. A non-nil error
// leaves the message unacknowledged so the backend can redeliver it.
type MessageHandler func(data []byte) error

// BatchMessage pairs a payload with its destination subject for batch
// publishing.
type BatchMessage struct {
	Subject string
	Data    []byte
}

// Publisher publishes messages to a broker.
type Publisher interface {
	// Publish sends one message to a subject/topic.
	Publish(ctx context.Context, subject string, data []byte) error

	// PublishBatch sends multiple messages and reports how many were
	// accepted by the broker.
	PublishBatch(ctx context.Context, messages []BatchMessage) (int, error)

	// Close releases the underlying connection.
	Close() error
}

// Subscriber consumes messages from a broker.
type Subscriber interface {
	// Subscribe registers a handler for a subject/topic. Only one
	// subscription per subject is allowed.
	Subscribe(subject string, handler MessageHandler) error

	// Unsubscribe removes the subscription for a subject.
	Unsubscribe(subject string) error

	// Close releases the underlying connection.
	Close() error
}

// Queue is a bidirectional broker connection.
type Queue interface {
	Publisher
	Subscriber
}
