package utils

import "time"

// HTTP handler timeouts
const (
	// DefaultRequestTimeout is the default timeout for HTTP requests
	DefaultRequestTimeout = 30 * time.Second

	// DetectTimeout bounds a whole batch detection run
	DetectTimeout = 60 * time.Second
)

// Batch limits
const (
	// MaxEventsPerRequest caps the number of raw events a single HTTP
	// request may carry
	MaxEventsPerRequest = 500000

	// PublishBatchSize is the chunk size for publishing anomaly batches
	PublishBatchSize = 500
)

// QueueType represents the type of message queue
type QueueType string

const (
	// QueueTypeNATS represents NATS JetStream queue (default)
	QueueTypeNATS QueueType = "nats"

	// QueueTypeRedis represents Redis Streams queue
	QueueTypeRedis QueueType = "redis"

	// QueueTypeKafka represents Apache Kafka queue
	QueueTypeKafka QueueType = "kafka"

	// QueueTypeMemory represents in-memory queue (for testing)
	QueueTypeMemory QueueType = "memory"
)
