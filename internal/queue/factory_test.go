package queue

import (
	"testing"

	"github.com/bandwatch/bandwatch/internal/config"
)

func TestNewQueue_Memory(t *testing.T) {
	q, err := NewQueue(config.QueueConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("Failed to create memory queue: %v", err)
	}
	defer func() { _ = q.Close() }()

	if _, ok := q.(*MemoryQueue); !ok {
		t.Errorf("Expected *MemoryQueue, got %T", q)
	}
}

func TestNewQueue_TypeIsCaseInsensitive(t *testing.T) {
	q, err := NewQueue(config.QueueConfig{Type: "MEMORY"})
	if err != nil {
		t.Fatalf("Failed to create memory queue: %v", err)
	}
	_ = q.Close()
}

func TestNewQueue_UnsupportedType(t *testing.T) {
	if _, err := NewQueue(config.QueueConfig{Type: "rabbitmq"}); err == nil {
		t.Error("Expected error for unsupported queue type")
	}
}

func TestNewQueue_KafkaRequiresBrokers(t *testing.T) {
	if _, err := NewQueue(config.QueueConfig{Type: "kafka"}); err == nil {
		t.Error("Expected error when kafka brokers are missing")
	}
}

func TestNewPublisherAndSubscriber(t *testing.T) {
	pub, err := NewPublisher(config.QueueConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("NewPublisher failed: %v", err)
	}
	_ = pub.Close()

	sub, err := NewSubscriber(config.QueueConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("NewSubscriber failed: %v", err)
	}
	_ = sub.Close()
}
