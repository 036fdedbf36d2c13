package queue

import (
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

func TestNewKafkaQueue_RequiresBrokers(t *testing.T) {
	if _, err := newKafkaQueue(KafkaConfig{}); err == nil {
		t.Error("Expected error without brokers")
	}
}

func TestNewKafkaQueue_Defaults(t *testing.T) {
	q, err := newKafkaQueue(KafkaConfig{Brokers: []string{"localhost:9092"}})
	if err != nil {
		t.Fatalf("Failed to create kafka queue: %v", err)
	}

	cfg := q.config
	if cfg.GroupID != "bandwatch-group" {
		t.Errorf("Expected default group bandwatch-group, got %s", cfg.GroupID)
	}
	if cfg.BatchSize != 100 {
		t.Errorf("Expected default batch size 100, got %d", cfg.BatchSize)
	}
	if cfg.BatchTimeout != 10*time.Millisecond {
		t.Errorf("Expected default batch timeout 10ms, got %v", cfg.BatchTimeout)
	}
	if cfg.RequiredAcks != int(kafka.RequireOne) {
		t.Errorf("Expected leader acks by default, got %d", cfg.RequiredAcks)
	}
	if cfg.MaxRetries != 3 || cfg.CommitRetries != 3 {
		t.Errorf("Expected 3 retries by default, got %d/%d", cfg.MaxRetries, cfg.CommitRetries)
	}
}

func TestNewKafkaQueue_ExplicitConfigKept(t *testing.T) {
	in := KafkaConfig{
		Brokers:      []string{"localhost:9092"},
		GroupID:      "custom-group",
		BatchSize:    5,
		RequiredAcks: int(kafka.RequireAll),
	}
	q, err := newKafkaQueue(in)
	if err != nil {
		t.Fatalf("Failed to create kafka queue: %v", err)
	}
	if q.config.GroupID != "custom-group" || q.config.BatchSize != 5 {
		t.Errorf("Explicit settings were overwritten: %+v", q.config)
	}
	if q.config.RequiredAcks != int(kafka.RequireAll) {
		t.Errorf("Expected RequireAll to be kept, got %d", q.config.RequiredAcks)
	}
}

func TestKafkaQueue_WriterPerTopic(t *testing.T) {
	q, err := newKafkaQueue(KafkaConfig{Brokers: []string{"localhost:9092"}})
	if err != nil {
		t.Fatalf("Failed to create kafka queue: %v", err)
	}
	defer func() { _ = q.Close() }()

	w1 := q.writer("events")
	w2 := q.writer("events")
	w3 := q.writer("anomalies")

	if w1 != w2 {
		t.Error("Expected the same writer for repeated topic lookups")
	}
	if w1 == w3 {
		t.Error("Expected distinct writers per topic")
	}
}
