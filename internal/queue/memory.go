package queue

import (
	"context"
	"fmt"
	"sync"
)

const memoryChannelCapacity = 10000

// MemoryQueue is a channel-backed Queue with no external dependencies.
// It backs tests and single-process development setups.
type MemoryQueue struct {
	channels      map[string]chan []byte
	subscriptions map[string]context.CancelFunc
	mu            sync.RWMutex
}

func newMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		channels:      make(map[string]chan []byte),
		subscriptions: make(map[string]context.CancelFunc),
	}
}

func (q *MemoryQueue) channel(subject string) chan []byte {
	q.mu.Lock()
	defer q.mu.Unlock()

	ch, ok := q.channels[subject]
	if !ok {
		ch = make(chan []byte, memoryChannelCapacity)
		q.channels[subject] = ch
	}
	return ch
}

// Publish enqueues a copy of data on the subject's channel. It fails
// immediately when the channel is full rather than blocking the caller.
func (q *MemoryQueue) Publish(ctx context.Context, subject string, data []byte) error {
	ch := q.channel(subject)

	buf := make([]byte, len(data))
	copy(buf, data)

	select {
	case ch <- buf:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("channel full for subject: %s", subject)
	}
}

// PublishBatch enqueues each message, skipping any that cannot be
// accepted, and reports the number delivered.
func (q *MemoryQueue) PublishBatch(ctx context.Context, messages []BatchMessage) (int, error) {
	delivered := 0
	for _, msg := range messages {
		if err := q.Publish(ctx, msg.Subject, msg.Data); err != nil {
			continue
		}
		delivered++
	}
	return delivered, nil
}

// Subscribe drains the subject's channel on a background goroutine.
func (q *MemoryQueue) Subscribe(subject string, handler MessageHandler) error {
	q.mu.Lock()
	if _, exists := q.subscriptions[subject]; exists {
		q.mu.Unlock()
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}
	q.mu.Unlock()

	ch := q.channel(subject)
	ctx, cancel := context.WithCancel(context.Background())

	q.mu.Lock()
	q.subscriptions[subject] = cancel
	q.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case data := <-ch:
				// Handler errors are dropped; there is no redelivery
				// for the in-memory backend.
				_ = handler(data)
			}
		}
	}()

	return nil
}

// Unsubscribe stops the consumer goroutine for a subject.
func (q *MemoryQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	cancel, exists := q.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}

	cancel()
	delete(q.subscriptions, subject)
	return nil
}

// Close cancels every subscription and closes all channels.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for subject, cancel := range q.subscriptions {
		cancel()
		delete(q.subscriptions, subject)
	}
	for subject, ch := range q.channels {
		close(ch)
		delete(q.channels, subject)
	}
	return nil
}

// PendingCount reports queued-but-unconsumed messages for a subject.
func (q *MemoryQueue) PendingCount(subject string) int {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if ch, ok := q.channels[subject]; ok {
		return len(ch)
	}
	return 0
}
