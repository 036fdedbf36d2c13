// Package ingest runs the streaming detection pipeline: it consumes raw
// view events from the queue, keeps a rolling per-entity history, and
// periodically scores each entity, publishing newly detected anomalies.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bandwatch/bandwatch/internal/aggregation"
	"github.com/bandwatch/bandwatch/internal/analytics/band"
	"github.com/bandwatch/bandwatch/internal/config"
	"github.com/bandwatch/bandwatch/internal/logging"
	"github.com/bandwatch/bandwatch/internal/queue"
	"github.com/bandwatch/bandwatch/internal/services"
	"github.com/bandwatch/bandwatch/internal/utils"
)

// Collector buffers events between flushes and owns the per-entity
// history retained for scoring.
type Collector struct {
	logger    *logging.Logger
	queue     queue.Queue
	service   *services.DetectService
	cfg       config.IngestConfig
	detectCfg band.Config

	mu        sync.Mutex
	events    map[string][]aggregation.Event // entity -> retained history
	alertedTo map[string]time.Time           // entity -> last date already alerted

	cancel context.CancelFunc
	done   chan struct{}
}

// NewCollector wires a collector to its queue and detection service.
func NewCollector(logger *logging.Logger, q queue.Queue, svc *services.DetectService, cfg config.IngestConfig) (*Collector, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("ingest is disabled in configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Collector{
		logger:    logger,
		queue:     q,
		service:   svc,
		cfg:       cfg,
		detectCfg: svc.BaseConfig(),
		events:    make(map[string][]aggregation.Event),
		alertedTo: make(map[string]time.Time),
	}, nil
}

// Start subscribes to the events subject and launches the flush loop.
func (c *Collector) Start(ctx context.Context) error {
	if err := c.queue.Subscribe(c.cfg.EventsSubject, c.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", c.cfg.EventsSubject, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})

	go c.flushLoop(runCtx)

	c.logger.Info("Ingest collector started",
		"events_subject", c.cfg.EventsSubject,
		"anomalies_subject", c.cfg.AnomaliesSubject,
		"flush_interval", c.cfg.FlushInterval.String())
	return nil
}

// Stop unsubscribes, halts the flush loop, and runs one final flush so
// buffered events are not lost.
func (c *Collector) Stop() error {
	if c.cancel == nil {
		return nil
	}

	c.cancel()
	<-c.done

	if err := c.queue.Unsubscribe(c.cfg.EventsSubject); err != nil {
		c.logger.Warn("Failed to unsubscribe ingest collector", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	c.flush(ctx)

	c.logger.Info("Ingest collector stopped")
	return nil
}

// handleMessage decodes one raw event from the queue. Undecodable or
// invalid events are dropped with an ack so the broker does not redeliver
// them forever.
func (c *Collector) handleMessage(data []byte) error {
	var raw aggregation.RawEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		c.logger.Warn("Dropping undecodable event", "error", err)
		return nil
	}

	ts, err := aggregation.ParseTimestamp(raw.Timestamp)
	if err != nil || raw.EntityID == "" {
		c.logger.Warn("Dropping invalid event",
			"entity_id", raw.EntityID,
			"timestamp", raw.Timestamp)
		return nil
	}

	c.mu.Lock()
	c.events[raw.EntityID] = append(c.events[raw.EntityID], aggregation.Event{
		Time:     ts,
		EntityID: raw.EntityID,
	})
	c.mu.Unlock()
	return nil
}

func (c *Collector) flushLoop(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.flush(ctx)
		}
	}
}

// flush scores every entity with buffered history and publishes anomalies
// newer than the entity's last alerted date.
func (c *Collector) flush(ctx context.Context) {
	c.mu.Lock()
	c.trimRetainedLocked()

	entities := make([]string, 0, len(c.events))
	for id := range c.events {
		entities = append(entities, id)
	}
	sort.Strings(entities)

	var counts []aggregation.DailyCount
	for _, id := range entities {
		counts = append(counts, aggregation.Daily(id, c.events[id])...)
	}
	c.mu.Unlock()

	if len(counts) == 0 {
		return
	}

	result, err := c.service.DetectSeries(ctx, counts, services.RunOptions{Config: c.detectCfg})
	if err != nil {
		c.logger.Error("Ingest flush failed", "error", err)
		return
	}

	fresh := c.selectFresh(result.Anomalies)
	if len(fresh) == 0 {
		return
	}

	messages := make([]queue.BatchMessage, 0, len(fresh))
	for _, a := range fresh {
		payload, err := json.Marshal(a)
		if err != nil {
			continue
		}
		messages = append(messages, queue.BatchMessage{
			Subject: c.cfg.AnomaliesSubject,
			Data:    payload,
		})
	}

	published := 0
	for start := 0; start < len(messages); start += utils.PublishBatchSize {
		end := start + utils.PublishBatchSize
		if end > len(messages) {
			end = len(messages)
		}
		n, err := c.queue.PublishBatch(ctx, messages[start:end])
		published += n
		if err != nil {
			c.logger.Error("Failed to publish anomalies", "error", err)
			return
		}
	}

	c.logger.Info("Ingest flush complete",
		"entities", result.Entities,
		"anomalies", len(result.Anomalies),
		"published", published)
}

// selectFresh filters out anomalies on dates an entity was already
// alerted for, then advances each entity's alerted-to watermark.
func (c *Collector) selectFresh(anomalies []band.Anomaly) []band.Anomaly {
	c.mu.Lock()
	defer c.mu.Unlock()

	var fresh []band.Anomaly
	for _, a := range anomalies {
		if last, ok := c.alertedTo[a.EntityID]; ok && !a.Date.After(last) {
			continue
		}
		fresh = append(fresh, a)
		c.alertedTo[a.EntityID] = a.Date
	}
	return fresh
}

// trimRetainedLocked drops events older than the retention horizon,
// measured from each entity's newest event. Requires c.mu held.
func (c *Collector) trimRetainedLocked() {
	if c.cfg.RetentionDays <= 0 {
		return
	}

	for id, evs := range c.events {
		var newest time.Time
		for _, e := range evs {
			if e.Time.After(newest) {
				newest = e.Time
			}
		}
		horizon := newest.AddDate(0, 0, -c.cfg.RetentionDays)

		kept := evs[:0]
		for _, e := range evs {
			if !e.Time.Before(horizon) {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(c.events, id)
			continue
		}
		c.events[id] = kept
	}
}

// BufferedEntities reports how many entities currently hold history (for
// tests and diagnostics).
func (c *Collector) BufferedEntities() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}
