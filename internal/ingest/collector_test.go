package ingest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bandwatch/bandwatch/internal/aggregation"
	"github.com/bandwatch/bandwatch/internal/analytics/band"
	"github.com/bandwatch/bandwatch/internal/config"
	"github.com/bandwatch/bandwatch/internal/logging"
	"github.com/bandwatch/bandwatch/internal/queue"
	"github.com/bandwatch/bandwatch/internal/services"
)

func testIngestConfig() config.IngestConfig {
	return config.IngestConfig{
		Enabled:          true,
		EventsSubject:    "bandwatch.events",
		AnomaliesSubject: "bandwatch.anomalies",
		FlushInterval:    time.Hour, // tests trigger flushes directly
		RetentionDays:    30,
	}
}

func newTestCollector(t *testing.T) (*Collector, queue.Queue) {
	t.Helper()

	q, err := queue.NewQueue(config.QueueConfig{Type: "memory"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })

	svc, err := services.NewDetectService(logging.NewDevelopment(), config.DetectorConfig{
		Span:           3,
		Weight:         3,
		UpperThreshold: 1.0,
		MaxWorkers:     2,
	})
	require.NoError(t, err)

	c, err := NewCollector(logging.NewDevelopment(), q, svc, testIngestConfig())
	require.NoError(t, err)
	return c, q
}

func publishSpikeHistory(t *testing.T, c *Collector, entityID string, counts []int) {
	t.Helper()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for day, n := range counts {
		for i := 0; i < n; i++ {
			raw := aggregation.RawEvent{
				Timestamp: base.AddDate(0, 0, day).Add(time.Duration(i) * time.Second).Format(time.RFC3339),
				EntityID:  entityID,
			}
			data, err := json.Marshal(raw)
			require.NoError(t, err)
			require.NoError(t, c.handleMessage(data))
		}
	}
}

func TestNewCollector_RejectsDisabledConfig(t *testing.T) {
	q, err := queue.NewQueue(config.QueueConfig{Type: "memory"})
	require.NoError(t, err)
	defer func() { _ = q.Close() }()

	svc, err := services.NewDetectService(logging.NewDevelopment(), config.DetectorConfig{
		Span: 3, Weight: 3, UpperThreshold: 1.0, MaxWorkers: 2,
	})
	require.NoError(t, err)

	cfg := testIngestConfig()
	cfg.Enabled = false
	_, err = NewCollector(logging.NewDevelopment(), q, svc, cfg)
	assert.Error(t, err)
}

func TestCollector_DropsInvalidMessages(t *testing.T) {
	c, _ := newTestCollector(t)

	// Undecodable, missing entity, bad timestamp: all dropped without error
	// so the broker does not redeliver.
	assert.NoError(t, c.handleMessage([]byte("not json")))
	assert.NoError(t, c.handleMessage([]byte(`{"timestamp":"2024-05-01T00:00:00Z","entity_id":""}`)))
	assert.NoError(t, c.handleMessage([]byte(`{"timestamp":"yesterday","entity_id":"u1"}`)))

	assert.Zero(t, c.BufferedEntities())
}

func TestCollector_FlushPublishesAnomalies(t *testing.T) {
	c, q := newTestCollector(t)

	received := make(chan []byte, 16)
	require.NoError(t, q.Subscribe("bandwatch.anomalies", func(data []byte) error {
		received <- data
		return nil
	}))

	publishSpikeHistory(t, c, "u1", []int{2, 3, 2, 4, 3, 2, 3, 50})
	c.flush(context.Background())

	select {
	case data := <-received:
		var a band.Anomaly
		require.NoError(t, json.Unmarshal(data, &a))
		assert.Equal(t, "u1", a.EntityID)
		assert.Equal(t, float64(50), a.Value)
		assert.Equal(t, band.SideUpper, a.Side)
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for published anomaly")
	}
}

func TestCollector_DoesNotReAlertSameDate(t *testing.T) {
	c, q := newTestCollector(t)

	received := make(chan []byte, 16)
	require.NoError(t, q.Subscribe("bandwatch.anomalies", func(data []byte) error {
		received <- data
		return nil
	}))

	publishSpikeHistory(t, c, "u1", []int{2, 3, 2, 4, 3, 2, 3, 50})
	c.flush(context.Background())

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for first anomaly")
	}

	// Second flush over unchanged history must stay silent.
	c.flush(context.Background())
	select {
	case data := <-received:
		t.Fatalf("Unexpected duplicate anomaly: %s", data)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestCollector_ConstantTrafficStaysQuiet(t *testing.T) {
	c, q := newTestCollector(t)

	received := make(chan []byte, 16)
	require.NoError(t, q.Subscribe("bandwatch.anomalies", func(data []byte) error {
		received <- data
		return nil
	}))

	publishSpikeHistory(t, c, "steady", []int{5, 5, 5, 5, 5, 5})
	c.flush(context.Background())

	select {
	case data := <-received:
		t.Fatalf("Unexpected anomaly for constant traffic: %s", data)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestCollector_RetentionTrimsOldEvents(t *testing.T) {
	c, _ := newTestCollector(t)
	c.cfg.RetentionDays = 3

	publishSpikeHistory(t, c, "u1", []int{1, 1, 1, 1, 1, 1, 1, 1})
	require.Equal(t, 1, c.BufferedEntities())

	c.mu.Lock()
	c.trimRetainedLocked()
	n := len(c.events["u1"])
	c.mu.Unlock()

	// 8 daily events, retention 3 days from the newest keeps 4 calendar days.
	assert.Equal(t, 4, n)
}

func TestCollector_StartAndStop(t *testing.T) {
	c, q := newTestCollector(t)

	require.NoError(t, c.Start(context.Background()))

	raw := aggregation.RawEvent{
		Timestamp: "2024-05-01T10:00:00Z",
		EntityID:  "u1",
	}
	data, err := json.Marshal(raw)
	require.NoError(t, err)
	require.NoError(t, q.Publish(context.Background(), "bandwatch.events", data))

	deadline := time.After(2 * time.Second)
	for c.BufferedEntities() == 0 {
		select {
		case <-deadline:
			t.Fatal("Event never reached the collector buffer")
		case <-time.After(10 * time.Millisecond):
		}
	}

	assert.NoError(t, c.Stop())
}
