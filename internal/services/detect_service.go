package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bandwatch/bandwatch/internal/aggregation"
	"github.com/bandwatch/bandwatch/internal/analytics/band"
	"github.com/bandwatch/bandwatch/internal/config"
	"github.com/bandwatch/bandwatch/internal/logging"
)

// SortKey orders the merged anomaly collection. The default is entity
// insertion order, i.e. the order entities first appear in the input.
type SortKey string

const (
	SortInsertion SortKey = ""
	SortPctB      SortKey = "pct_b" // percent-bandwidth, descending
	SortValue     SortKey = "value" // raw value, descending
	SortDate      SortKey = "date"  // date, ascending
)

// ParseSortKey validates a caller-supplied sort key.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case SortInsertion, SortPctB, SortValue, SortDate:
		return SortKey(s), nil
	default:
		return "", fmt.Errorf("unknown sort key %q", s)
	}
}

// RunOptions carries per-run parameters resolved from defaults plus any
// request overrides.
type RunOptions struct {
	Config         band.Config
	SortBy         SortKey
	IncludeRecords bool
}

// EntityFailure records why one entity's pipeline produced no output.
// Failures are reported alongside results; they never abort the batch.
type EntityFailure struct {
	EntityID string `json:"entity_id"`
	Reason   string `json:"reason"`
}

// Result is the merged output of a multi-entity detection run.
type Result struct {
	Entities      int             `json:"entities"`
	DroppedEvents int             `json:"dropped_events"`
	Records       []band.Record   `json:"records,omitempty"`
	Anomalies     []band.Anomaly  `json:"anomalies"`
	Failures      []EntityFailure `json:"failures,omitempty"`
	Elapsed       time.Duration   `json:"-"`
}

// DetectService runs the per-entity band pipeline across many entities.
// Entities are data-independent, so their pipelines run concurrently on a
// bounded worker pool; every worker fills its own result slot and the
// coordinator merges them afterwards, keeping the hot path lock-free.
type DetectService struct {
	logger     *logging.Logger
	defaults   band.Config
	maxWorkers int
}

// NewDetectService validates the configured defaults eagerly: a bad span or
// band weight is rejected here, before any entity is ever processed.
func NewDetectService(logger *logging.Logger, cfg config.DetectorConfig) (*DetectService, error) {
	defaults := band.Config{
		Span:            cfg.Span,
		Weight:          cfg.Weight,
		UpperThreshold:  cfg.UpperThreshold,
		LowerThreshold:  cfg.LowerThreshold,
		EnableLowerSide: cfg.EnableLowerSide,
	}
	if err := defaults.Validate(); err != nil {
		return nil, fmt.Errorf("detector config: %w", err)
	}
	workers := cfg.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	return &DetectService{
		logger:     logger,
		defaults:   defaults,
		maxWorkers: workers,
	}, nil
}

// BaseConfig returns the configured default detection parameters, for
// callers that layer per-request overrides on top.
func (s *DetectService) BaseConfig() band.Config {
	return s.defaults
}

// DetectEvents runs detection over raw events: parse, partition by entity,
// aggregate each partition into a contiguous daily series, then score all
// series concurrently. Malformed events are dropped and counted.
func (s *DetectService) DetectEvents(ctx context.Context, raw []aggregation.RawEvent, opts RunOptions) (*Result, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, NewServiceError("INVALID_CONFIG", err.Error())
	}

	events, dropped := aggregation.ParseEvents(raw)
	order, byEntity := aggregation.Partition(events)

	series := make(map[string][]band.Point, len(order))
	for _, id := range order {
		series[id] = toPoints(aggregation.Daily(id, byEntity[id]))
	}

	result, err := s.run(ctx, order, series, opts)
	if err != nil {
		return nil, err
	}
	result.DroppedEvents = dropped
	return result, nil
}

// DetectSeries runs detection over pre-aggregated daily counts, for callers
// that already bucketed their events. Each entity's series must be
// contiguous; an entity failing that check is reported and skipped.
func (s *DetectService) DetectSeries(ctx context.Context, counts []aggregation.DailyCount, opts RunOptions) (*Result, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, NewServiceError("INVALID_CONFIG", err.Error())
	}

	var order []string
	grouped := make(map[string][]aggregation.DailyCount)
	for _, dc := range counts {
		if _, seen := grouped[dc.EntityID]; !seen {
			order = append(order, dc.EntityID)
		}
		grouped[dc.EntityID] = append(grouped[dc.EntityID], dc)
	}

	series := make(map[string][]band.Point, len(order))
	var failures []EntityFailure
	kept := order[:0]
	for _, id := range order {
		if err := aggregation.ValidateSeries(grouped[id]); err != nil {
			failures = append(failures, EntityFailure{EntityID: id, Reason: err.Error()})
			continue
		}
		series[id] = toPoints(grouped[id])
		kept = append(kept, id)
	}

	result, err := s.run(ctx, kept, series, opts)
	if err != nil {
		return nil, err
	}
	result.Failures = append(failures, result.Failures...)
	return result, nil
}

type entityResult struct {
	records   []band.Record
	anomalies []band.Anomaly
	failure   *EntityFailure
}

// run scores every entity's series on the worker pool and merges the
// per-entity outputs in entity order.
func (s *DetectService) run(ctx context.Context, order []string, series map[string][]band.Point, opts RunOptions) (*Result, error) {
	start := time.Now()

	results := make([]entityResult, len(order))
	sem := make(chan struct{}, s.maxWorkers)
	var wg sync.WaitGroup

	for i, id := range order {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(slot int, entityID string) {
			defer wg.Done()
			defer func() { <-sem }()

			records, anomalies, err := band.Score(entityID, series[entityID], opts.Config)
			if err != nil {
				// Config was validated up front, so this is a per-entity
				// condition: record it and move on.
				results[slot].failure = &EntityFailure{EntityID: entityID, Reason: err.Error()}
				return
			}
			results[slot].records = records
			results[slot].anomalies = anomalies
		}(i, id)
	}
	wg.Wait()

	out := &Result{Entities: len(order), Elapsed: time.Since(start)}
	for _, r := range results {
		if r.failure != nil {
			out.Failures = append(out.Failures, *r.failure)
			continue
		}
		if opts.IncludeRecords {
			out.Records = append(out.Records, r.records...)
		}
		out.Anomalies = append(out.Anomalies, r.anomalies...)
	}
	sortAnomalies(out.Anomalies, opts.SortBy)

	s.logger.Debug("Detection run complete",
		"entities", out.Entities,
		"anomalies", len(out.Anomalies),
		"failures", len(out.Failures),
		"elapsed", out.Elapsed,
	)
	return out, nil
}

func sortAnomalies(anomalies []band.Anomaly, key SortKey) {
	switch key {
	case SortPctB:
		sort.SliceStable(anomalies, func(i, j int) bool {
			// Scores are always defined on anomalies, but keep nil-safety.
			if anomalies[i].PctB == nil || anomalies[j].PctB == nil {
				return anomalies[j].PctB == nil
			}
			return *anomalies[i].PctB > *anomalies[j].PctB
		})
	case SortValue:
		sort.SliceStable(anomalies, func(i, j int) bool {
			return anomalies[i].Value > anomalies[j].Value
		})
	case SortDate:
		sort.SliceStable(anomalies, func(i, j int) bool {
			return anomalies[i].Date.Before(anomalies[j].Date)
		})
	}
}

func toPoints(series []aggregation.DailyCount) []band.Point {
	points := make([]band.Point, len(series))
	for i, dc := range series {
		points[i] = band.Point{Date: dc.Date, Value: float64(dc.Count)}
	}
	return points
}
