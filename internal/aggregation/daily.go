package aggregation

import (
	"fmt"
	"time"
)

// Timestamp layouts accepted for raw events, tried in order.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an event timestamp in any of the accepted layouts.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ParseEvents parses raw events, dropping any with a malformed timestamp or
// missing entity id. Dropped events are counted, not fatal: one bad row
// never aborts a batch.
func ParseEvents(raw []RawEvent) (events []Event, dropped int) {
	events = make([]Event, 0, len(raw))
	for _, r := range raw {
		if r.EntityID == "" {
			dropped++
			continue
		}
		ts, err := ParseTimestamp(r.Timestamp)
		if err != nil {
			dropped++
			continue
		}
		events = append(events, Event{Time: ts, EntityID: r.EntityID})
	}
	return events, dropped
}

// Partition groups events by entity, preserving the order in which entities
// first appear. Each entity's slice is an independent unit: downstream
// pipelines never share state across partitions.
func Partition(events []Event) (order []string, byEntity map[string][]Event) {
	byEntity = make(map[string][]Event)
	for _, ev := range events {
		if _, seen := byEntity[ev.EntityID]; !seen {
			order = append(order, ev.EntityID)
		}
		byEntity[ev.EntityID] = append(byEntity[ev.EntityID], ev)
	}
	return order, byEntity
}

// day truncates a timestamp to its UTC calendar date.
func day(ts time.Time) time.Time {
	ts = ts.UTC()
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}

// Daily buckets one entity's events into calendar-day counts and fills every
// gap between the first and last observed date with a zero-count day. An
// empty input yields an empty series.
func Daily(entityID string, events []Event) []DailyCount {
	if len(events) == 0 {
		return nil
	}

	counts := make(map[time.Time]int)
	first, last := day(events[0].Time), day(events[0].Time)
	for _, ev := range events {
		d := day(ev.Time)
		counts[d]++
		if d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}

	series := make([]DailyCount, 0, int(last.Sub(first).Hours()/24)+1)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		series = append(series, DailyCount{
			Date:     d,
			EntityID: entityID,
			Count:    counts[d],
		})
	}
	return series
}

// ValidateSeries checks a caller-supplied pre-aggregated series for the
// invariants Daily guarantees: strictly one-day date steps and non-negative
// counts.
func ValidateSeries(series []DailyCount) error {
	for i, dc := range series {
		if dc.Count < 0 {
			return fmt.Errorf("negative count %d at %s", dc.Count, dc.Date.Format("2006-01-02"))
		}
		if i == 0 {
			continue
		}
		if got := day(series[i-1].Date).AddDate(0, 0, 1); !day(dc.Date).Equal(got) {
			return fmt.Errorf("series not contiguous at index %d: %s does not follow %s",
				i, dc.Date.Format("2006-01-02"), series[i-1].Date.Format("2006-01-02"))
		}
	}
	return nil
}
