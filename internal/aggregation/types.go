// Package aggregation turns raw view events into the contiguous per-entity
// daily count series the band estimator consumes. Gap days between the first
// and last observed date become explicit zero-count days: the estimator's
// weighting assumes one discrete step per day, so skipping days would
// distort the decay.
package aggregation

import "time"

// RawEvent is one unparsed view event as it arrives from the outside:
// a timestamp string and an opaque entity identifier.
type RawEvent struct {
	Timestamp string `json:"timestamp"`
	EntityID  string `json:"entity_id"`
}

// Event is a parsed view event.
type Event struct {
	Time     time.Time
	EntityID string
}

// DailyCount is one calendar day of activity for one entity. Series built
// by this package are contiguous: dates increase by exactly one day.
type DailyCount struct {
	Date     time.Time `json:"date"`
	EntityID string    `json:"entity_id"`
	Count    int       `json:"count"`
}
