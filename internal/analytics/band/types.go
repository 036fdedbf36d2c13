// Package band implements the exponentially weighted volatility-band
// estimator behind BandWatch's anomaly detection: a recursive weighted
// mean/stdev over a daily count series, the derived band boundaries, and
// the percent-bandwidth score used to classify each observation against
// the entity's own recent norm.
package band

import "time"

// Point is a single observation in one entity's daily series.
type Point struct {
	Date  time.Time
	Value float64
}

// Record is the scored form of one Point. Pointer fields are nil when the
// quantity is undefined (insufficient history or a zero-width band); nil is
// never interchangeable with zero.
type Record struct {
	Date     time.Time `json:"date"`
	EntityID string    `json:"entity_id"`
	Value    float64   `json:"value"`
	Mean     float64   `json:"mean"`
	Stdev    *float64  `json:"stdev,omitempty"`
	Upper    *float64  `json:"upper,omitempty"`
	Lower    *float64  `json:"lower,omitempty"`
	PctB     *float64  `json:"pct_b,omitempty"`
}

// Side identifies which band boundary an anomaly crossed.
type Side string

const (
	SideUpper Side = "upper"
	SideLower Side = "lower"
)

// Anomaly is a Record whose percent-bandwidth crossed a configured
// threshold, tagged with the crossed side.
type Anomaly struct {
	Record
	Side Side `json:"side"`
}

// fptr returns a pointer to v. Records hold *float64 so that "undefined"
// survives JSON round-trips without sentinel values.
func fptr(v float64) *float64 { return &v }
