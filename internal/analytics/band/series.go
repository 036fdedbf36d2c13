package band

import "fmt"

// Config holds the per-run detection parameters.
type Config struct {
	// Span controls how many recent days dominate the weighting
	// (alpha = 2/(span+1)). Ignored when Alpha is set explicitly.
	Span float64

	// Alpha, when non-zero, is the explicit decay factor in (0, 1].
	Alpha float64

	// Weight is the band multiplier K: boundaries sit K standard
	// deviations from the midband.
	Weight float64

	// UpperThreshold and LowerThreshold classify the percent-bandwidth
	// score. The lower side is only checked when EnableLowerSide is set.
	UpperThreshold  float64
	LowerThreshold  float64
	EnableLowerSide bool
}

// DefaultConfig mirrors the production defaults: a month-scale memory with
// wide bands, flagging upper-band crossings only.
func DefaultConfig() Config {
	return Config{
		Span:           30,
		Weight:         3.5,
		UpperThreshold: 1.0,
		LowerThreshold: 0.0,
	}
}

// Validate rejects degenerate parameters before any series is processed.
func (c Config) Validate() error {
	if c.Alpha != 0 {
		if c.Alpha < 0 || c.Alpha > 1 {
			return fmt.Errorf("alpha must be in (0, 1], got %v", c.Alpha)
		}
	} else if c.Span < 1 {
		return fmt.Errorf("span must be >= 1, got %v", c.Span)
	}
	if c.Weight <= 0 {
		return fmt.Errorf("band weight must be > 0, got %v", c.Weight)
	}
	if c.EnableLowerSide && c.LowerThreshold >= c.UpperThreshold {
		return fmt.Errorf("lower threshold %v must be below upper threshold %v",
			c.LowerThreshold, c.UpperThreshold)
	}
	return nil
}

func (c Config) newEstimator() (*Estimator, error) {
	if c.Alpha != 0 {
		return NewEstimatorAlpha(c.Alpha)
	}
	return NewEstimator(c.Span)
}

func (c Config) thresholds() Thresholds {
	return Thresholds{
		Upper:           c.UpperThreshold,
		Lower:           c.LowerThreshold,
		EnableLowerSide: c.EnableLowerSide,
	}
}

// Score runs the full single-series pipeline: estimator, bands, and
// percent-bandwidth classification. Each record carries the estimate over
// history up to and including its own day; its score, however, locates the
// value inside the previous day's band, so a spike never widens the band
// that judges it. The first record therefore has no score, and no record of
// an empty series exists at all.
//
// Score is pure: identical input and config produce identical output, and
// no state survives between calls.
func Score(entityID string, series []Point, cfg Config) ([]Record, []Anomaly, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if len(series) == 0 {
		return nil, nil, nil
	}

	est, err := cfg.newEstimator()
	if err != nil {
		return nil, nil, err
	}
	thresholds := cfg.thresholds()

	records := make([]Record, 0, len(series))
	var anomalies []Anomaly
	var prior *Bands

	for _, p := range series {
		mean, stdev := est.Update(p.Value)

		rec := Record{
			Date:     p.Date,
			EntityID: entityID,
			Value:    p.Value,
			Mean:     mean,
			Stdev:    stdev,
		}
		bands := Compute(mean, stdev, cfg.Weight)
		if bands != nil {
			rec.Upper = fptr(bands.Upper)
			rec.Lower = fptr(bands.Lower)
		}
		rec.PctB = prior.PctB(p.Value)

		if side, ok := thresholds.Classify(rec.PctB); ok {
			anomalies = append(anomalies, Anomaly{Record: rec, Side: side})
		}
		records = append(records, rec)
		prior = bands
	}

	return records, anomalies, nil
}
