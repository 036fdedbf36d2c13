package band

// Thresholds configures anomaly classification on the percent-bandwidth
// score. The lower-side check is off by default: the upper crossing is the
// interesting one for activity spikes.
type Thresholds struct {
	Upper           float64
	Lower           float64
	EnableLowerSide bool
}

// DefaultThresholds flags values past the upper band only.
func DefaultThresholds() Thresholds {
	return Thresholds{Upper: 1.0, Lower: 0.0}
}

// Classify reports whether a score crosses a threshold and which side it
// crossed. An undefined score is never an anomaly.
func (t Thresholds) Classify(pctB *float64) (Side, bool) {
	if pctB == nil {
		return "", false
	}
	if *pctB > t.Upper {
		return SideUpper, true
	}
	if t.EnableLowerSide && *pctB < t.Lower {
		return SideLower, true
	}
	return "", false
}
