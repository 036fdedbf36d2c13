package band

import (
	"fmt"
	"math"
)

// Estimator maintains an exponentially weighted mean and standard deviation
// over a single series. The value i steps in the past carries weight
// (1-alpha)^i, summed over the full history seen so far rather than a fixed
// window, so short series still produce well-defined means.
//
// The weighted sums are folded incrementally (O(1) per observation):
//
//	s0 = sum of weights
//	s1 = sum of weighted values
//	s2 = sum of weighted squared values
//	q0 = sum of squared weights (for the reliability correction)
//
// The variance is the weighted population variance scaled by
// s0^2/(s0^2 - q0), which is undefined until a second effective sample
// exists. That makes stdev nil at the first observation and for the
// degenerate alpha=1 case, where every step carries a single effective
// sample and the mean tracks the raw value exactly.
type Estimator struct {
	alpha float64
	decay float64

	n  int
	s0 float64
	s1 float64
	s2 float64
	q0 float64
}

// NewEstimator derives alpha = 2/(span+1) from a span of at least 1.
func NewEstimator(span float64) (*Estimator, error) {
	if span < 1 || math.IsNaN(span) || math.IsInf(span, 0) {
		return nil, fmt.Errorf("span must be >= 1, got %v", span)
	}
	return NewEstimatorAlpha(2 / (span + 1))
}

// NewEstimatorAlpha builds an estimator from an explicit decay factor in (0, 1].
func NewEstimatorAlpha(alpha float64) (*Estimator, error) {
	if alpha <= 0 || alpha > 1 || math.IsNaN(alpha) {
		return nil, fmt.Errorf("alpha must be in (0, 1], got %v", alpha)
	}
	return &Estimator{alpha: alpha, decay: 1 - alpha}, nil
}

// Alpha returns the per-step decay factor.
func (e *Estimator) Alpha() float64 { return e.alpha }

// Count returns the number of observations folded in so far.
func (e *Estimator) Count() int { return e.n }

// Update folds one observation into the running sums and returns the
// weighted mean and standard deviation over everything seen so far. The
// stdev is nil until at least two effective samples exist; for the first
// observation the mean is the value itself.
func (e *Estimator) Update(x float64) (mean float64, stdev *float64) {
	e.s0 = 1 + e.decay*e.s0
	e.s1 = x + e.decay*e.s1
	e.s2 = x*x + e.decay*e.s2
	e.q0 = 1 + e.decay*e.decay*e.q0
	e.n++

	mean = e.s1 / e.s0

	// s0^2 == q0 exactly when only one effective sample exists (n==1, or
	// alpha==1 at any n): no variance is defined there.
	denom := e.s0*e.s0 - e.q0
	if denom <= 0 {
		return mean, nil
	}

	variance := (e.s2/e.s0 - mean*mean) * (e.s0 * e.s0 / denom)
	if variance < 0 {
		// Rounding in the running sums can push an exact zero slightly
		// negative for constant series.
		variance = 0
	}
	return mean, fptr(math.Sqrt(variance))
}
