package band

// Bands is the expected range for one observation: the weighted mean as
// midband, plus/minus Weight standard deviations.
type Bands struct {
	Mid   float64
	Upper float64
	Lower float64
}

// Compute derives band boundaries from an estimate. A nil stdev means no
// band is available yet; that state propagates rather than collapsing to a
// zero-width band.
func Compute(mean float64, stdev *float64, weight float64) *Bands {
	if stdev == nil {
		return nil
	}
	return &Bands{
		Mid:   mean,
		Upper: mean + weight*(*stdev),
		Lower: mean - weight*(*stdev),
	}
}

// Width returns the distance between the upper and lower boundaries.
func (b *Bands) Width() float64 {
	return b.Upper - b.Lower
}

// PctB locates a value inside the band range: 0.5 on the midband, above 1
// past the upper band, below 0 past the lower band. A zero-width band (a
// perfectly constant history) cannot locate any value, so the result is nil.
func (b *Bands) PctB(value float64) *float64 {
	if b == nil || b.Width() == 0 {
		return nil
	}
	return fptr((value - b.Lower) / b.Width())
}
