package band

import "testing"

func TestCompute_Boundaries(t *testing.T) {
	stdev := 2.0
	b := Compute(10, &stdev, 3)
	if b == nil {
		t.Fatal("expected bands for a defined stdev")
	}
	if b.Mid != 10 || b.Upper != 16 || b.Lower != 4 {
		t.Errorf("bands = %+v, want mid 10, upper 16, lower 4", b)
	}
	if b.Upper < b.Mid || b.Mid < b.Lower {
		t.Error("band ordering violated")
	}
}

func TestCompute_UndefinedStdevPropagates(t *testing.T) {
	if b := Compute(10, nil, 3); b != nil {
		t.Errorf("expected nil bands for undefined stdev, got %+v", b)
	}
}

func TestPctB_Positions(t *testing.T) {
	stdev := 1.0
	b := Compute(10, &stdev, 2) // lower 8, upper 12

	cases := []struct {
		value float64
		want  float64
	}{
		{10, 0.5}, // on the midband
		{12, 1.0}, // on the upper band
		{8, 0.0},  // on the lower band
		{14, 1.5}, // past the upper band
		{6, -0.5}, // past the lower band
	}
	for _, tc := range cases {
		got := b.PctB(tc.value)
		if got == nil {
			t.Fatalf("PctB(%v) undefined", tc.value)
		}
		if !almostEqual(*got, tc.want) {
			t.Errorf("PctB(%v) = %v, want %v", tc.value, *got, tc.want)
		}
	}
}

func TestPctB_ZeroWidthBandUndefined(t *testing.T) {
	stdev := 0.0
	b := Compute(5, &stdev, 3)
	if b == nil {
		t.Fatal("zero stdev still yields bands")
	}
	// The value cannot be located in a zero-width band, even when it sits
	// exactly on the midband.
	for _, v := range []float64{5, 6, 0} {
		if got := b.PctB(v); got != nil {
			t.Errorf("PctB(%v) = %v, want undefined for zero-width band", v, *got)
		}
	}
}

func TestPctB_NilBands(t *testing.T) {
	var b *Bands
	if got := b.PctB(3); got != nil {
		t.Errorf("PctB on nil bands = %v, want undefined", *got)
	}
}

func TestThresholds_Classify(t *testing.T) {
	th := DefaultThresholds()

	if _, ok := th.Classify(nil); ok {
		t.Error("undefined score classified as anomaly")
	}
	if side, ok := th.Classify(fptr(1.2)); !ok || side != SideUpper {
		t.Errorf("Classify(1.2) = (%v, %v), want upper anomaly", side, ok)
	}
	if _, ok := th.Classify(fptr(1.0)); ok {
		t.Error("score exactly at the threshold classified as anomaly")
	}
	// Lower side is off by default.
	if _, ok := th.Classify(fptr(-0.4)); ok {
		t.Error("lower-side anomaly flagged while disabled")
	}

	th.EnableLowerSide = true
	if side, ok := th.Classify(fptr(-0.4)); !ok || side != SideLower {
		t.Errorf("Classify(-0.4) = (%v, %v), want lower anomaly", side, ok)
	}
}
