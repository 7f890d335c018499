package accum

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

func TestWelfordMatchesBatch(t *testing.T) {
	tests := []struct {
		name string
		gen  func(rng *rand.Rand, i int) float64
		n    int
	}{
		{"uniform", func(rng *rand.Rand, _ int) float64 { return 1 + rng.Float64() }, 1000},
		{"near duplicates", func(rng *rand.Rand, _ int) float64 { return 1 + 1e-6*rng.Float64() }, 100000},
		{"drift", func(_ *rand.Rand, i int) float64 { return 2 + 1e-5*float64(i) }, 100000},
		{"constant", func(_ *rand.Rand, _ int) float64 { return 1.2345 }, 5000},
	}

	for _, tt := range tests {
		rng := rand.New(rand.NewSource(1))
		xs := make([]float64, tt.n)
		var s PairStats
		for i := range xs {
			xs[i] = tt.gen(rng, i)
			s.Update(xs[i], r3.Vec{X: xs[i]})
		}

		mean, variance := stat.PopMeanVariance(xs, nil)

		if s.N != int64(tt.n) {
			t.Errorf("%s: expected n=%d, got %d", tt.name, tt.n, s.N)
		}
		if math.Abs(s.Mean-mean) > 1e-9*math.Abs(mean) {
			t.Errorf("%s: mean %g, batch %g", tt.name, s.Mean, mean)
		}
		if math.Abs(s.Variance()-variance) > 1e-6*variance+1e-18 {
			t.Errorf("%s: variance %g, batch %g", tt.name, s.Variance(), variance)
		}
		if s.M2 < 0 {
			t.Errorf("%s: negative M2 %g", tt.name, s.M2)
		}
	}
}

func TestWelfordBeatsNaiveSums(t *testing.T) {
	// values with a large offset make sum-of-squares lose every digit
	xs := []float64{1e9 + 4, 1e9 + 7, 1e9 + 13, 1e9 + 16}
	var s PairStats
	for _, x := range xs {
		s.Update(x, r3.Vec{})
	}
	if math.Abs(s.Variance()-22.5) > 1e-9 {
		t.Errorf("expected variance 22.5, got %g", s.Variance())
	}
}

func TestVarianceSmallSamples(t *testing.T) {
	var s PairStats
	if s.Variance() != 0 || s.RelativeFluctuation() != 0 {
		t.Error("empty stats should report zero")
	}

	s.Update(3, r3.Vec{X: 3})
	if s.Variance() != 0 {
		t.Errorf("single sample variance should be 0, got %g", s.Variance())
	}
	if s.Mean != 3 || s.Last != (r3.Vec{X: 3}) {
		t.Errorf("unexpected state %+v", s)
	}

	s.Update(5, r3.Vec{Y: 5})
	if s.Variance() != 1 {
		t.Errorf("expected variance 1, got %g", s.Variance())
	}
	if s.Last != (r3.Vec{Y: 5}) {
		t.Errorf("last displacement not updated: %v", s.Last)
	}
	if got := s.RelativeFluctuation(); math.Abs(got-0.25) > 1e-15 {
		t.Errorf("expected relative fluctuation 0.25, got %g", got)
	}
}

func TestRelativeFluctuationZeroMean(t *testing.T) {
	s := PairStats{N: 4}
	if s.RelativeFluctuation() != 0 {
		t.Error("zero mean should contribute 0")
	}
}
