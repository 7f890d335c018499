// Package accum keeps running distance statistics for particle pairs.
//
// Statistics use Welford's single-pass update, so a pair's mean and
// variance stay accurate over arbitrarily long trajectories without
// storing its history.
package accum

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// PairKey identifies an unordered pair. I < J for keys built with Key.
type PairKey struct {
	I, J int
}

// Key returns the canonical key for particles a and b.
func Key(a, b int) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{I: a, J: b}
}

// PairStats is the running state of one pair. The zero value is a pair
// that has never been in range.
type PairStats struct {
	N    int64
	Mean float64
	M2   float64
	// Last is the minimum-image displacement from I to J in the most
	// recent frame the pair was in range.
	Last r3.Vec
}

// Update folds one distance sample into the statistics.
func (s *PairStats) Update(x float64, delta r3.Vec) {
	s.N++
	d := x - s.Mean
	s.Mean += d / float64(s.N)
	s.M2 += d * (x - s.Mean)
	s.Last = delta
}

// Variance is the population variance M2/N, or 0 with fewer than two
// samples.
func (s PairStats) Variance() float64 {
	if s.N <= 1 {
		return 0
	}
	return s.M2 / float64(s.N)
}

func (s PairStats) Std() float64 {
	return math.Sqrt(s.Variance())
}

// RelativeFluctuation is the pair's Lindemann contribution, the rms
// fluctuation over the mean bond length. It is 0 for an empty pair or a
// zero mean.
func (s PairStats) RelativeFluctuation() float64 {
	if s.N == 0 || s.Mean == 0 {
		return 0
	}
	return s.Std() / s.Mean
}
