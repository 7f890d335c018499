package lindemann

import (
	"github.com/san-kum/lindex/internal/accum"
	"gonum.org/v1/gonum/stat"
)

// Result is a reduction of the pair statistics. Every slice is freshly
// allocated and owned by the caller.
type Result struct {
	// Particles holds the per-particle Lindemann index.
	Particles []float64
	// Neighbors holds, per particle, the number of pairs that contributed.
	Neighbors []int
	// Ensemble is the mean index over particles with at least one
	// neighbor, or 0 when Valid is 0.
	Ensemble float64
	Valid    int
	Pairs    int
	Frames   int
}

// Reduce computes per-particle indices for n particles:
//
//	L(i) = 1/|S(i)| * sum over pairs p in S(i) of std(p)/mean(p)
//
// where S(i) is the set of pairs containing i that were in range at least
// once. Particles with no such pair get 0 and are left out of Ensemble.
func Reduce(table *accum.Table, n int) Result {
	res := Result{
		Particles: make([]float64, n),
		Neighbors: make([]int, n),
	}
	if table == nil {
		return res
	}

	for key, s := range table.All() {
		if s.N == 0 || key.J >= n {
			continue
		}
		c := s.RelativeFluctuation()
		res.Particles[key.I] += c
		res.Particles[key.J] += c
		res.Neighbors[key.I]++
		res.Neighbors[key.J]++
		res.Pairs++
	}

	valid := make([]float64, 0, n)
	for i, k := range res.Neighbors {
		if k == 0 {
			continue
		}
		res.Particles[i] /= float64(k)
		valid = append(valid, res.Particles[i])
	}

	res.Valid = len(valid)
	if res.Valid > 0 {
		res.Ensemble = stat.Mean(valid, nil)
	}
	return res
}
