// Package neighbor enumerates particle pairs within a cutoff radius using a
// cell list over a periodic box.
package neighbor

import (
	"fmt"
	"iter"
	"math"

	"github.com/san-kum/lindex/internal/pbc"
	"gonum.org/v1/gonum/spatial/r3"
)

// maxCellsPerParticle bounds the grid size for sparse or widely spread
// frames. Coarser cells stay correct, only slower.
const (
	maxCellsPerParticle = 4
	minCells            = 27
)

// Bond is an in-range pair. Delta is the minimum-image vector from
// particle I to particle J and I < J.
type Bond struct {
	I, J  int
	Delta r3.Vec
	Dist  float64
}

// Finder builds cell lists for one box and cutoff. A Finder reuses its
// buffers between frames, so it must not be shared between goroutines
// that call Build.
type Finder struct {
	box   pbc.Box
	rmax  float64
	rmax2 float64

	frac  []r3.Vec
	cell  []int
	start []int
	order []int
}

// NewFinder validates the cutoff against the box.
func NewFinder(box pbc.Box, rmax float64) (*Finder, error) {
	if err := CheckCutoff(box, rmax); err != nil {
		return nil, err
	}
	return &Finder{box: box, rmax: rmax, rmax2: rmax * rmax}, nil
}

// CheckCutoff reports whether rmax is usable with box.
func CheckCutoff(box pbc.Box, rmax float64) error {
	if !(rmax > 0) || math.IsInf(rmax, 0) {
		return fmt.Errorf("%w: rmax=%g", ErrInvalidCutoff, rmax)
	}
	if w, ok := box.MinPeriodicWidth(); ok && rmax >= w/2 {
		return fmt.Errorf("%w: rmax=%g, half of smallest periodic width is %g", ErrAmbiguousCutoff, rmax, w/2)
	}
	return nil
}

func (f *Finder) Box() pbc.Box {
	return f.box
}

func (f *Finder) Cutoff() float64 {
	return f.rmax
}

// CellList is the binned view of one frame. It stays valid until the next
// call to Build on the Finder that produced it.
type CellList struct {
	box       pbc.Box
	rmax2     float64
	positions []r3.Vec
	periodic  [3]bool
	dims      [3]int
	coords    [][3]int
	start     []int
	order     []int
}

// Build bins positions into cells at least rmax wide. positions is read,
// never modified, and must not change while the CellList is in use.
func (f *Finder) Build(positions []r3.Vec) (*CellList, error) {
	n := len(positions)
	f.frac = grow(f.frac, n)

	lo := r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi := r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	periodic := f.box.Periodic()

	for i, p := range positions {
		if !finite(p) {
			return nil, fmt.Errorf("%w: particle %d at %v", ErrInvalidPosition, i, p)
		}
		fr := f.box.Fractional(p)
		if periodic[0] {
			fr.X -= math.Floor(fr.X)
		}
		if periodic[1] {
			fr.Y -= math.Floor(fr.Y)
		}
		if periodic[2] {
			fr.Z -= math.Floor(fr.Z)
		}
		f.frac[i] = fr
		lo = r3.Vec{X: math.Min(lo.X, fr.X), Y: math.Min(lo.Y, fr.Y), Z: math.Min(lo.Z, fr.Z)}
		hi = r3.Vec{X: math.Max(hi.X, fr.X), Y: math.Max(hi.Y, fr.Y), Z: math.Max(hi.Z, fr.Z)}
	}

	widths := f.box.Widths()
	w := [3]float64{widths.X, widths.Y, widths.Z}
	lower := [3]float64{lo.X, lo.Y, lo.Z}
	span := [3]float64{hi.X - lo.X, hi.Y - lo.Y, hi.Z - lo.Z}

	limit := max(minCells, maxCellsPerParticle*n)
	var dims [3]int
	var origin, scale [3]float64
	for a := 0; a < 3; a++ {
		extent := w[a]
		if periodic[a] {
			lower[a], span[a] = 0, 1
		} else {
			if n == 0 || span[a] <= 0 {
				lower[a], span[a] = 0, 1
				extent = 0
			} else {
				extent = span[a] * w[a]
			}
		}
		dims[a] = max(1, int(math.Min(extent/f.rmax, float64(limit))))
		origin[a] = lower[a]
	}
	limitCells(&dims, limit)
	for a := 0; a < 3; a++ {
		scale[a] = float64(dims[a]) / span[a]
	}

	cells := dims[0] * dims[1] * dims[2]
	f.cell = growInt(f.cell, n)
	f.start = growInt(f.start, cells+1)
	f.order = growInt(f.order, n)
	clear(f.start)

	coords := make([][3]int, n)
	for i, fr := range f.frac[:n] {
		c := [3]float64{fr.X, fr.Y, fr.Z}
		var cc [3]int
		for a := 0; a < 3; a++ {
			k := int((c[a] - origin[a]) * scale[a])
			cc[a] = min(max(k, 0), dims[a]-1)
		}
		coords[i] = cc
		id := (cc[2]*dims[1]+cc[1])*dims[0] + cc[0]
		f.cell[i] = id
		f.start[id+1]++
	}
	for c := 0; c < cells; c++ {
		f.start[c+1] += f.start[c]
	}
	fill := make([]int, cells)
	for i := 0; i < n; i++ {
		id := f.cell[i]
		f.order[f.start[id]+fill[id]] = i
		fill[id]++
	}

	return &CellList{
		box:       f.box,
		rmax2:     f.rmax2,
		positions: positions,
		periodic:  periodic,
		dims:      dims,
		coords:    coords,
		start:     f.start[:cells+1],
		order:     f.order[:n],
	}, nil
}

// FindPairs builds a cell list for positions and returns its pair sequence.
func (f *Finder) FindPairs(positions []r3.Vec) (iter.Seq[Bond], error) {
	cl, err := f.Build(positions)
	if err != nil {
		return nil, err
	}
	return cl.Pairs(), nil
}

func (cl *CellList) Len() int {
	return len(cl.positions)
}

func (cl *CellList) Dims() [3]int {
	return cl.dims
}

// Bonds yields every partner j > i of particle i within the cutoff.
func (cl *CellList) Bonds(i int) iter.Seq[Bond] {
	return func(yield func(Bond) bool) {
		pi := cl.positions[i]
		var axes [3][]int
		var buf [3][3]int
		for a := 0; a < 3; a++ {
			axes[a] = cl.neighborCoords(a, cl.coords[i][a], buf[a][:0])
		}
		for _, z := range axes[2] {
			for _, y := range axes[1] {
				for _, x := range axes[0] {
					id := (z*cl.dims[1]+y)*cl.dims[0] + x
					for _, j := range cl.order[cl.start[id]:cl.start[id+1]] {
						if j <= i {
							continue
						}
						d := cl.box.Displacement(pi, cl.positions[j])
						d2 := r3.Norm2(d)
						if d2 > cl.rmax2 {
							continue
						}
						if !yield(Bond{I: i, J: j, Delta: d, Dist: math.Sqrt(d2)}) {
							return
						}
					}
				}
			}
		}
	}
}

// Pairs yields every unordered in-range pair exactly once. The sequence
// can be ranged over any number of times.
func (cl *CellList) Pairs() iter.Seq[Bond] {
	return func(yield func(Bond) bool) {
		for i := range cl.positions {
			for b := range cl.Bonds(i) {
				if !yield(b) {
					return
				}
			}
		}
	}
}

// neighborCoords lists the distinct cell coordinates adjacent to c along
// axis a, c included.
func (cl *CellList) neighborCoords(a, c int, dst []int) []int {
	n := cl.dims[a]
	switch {
	case n == 1:
		return append(dst, 0)
	case cl.periodic[a] && n == 2:
		return append(dst, 0, 1)
	case cl.periodic[a]:
		return append(dst, (c+n-1)%n, c, (c+1)%n)
	}
	for k := c - 1; k <= c+1; k++ {
		if k >= 0 && k < n {
			dst = append(dst, k)
		}
	}
	return dst
}

// BruteForce checks every pair. It is the O(N^2) reference for the cell
// list.
func BruteForce(box pbc.Box, positions []r3.Vec, rmax float64) []Bond {
	rmax2 := rmax * rmax
	var bonds []Bond
	for i := range positions {
		for j := i + 1; j < len(positions); j++ {
			d := box.Displacement(positions[i], positions[j])
			d2 := r3.Norm2(d)
			if d2 <= rmax2 {
				bonds = append(bonds, Bond{I: i, J: j, Delta: d, Dist: math.Sqrt(d2)})
			}
		}
	}
	return bonds
}

// limitCells halves the longest axis until the grid holds at most limit
// cells.
func limitCells(dims *[3]int, limit int) {
	for !withinLimit(*dims, limit) {
		a := 0
		for k := 1; k < 3; k++ {
			if dims[k] > dims[a] {
				a = k
			}
		}
		if dims[a] == 1 {
			return
		}
		dims[a] = (dims[a] + 1) / 2
	}
}

// withinLimit reports whether the product of dims is at most limit without
// forming a product that could overflow.
func withinLimit(dims [3]int, limit int) bool {
	cells := 1
	for _, d := range dims {
		if d > limit/cells {
			return false
		}
		cells *= d
	}
	return true
}

func finite(p r3.Vec) bool {
	for _, c := range [3]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func grow(s []r3.Vec, n int) []r3.Vec {
	if cap(s) < n {
		return make([]r3.Vec, n)
	}
	return s[:n]
}

func growInt(s []int, n int) []int {
	if cap(s) < n {
		return make([]int, n)
	}
	return s[:n]
}
