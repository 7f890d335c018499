// Package lattice generates synthetic crystal trajectories.
//
// Sites of a simple-cubic, bcc or fcc lattice fill a box, and every frame
// displaces them by Gaussian thermal noise whose amplitude ramps linearly
// from Amplitude to MeltAmplitude. A non-zero Diffusion adds a random walk
// per particle, which is what a liquid looks like to the Lindemann index.
package lattice

import (
	"fmt"
	"iter"
	"math/rand"

	"github.com/san-kum/lindex/internal/pbc"
	"gonum.org/v1/gonum/spatial/r3"
)

type Kind string

const (
	SimpleCubic Kind = "sc"
	BCC         Kind = "bcc"
	FCC         Kind = "fcc"
)

var bases = map[Kind][]r3.Vec{
	SimpleCubic: {{}},
	BCC:         {{}, {X: 0.5, Y: 0.5, Z: 0.5}},
	FCC:         {{}, {X: 0.5, Y: 0.5}, {X: 0.5, Z: 0.5}, {Y: 0.5, Z: 0.5}},
}

// Kinds lists the supported lattices.
func Kinds() []Kind {
	return []Kind{SimpleCubic, BCC, FCC}
}

// Params describes a synthetic trajectory.
type Params struct {
	Kind          Kind
	Cells         [3]int
	Amplitude     float64
	MeltAmplitude float64
	Diffusion     float64
	Frames        int
	Seed          int64
}

func (p Params) Validate() error {
	if _, ok := bases[p.Kind]; !ok {
		return fmt.Errorf("unknown lattice kind %q, want one of %v", p.Kind, Kinds())
	}
	for _, c := range p.Cells {
		if c < 1 {
			return fmt.Errorf("lattice cells must be >= 1, got %v", p.Cells)
		}
	}
	if p.Amplitude < 0 || p.MeltAmplitude < 0 || p.Diffusion < 0 {
		return fmt.Errorf("amplitudes and diffusion must be >= 0")
	}
	if p.Frames < 1 {
		return fmt.Errorf("frames must be >= 1, got %d", p.Frames)
	}
	return nil
}

// Particles is the number of sites the parameters produce.
func (p Params) Particles() int {
	return len(bases[p.Kind]) * p.Cells[0] * p.Cells[1] * p.Cells[2]
}

// Sites places the lattice in the box, one unit cell per box subdivision.
// Triclinic boxes give a correspondingly sheared crystal.
func Sites(box pbc.Box, kind Kind, cells [3]int) ([]r3.Vec, error) {
	basis, ok := bases[kind]
	if !ok {
		return nil, fmt.Errorf("unknown lattice kind: %s", kind)
	}

	sites := make([]r3.Vec, 0, len(basis)*cells[0]*cells[1]*cells[2])
	for z := 0; z < cells[2]; z++ {
		for y := 0; y < cells[1]; y++ {
			for x := 0; x < cells[0]; x++ {
				for _, b := range basis {
					f := r3.Vec{
						X: (float64(x) + b.X + 0.25) / float64(cells[0]),
						Y: (float64(y) + b.Y + 0.25) / float64(cells[1]),
						Z: (float64(z) + b.Z + 0.25) / float64(cells[2]),
					}
					sites = append(sites, box.Cartesian(f))
				}
			}
		}
	}
	return sites, nil
}

// Generator produces the frames of one synthetic trajectory.
type Generator struct {
	params Params
	sites  []r3.Vec
}

func NewGenerator(box pbc.Box, params Params) (*Generator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	sites, err := Sites(box, params.Kind, params.Cells)
	if err != nil {
		return nil, err
	}
	return &Generator{params: params, sites: sites}, nil
}

func (g *Generator) Params() Params {
	return g.params
}

// Sites returns a copy of the undisplaced lattice.
func (g *Generator) Sites() []r3.Vec {
	out := make([]r3.Vec, len(g.sites))
	copy(out, g.sites)
	return out
}

// AmplitudeAt is the thermal amplitude used for frame f.
func (g *Generator) AmplitudeAt(f int) float64 {
	if g.params.Frames <= 1 {
		return g.params.Amplitude
	}
	t := float64(f) / float64(g.params.Frames-1)
	return g.params.Amplitude + t*(g.params.MeltAmplitude-g.params.Amplitude)
}

// Frames yields (index, positions) for every frame. Each frame is a new
// slice. The sequence restarts from the seed every time it is ranged over.
func (g *Generator) Frames() iter.Seq2[int, []r3.Vec] {
	return func(yield func(int, []r3.Vec) bool) {
		rng := rand.New(rand.NewSource(g.params.Seed))
		drift := make([]r3.Vec, len(g.sites))

		for f := 0; f < g.params.Frames; f++ {
			amp := g.AmplitudeAt(f)
			pos := make([]r3.Vec, len(g.sites))
			for i, s := range g.sites {
				if g.params.Diffusion > 0 {
					drift[i] = r3.Add(drift[i], gaussian(rng, g.params.Diffusion))
				}
				pos[i] = r3.Add(r3.Add(s, drift[i]), gaussian(rng, amp))
			}
			if !yield(f, pos) {
				return
			}
		}
	}
}

func gaussian(rng *rand.Rand, sigma float64) r3.Vec {
	if sigma == 0 {
		return r3.Vec{}
	}
	return r3.Vec{X: rng.NormFloat64() * sigma, Y: rng.NormFloat64() * sigma, Z: rng.NormFloat64() * sigma}
}
