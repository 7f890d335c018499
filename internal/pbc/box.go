package pbc

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Box is a triclinic periodic cell. The zero value is not usable; build
// boxes with NewBox, NewCubic or NewOrthorhombic.
type Box struct {
	lx, ly, lz float64
	xy, xz, yz float64
	periodic   [3]bool
	ortho      bool
	half       r3.Vec
}

// NewBox validates and returns a triclinic box. Every periodic length must
// be positive. A non-periodic axis may carry a non-positive length, in which
// case it is taken as 1 for the fractional transform.
func NewBox(lx, ly, lz, xy, xz, yz float64, periodic [3]bool) (Box, error) {
	lengths := [3]float64{lx, ly, lz}
	names := [3]string{"lx", "ly", "lz"}
	for a, l := range lengths {
		if math.IsNaN(l) || math.IsInf(l, 0) {
			return Box{}, fmt.Errorf("%w: %s=%g is not finite", ErrInvalidBox, names[a], l)
		}
		if l <= 0 {
			if periodic[a] {
				return Box{}, fmt.Errorf("%w: periodic length %s=%g must be positive", ErrInvalidBox, names[a], l)
			}
			lengths[a] = 1
		}
	}
	for _, t := range [3]float64{xy, xz, yz} {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return Box{}, fmt.Errorf("%w: tilt factor %g is not finite", ErrInvalidBox, t)
		}
	}

	b := Box{
		lx:       lengths[0],
		ly:       lengths[1],
		lz:       lengths[2],
		xy:       xy,
		xz:       xz,
		yz:       yz,
		periodic: periodic,
		ortho:    xy == 0 && xz == 0 && yz == 0,
	}
	b.half = r3.Vec{X: b.lx / 2, Y: b.ly / 2, Z: b.lz / 2}
	return b, nil
}

// NewOrthorhombic returns a fully periodic rectangular box.
func NewOrthorhombic(lx, ly, lz float64) (Box, error) {
	return NewBox(lx, ly, lz, 0, 0, 0, [3]bool{true, true, true})
}

// NewCubic returns a fully periodic cube of side l.
func NewCubic(l float64) (Box, error) {
	return NewOrthorhombic(l, l, l)
}

func (b Box) Lengths() r3.Vec {
	return r3.Vec{X: b.lx, Y: b.ly, Z: b.lz}
}

func (b Box) Tilts() (xy, xz, yz float64) {
	return b.xy, b.xz, b.yz
}

func (b Box) Periodic() [3]bool {
	return b.periodic
}

func (b Box) IsOrthorhombic() bool {
	return b.ortho
}

func (b Box) Volume() float64 {
	return b.lx * b.ly * b.lz
}

// LatticeVectors returns a1, a2 and a3.
func (b Box) LatticeVectors() (a1, a2, a3 r3.Vec) {
	a1 = r3.Vec{X: b.lx}
	a2 = r3.Vec{X: b.xy * b.ly, Y: b.ly}
	a3 = r3.Vec{X: b.xz * b.lz, Y: b.yz * b.lz, Z: b.lz}
	return
}

// Widths returns the perpendicular distance between each pair of opposite
// faces. For an orthorhombic box these are the lengths.
func (b Box) Widths() r3.Vec {
	if b.ortho {
		return b.Lengths()
	}
	a1, a2, a3 := b.LatticeVectors()
	v := b.Volume()
	return r3.Vec{
		X: v / r3.Norm(r3.Cross(a2, a3)),
		Y: v / r3.Norm(r3.Cross(a3, a1)),
		Z: v / r3.Norm(r3.Cross(a1, a2)),
	}
}

// MinPeriodicWidth returns the smallest face-to-face width over periodic
// axes. ok is false when no axis is periodic.
func (b Box) MinPeriodicWidth() (w float64, ok bool) {
	widths := b.Widths()
	w = math.Inf(1)
	for a, ww := range [3]float64{widths.X, widths.Y, widths.Z} {
		if b.periodic[a] && ww < w {
			w, ok = ww, true
		}
	}
	return w, ok
}

// Fractional converts a Cartesian vector into lattice coordinates.
func (b Box) Fractional(v r3.Vec) r3.Vec {
	fz := v.Z / b.lz
	fy := (v.Y - b.yz*v.Z) / b.ly
	fx := (v.X - b.xy*b.ly*fy - b.xz*v.Z) / b.lx
	return r3.Vec{X: fx, Y: fy, Z: fz}
}

// Cartesian converts lattice coordinates back into a Cartesian vector.
func (b Box) Cartesian(f r3.Vec) r3.Vec {
	return r3.Vec{
		X: b.lx*f.X + b.xy*b.ly*f.Y + b.xz*b.lz*f.Z,
		Y: b.ly*f.Y + b.yz*b.lz*f.Z,
		Z: b.lz * f.Z,
	}
}

// Wrap returns the minimum image of the displacement v. Each periodic
// fractional component ends up in [-0.5, 0.5).
func (b Box) Wrap(v r3.Vec) r3.Vec {
	if b.ortho && b.withinHalf(v) {
		return v
	}
	f := b.Fractional(v)
	if b.periodic[0] {
		f.X -= math.Floor(f.X + 0.5)
	}
	if b.periodic[1] {
		f.Y -= math.Floor(f.Y + 0.5)
	}
	if b.periodic[2] {
		f.Z -= math.Floor(f.Z + 0.5)
	}
	return b.Cartesian(f)
}

// Displacement returns the minimum-image vector pointing from a to b.
func (b Box) Displacement(a, p r3.Vec) r3.Vec {
	return b.Wrap(r3.Sub(p, a))
}

// Distance is the length of Displacement(a, p).
func (b Box) Distance(a, p r3.Vec) float64 {
	return r3.Norm(b.Displacement(a, p))
}

// WrapPosition returns the periodic image of p inside the box. Fractional
// components on periodic axes end up in [0, 1).
func (b Box) WrapPosition(p r3.Vec) r3.Vec {
	f := b.Fractional(p)
	if b.periodic[0] {
		f.X = wrapUnit(f.X)
	}
	if b.periodic[1] {
		f.Y = wrapUnit(f.Y)
	}
	if b.periodic[2] {
		f.Z = wrapUnit(f.Z)
	}
	return b.Cartesian(f)
}

func (b Box) String() string {
	p := func(ok bool) string {
		if ok {
			return "p"
		}
		return "f"
	}
	xy, xz, yz := b.Tilts()
	return fmt.Sprintf("box[%g %g %g | %g %g %g | %s%s%s]",
		b.lx, b.ly, b.lz, xy, xz, yz,
		p(b.periodic[0]), p(b.periodic[1]), p(b.periodic[2]))
}

func (b Box) withinHalf(v r3.Vec) bool {
	if b.periodic[0] && (v.X < -b.half.X || v.X >= b.half.X) {
		return false
	}
	if b.periodic[1] && (v.Y < -b.half.Y || v.Y >= b.half.Y) {
		return false
	}
	if b.periodic[2] && (v.Z < -b.half.Z || v.Z >= b.half.Z) {
		return false
	}
	return true
}

func wrapUnit(f float64) float64 {
	f -= math.Floor(f)
	// f may round up to exactly 1 for tiny negative inputs
	if f >= 1 {
		f = 0
	}
	return f
}
