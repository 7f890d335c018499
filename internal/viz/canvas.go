package viz

import (
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/lindex/internal/pbc"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set sets a pixel at (x, y) in sub-pixel coordinates.
// The canvas size in sub-pixels is (Width*2) x (Height*4).
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// IsSet reports whether the sub-pixel at (x, y) is lit.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

// Clear resets the canvas
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// Plane selects the two box axes a projection is drawn on.
type Plane int

const (
	PlaneXY Plane = iota
	PlaneXZ
	PlaneYZ
)

func (p Plane) String() string {
	switch p {
	case PlaneXZ:
		return "xz"
	case PlaneYZ:
		return "yz"
	default:
		return "xy"
	}
}

func (p Plane) Next() Plane {
	return (p + 1) % 3
}

// Project clears the canvas and plots every position on the chosen plane
// of the box, in fractional coordinates so triclinic cells fill the
// canvas. Positions outside a periodic cell are wrapped first.
func (c *Canvas) Project(box pbc.Box, positions []r3.Vec, plane Plane) {
	c.Clear()
	w, h := c.Width*2, c.Height*4
	for _, p := range positions {
		f := box.Fractional(box.WrapPosition(p))
		var u, v float64
		switch plane {
		case PlaneXZ:
			u, v = f.X, f.Z
		case PlaneYZ:
			u, v = f.Y, f.Z
		default:
			u, v = f.X, f.Y
		}
		x := int(u * float64(w))
		y := int((1 - v) * float64(h))
		c.Set(min(max(x, 0), w-1), min(max(y, 0), h-1))
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}
