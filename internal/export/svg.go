package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/lindex/internal/lindemann"
)

// Point is one vertex of a polyline plot.
type Point struct {
	X, Y float64
}

// TraceSVG plots the ensemble index against frame number.
func TraceSVG(trace []lindemann.TracePoint, width, height int) string {
	points := make([]Point, len(trace))
	for i, p := range trace {
		points[i] = Point{X: float64(p.Frame), Y: p.Ensemble}
	}
	return LineSVG(points, width, height, "#00ffff")
}

// ParticlesSVG plots the per-particle index against particle number.
func ParticlesSVG(res lindemann.Result, width, height int) string {
	points := make([]Point, len(res.Particles))
	for i, v := range res.Particles {
		points[i] = Point{X: float64(i), Y: v}
	}
	return LineSVG(points, width, height, "#ff00ff")
}

// LineSVG draws points as a single path scaled to fit the image with 10%
// padding. Fewer than two points give an empty string.
func LineSVG(points []Point, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
