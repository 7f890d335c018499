package export

import (
	"strings"
	"testing"

	"github.com/san-kum/lindex/internal/lindemann"
)

func TestLineSVGScalesIntoViewBox(t *testing.T) {
	svg := LineSVG([]Point{{0, 0}, {10, 1}}, 120, 60, "#fff")

	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatalf("not an svg document:\n%s", svg)
	}
	// 10% padding on each side of a 10 wide range maps x=0 to 10 and x=10 to 110.
	if !strings.Contains(svg, `d="M10.0,55.0 L110.0,5.0"`) {
		t.Errorf("unexpected path:\n%s", svg)
	}
}

func TestLineSVGNeedsTwoPoints(t *testing.T) {
	if svg := LineSVG([]Point{{1, 1}}, 10, 10, "#fff"); svg != "" {
		t.Errorf("expected empty output, got %q", svg)
	}
}

func TestTraceAndParticlesSVG(t *testing.T) {
	trace := []lindemann.TracePoint{{Frame: 1, Ensemble: 0.01}, {Frame: 2, Ensemble: 0.02}, {Frame: 3, Ensemble: 0.02}}
	if svg := TraceSVG(trace, 100, 50); strings.Count(svg, " L") != 2 {
		t.Errorf("trace svg should have 3 vertices:\n%s", svg)
	}

	res := lindemann.Result{Particles: []float64{0.1, 0.1}}
	svg := ParticlesSVG(res, 100, 50)
	if !strings.Contains(svg, `stroke="#ff00ff"`) {
		t.Errorf("missing stroke color:\n%s", svg)
	}
}
