package lindemann

import (
	"testing"

	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/lindex/internal/accum"
	"github.com/san-kum/lindex/internal/pbc"
)

func mustCubic(t *testing.T, l float64) pbc.Box {
	t.Helper()
	box, err := pbc.NewCubic(l)
	if err != nil {
		t.Fatalf("new box: %v", err)
	}
	return box
}

func TestReduceKnownValues(t *testing.T) {
	g := NewWithT(t)

	tb := accum.NewTable(4)
	tb.Update(accum.Key(0, 1), 1, r3.Vec{})
	tb.Update(accum.Key(0, 1), 3, r3.Vec{})
	tb.Update(accum.Key(1, 2), 2, r3.Vec{})
	tb.Update(accum.Key(1, 2), 2, r3.Vec{})

	res := Reduce(tb, 4)

	g.Expect(res.Particles).To(HaveLen(4))
	g.Expect(res.Particles[0]).To(BeNumerically("~", 0.5, 1e-15))
	g.Expect(res.Particles[1]).To(BeNumerically("~", 0.25, 1e-15))
	g.Expect(res.Particles[2]).To(BeZero())
	g.Expect(res.Particles[3]).To(BeZero())
	g.Expect(res.Neighbors).To(Equal([]int{1, 2, 1, 0}))
	g.Expect(res.Valid).To(Equal(3))
	g.Expect(res.Pairs).To(Equal(2))
	g.Expect(res.Ensemble).To(BeNumerically("~", 0.25, 1e-15))
}

func TestReduceNilTable(t *testing.T) {
	g := NewWithT(t)

	res := Reduce(nil, 3)
	g.Expect(res.Particles).To(Equal([]float64{0, 0, 0}))
	g.Expect(res.Valid).To(BeZero())
	g.Expect(res.Ensemble).To(BeZero())
}

func TestReduceCoincidentPair(t *testing.T) {
	g := NewWithT(t)

	tb := accum.NewTable(3)
	tb.Update(accum.Key(0, 1), 0, r3.Vec{})
	tb.Update(accum.Key(0, 2), 1, r3.Vec{})
	tb.Update(accum.Key(0, 2), 3, r3.Vec{})

	res := Reduce(tb, 3)
	g.Expect(res.Neighbors[0]).To(Equal(2))
	g.Expect(res.Particles[0]).To(BeNumerically("~", 0.25, 1e-15))
	g.Expect(res.Particles[1]).To(BeZero())
	g.Expect(res.Valid).To(Equal(3))
}

func TestParallelForCoversRange(t *testing.T) {
	g := NewWithT(t)

	for _, workers := range []int{1, 2, 7} {
		hits := make([]int, 1000)
		parallelFor(workers, len(hits), 10, func(start, end int) {
			for i := start; i < end; i++ {
				hits[i]++
			}
		})
		for i, h := range hits {
			g.Expect(h).To(Equal(1), "index %d with %d workers", i, workers)
		}
	}
}

func TestTraceRecordsEveryNthFrame(t *testing.T) {
	g := NewWithT(t)

	box := mustCubic(t, 10)
	eng, err := New(box, Options{RMax: 1.5, Dr: 0.1, Threads: 1})
	g.Expect(err).NotTo(HaveOccurred())

	tr := &Trace{Every: 2}
	eng.AddObserver(tr)

	frames := [][]r3.Vec{
		{{X: 1}, {X: 2}},
		{{X: 1}, {X: 2.2}},
		{{X: 1}, {X: 1.9}},
		{{X: 1}, {X: 2.1}},
		{{X: 1}, {X: 2}},
	}
	for _, f := range frames {
		g.Expect(eng.IngestFrame(f)).To(Succeed())
	}
	tr.Record(eng)
	tr.Record(eng)

	points := tr.Points()
	g.Expect(points).To(HaveLen(3))
	g.Expect([]int{points[0].Frame, points[1].Frame, points[2].Frame}).To(Equal([]int{2, 4, 5}))
	g.Expect(points[2].Ensemble).To(Equal(eng.CurrentResult().Ensemble))
	g.Expect(tr.Series()).To(HaveLen(3))

	last, ok := tr.Last()
	g.Expect(ok).To(BeTrue())
	g.Expect(last).To(Equal(points[2]))

	tr.Reset()
	g.Expect(tr.Points()).To(BeEmpty())
	_, ok = tr.Last()
	g.Expect(ok).To(BeFalse())
}
