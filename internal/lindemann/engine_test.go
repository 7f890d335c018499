package lindemann_test

import (
	"errors"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/lindex/internal/lindemann"
	"github.com/san-kum/lindex/internal/neighbor"
	"github.com/san-kum/lindex/internal/pbc"
)

func jitteredFrames(rng *rand.Rand, base []r3.Vec, frames int, amp float64) [][]r3.Vec {
	out := make([][]r3.Vec, frames)
	for f := range out {
		pos := make([]r3.Vec, len(base))
		for i, p := range base {
			pos[i] = r3.Add(p, r3.Vec{X: rng.NormFloat64() * amp, Y: rng.NormFloat64() * amp, Z: rng.NormFloat64() * amp})
		}
		out[f] = pos
	}
	return out
}

func randomBase(rng *rand.Rand, n int, l float64) []r3.Vec {
	base := make([]r3.Vec, n)
	for i := range base {
		base[i] = r3.Vec{X: rng.Float64() * l, Y: rng.Float64() * l, Z: rng.Float64() * l}
	}
	return base
}

var _ = Describe("Engine", func() {
	var box pbc.Box

	BeforeEach(func() {
		var err error
		box, err = pbc.NewCubic(10)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("construction", func() {
		It("rejects a cutoff that admits several images", func() {
			_, err := lindemann.New(box, lindemann.Options{RMax: 6, Dr: 0.1})
			Expect(errors.Is(err, neighbor.ErrAmbiguousCutoff)).To(BeTrue())
		})

		It("rejects an uninitialised box", func() {
			_, err := lindemann.New(pbc.Box{}, lindemann.Options{RMax: 1, Dr: 0.1})
			Expect(errors.Is(err, pbc.ErrInvalidBox)).To(BeTrue())
		})

		It("rejects invalid options", func() {
			for _, opts := range []lindemann.Options{
				{RMax: 0, Dr: 0.1},
				{RMax: 1, Dr: 0},
				{RMax: 1, Dr: 0.1, Threads: -1},
				{RMax: 1, Dr: 0.1, Particles: -3},
			} {
				_, err := lindemann.New(box, opts)
				Expect(err).To(MatchError(lindemann.ErrInvalidOptions))
			}
		})

		It("defaults the worker count to the host", func() {
			eng, err := lindemann.New(box, lindemann.Options{RMax: 1, Dr: 0.1})
			Expect(err).NotTo(HaveOccurred())
			Expect(eng.Workers()).To(BeNumerically(">=", 1))
		})
	})

	Describe("three particles on a line", func() {
		var eng *lindemann.Engine
		frame := []r3.Vec{{X: 0}, {X: 1}, {X: 9}}

		BeforeEach(func() {
			var err error
			eng, err = lindemann.New(box, lindemann.Options{RMax: 2.5, Dr: 0.1, Threads: 2})
			Expect(err).NotTo(HaveOccurred())
			for f := 0; f < 5; f++ {
				Expect(eng.IngestFrame(frame)).To(Succeed())
			}
		})

		It("measures the wrapped distance", func() {
			s := eng.Stats(0, 2)
			Expect(s.N).To(BeEquivalentTo(5))
			Expect(s.Mean).To(BeNumerically("~", 1.0, 1e-12))
			Expect(s.Variance()).To(BeZero())
			Expect(s.Last.X).To(BeNumerically("~", -1.0, 1e-12))

			Expect(eng.Stats(2, 1).Mean).To(BeNumerically("~", 2.0, 1e-12))
		})

		It("reports a zero index everywhere", func() {
			res := eng.CurrentResult()
			Expect(res.Particles).To(Equal([]float64{0, 0, 0}))
			Expect(res.Ensemble).To(BeZero())
			Expect(res.Valid).To(Equal(3))
			Expect(res.Pairs).To(Equal(3))
			Expect(res.Frames).To(Equal(5))
		})
	})

	Describe("reads", func() {
		It("are idempotent and never alias engine storage", func() {
			rng := rand.New(rand.NewSource(2))
			base := randomBase(rng, 200, 10)
			eng, _ := lindemann.New(box, lindemann.Options{RMax: 1.5, Dr: 0.1, Threads: 4})
			for _, f := range jitteredFrames(rng, base, 10, 0.05) {
				Expect(eng.IngestFrame(f)).To(Succeed())
			}

			first := eng.CurrentResult()
			first.Particles[0] = 42
			second := eng.CurrentResult()
			third := eng.CurrentResult()

			Expect(second.Particles[0]).NotTo(Equal(42.0))
			Expect(third).To(Equal(second))
			Expect(second.Ensemble).To(BeNumerically(">", 0))
		})
	})

	Describe("isolated particles", func() {
		It("get zero and are left out of the ensemble", func() {
			eng, _ := lindemann.New(box, lindemann.Options{RMax: 1.5, Dr: 0.1})
			frames := [][]r3.Vec{
				{{X: 1}, {X: 2}, {X: 6, Y: 5, Z: 5}},
				{{X: 1}, {X: 2.2}, {X: 6, Y: 5, Z: 5}},
				{{X: 1}, {X: 1.8}, {X: 6, Y: 5, Z: 5}},
			}
			for _, f := range frames {
				Expect(eng.IngestFrame(f)).To(Succeed())
			}

			res := eng.CurrentResult()
			Expect(res.Particles[2]).To(BeZero())
			Expect(res.Neighbors[2]).To(BeZero())
			Expect(res.Valid).To(Equal(2))
			Expect(res.Particles[0]).To(BeNumerically(">", 0))
			Expect(res.Ensemble).To(BeNumerically("~", (res.Particles[0]+res.Particles[1])/2, 1e-15))
		})

		It("yield a detectable degenerate ensemble", func() {
			eng, _ := lindemann.New(box, lindemann.Options{RMax: 1, Dr: 0.1})
			Expect(eng.IngestFrame([]r3.Vec{{X: 1}, {X: 5}})).To(Succeed())

			res := eng.CurrentResult()
			Expect(res.Valid).To(BeZero())
			Expect(res.Ensemble).To(BeZero())
			Expect(res.Particles).To(Equal([]float64{0, 0}))
		})
	})

	Describe("pairs leaving the cutoff", func() {
		It("keep the statistics from the frames they were in range", func() {
			eng, _ := lindemann.New(box, lindemann.Options{RMax: 1.5, Dr: 0.1})
			Expect(eng.IngestFrame([]r3.Vec{{X: 1}, {X: 2}})).To(Succeed())
			Expect(eng.IngestFrame([]r3.Vec{{X: 1}, {X: 2.5}})).To(Succeed())
			Expect(eng.IngestFrame([]r3.Vec{{X: 1}, {X: 4}})).To(Succeed())

			s := eng.Stats(0, 1)
			Expect(s.N).To(BeEquivalentTo(2))
			Expect(s.Mean).To(BeNumerically("~", 1.25, 1e-12))
			Expect(eng.Frames()).To(Equal(3))
		})
	})

	Describe("a slab with a stray particle", func() {
		It("ingests frames spread far along the open axis", func() {
			slab, err := pbc.NewBox(10, 10, 10, 0, 0, 0, [3]bool{true, true, false})
			Expect(err).NotTo(HaveOccurred())
			eng, err := lindemann.New(slab, lindemann.Options{RMax: 1.5, Dr: 0.1, Threads: 2})
			Expect(err).NotTo(HaveOccurred())

			far := math.Ldexp(1, 21)
			Expect(eng.IngestFrame([]r3.Vec{{X: 1}, {X: 2}, {X: 5, Y: 5, Z: far}})).To(Succeed())
			Expect(eng.IngestFrame([]r3.Vec{{X: 1}, {X: 2.5}, {X: 5, Y: 5, Z: 2 * far}})).To(Succeed())

			Expect(eng.Stats(0, 1).Mean).To(BeNumerically("~", 1.25, 1e-12))
			res := eng.CurrentResult()
			Expect(res.Neighbors).To(Equal([]int{1, 1, 0}))
			Expect(res.Valid).To(Equal(2))
		})
	})

	Describe("parallel ingest", func() {
		It("produces the same pair statistics for 1 and 4 workers", func() {
			rng := rand.New(rand.NewSource(4))
			base := randomBase(rng, 800, 10)
			frames := jitteredFrames(rng, base, 6, 0.1)

			run := func(threads int) *lindemann.Engine {
				eng, err := lindemann.New(box, lindemann.Options{RMax: 1.2, Dr: 0.1, Threads: threads})
				Expect(err).NotTo(HaveOccurred())
				for _, f := range frames {
					Expect(eng.IngestFrame(f)).To(Succeed())
				}
				return eng
			}

			serial, parallel := run(1), run(4)
			Expect(serial.Pairs()).To(BeNumerically(">", 1000))
			Expect(parallel.Snapshot()).To(Equal(serial.Snapshot()))
			Expect(parallel.CurrentResult()).To(Equal(serial.CurrentResult()))
		})
	})

	Describe("frame errors", func() {
		var eng *lindemann.Engine

		BeforeEach(func() {
			eng, _ = lindemann.New(box, lindemann.Options{RMax: 1.5, Dr: 0.1})
			Expect(eng.IngestFrame([]r3.Vec{{X: 1}, {X: 2}, {X: 3}})).To(Succeed())
		})

		It("rejects a frame with a different particle count before mutating", func() {
			before := eng.CurrentResult()
			snap := eng.Snapshot()

			err := eng.IngestFrame([]r3.Vec{{X: 1}, {X: 2}, {X: 3}, {X: 4}})
			Expect(err).To(MatchError(lindemann.ErrFrameShape))

			var fe *lindemann.FrameError
			Expect(errors.As(err, &fe)).To(BeTrue())
			Expect(fe.Frame).To(Equal(1))
			Expect(fe.Particles).To(Equal(4))
			Expect(fe.Expected).To(Equal(3))

			Expect(eng.CurrentResult()).To(Equal(before))
			Expect(eng.Snapshot()).To(Equal(snap))
		})

		It("rejects an empty frame", func() {
			Expect(eng.IngestFrame(nil)).To(MatchError(lindemann.ErrFrameShape))
		})

		It("rejects non-finite coordinates before mutating", func() {
			snap := eng.Snapshot()
			err := eng.IngestFrame([]r3.Vec{{X: 1}, {X: math.Inf(1)}, {X: 3}})
			Expect(err).To(MatchError(neighbor.ErrInvalidPosition))
			Expect(eng.Snapshot()).To(Equal(snap))
			Expect(eng.Frames()).To(Equal(1))
		})

		It("rejects an ingest started while another is running", func() {
			var inner error
			eng.AddObserver(lindemann.ObserverFunc(func(frame int, e *lindemann.Engine) {
				inner = e.IngestFrame([]r3.Vec{{X: 1}, {X: 2}, {X: 3}})
			}))

			Expect(eng.IngestFrame([]r3.Vec{{X: 1}, {X: 2.1}, {X: 3}})).To(Succeed())
			Expect(inner).To(MatchError(lindemann.ErrConcurrentIngest))
			Expect(eng.Frames()).To(Equal(2))
		})
	})

	Describe("observers", func() {
		It("see every frame and may read the engine", func() {
			eng, _ := lindemann.New(box, lindemann.Options{RMax: 1.5, Dr: 0.1})
			var seen []int
			var frames []int
			eng.AddObserver(lindemann.ObserverFunc(func(frame int, e *lindemann.Engine) {
				seen = append(seen, frame)
				frames = append(frames, e.CurrentResult().Frames)
			}))

			for f := 0; f < 3; f++ {
				Expect(eng.IngestFrame([]r3.Vec{{X: 1}, {X: 2}})).To(Succeed())
			}
			Expect(seen).To(Equal([]int{1, 2, 3}))
			Expect(frames).To(Equal([]int{1, 2, 3}))
		})
	})

	Describe("reset", func() {
		It("starts a fresh session with the same configuration", func() {
			eng, _ := lindemann.New(box, lindemann.Options{RMax: 1.5, Dr: 0.1})
			Expect(eng.IngestFrame([]r3.Vec{{X: 1}, {X: 2}})).To(Succeed())

			eng.Reset()
			Expect(eng.Frames()).To(BeZero())
			Expect(eng.Pairs()).To(BeZero())
			Expect(eng.Particles()).To(BeZero())
			Expect(eng.Stats(0, 1).N).To(BeZero())

			Expect(eng.IngestFrame([]r3.Vec{{X: 1}, {X: 2}, {X: 3}})).To(Succeed())
			Expect(eng.Particles()).To(Equal(3))
			Expect(eng.Options().RMax).To(Equal(1.5))
		})

		It("keeps a particle count fixed in the options", func() {
			eng, _ := lindemann.New(box, lindemann.Options{RMax: 1.5, Dr: 0.1, Particles: 2})
			Expect(eng.CurrentResult().Particles).To(HaveLen(2))

			Expect(eng.IngestFrame([]r3.Vec{{X: 1}, {X: 2}})).To(Succeed())
			eng.Reset()
			Expect(eng.Particles()).To(Equal(2))
			Expect(eng.Pairs()).To(BeZero())
			Expect(eng.IngestFrame([]r3.Vec{{X: 1}})).To(MatchError(lindemann.ErrFrameShape))
		})
	})
})
