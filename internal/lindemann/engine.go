package lindemann

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/san-kum/lindex/internal/accum"
	"github.com/san-kum/lindex/internal/neighbor"
	"github.com/san-kum/lindex/internal/pbc"
	"gonum.org/v1/gonum/spatial/r3"
)

// minParticlesPerChunk keeps tiny frames on a single goroutine.
const minParticlesPerChunk = 64

// Observer is notified after every successfully ingested frame. frame is
// the number of frames ingested so far. Observers run on the ingesting
// goroutine and may call the Engine's read methods.
type Observer interface {
	OnFrame(frame int, e *Engine)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(frame int, e *Engine)

func (f ObserverFunc) OnFrame(frame int, e *Engine) {
	f(frame, e)
}

// Engine is one analysis session: a box, a cutoff and the pair statistics
// accumulated over the frames ingested so far.
type Engine struct {
	box     pbc.Box
	opts    Options
	workers int
	finder  *neighbor.Finder

	ingesting atomic.Bool

	mu        sync.RWMutex
	table     *accum.Table
	n         int
	frames    int
	observers []Observer
}

// New validates the box and options and returns an empty session. No
// state is created when an error is returned.
func New(box pbc.Box, opts Options) (*Engine, error) {
	if box.Volume() <= 0 {
		return nil, fmt.Errorf("%w: box is not initialised", pbc.ErrInvalidBox)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	finder, err := neighbor.NewFinder(box, opts.RMax)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		box:     box,
		opts:    opts,
		workers: opts.Workers(),
		finder:  finder,
	}
	if opts.Particles > 0 {
		e.n = opts.Particles
		e.table = accum.NewTable(opts.Particles)
	}
	return e, nil
}

func (e *Engine) Box() pbc.Box {
	return e.box
}

func (e *Engine) Options() Options {
	return e.opts
}

// Workers is the resolved per-frame worker count.
func (e *Engine) Workers() int {
	return e.workers
}

// AddObserver registers o for every later frame.
func (e *Engine) AddObserver(o Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, o)
}

// IngestFrame folds one frame of positions into the pair statistics.
// Frames must be supplied in order, one call at a time. On error the
// session is left exactly as it was.
func (e *Engine) IngestFrame(positions []r3.Vec) error {
	if !e.ingesting.CompareAndSwap(false, true) {
		return ErrConcurrentIngest
	}
	defer e.ingesting.Store(false)

	frame, observers, err := e.ingest(positions)
	if err != nil {
		return err
	}
	for _, o := range observers {
		o.OnFrame(frame, e)
	}
	return nil
}

func (e *Engine) ingest(positions []r3.Vec) (int, []Observer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(positions) == 0 || (e.n > 0 && len(positions) != e.n) {
		return 0, nil, &FrameError{Frame: e.frames, Particles: len(positions), Expected: e.n, Wrapped: ErrFrameShape}
	}

	cl, err := e.finder.Build(positions)
	if err != nil {
		return 0, nil, &FrameError{Frame: e.frames, Particles: len(positions), Expected: e.n, Wrapped: err}
	}

	if e.table == nil {
		e.n = len(positions)
		e.table = accum.NewTable(e.n)
	}

	table := e.table
	parallelFor(e.workers, e.n, minParticlesPerChunk, func(start, end int) {
		for i := start; i < end; i++ {
			for b := range cl.Bonds(i) {
				table.Update(accum.PairKey{I: b.I, J: b.J}, b.Dist, b.Delta)
			}
		}
	})
	e.frames++

	return e.frames, e.observers, nil
}

// CurrentResult reduces the statistics gathered so far. It does not
// change the session, so two calls with no ingest in between return
// identical results.
func (e *Engine) CurrentResult() Result {
	e.mu.RLock()
	defer e.mu.RUnlock()

	res := Reduce(e.table, e.n)
	res.Frames = e.frames
	return res
}

// Reset drops all pair statistics and starts a new session with the same
// box and options. A particle count taken from the first frame is
// forgotten; one fixed in Options is kept.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.frames = 0
	if e.opts.Particles > 0 {
		e.table.Reset()
		return
	}
	e.n = 0
	e.table = nil
}

// Frames is the number of frames ingested since the last reset.
func (e *Engine) Frames() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.frames
}

// Particles is the session's particle count, 0 before the first frame.
func (e *Engine) Particles() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.n
}

// Pairs is the number of pairs seen in range at least once.
func (e *Engine) Pairs() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.table == nil {
		return 0
	}
	return e.table.Len()
}

// Stats returns the statistics of pair (i, j) in either order.
func (e *Engine) Stats(i, j int) accum.PairStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.table == nil {
		return accum.PairStats{}
	}
	return e.table.Get(accum.Key(i, j))
}

// Snapshot copies every pair's statistics in deterministic order.
func (e *Engine) Snapshot() []accum.Entry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.table == nil {
		return nil
	}
	return e.table.Snapshot()
}
