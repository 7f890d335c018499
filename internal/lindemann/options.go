package lindemann

import (
	"fmt"
	"math"
	"runtime"
)

// Options is fixed for the lifetime of an Engine.
type Options struct {
	// RMax is the neighbor cutoff radius.
	RMax float64
	// Dr is the distance bin width. It is validated and carried with the
	// session but does not affect the index.
	Dr float64
	// Threads is the worker count per frame; 0 means one per CPU.
	Threads int
	// Particles fixes the particle count up front. When 0 the first
	// ingested frame establishes it.
	Particles int
}

func (o Options) Validate() error {
	if !(o.RMax > 0) || math.IsInf(o.RMax, 0) {
		return fmt.Errorf("%w: rmax must be positive, got %g", ErrInvalidOptions, o.RMax)
	}
	if !(o.Dr > 0) || math.IsInf(o.Dr, 0) {
		return fmt.Errorf("%w: dr must be positive, got %g", ErrInvalidOptions, o.Dr)
	}
	if o.Threads < 0 {
		return fmt.Errorf("%w: threads must be >= 0, got %d", ErrInvalidOptions, o.Threads)
	}
	if o.Particles < 0 {
		return fmt.Errorf("%w: particles must be >= 0, got %d", ErrInvalidOptions, o.Particles)
	}
	return nil
}

// Workers resolves Threads against the host.
func (o Options) Workers() int {
	if o.Threads > 0 {
		return o.Threads
	}
	return runtime.NumCPU()
}
