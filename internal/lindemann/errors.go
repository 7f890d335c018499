package lindemann

import (
	"errors"
	"fmt"
)

// Domain errors for analysis sessions.
var (
	// ErrInvalidOptions indicates a non-positive cutoff or bin width, or a
	// negative thread or particle count.
	ErrInvalidOptions = errors.New("lindemann: invalid options")

	// ErrFrameShape indicates a frame whose particle count differs from the
	// session's.
	ErrFrameShape = errors.New("lindemann: frame particle count mismatch")

	// ErrConcurrentIngest indicates overlapping IngestFrame calls.
	ErrConcurrentIngest = errors.New("lindemann: concurrent frame ingest")
)

// FrameError wraps an error with the frame it was raised for. The engine
// state is unchanged when a FrameError is returned.
type FrameError struct {
	Frame     int
	Particles int
	Expected  int
	Wrapped   error
}

func (e *FrameError) Error() string {
	if errors.Is(e.Wrapped, ErrFrameShape) {
		return fmt.Sprintf("frame %d: %v (got %d particles, want %d)", e.Frame, e.Wrapped, e.Particles, e.Expected)
	}
	return fmt.Sprintf("frame %d: %v", e.Frame, e.Wrapped)
}

func (e *FrameError) Unwrap() error {
	return e.Wrapped
}
