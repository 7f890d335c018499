package lindemann

import "sync"

// TracePoint is the ensemble index after a given frame.
type TracePoint struct {
	Frame    int     `json:"frame"`
	Ensemble float64 `json:"ensemble"`
	Valid    int     `json:"valid"`
	Pairs    int     `json:"pairs"`
}

// Trace is an Observer that records the ensemble index every Every frames
// (every frame when Every is 0 or 1). The final frame of a run is not
// forced; call Record after the last ingest if it must be included.
type Trace struct {
	Every int

	mu     sync.Mutex
	points []TracePoint
}

func (t *Trace) OnFrame(frame int, e *Engine) {
	if t.Every > 1 && frame%t.Every != 0 {
		return
	}
	t.Record(e)
}

// Record appends the engine's current ensemble index unless that frame is
// already recorded.
func (t *Trace) Record(e *Engine) {
	res := e.CurrentResult()

	t.mu.Lock()
	defer t.mu.Unlock()
	if n := len(t.points); n > 0 && t.points[n-1].Frame == res.Frames {
		return
	}
	t.points = append(t.points, TracePoint{
		Frame:    res.Frames,
		Ensemble: res.Ensemble,
		Valid:    res.Valid,
		Pairs:    res.Pairs,
	})
}

// Points returns a copy of the recorded trace.
func (t *Trace) Points() []TracePoint {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TracePoint, len(t.points))
	copy(out, t.points)
	return out
}

// Last returns the most recent point.
func (t *Trace) Last() (TracePoint, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.points) == 0 {
		return TracePoint{}, false
	}
	return t.points[len(t.points)-1], true
}

// Series returns the ensemble values alone, for plotting.
func (t *Trace) Series() []float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]float64, len(t.points))
	for i, p := range t.points {
		out[i] = p.Ensemble
	}
	return out
}

func (t *Trace) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.points = nil
}
