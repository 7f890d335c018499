package accum

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestKeyCanonical(t *testing.T) {
	if Key(5, 2) != (PairKey{I: 2, J: 5}) {
		t.Errorf("expected {2 5}, got %v", Key(5, 2))
	}
}

func TestTableGetAbsent(t *testing.T) {
	tb := NewTable(4)
	if got := tb.Get(Key(0, 3)); got != (PairStats{}) {
		t.Errorf("expected zero stats, got %+v", got)
	}
	if got := tb.Get(PairKey{I: 10, J: 12}); got != (PairStats{}) {
		t.Errorf("out of range key should be zero, got %+v", got)
	}
}

func TestTableUpdateAndIterate(t *testing.T) {
	tb := NewTable(4)
	tb.Update(Key(0, 2), 1.0, r3.Vec{X: 1})
	tb.Update(Key(0, 1), 2.0, r3.Vec{Y: 2})
	tb.Update(Key(0, 2), 3.0, r3.Vec{X: 3})
	tb.Update(Key(1, 3), 4.0, r3.Vec{Z: 4})

	if tb.Len() != 3 {
		t.Fatalf("expected 3 pairs, got %d", tb.Len())
	}

	got := tb.Get(Key(2, 0))
	if got.N != 2 || got.Mean != 2 || got.Variance() != 1 {
		t.Errorf("unexpected stats for (0,2): %+v", got)
	}

	var keys []PairKey
	for k := range tb.All() {
		keys = append(keys, k)
	}
	want := []PairKey{{0, 2}, {0, 1}, {1, 3}}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("iteration order mismatch (-want +got):\n%s", diff)
	}

	snap := tb.Snapshot()
	snap[0].Stats.N = 100
	if tb.Get(Key(0, 2)).N != 2 {
		t.Error("snapshot aliases table storage")
	}
}

func TestTableReset(t *testing.T) {
	tb := NewTable(3)
	tb.Update(Key(0, 1), 1, r3.Vec{})
	tb.Reset()

	if tb.Len() != 0 {
		t.Errorf("expected empty table, got %d pairs", tb.Len())
	}
	if tb.Particles() != 3 {
		t.Errorf("expected 3 particles after reset, got %d", tb.Particles())
	}
	tb.Update(Key(0, 1), 2, r3.Vec{})
	if s := tb.Get(Key(0, 1)); s.N != 1 || s.Mean != 2 {
		t.Errorf("unexpected stats after reset: %+v", s)
	}
}

func TestTableUpdatePanicsOnBadKey(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for diagonal key")
		}
	}()
	NewTable(2).Update(PairKey{I: 1, J: 1}, 1, r3.Vec{})
}

func TestTableConcurrentShards(t *testing.T) {
	const n = 64
	tb := NewTable(n)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < n; i += 4 {
				for j := i + 1; j < n; j++ {
					tb.Update(Key(i, j), float64(j-i), r3.Vec{})
				}
			}
		}(w)
	}
	wg.Wait()

	if tb.Len() != n*(n-1)/2 {
		t.Errorf("expected %d pairs, got %d", n*(n-1)/2, tb.Len())
	}
}
