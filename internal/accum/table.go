package accum

import (
	"fmt"
	"iter"

	"gonum.org/v1/gonum/spatial/r3"
)

// Entry is one row of a Table.
type Entry struct {
	Key   PairKey
	Stats PairStats
}

type shard struct {
	index   map[int]int
	entries []Entry
}

// Table holds PairStats sharded by the lower particle index of each pair.
//
// Updates to pairs with different I touch different shards, so a caller
// that partitions work by I may update from several goroutines without
// locking. Within a shard, pairs keep the order they were first seen in,
// which makes iteration deterministic.
type Table struct {
	shards []shard
}

// NewTable returns an empty table for n particles.
func NewTable(n int) *Table {
	return &Table{shards: make([]shard, n)}
}

// Particles is the number of particles the table was sized for.
func (t *Table) Particles() int {
	return len(t.shards)
}

// Update applies one Welford step to the pair. key.I must be in range and
// below key.J.
func (t *Table) Update(key PairKey, dist float64, delta r3.Vec) {
	if key.I >= key.J || key.J >= len(t.shards) || key.I < 0 {
		panic(fmt.Sprintf("accum: invalid pair key %v for %d particles", key, len(t.shards)))
	}
	sh := &t.shards[key.I]
	k, ok := sh.index[key.J]
	if !ok {
		if sh.index == nil {
			sh.index = make(map[int]int)
		}
		k = len(sh.entries)
		sh.index[key.J] = k
		sh.entries = append(sh.entries, Entry{Key: key})
	}
	sh.entries[k].Stats.Update(dist, delta)
}

// Get returns the pair's statistics, or the zero value if the pair has
// never been in range.
func (t *Table) Get(key PairKey) PairStats {
	key = Key(key.I, key.J)
	if key.I < 0 || key.I >= len(t.shards) {
		return PairStats{}
	}
	sh := &t.shards[key.I]
	if k, ok := sh.index[key.J]; ok {
		return sh.entries[k].Stats
	}
	return PairStats{}
}

// Len is the number of pairs seen at least once.
func (t *Table) Len() int {
	n := 0
	for i := range t.shards {
		n += len(t.shards[i].entries)
	}
	return n
}

// All yields every pair in deterministic order: by I, then by first
// appearance.
func (t *Table) All() iter.Seq2[PairKey, PairStats] {
	return func(yield func(PairKey, PairStats) bool) {
		for i := range t.shards {
			for _, e := range t.shards[i].entries {
				if !yield(e.Key, e.Stats) {
					return
				}
			}
		}
	}
}

// Snapshot copies every entry, in All order.
func (t *Table) Snapshot() []Entry {
	out := make([]Entry, 0, t.Len())
	for i := range t.shards {
		out = append(out, t.shards[i].entries...)
	}
	return out
}

// Reset drops every pair, keeping the particle count.
func (t *Table) Reset() {
	clear(t.shards)
}
