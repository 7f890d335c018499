// Package lindemann computes the Lindemann index of a particle trajectory.
//
// The package ties the periodic box, the cell-list neighbor search and the
// pair accumulator together:
//
//   - [Engine]: one analysis session, fed frame by frame
//   - [Reduce]: folds pair statistics into per-particle indices
//   - [Result]: per-particle values plus the ensemble average
//   - [Observer]: hook invoked after every ingested frame
//
// # Example
//
//	box, _ := pbc.NewCubic(10)
//	eng, _ := lindemann.New(box, lindemann.Options{RMax: 1.5, Dr: 0.1})
//	for _, frame := range frames {
//	    if err := eng.IngestFrame(frame); err != nil {
//	        return err
//	    }
//	}
//	res := eng.CurrentResult()
//	if res.Valid == 0 {
//	    // no particle ever had a neighbor within rmax
//	}
//
// # Thread Safety
//
// IngestFrame calls must not overlap; a second call made while one is in
// progress fails with [ErrConcurrentIngest]. CurrentResult and the other
// read accessors may run concurrently with each other and block while a
// frame is being ingested. Within one frame the work is split across
// Options.Threads workers by the lower particle index of each pair.
package lindemann
