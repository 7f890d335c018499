// Package viz renders Lindemann results in the terminal.
//
// [RenderSummary] prints a finished run as a panel with asciigraph plots
// of the per-particle index and the ensemble trace. [Model] is a Bubble
// Tea program that follows a run while frames are being ingested.
//
// # Key Bindings
//
//	P     - Cycle projection plane (xy, xz, yz)
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Quit
package viz
