package neighbor

import "errors"

var (
	// ErrInvalidCutoff indicates a non-positive or non-finite cutoff radius.
	ErrInvalidCutoff = errors.New("neighbor: cutoff must be positive and finite")

	// ErrAmbiguousCutoff indicates a cutoff of at least half the smallest
	// periodic box width, where more than one image of a particle can be in
	// range.
	ErrAmbiguousCutoff = errors.New("neighbor: cutoff admits multiple periodic images")

	// ErrInvalidPosition indicates a NaN or infinite coordinate.
	ErrInvalidPosition = errors.New("neighbor: position is not finite")
)
