package pbc

import "errors"

// ErrInvalidBox indicates a periodic axis with a non-positive or non-finite
// length, or a non-finite tilt factor.
var ErrInvalidBox = errors.New("pbc: invalid box")
