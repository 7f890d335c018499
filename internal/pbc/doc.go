// Package pbc models periodic simulation boxes.
//
// A [Box] is an immutable triclinic cell described by three lengths and
// three tilt factors, with a periodicity flag per axis:
//
//	a1 = (Lx, 0, 0)
//	a2 = (xy*Ly, Ly, 0)
//	a3 = (xz*Lz, yz*Lz, Lz)
//
// The box occupies fractional coordinates [0, 1) on every axis with its
// lower corner at the origin.
//
// # Minimum Image
//
// [Box.Wrap] maps a raw displacement onto its shortest periodic image and
// [Box.Displacement] applies it to a pair of absolute positions:
//
//	box, _ := pbc.NewCubic(10)
//	d := box.Displacement(r3.Vec{}, r3.Vec{X: 9.9}) // (-0.1, 0, 0)
//
// Non-periodic axes keep the raw difference.
package pbc
