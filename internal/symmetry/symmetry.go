// Package symmetry implements the eight symmetries of a 3x3 board (the
// dihedral group of the square) and the canonical form derived from them.
//
// Boards are row-major 9-element arrays. A transform is a fixed permutation
// table: the transformed board holds, at index i, the cell the source board
// holds at perm[i].
package symmetry

import "strings"

// Digit is any single-digit cell type (0, 1 or 2 for a tic-tac-toe cell).
type Digit interface {
	~uint8
}

// Transform is one named element of the symmetry group.
type Transform struct {
	Name string
	perm [9]int
}

// Apply returns b with the transform applied.
func Apply[C Digit](t Transform, b [9]C) [9]C {
	var out [9]C
	for i, src := range t.perm {
		out[i] = b[src]
	}
	return out
}

// Inverse returns the transform that undoes t.
func (t Transform) Inverse() Transform {
	var inv [9]int
	for i, src := range t.perm {
		inv[src] = i
	}
	for _, c := range Transforms {
		if c.perm == inv {
			return c
		}
	}
	// unreachable: the group is closed under inversion
	return Transform{Name: t.Name + "^-1", perm: inv}
}

var (
	Identity         = Transform{"identity", [9]int{0, 1, 2, 3, 4, 5, 6, 7, 8}}
	Rotation90       = Transform{"rotate90", [9]int{6, 3, 0, 7, 4, 1, 8, 5, 2}}
	Rotation180      = Transform{"rotate180", [9]int{8, 7, 6, 5, 4, 3, 2, 1, 0}}
	Rotation270      = Transform{"rotate270", [9]int{2, 5, 8, 1, 4, 7, 0, 3, 6}}
	HorizontalFlip   = Transform{"reflectHorizontal", [9]int{6, 7, 8, 3, 4, 5, 0, 1, 2}}
	VerticalFlip     = Transform{"reflectVertical", [9]int{2, 1, 0, 5, 4, 3, 8, 7, 6}}
	DiagonalFlip     = Transform{"reflectDiagonal", [9]int{0, 3, 6, 1, 4, 7, 2, 5, 8}}
	AntiDiagonalFlip = Transform{"reflectAntiDiagonal", [9]int{8, 5, 2, 7, 4, 1, 6, 3, 0}}
)

// Transforms lists the group in its fixed order.
var Transforms = [8]Transform{
	Identity,
	Rotation90,
	Rotation180,
	Rotation270,
	HorizontalFlip,
	VerticalFlip,
	DiagonalFlip,
	AntiDiagonalFlip,
}

// Rotate90 rotates the board a quarter turn clockwise.
func Rotate90[C Digit](b [9]C) [9]C { return Apply(Rotation90, b) }

// Rotate180 rotates the board a half turn.
func Rotate180[C Digit](b [9]C) [9]C { return Apply(Rotation180, b) }

// Rotate270 rotates the board a quarter turn counter-clockwise.
func Rotate270[C Digit](b [9]C) [9]C { return Apply(Rotation270, b) }

// ReflectHorizontal mirrors the board across the middle row (top <-> bottom).
func ReflectHorizontal[C Digit](b [9]C) [9]C { return Apply(HorizontalFlip, b) }

// ReflectVertical mirrors the board across the middle column (left <-> right).
func ReflectVertical[C Digit](b [9]C) [9]C { return Apply(VerticalFlip, b) }

// ReflectDiagonal mirrors the board across the main diagonal (0,4,8).
func ReflectDiagonal[C Digit](b [9]C) [9]C { return Apply(DiagonalFlip, b) }

// ReflectAntiDiagonal mirrors the board across the anti-diagonal (2,4,6).
func ReflectAntiDiagonal[C Digit](b [9]C) [9]C { return Apply(AntiDiagonalFlip, b) }

// All returns the board under every transform, in Transforms order.
func All[C Digit](b [9]C) [8][9]C {
	var out [8][9]C
	for i, t := range Transforms {
		out[i] = Apply(t, b)
	}
	return out
}

// Encode writes the board as one digit per cell in index order.
func Encode[C Digit](b [9]C) string {
	var sb strings.Builder
	sb.Grow(9)
	for _, c := range b {
		sb.WriteByte('0' + byte(c))
	}
	return sb.String()
}

// Canonical returns the lexicographically smallest encoding among the
// eight symmetric images of b.
func Canonical[C Digit](b [9]C) string {
	s, _ := CanonicalTransform(b)
	return s
}

// CanonicalTransform is Canonical plus the first transform, in Transforms
// order, that maps b onto its canonical form.
func CanonicalTransform[C Digit](b [9]C) (string, Transform) {
	best, bt := Encode(b), Identity
	for _, t := range Transforms[1:] {
		if s := Encode(Apply(t, b)); s < best {
			best, bt = s, t
		}
	}
	return best, bt
}

// Equivalent reports whether a and b belong to the same symmetry class.
func Equivalent[C Digit](a, b [9]C) bool {
	return Canonical(a) == Canonical(b)
}
