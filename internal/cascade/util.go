package cascade

import "golang.org/x/exp/constraints"

// minOrdered returns the lesser of a and b, grounded on the generic
// constraints.Ordered helpers catrate's ring buffer builds its comparisons
// on top of.
func minOrdered[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}
