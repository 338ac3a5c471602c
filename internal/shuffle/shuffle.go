// Package shuffle provides a uniform Fisher–Yates shuffle parameterized by a
// seedable random source, so randomized flows stay deterministic in tests.
package shuffle

// Source yields uniformly distributed ints in [0, n). *math/rand.Rand
// satisfies it.
type Source interface {
	Intn(n int) int
}

// Do permutes items in place. Every permutation is equally likely given a
// uniform Source.
func Do[T any](src Source, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// Copy returns a shuffled copy, leaving the input untouched.
func Copy[T any](src Source, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	Do(src, out)
	return out
}
