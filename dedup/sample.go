package dedup

import "math/rand"

// DownsampleStrings enforces a hard cap on a string slice via reservoir
// sampling, used both for the raw node store (cap 10 000) and, at a
// higher cap, for the curated output file (5 MiB, ~95% retained).
func DownsampleStrings(items []string, cap int) []string {
	if cap <= 0 || len(items) <= cap {
		return items
	}

	reservoir := make([]string, cap)
	copy(reservoir, items[:cap])

	for i := cap; i < len(items); i++ {
		j := rand.Intn(i + 1)
		if j < cap {
			reservoir[j] = items[i]
		}
	}

	return reservoir
}

// Shuffle returns a shuffled copy of items, used to randomize node order
// before scoring batches so coverage is uniform across the pool.
func Shuffle(items []string) []string {
	out := make([]string, len(items))
	copy(out, items)

	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})

	return out
}
