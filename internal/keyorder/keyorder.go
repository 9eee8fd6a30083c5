// Package keyorder provides the deterministic mapping-key ordering
// used by the tag processor: shorter keys first, ties broken
// lexicographically. Stable ordering keeps nested-tag evaluation
// reproducible across runs.
package keyorder

import "sort"

// Sorted returns the keys of m ordered by (length, lexicographic).
func Sorted[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) < len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}
