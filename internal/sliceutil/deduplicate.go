// Package sliceutil provides generic slice manipulation utilities.
package sliceutil

import "sort"

// Deduplicate removes duplicate items from a slice while preserving order.
// The keyFunc extracts a unique key from each item for comparison.
// Only the first occurrence of each key is kept.
func Deduplicate[T any, K comparable](items []T, keyFunc func(T) K) []T {
	if len(items) == 0 {
		return items
	}

	seen := make(map[K]bool, len(items))
	result := make([]T, 0, len(items))

	for _, item := range items {
		key := keyFunc(item)
		if !seen[key] {
			seen[key] = true
			result = append(result, item)
		}
	}

	return result
}

// SortedUnique returns a sorted copy of strs with duplicates removed.
// Returns nil for empty input so "no values" stays distinct from an empty
// list in records serialized with omitempty.
func SortedUnique(strs []string) []string {
	if len(strs) == 0 {
		return nil
	}

	unique := Deduplicate(strs, func(s string) string { return s })
	sort.Strings(unique)
	return unique
}
