// Package stringutil provides common string manipulation utilities.
package stringutil

import "strings"

// IsNumeric checks if a string contains only digits.
// Returns false for empty strings.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsSignedNumeric checks if a string is an optionally-signed decimal integer.
// The timetable site uses negative numbers as stable group identifiers, so
// "-1985" must route to a GET fetch the same way "1985" does.
func IsSignedNumeric(s string) bool {
	return IsNumeric(strings.TrimPrefix(s, "-"))
}

// ContainsFold reports whether substr is within s, case-insensitively.
// Works for non-ASCII letters (Ukrainian subject names are the common case).
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
