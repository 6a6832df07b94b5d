// Package utils provides small helpers shared across layers that carry no
// domain logic.
package utils

import (
	"strconv"
	"strings"
)

// AtoiDefault parses s as an int, returning def when s is empty or not a
// number.
func AtoiDefault(s string, def int) int {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// BoundedAtoi parses a positive count such as ?limit=. Missing, malformed
// or non-positive input yields def; anything above max is clamped to max.
//
//	BoundedAtoi("30", 20, 50)  // 30
//	BoundedAtoi("500", 20, 50) // 50
//	BoundedAtoi("-1", 20, 50)  // 20
func BoundedAtoi(s string, def, max int) int {
	n := AtoiDefault(s, def)
	if n < 1 {
		return def
	}
	return min(n, max)
}
