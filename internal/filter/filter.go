// Package filter implements the client-side search over the
// currently-loaded list. It is pure and synchronous: it never calls the
// backend and never affects pagination state.
package filter

import "strings"

// Match reports whether any field contains query, case-insensitively.
// An empty query matches everything.
func Match(query string, fields ...string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Apply returns the records whose display fields match query, preserving
// order. An empty query returns the input unchanged.
func Apply[T any](items []T, query string, fields func(T) []string) []T {
	if query == "" {
		return items
	}
	var out []T
	for _, item := range items {
		if Match(query, fields(item)...) {
			out = append(out, item)
		}
	}
	return out
}
