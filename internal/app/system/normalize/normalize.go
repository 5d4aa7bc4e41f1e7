// Package normalize provides input normalization helpers used at every
// boundary where user- or operator-supplied strings enter the system.
// Normalizing once, close to the edge, keeps store queries and comparisons
// consistent.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// UID trims an auth-provider identity string. UIDs are case-sensitive and
// must never be case-folded.
func UID(s string) string {
	return strings.TrimSpace(s)
}

// Status lowercases and trims an account status string prior to parsing.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MembershipType lowercases and trims a membership type string.
func MembershipType(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a query parameter, preserving case.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
