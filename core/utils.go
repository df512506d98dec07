package core

import "strings"

// CleanString trims surrounding whitespace in `s` and optionally lowers it.
// Used to normalize identifiers and email addresses taken from CLI flags.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}
