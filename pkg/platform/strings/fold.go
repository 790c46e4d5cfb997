// Package strings holds helpers for the free-text tag lists stored on
// listings and buyer profiles (regions, industries, key customers).
package strings

import (
	"strings"
)

// Normalize trims each value, collapses inner whitespace and drops empty
// values and case-insensitive duplicates. The first spelling wins and order
// is preserved, so {" Stockholm", "stockholm ", "Nordic  region"} becomes
// {"Stockholm", "Nordic region"}. A nil input stays nil.
func Normalize(values []string) []string {
	if values == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.Join(strings.Fields(v), " ")
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ContainsFold reports whether any value equals target, ignoring case and
// surrounding whitespace.
func ContainsFold(values []string, target string) bool {
	target = strings.TrimSpace(target)
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}
