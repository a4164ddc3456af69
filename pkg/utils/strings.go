package utils

import "strings"

// NormalizeTokens splits every value on commas, trims and lowercases the
// pieces, and drops empty ones. Order is preserved.
func NormalizeTokens(values ...string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// UniqueLower lowercases and trims values, removing blanks and duplicates
// while keeping the first occurrence of each.
func UniqueLower(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Contains reports whether item is in slice
func Contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// ContainsAny reports whether any element of a is present in b
func ContainsAny(a, b []string) bool {
	for _, s := range a {
		if Contains(b, s) {
			return true
		}
	}
	return false
}
