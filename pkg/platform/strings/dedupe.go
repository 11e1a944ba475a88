// Package strings holds helpers for identifier lists received from clients.
package strings

import (
	"strings"
)

// DedupeAndTrim trims every element and drops empty values and repeats,
// keeping first-seen order. It works on any string-backed id type.
func DedupeAndTrim[S ~string](values []S) []S {
	if len(values) == 0 {
		return values
	}

	seen := make(map[S]struct{}, len(values))
	result := make([]S, 0, len(values))

	for _, v := range values {
		trimmed := S(strings.TrimSpace(string(v)))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}
