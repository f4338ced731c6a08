// Package strings normalizes caller-supplied filter values.
package strings

import (
	"strings"

	"recordhub/pkg/optional"
)

// DedupeAndTrim trims each element and drops blanks and repeats, keeping the
// first occurrence order. It returns nil when nothing is left.
func DedupeAndTrim(values []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// TrimOptional trims a present value; a value that trims to "" becomes absent.
func TrimOptional(v optional.Value[string]) optional.Value[string] {
	s, ok := v.Get()
	if !ok {
		return v
	}
	if s = strings.TrimSpace(s); s == "" {
		return optional.None[string]()
	}
	return optional.Of(s)
}
