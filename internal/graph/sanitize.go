package graph

import "strings"

// Fallback is returned by Sanitize when nothing printable survives.
const Fallback = "UNKNOWN"

// Sanitize maps text to a render-safe identifier: every character outside
// [A-Za-z0-9] becomes '_', runs of '_' collapse, and leading or trailing '_'
// are trimmed.
func Sanitize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	under := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' {
			b.WriteByte(c)
			under = false
			continue
		}
		if !under {
			b.WriteByte('_')
			under = true
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return Fallback
	}
	return out
}
