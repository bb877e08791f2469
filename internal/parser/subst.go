package parser

import "strings"

func isSymbolChar(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' ||
		c == '@' || c == '#' || c == '$' || c == '_'
}

// Substitute replaces symbolic references in text with values from p.
//
// A reference is a single '&' followed by the longest run of symbol
// characters; "&&NAME" is a temporary dataset name and never a reference.
// When a '.' directly follows the name the dotted spelling "&NAME." is the
// reference and the dot is consumed by the replacement. References with no
// value are copied through unchanged and returned as unresolved, in order of
// first appearance.
func Substitute(text string, p Params) (string, []string) {
	if !strings.Contains(text, "&") {
		return text, nil
	}
	var (
		b          strings.Builder
		unresolved []string
		seen       map[string]bool
	)
	for i := 0; i < len(text); {
		if text[i] != '&' {
			b.WriteByte(text[i])
			i++
			continue
		}
		if i+1 < len(text) && text[i+1] == '&' {
			b.WriteString("&&")
			i += 2
			for i < len(text) && isSymbolChar(text[i]) {
				b.WriteByte(text[i])
				i++
			}
			continue
		}
		j := i + 1
		for j < len(text) && isSymbolChar(text[j]) {
			j++
		}
		name := text[i+1 : j]
		end := j
		if j < len(text) && text[j] == '.' {
			end = j + 1
		}
		if name == "" {
			b.WriteByte('&')
			i++
			continue
		}
		if v, ok := p.Lookup(name); ok {
			b.WriteString(v)
		} else {
			b.WriteString(text[i:end])
			if seen == nil {
				seen = map[string]bool{}
			}
			if !seen[name] {
				seen[name] = true
				unresolved = append(unresolved, "&"+name)
			}
		}
		i = end
	}
	return b.String(), unresolved
}
