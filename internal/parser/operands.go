package parser

import "strings"

// Params maps symbol names to replacement text.
type Params map[string]string

// Lookup matches the symbol name exactly.
func (p Params) Lookup(name string) (string, bool) {
	v, ok := p[name]
	return v, ok
}

// With returns a copy of p overlaid by over.
func (p Params) With(over Params) Params {
	out := make(Params, len(p)+len(over))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// splitOperands breaks an operand field on top-level commas. Parentheses and
// quoted strings are kept whole; the first blank that does not follow a comma
// ends the field (the rest is a comment).
func splitOperands(s string) []string {
	var (
		out   []string
		cur   strings.Builder
		depth int
		quote bool
	)
	flush := func() {
		if f := strings.TrimSpace(cur.String()); f != "" {
			out = append(out, f)
		}
		cur.Reset()
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '\'':
			quote = !quote
		case quote:
		case ch == '(':
			depth++
		case ch == ')':
			if depth > 0 {
				depth--
			}
		case ch == ',' && depth == 0:
			flush()
			for i+1 < len(s) && (s[i+1] == ' ' || s[i+1] == '\t') {
				i++
			}
			continue
		case (ch == ' ' || ch == '\t') && depth == 0:
			flush()
			return out
		}
		cur.WriteByte(ch)
	}
	flush()
	return out
}

func unquote(v string) string {
	if len(v) >= 2 && v[0] == '\'' && v[len(v)-1] == '\'' {
		return strings.ReplaceAll(v[1:len(v)-1], "''", "'")
	}
	return v
}

// execCall is the parsed operand field of an EXEC statement.
type execCall struct {
	Target  string
	Program bool // target came from PGM=
	Params  Params
}

func parseExec(operands string) execCall {
	call := execCall{Params: Params{}}
	for i, f := range splitOperands(operands) {
		k, v, ok := strings.Cut(f, "=")
		if !ok {
			if i == 0 {
				call.Target = f
			}
			continue
		}
		key := strings.TrimSpace(k)
		switch strings.ToUpper(key) {
		case "PGM":
			call.Target = strings.TrimSpace(v)
			call.Program = true
		case "PROC":
			call.Target = strings.TrimSpace(v)
		default:
			call.Params[key] = unquote(strings.TrimSpace(v))
		}
	}
	if call.Target == "" {
		call.Target = "UNKNOWN"
	}
	return call
}

// parseParams reads the symbolic defaults of a PROC statement.
func parseParams(operands string) Params {
	p := Params{}
	for _, f := range splitOperands(operands) {
		if k, v, ok := strings.Cut(f, "="); ok {
			p[strings.TrimSpace(k)] = unquote(strings.TrimSpace(v))
		}
	}
	return p
}

// ddDataset returns the DSN (or DSNAME) operand of a DD statement.
func ddDataset(operands string) (string, bool) {
	for _, f := range splitOperands(operands) {
		k, v, ok := strings.Cut(f, "=")
		if !ok {
			continue
		}
		switch strings.ToUpper(strings.TrimSpace(k)) {
		case "DSN", "DSNAME":
			v = strings.TrimSpace(v)
			return v, v != ""
		}
	}
	return "", false
}
