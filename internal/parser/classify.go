package parser

import (
	"regexp"
	"strings"
)

// Kind tags a logical JCL record.
type Kind int

const (
	KindOther Kind = iota
	KindProcStart
	KindProcEnd
	KindExec
	KindDD
)

func (k Kind) String() string {
	switch k {
	case KindProcStart:
		return "PROC_START"
	case KindProcEnd:
		return "PROC_END"
	case KindExec:
		return "EXEC"
	case KindDD:
		return "DD"
	default:
		return "OTHER"
	}
}

// Line is one classified logical record. Index is the 1-based source line.
type Line struct {
	Index    int
	Text     string
	Kind     Kind
	Label    string
	Operands string
}

const commentMarker = "//*"

var (
	rxPend = regexp.MustCompile(`(?i)^//(\S*)\s+PEND(?:\s+(.*))?$`)
	rxProc = regexp.MustCompile(`(?i)^//(\S*)\s+PROC(?:\s+(.*))?$`)
	rxExec = regexp.MustCompile(`(?i)^//(\S*)\s+EXEC(?:\s+(.*))?$`)
	rxDD   = regexp.MustCompile(`(?i)^//(\S*)\s+DD(?:\s+(.*))?$`)
)

// Classify splits text into logical records, dropping blank and comment
// lines. A "//" line that is not a statement of its own continues the
// operands of the previous record when those end with a comma.
func Classify(text string) []Line {
	var out []Line
	for i, raw := range strings.Split(text, "\n") {
		raw = strings.TrimRight(raw, "\r \t")
		trim := strings.TrimSpace(raw)
		if trim == "" || strings.HasPrefix(trim, commentMarker) {
			continue
		}
		ln := classifyLine(i+1, trim)
		if ln.Kind == KindOther && len(out) > 0 && isContinuation(trim) {
			prev := &out[len(out)-1]
			if prev.Kind != KindOther && prev.Kind != KindProcEnd && strings.HasSuffix(prev.Operands, ",") {
				prev.Operands += strings.TrimSpace(trim[2:])
				continue
			}
		}
		out = append(out, ln)
	}
	return out
}

func classifyLine(idx int, text string) Line {
	ln := Line{Index: idx, Text: text, Kind: KindOther}
	for _, c := range []struct {
		re   *regexp.Regexp
		kind Kind
	}{
		{rxPend, KindProcEnd},
		{rxProc, KindProcStart},
		{rxExec, KindExec},
		{rxDD, KindDD},
	} {
		if m := c.re.FindStringSubmatch(text); m != nil {
			ln.Kind = c.kind
			ln.Label = m[1]
			ln.Operands = strings.TrimSpace(m[2])
			return ln
		}
	}
	return ln
}

func isContinuation(trim string) bool {
	return len(trim) > 2 && strings.HasPrefix(trim, "//") && (trim[2] == ' ' || trim[2] == '\t')
}
