// Package cobol extracts lightweight program metadata from COBOL sources
// and serves it to graph synthesis by program id. It is pattern based and
// line oriented; nothing here parses COBOL.
package cobol

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/codewithboateng/jclgraph/internal/ir"
)

var (
	rxProgramID = regexp.MustCompile(`(?i)\bPROGRAM-ID\.\s+([\w-]+)`)
	rxCopy      = regexp.MustCompile(`(?i)\bCOPY\s+([\w-]+)`)
	rxCall      = regexp.MustCompile(`(?i)\bCALL\s+['"]([\w-]+)['"]`)
	rxPerform   = regexp.MustCompile(`(?i)\bPERFORM\s+([\w-]+)`)
)

// PERFORM keywords that introduce an inline loop rather than name a
// paragraph.
var ignoredPerforms = map[string]bool{
	"UNTIL": true, "VARYING": true, "THROUGH": true, "THRU": true, "TIMES": true,
}

// DefaultExtensions are the source suffixes scanned by ExtractDir.
var DefaultExtensions = []string{".cbl", ".cob", ".txt"}

// Extract scans one source unit. It never fails: a unit without a
// PROGRAM-ID is returned with the UNKNOWN id and a warning status.
func Extract(filename, text string) ir.Program {
	p := ir.Program{
		ProgramID: ir.UnknownProgramID,
		Filename:  filepath.Base(filename),
		Copybooks: []string{},
		Calls:     []string{},
		Performs:  []string{},
		Status:    ir.StatusOK,
	}
	var copies, calls, performs seenList
	code := 0
	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if isComment(raw) {
			continue
		}
		line := strings.TrimSpace(raw)
		code++

		if p.ProgramID == ir.UnknownProgramID {
			if m := rxProgramID.FindStringSubmatch(line); m != nil {
				p.ProgramID = m[1]
			}
		}
		for _, m := range rxCopy.FindAllStringSubmatch(line, -1) {
			copies.add(&p.Copybooks, m[1])
		}
		for _, m := range rxCall.FindAllStringSubmatch(line, -1) {
			calls.add(&p.Calls, m[1])
		}
		for _, m := range rxPerform.FindAllStringSubmatch(line, -1) {
			name := strings.ToUpper(m[1])
			if !ignoredPerforms[name] && !isNumber(name) {
				performs.add(&p.Performs, name)
			}
		}
	}

	switch {
	case code == 0:
		p.Status = ir.StatusEmpty
	case p.ProgramID == ir.UnknownProgramID:
		p.Status = ir.StatusNoID
	}
	return p
}

// isComment reports blank lines and comment lines. A '*' or '/' is a
// comment marker either as the first non-blank character or in the
// fixed-format indicator column 7 behind a sequence area.
func isComment(raw string) bool {
	line := strings.TrimSpace(raw)
	if line == "" || line[0] == '*' || line[0] == '/' {
		return true
	}
	if len(raw) >= 7 && (raw[6] == '*' || raw[6] == '/') {
		for i := 0; i < 6; i++ {
			c := raw[i]
			if c != ' ' && (c < '0' || c > '9') {
				return false
			}
		}
		return true
	}
	return false
}

// isNumber matches the count of "PERFORM n TIMES".
func isNumber(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

type seenList map[string]bool

func (s *seenList) add(list *[]string, v string) {
	if *s == nil {
		*s = seenList{}
	}
	if (*s)[v] {
		return
	}
	(*s)[v] = true
	*list = append(*list, v)
}
