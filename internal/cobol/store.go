package cobol

import (
	"path/filepath"
	"strings"

	"github.com/codewithboateng/jclgraph/internal/ir"
)

// Store is the read-only program metadata index. It satisfies
// graph.MetadataSource.
type Store struct {
	programs []ir.Program
	byID     map[string]int
}

// NewStore indexes programs by upper-cased id. When an id repeats the last
// record wins but keeps the position of the first. Records without an id
// are indexed under their upper-cased filename stem, which also becomes
// their ProgramID.
func NewStore(programs []ir.Program) *Store {
	s := &Store{byID: make(map[string]int, len(programs))}
	for _, p := range programs {
		if p.ProgramID == "" || p.ProgramID == ir.UnknownProgramID {
			if p.Filename == "" {
				continue
			}
			base := filepath.Base(p.Filename)
			stem := strings.TrimSuffix(base, filepath.Ext(base))
			p.ProgramID = strings.ToUpper(stem)
		}
		key := strings.ToUpper(p.ProgramID)
		if i, ok := s.byID[key]; ok {
			s.programs[i] = p
			continue
		}
		s.byID[key] = len(s.programs)
		s.programs = append(s.programs, p)
	}
	return s
}

func (s *Store) Lookup(programID string) (ir.Program, bool) {
	if s == nil {
		return ir.Program{}, false
	}
	i, ok := s.byID[strings.ToUpper(programID)]
	if !ok {
		return ir.Program{}, false
	}
	return s.programs[i], true
}

// All returns the indexed records in input order.
func (s *Store) All() []ir.Program {
	if s == nil {
		return nil
	}
	return s.programs
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.programs)
}
