package api

import "net/http"

// GET /api/v1/checks (ids, summaries and defaults; no auth needed for read-only)
func (s *Server) handleChecks(w http.ResponseWriter, r *http.Request) {
	type R struct {
		ID              string `json:"id"`
		Summary         string `json:"summary"`
		Type            string `json:"type"`
		DefaultSeverity string `json:"default_severity"`
	}
	out := []R{}
	if s.Rules != nil {
		// stable order already guaranteed by List
		for _, rr := range s.Rules.List() {
			out = append(out, R{ID: rr.ID, Summary: rr.Summary, Type: rr.Type, DefaultSeverity: rr.Severity})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out, "count": len(out)})
}
