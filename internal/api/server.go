// Package api serves stored analysis runs over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/codewithboateng/jclgraph/internal/graph"
	"github.com/codewithboateng/jclgraph/internal/ir"
	"github.com/codewithboateng/jclgraph/internal/reporting"
	"github.com/codewithboateng/jclgraph/internal/rules"
	"github.com/codewithboateng/jclgraph/internal/storage"
)

// Store is the minimal contract the API needs.
type Store interface {
	ListRuns(limit, offset int) ([]storage.RunRow, error)
	LoadRun(id string) (ir.Run, error)
	LoadGraph(id string) (*graph.Graph, error)
	LatestRunID() (string, error)
	ListFindings(runID, minSeverity string) ([]ir.Finding, error)
	Lineage(runID, resource string) ([]graph.LineageEdge, error)

	ListWaivers(activeOnly bool) ([]ir.Waiver, error)
	CreateWaiver(w ir.Waiver) (int64, error)
	RevokeWaiver(id int64) error
}

// UserStore is the auth/audit contract the API uses.
type UserStore interface {
	GetUserByUsername(string) (storage.User, string, error)
	CreateSession(int64, string, time.Time) error
	GetSession(string) (storage.User, error)
	DeleteSession(string) error
	LogAudit(username, action, resource string, meta map[string]any) error
}

type Server struct {
	DB              Store
	UserStore       UserStore
	Rules           *rules.Registry
	Logger          *slog.Logger
	AllowedOrigins  []string
	SessionDuration time.Duration
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	withCORS := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if origin := s.pickCORSOrigin(r); origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS, POST")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				if origin != "*" {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			h(w, r)
		}
	}

	// Health
	mux.HandleFunc("GET /api/v1/health", withCORS(s.handleHealth))

	// Auth
	mux.HandleFunc("POST /api/v1/auth/login", withCORS(s.handleLogin))
	mux.HandleFunc("POST /api/v1/auth/logout", withCORS(withAuth(s, s.handleLogout, "auth:logout")))
	mux.HandleFunc("GET /api/v1/me", withCORS(withAuth(s, s.handleMe, "me")))

	// Runs
	mux.HandleFunc("GET /api/v1/runs", withCORS(withAuth(s, s.handleListRuns, "runs:list")))
	mux.HandleFunc("GET /api/v1/runs/latest", withCORS(withAuth(s, s.handleGetLatest, "runs:latest")))
	mux.HandleFunc("GET /api/v1/runs/{id}", withCORS(withAuth(s, s.handleGetRun, "runs:get")))
	mux.HandleFunc("GET /api/v1/runs/{id}/graph", withCORS(withAuth(s, s.handleGetGraph, "runs:graph")))
	mux.HandleFunc("GET /api/v1/runs/{id}/mermaid", withCORS(withAuth(s, s.handleGetMermaid, "runs:mermaid")))
	mux.HandleFunc("GET /api/v1/runs/{id}/findings", withCORS(withAuth(s, s.handleListFindings, "runs:findings")))
	mux.HandleFunc("GET /api/v1/runs/{id}/lineage", withCORS(withAuth(s, s.handleLineage, "runs:lineage")))

	// Waivers
	mux.HandleFunc("GET /api/v1/waivers", withCORS(withAuth(s, s.handleListWaivers, "waivers:list")))
	mux.HandleFunc("POST /api/v1/waivers", withCORS(withAuth(s, s.handleCreateWaiver, "waivers:create")))
	mux.HandleFunc("POST /api/v1/waivers/{id}/revoke", withCORS(withAuth(s, s.handleRevokeWaiver, "waivers:revoke")))

	// Checks inventory
	mux.HandleFunc("GET /api/v1/checks", withCORS(s.handleChecks))

	// Fallback 404
	mux.HandleFunc("/", withCORS(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	return withLogging(s.logger(), mux)
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Server) pickCORSOrigin(r *http.Request) string {
	if len(s.AllowedOrigins) == 0 {
		return ""
	}
	origin := r.Header.Get("Origin")
	for _, ao := range s.AllowedOrigins {
		if ao == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(origin, ao) {
			return origin
		}
	}
	return ""
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"ir":        ir.Version,
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := clamp(parseInt(q.Get("limit"), 20), 1, 200)
	offset := max(parseInt(q.Get("offset"), 0), 0)

	rows, err := s.DB.ListRuns(limit, offset)
	if err != nil {
		s.dbErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": rows, "limit": limit, "offset": offset,
	})
}

// GET /api/v1/runs/latest
func (s *Server) handleGetLatest(w http.ResponseWriter, r *http.Request) {
	id, err := s.DB.LatestRunID()
	if err != nil {
		s.dbErr(w, err)
		return
	}
	run, err := s.DB.LoadRun(id)
	if err != nil {
		s.dbErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.DB.LoadRun(r.PathValue("id"))
	if err != nil {
		s.dbErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	g, err := s.DB.LoadGraph(r.PathValue("id"))
	if err != nil {
		s.dbErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleGetMermaid(w http.ResponseWriter, r *http.Request) {
	g, err := s.DB.LoadGraph(r.PathValue("id"))
	if err != nil {
		s.dbErr(w, err)
		return
	}
	text := reporting.Mermaid(g, nil)
	if fid := r.URL.Query().Get("flow"); fid != "" {
		f, ok := g.Flow(fid)
		if !ok {
			s.err(w, http.StatusNotFound, "flow not found")
			return
		}
		text = reporting.FlowMermaid(f)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

func (s *Server) handleListFindings(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	min := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("min_severity")))
	if min == "" {
		min = "LOW"
	}
	items, err := s.DB.ListFindings(id, min)
	if err != nil {
		s.dbErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id": id, "min_severity": min, "items": items,
	})
}

func (s *Server) handleLineage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	res := strings.TrimSpace(r.URL.Query().Get("resource"))
	items, err := s.DB.Lineage(id, res)
	if err != nil {
		s.dbErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id": id, "resource": res, "items": items, "count": len(items),
	})
}

func (s *Server) err(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func (s *Server) dbErr(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		s.err(w, http.StatusNotFound, "not found")
		return
	}
	s.logger().Error("store error", "error", err)
	s.err(w, http.StatusInternalServerError, "db error")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func clamp(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
