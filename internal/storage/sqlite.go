package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // CGO-free SQLite driver

	"github.com/codewithboateng/jclgraph/internal/graph"
	"github.com/codewithboateng/jclgraph/internal/ir"
)

// ErrNotFound is returned when a run, user or session does not exist.
var ErrNotFound = errors.New("not found")

// DB is the concrete storage backed by SQLite.
type DB struct {
	conn *sql.DB
}

// OpenSQLite opens (and creates if missing) a SQLite DB at path.
func OpenSQLite(path string) (*DB, error) {
	// Pragmas via DSN keep it portable with the modernc driver.
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)"
	c, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return &DB{conn: c}, nil
}

func (db *DB) Close() error { return db.conn.Close() }

// CreateSchema ensures tables (and summary views) exist.
func (db *DB) CreateSchema() error {
	_, err := db.conn.Exec(`
CREATE TABLE IF NOT EXISTS runs (
  id         TEXT PRIMARY KEY,
  started_at TEXT,          -- RFC3339Nano
  source     TEXT,
  ir_version TEXT,
  jobs       INTEGER NOT NULL DEFAULT 0,
  nodes      INTEGER NOT NULL DEFAULT 0,
  edges      INTEGER NOT NULL DEFAULT 0,
  run_json   TEXT NOT NULL,
  graph_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS findings (
  id           TEXT,
  run_id       TEXT NOT NULL,
  job          TEXT,
  step         TEXT,
  rule_id      TEXT,
  type         TEXT,
  severity     TEXT,
  message      TEXT,
  evidence     TEXT,
  PRIMARY KEY (id, run_id),
  FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id);
CREATE INDEX IF NOT EXISTS idx_findings_rule ON findings(rule_id);

CREATE TABLE IF NOT EXISTS lineage (
  run_id    TEXT NOT NULL,
  resource  TEXT NOT NULL,
  step      TEXT NOT NULL,
  program   TEXT NOT NULL,
  role      TEXT NOT NULL,
  direction TEXT NOT NULL,  -- IN|OUT seen from the program
  FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_lineage_resource ON lineage(run_id, resource);

CREATE TABLE IF NOT EXISTS users (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  username TEXT UNIQUE NOT NULL,
  pass_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'viewer',
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
  token TEXT PRIMARY KEY,
  user_id INTEGER NOT NULL,
  expires_at TEXT NOT NULL,
  created_at TEXT NOT NULL,
  FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS audit (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  ts TEXT NOT NULL,
  username TEXT,
  action TEXT NOT NULL,
  resource TEXT,
  meta_json TEXT
);

CREATE TABLE IF NOT EXISTS waivers (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  rule_id TEXT NOT NULL,
  job TEXT,
  step TEXT,
  pattern_sub TEXT,
  reason TEXT NOT NULL,
  expires_at TEXT NOT NULL,
  created_by TEXT NOT NULL,
  created_at TEXT NOT NULL,
  revoked_at TEXT
);

CREATE VIEW IF NOT EXISTS resources AS
SELECT run_id, resource, COUNT(1) AS edges
FROM lineage
GROUP BY run_id, resource;
`)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SaveRun upserts a run with its graph and (re)writes its findings and
// lineage rows.
func (db *DB) SaveRun(run *ir.Run, g *graph.Graph) error {
	if g == nil {
		g = &graph.Graph{}
	}
	rb, err := json.Marshal(run)
	if err != nil {
		return err
	}
	gb, err := json.Marshal(g)
	if err != nil {
		return err
	}
	ts := run.StartedAt.UTC().Format(time.RFC3339Nano)

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		`INSERT INTO runs (id, started_at, source, ir_version, jobs, nodes, edges, run_json, graph_json)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET started_at=excluded.started_at, source=excluded.source,
           ir_version=excluded.ir_version, jobs=excluded.jobs, nodes=excluded.nodes, edges=excluded.edges,
           run_json=excluded.run_json, graph_json=excluded.graph_json`,
		run.ID, ts, run.Source, run.IRVersion, len(run.Jobs), len(g.Nodes), len(g.Edges), string(rb), string(gb),
	); err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}

	if _, err := tx.Exec(`DELETE FROM findings WHERE run_id = ?`, run.ID); err != nil {
		return err
	}
	if len(run.Findings) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO findings
			(id, run_id, job, step, rule_id, type, severity, message, evidence)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, f := range run.Findings {
			if _, err := stmt.Exec(f.ID, run.ID, f.Job, f.Step, f.RuleID, f.Type, f.Severity, f.Message, f.Evidence); err != nil {
				return fmt.Errorf("save finding %s: %w", f.ID, err)
			}
		}
	}

	if _, err := tx.Exec(`DELETE FROM lineage WHERE run_id = ?`, run.ID); err != nil {
		return err
	}
	if lin := g.Lineage(); len(lin) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO lineage (run_id, resource, step, program, role, direction)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, e := range lin {
			if _, err := stmt.Exec(run.ID, e.Resource, e.Step, e.Program, e.Role, e.Direction); err != nil {
				return fmt.Errorf("save lineage: %w", err)
			}
		}
	}

	return tx.Commit()
}

// LoadRun returns the full run (from stored JSON).
func (db *DB) LoadRun(id string) (ir.Run, error) {
	var run ir.Run
	if err := db.loadJSON(`SELECT run_json FROM runs WHERE id = ?`, id, &run); err != nil {
		return ir.Run{}, err
	}
	return run, nil
}

// LoadGraph returns the graph stored with a run.
func (db *DB) LoadGraph(id string) (*graph.Graph, error) {
	var g graph.Graph
	if err := db.loadJSON(`SELECT graph_json FROM runs WHERE id = ?`, id, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// LatestRunID returns the id of the most recently started run.
func (db *DB) LatestRunID() (string, error) {
	var id string
	err := db.conn.QueryRow(`SELECT id FROM runs ORDER BY started_at DESC, id DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return id, err
}

func (db *DB) loadJSON(q, id string, out any) error {
	var s string
	if err := db.conn.QueryRow(q, id).Scan(&s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("run %s: %w", id, ErrNotFound)
		}
		return err
	}
	if err := json.Unmarshal([]byte(s), out); err != nil {
		return fmt.Errorf("decode run %s: %w", id, err)
	}
	return nil
}
