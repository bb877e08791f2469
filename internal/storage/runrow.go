package storage

import "time"

// RunRow is a lightweight listing row for /runs.
type RunRow struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Source    string    `json:"source,omitempty"`
	IRVersion string    `json:"ir_version,omitempty"`
	Jobs      int       `json:"jobs"`
	Nodes     int       `json:"nodes"`
	Edges     int       `json:"edges"`
	Findings  int       `json:"findings"`
}
