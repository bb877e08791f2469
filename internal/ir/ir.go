package ir

import "time"

const Version = "2.0"

type Run struct {
	ID        string    `json:"id" msgpack:"id"`
	StartedAt time.Time `json:"started_at" msgpack:"started_at"`
	Source    string    `json:"source,omitempty" msgpack:"source,omitempty"`
	IRVersion string    `json:"ir_version,omitempty" msgpack:"ir_version,omitempty"`

	Context     Context      `json:"context" msgpack:"context"`
	Jobs        []Job        `json:"jobs" msgpack:"jobs"`
	Programs    []Program    `json:"programs,omitempty" msgpack:"programs,omitempty"`
	Findings    []Finding    `json:"findings,omitempty" msgpack:"findings,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`
}

type Context struct {
	ProcLibs              []string `json:"proclibs,omitempty" msgpack:"proclibs,omitempty"`
	ProgramSources        []string `json:"program_sources,omitempty" msgpack:"program_sources,omitempty"`
	RuleSeverityThreshold string   `json:"rule_severity_threshold,omitempty" msgpack:"rule_severity_threshold,omitempty"`
	DisabledRules         []string `json:"disabled_rules,omitempty" msgpack:"disabled_rules,omitempty"`
	WaivedFindings        int      `json:"waived_findings,omitempty" msgpack:"waived_findings,omitempty"`
}

// Job is one JCL source unit with its fully resolved step sequence.
type Job struct {
	Name     string `json:"name" msgpack:"name"`
	Filename string `json:"filename" msgpack:"filename"`
	Steps    []Step `json:"steps" msgpack:"steps"`
}

type Step struct {
	Name      string     `json:"name" msgpack:"name"`
	Program   string     `json:"program" msgpack:"program"`
	Ordinal   int        `json:"ordinal" msgpack:"ordinal"`
	Proc      string     `json:"proc,omitempty" msgpack:"proc,omitempty"` // template the step was expanded from
	Line      int        `json:"line,omitempty" msgpack:"line,omitempty"`
	Resources []Resource `json:"resources,omitempty" msgpack:"resources,omitempty"`
}

// Resource is a data resource referenced by a step under a DD name.
type Resource struct {
	Role string `json:"role_name" msgpack:"role_name"`
	Name string `json:"resource_name" msgpack:"resource_name"`
}

// Program is the metadata extracted from one COBOL source unit.
type Program struct {
	ProgramID string   `json:"program_id" msgpack:"program_id"`
	Filename  string   `json:"filename,omitempty" msgpack:"filename,omitempty"`
	Copybooks []string `json:"copybooks" msgpack:"copybooks"`
	Calls     []string `json:"calls" msgpack:"calls"`
	Performs  []string `json:"performs" msgpack:"performs"`
	Status    string   `json:"status" msgpack:"status"`
}

const (
	StatusOK         = "OK"
	StatusNoID       = "WARNING_NO_ID"
	StatusEmpty      = "WARNING_EMPTY"
	UnknownProgramID = "UNKNOWN"
)

// DependencyCount is the number of distinct included modules.
func (p Program) DependencyCount() int { return len(p.Copybooks) }

type Diagnostic struct {
	File     string `json:"file,omitempty" msgpack:"file,omitempty"`
	Line     int    `json:"line,omitempty" msgpack:"line,omitempty"`
	Code     string `json:"code" msgpack:"code"`
	Severity string `json:"severity" msgpack:"severity"` // INFO|WARN
	Message  string `json:"message" msgpack:"message"`
}

// Diagnostic codes.
const (
	DiagUnterminatedProc = "PROC-UNTERMINATED"
	DiagNestedProc       = "PROC-NESTED"
	DiagUnresolvedSymbol = "SYMBOL-UNRESOLVED"
	DiagOrphanDD         = "DD-OUTSIDE-STEP"
	DiagUnreadable       = "SOURCE-UNREADABLE"
	DiagEncoding         = "SOURCE-ENCODING"
	DiagNoSources        = "NO-SOURCES"
	DiagIDCollision      = "ID-COLLISION"
	DiagMetadata         = "METADATA"
)

type Finding struct {
	ID       string         `json:"id" msgpack:"id"`
	Job      string         `json:"job" msgpack:"job"`
	Step     string         `json:"step,omitempty" msgpack:"step,omitempty"`
	RuleID   string         `json:"rule_id" msgpack:"rule_id"`
	Type     string         `json:"type" msgpack:"type"`         // LINEAGE|QUALITY
	Severity string         `json:"severity" msgpack:"severity"` // LOW|MEDIUM|HIGH
	Message  string         `json:"message" msgpack:"message"`
	Evidence string         `json:"evidence,omitempty" msgpack:"evidence,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty" msgpack:"metadata,omitempty"`
}

// Waiver suppresses findings of one rule, optionally narrowed to a job, a
// step and a substring of the evidence or message, until it expires.
type Waiver struct {
	ID         int64      `json:"id" msgpack:"id"`
	RuleID     string     `json:"rule_id" msgpack:"rule_id"`
	Job        string     `json:"job,omitempty" msgpack:"job,omitempty"`
	Step       string     `json:"step,omitempty" msgpack:"step,omitempty"`
	PatternSub string     `json:"pattern_sub,omitempty" msgpack:"pattern_sub,omitempty"`
	Reason     string     `json:"reason" msgpack:"reason"`
	ExpiresAt  time.Time  `json:"expires_at" msgpack:"expires_at"`
	CreatedBy  string     `json:"created_by" msgpack:"created_by"`
	CreatedAt  time.Time  `json:"created_at" msgpack:"created_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty" msgpack:"revoked_at,omitempty"`
}

// Active reports whether w applies at now.
func (w Waiver) Active(now time.Time) bool {
	return w.RevokedAt == nil && now.Before(w.ExpiresAt)
}
