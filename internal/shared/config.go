package shared

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database struct {
		Driver string `yaml:"driver" toml:"driver"` // "sqlite" (default)
		DSN    string `yaml:"dsn" toml:"dsn"`       // "./jclgraph.db"
	} `yaml:"database" toml:"database"`

	Analysis struct {
		Sources    []string `yaml:"sources" toml:"sources"`       // JCL directories
		ProcLibs   []string `yaml:"proclibs" toml:"proclibs"`     // cataloged procedure directories
		Programs   []string `yaml:"programs" toml:"programs"`     // COBOL source directories
		Metadata   string   `yaml:"metadata" toml:"metadata"`     // pre-extracted program metadata JSON
		Extensions []string `yaml:"extensions" toml:"extensions"` // JCL suffixes
		Workers    int      `yaml:"workers" toml:"workers"`       // 0 = GOMAXPROCS
	} `yaml:"analysis" toml:"analysis"`

	Reporting struct {
		OutDir       string   `yaml:"out_dir" toml:"out_dir"`             // "./reports"
		Formats      []string `yaml:"formats" toml:"formats"`             // json|html|mermaid|msgpack
		TemplatesDir string   `yaml:"templates_dir" toml:"templates_dir"` // optional HTML template overrides
	} `yaml:"reporting" toml:"reporting"`

	Cache struct {
		Dir      string `yaml:"dir" toml:"dir"` // "" = user cache dir
		Disabled bool   `yaml:"disabled" toml:"disabled"`
	} `yaml:"cache" toml:"cache"`

	Rules struct {
		SeverityThreshold string   `yaml:"severity_threshold" toml:"severity_threshold"`
		Disabled          []string `yaml:"disabled" toml:"disabled"`
		Packs             []string `yaml:"packs" toml:"packs"`
	} `yaml:"rules" toml:"rules"`

	Logging struct {
		Format  string `yaml:"format" toml:"format"`     // "json"|"text"
		Level   string `yaml:"level" toml:"level"`       // "info"|"debug"|"warn"|"error"
		FileDir string `yaml:"file_dir" toml:"file_dir"` // per-run log files, optional
	} `yaml:"logging" toml:"logging"`

	API struct {
		Addr           string   `yaml:"addr" toml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins" toml:"allowed_origins"`
		SessionTTL     string   `yaml:"session_ttl" toml:"session_ttl"`
	} `yaml:"api" toml:"api"`
}

func DefaultConfig() Config {
	var c Config
	c.Database.Driver = "sqlite"
	c.Database.DSN = "./jclgraph.db"
	c.Reporting.OutDir = "./reports"
	c.Reporting.Formats = []string{"json", "html", "mermaid"}
	c.Rules.SeverityThreshold = "LOW"
	c.Logging.Format = "json"
	c.Logging.Level = "info"
	c.API.Addr = ":8080"
	c.API.SessionTTL = "12h"
	return c
}

// SessionDuration parses API.SessionTTL, falling back to 12h.
func (c Config) SessionDuration() time.Duration {
	if d, err := time.ParseDuration(c.API.SessionTTL); err == nil && d > 0 {
		return d
	}
	return 12 * time.Hour
}

// LoadConfig layers defaults, the optional file (YAML, or TOML by
// extension) and environment overrides. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return c, fmt.Errorf("read config: %w", err)
		case strings.EqualFold(filepath.Ext(path), ".toml"):
			if _, err := toml.Decode(string(b), &c); err != nil {
				return c, fmt.Errorf("parse toml config: %w", err)
			}
		default:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return c, fmt.Errorf("parse yaml config: %w", err)
			}
		}
	}
	// Env overrides (simple, explicit)
	if v := os.Getenv("JCLGRAPH_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("JCLGRAPH_OUT_DIR"); v != "" {
		c.Reporting.OutDir = v
	}
	if v := os.Getenv("JCLGRAPH_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("JCLGRAPH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("JCLGRAPH_CACHE_DIR"); v != "" {
		c.Cache.Dir = v
	}
	if v := os.Getenv("JCLGRAPH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Analysis.Workers = n
		}
	}
	return c, nil
}
