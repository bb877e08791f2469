package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/codewithboateng/jclgraph/internal/cobol"
)

// Output format names accepted by WriteAll.
const (
	FormatJSON     = "json"
	FormatGraph    = "graph"
	FormatHTML     = "html"
	FormatMermaid  = "mermaid"
	FormatMsgpack  = "msgpack"
	FormatPrograms = "programs"
)

var formatOrder = []string{FormatJSON, FormatGraph, FormatHTML, FormatMermaid, FormatMsgpack, FormatPrograms}

// WriteAll writes b in each requested format, in a fixed order, creating
// outDir if needed. Format names ignore case; repeats are written once.
func WriteAll(runID, outDir string, b Bundle, formats []string, opts HTMLOptions) ([]string, error) {
	want := map[string]bool{}
	for _, f := range formats {
		name := strings.ToLower(strings.TrimSpace(f))
		if !isFormat(name) {
			return nil, fmt.Errorf("unknown report format %q", f)
		}
		want[name] = true
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create out dir: %w", err)
	}

	var paths []string
	for _, f := range formatOrder {
		if !want[f] {
			continue
		}
		var (
			p   []string
			err error
		)
		switch f {
		case FormatJSON:
			p, err = one(WriteJSON(runID, outDir, b.Run))
		case FormatGraph:
			p, err = one(WriteGraphJSON(runID, outDir, b.Graph))
		case FormatHTML:
			p, err = WriteHTML(runID, outDir, b.Run, b.Graph, opts)
		case FormatMermaid:
			p, err = one(WriteMermaid(runID, outDir, b.Graph))
		case FormatMsgpack:
			p, err = one(WriteMsgpack(runID, outDir, b))
		case FormatPrograms:
			p, err = one(writePrograms(runID, outDir, b))
		}
		if err != nil {
			return paths, fmt.Errorf("write %s report: %w", f, err)
		}
		paths = append(paths, p...)
	}
	return paths, nil
}

func isFormat(name string) bool {
	for _, f := range formatOrder {
		if f == name {
			return true
		}
	}
	return false
}

func one(path string, err error) ([]string, error) {
	if err != nil {
		return nil, err
	}
	return []string{path}, nil
}

// writePrograms writes the run's program metadata in the exchange format,
// so it can be fed back as a metadata file.
func writePrograms(runID, outDir string, b Bundle) (string, error) {
	path := filepath.Join(outDir, runID+".programs.json")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if b.Run != nil {
		err = cobol.WriteMetadataJSON(f, b.Run.Programs)
	} else {
		err = cobol.WriteMetadataJSON(f, nil)
	}
	if err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}
