package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/codewithboateng/jclgraph/internal/graph"
	"github.com/codewithboateng/jclgraph/internal/ir"
)

// Bundle is the complete result of one analysis.
type Bundle struct {
	Run   *ir.Run      `json:"run" msgpack:"run"`
	Graph *graph.Graph `json:"graph" msgpack:"graph"`
}

func WriteJSON(runID, outDir string, run *ir.Run) (string, error) {
	return writeJSONFile(filepath.Join(outDir, runID+".json"), run)
}

// WriteGraphJSON writes the abstract graph, the renderer-neutral output.
func WriteGraphJSON(runID, outDir string, g *graph.Graph) (string, error) {
	return writeJSONFile(filepath.Join(outDir, runID+".graph.json"), g)
}

// WriteMsgpack writes run and graph together in msgpack form.
func WriteMsgpack(runID, outDir string, b Bundle) (string, error) {
	path := filepath.Join(outDir, runID+".mp")
	raw, err := msgpack.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("encode msgpack: %w", err)
	}
	return path, os.WriteFile(path, raw, 0o644)
}

// ReadMsgpack loads a bundle written by WriteMsgpack.
func ReadMsgpack(path string) (Bundle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Bundle{}, err
	}
	var b Bundle
	if err := msgpack.Unmarshal(raw, &b); err != nil {
		return Bundle{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return b, nil
}

func writeJSONFile(path string, v any) (string, error) {
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return path, nil
}
