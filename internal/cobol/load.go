package cobol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/codewithboateng/jclgraph/internal/ir"
)

const metadataSchemaURL = "https://jclgraph.dev/schemas/program-metadata.json"

// metadataSchemaJSON describes the exchange document: a JSON array of
// program records as written by the extractor.
const metadataSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://jclgraph.dev/schemas/program-metadata.json",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["program_id"],
    "properties": {
      "program_id": { "type": "string", "minLength": 1 },
      "filename":   { "type": "string" },
      "copybooks":  { "$ref": "#/$defs/names" },
      "calls":      { "$ref": "#/$defs/names" },
      "performs":   { "$ref": "#/$defs/names" },
      "status":     { "type": "string" }
    }
  },
  "$defs": {
    "names": { "type": "array", "items": { "type": "string" } }
  }
}`

var metadataSchema = compileMetadataSchema()

func compileMetadataSchema() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(metadataSchemaJSON))
	if err != nil {
		panic(fmt.Sprintf("unmarshal metadata schema: %v", err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(metadataSchemaURL, doc); err != nil {
		panic(fmt.Sprintf("add metadata schema: %v", err))
	}
	return c.MustCompile(metadataSchemaURL)
}

// LoadMetadataJSON reads a metadata document from path.
func LoadMetadataJSON(path string) ([]ir.Program, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	progs, err := DecodeMetadata(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return progs, nil
}

// DecodeMetadata validates a metadata document against the exchange schema
// and decodes it. Missing lists decode as empty and a missing status as OK.
func DecodeMetadata(r io.Reader) ([]ir.Program, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	if err := metadataSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid metadata: %w", err)
	}
	var progs []ir.Program
	if err := json.Unmarshal(raw, &progs); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	for i := range progs {
		p := &progs[i]
		if p.Copybooks == nil {
			p.Copybooks = []string{}
		}
		if p.Calls == nil {
			p.Calls = []string{}
		}
		if p.Performs == nil {
			p.Performs = []string{}
		}
		if p.Status == "" {
			p.Status = ir.StatusOK
		}
	}
	return progs, nil
}

// WriteMetadataJSON writes progs in the exchange format. Missing lists are
// written as empty arrays so the output validates.
func WriteMetadataJSON(w io.Writer, progs []ir.Program) error {
	out := make([]ir.Program, len(progs))
	for i, p := range progs {
		if p.Copybooks == nil {
			p.Copybooks = []string{}
		}
		if p.Calls == nil {
			p.Calls = []string{}
		}
		if p.Performs == nil {
			p.Performs = []string{}
		}
		out[i] = p
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
