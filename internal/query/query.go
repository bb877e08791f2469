// Package query evaluates jq expressions against a stored analysis.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/itchyny/gojq"

	"github.com/codewithboateng/jclgraph/internal/reporting"
)

var ErrEmptyExpression = errors.New("empty jq expression")

// Document turns a bundle into the plain JSON value jq expects:
// {"run": ..., "graph": ...}.
func Document(b reporting.Bundle) (any, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// Compile parses and compiles expression. Environment access is disabled.
func Compile(expression string) (*gojq.Code, error) {
	if expression == "" {
		return nil, ErrEmptyExpression
	}
	q, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("jq parse error in %q: %w", expression, err)
	}
	code, err := gojq.Compile(q, gojq.WithEnvironLoader(func() []string { return nil }))
	if err != nil {
		return nil, fmt.Errorf("jq compile error in %q: %w", expression, err)
	}
	return code, nil
}

// Eval runs expression over doc and collects every output.
func Eval(ctx context.Context, expression string, doc any) ([]any, error) {
	code, err := Compile(expression)
	if err != nil {
		return nil, err
	}
	iter := code.RunWithContext(ctx, doc)
	var results []any
	for {
		val, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := val.(error); isErr {
			var halt *gojq.HaltError
			if errors.As(err, &halt) && halt.Value() == nil {
				break
			}
			return nil, fmt.Errorf("jq evaluation failed for %q: %w", expression, err)
		}
		results = append(results, val)
	}
	return results, nil
}
