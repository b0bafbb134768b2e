// Package backends wires the MongoDB, BigQuery, and PostgreSQL specialists
// into the copilot registry: routing signals, toolsets, discovery allowlists,
// and handoff descriptors per backend, with real drivers behind a small
// Connector interface.
package backends

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Connector is the read-mostly surface a backend driver exposes to its
// specialist's tools. Implementations connect lazily: construction performs
// no I/O, the first call does.
type Connector interface {
	// ListTargets lists the backend's queryable objects (collections,
	// dataset tables, schema-qualified tables).
	ListTargets(ctx context.Context) ([]Target, error)

	// Describe returns the structure of one target: a schema, column list,
	// or representative document.
	Describe(ctx context.Context, target string) (string, error)

	// Sample returns up to limit rows/documents from a target.
	Sample(ctx context.Context, target string, limit int) (string, error)

	// Query runs a backend-native query or command and returns a textual
	// result. Read-only enforcement is the backend's concern, not ours.
	Query(ctx context.Context, query string) (string, error)
}

// Target is one queryable object in a backend.
type Target struct {
	Name   string `json:"name"`
	Detail string `json:"detail,omitempty"`
}

// ErrNoConnection is returned by tools when the workspace has no connection
// configured for the backend. The turn continues; only the one capability
// call fails.
var ErrNoConnection = errors.New("no connection configured")

func requireConnector(c Connector, backend string) error {
	if c == nil {
		return fmt.Errorf("%w: %s", ErrNoConnection, backend)
	}
	return nil
}

// encodeTargets renders a target list as indented JSON.
func encodeTargets(targets []Target) (string, error) {
	if len(targets) == 0 {
		return "no targets found", nil
	}
	out, err := json.MarshalIndent(targets, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode targets: %w", err)
	}
	return string(out), nil
}

// formatRows renders tabular results as aligned text, capped per cell to keep
// tool output model-friendly.
func formatRows(columns []string, rows [][]any) string {
	if len(rows) == 0 {
		return "query returned no rows"
	}

	const cellCap = 120
	var b strings.Builder
	b.WriteString(strings.Join(columns, " | "))
	b.WriteByte('\n')
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cell := fmt.Sprintf("%v", v)
			// Truncate on rune boundaries so multi-byte values stay valid UTF-8.
			if runes := []rune(cell); len(runes) > cellCap {
				cell = string(runes[:cellCap]) + "…"
			}
			cells[i] = cell
		}
		b.WriteString(strings.Join(cells, " | "))
		b.WriteByte('\n')
	}
	b.WriteString(fmt.Sprintf("(%d rows)", len(rows)))
	return b.String()
}

// stringArg extracts a required string argument.
func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required argument: %s", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("argument %s must be a non-empty string", key)
	}
	return s, nil
}

// intArg extracts an optional integer argument with a default. LLM tool calls
// deliver numbers as float64.
func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}
