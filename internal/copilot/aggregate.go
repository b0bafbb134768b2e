package copilot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Reserved dispatcher-owned tool names. Entries under these names are seeded
// first and are never superseded by a specialist's same-named tool: the
// dispatcher's list_data_sources reports backends of every kind, unscoped,
// whereas a specialist's version reports only its own.
const (
	// ToolListDataSources lists every registered backend.
	ToolListDataSources = "list_data_sources"

	// ToolReadAttachedContent returns the content attached to the turn.
	ToolReadAttachedContent = "read_attached_content"
)

// AggregateDiscoveryTools builds the toolset for the generic triage
// dispatcher: the dispatcher-owned reserved tools, then each registration's
// discovery-allowlisted tools in registry order, deduplicated by name with
// first-writer-wins.
//
// A failing BuildTools fails the whole aggregation. Specialists are
// first-party, version-controlled code; a broken one is a configuration error
// to surface, not a plugin to skip.
func AggregateDiscoveryTools(reg *Registry, rc RequestContext) (*ToolSet, error) {
	set := NewToolSet()
	set.MustAdd(newListDataSourcesTool(reg))
	set.MustAdd(newReadAttachedContentTool(rc))

	for _, r := range reg.All() {
		built, err := r.BuildTools(rc)
		if err != nil {
			return nil, fmt.Errorf("build tools for %s: %w", r.Kind, err)
		}

		allowed := make(map[string]bool, len(r.DiscoveryTools))
		for _, name := range r.DiscoveryTools {
			allowed[name] = true
		}

		for _, t := range built.Tools() {
			if !allowed[t.Name()] {
				continue
			}
			set.MergeMissing(t)
		}
	}

	return set, nil
}

// dataSourceEntry is one row of the dispatcher's list_data_sources output.
type dataSourceEntry struct {
	Kind        string `json:"kind"`
	DisplayName string `json:"display_name"`
	Summary     string `json:"summary,omitempty"`
}

func newListDataSourcesTool(reg *Registry) Tool {
	return MustTool(
		ToolListDataSources,
		"List every data backend available in this workspace, across all kinds.",
		ToolSchema{},
		func(ctx context.Context, args map[string]any) (string, error) {
			entries := make([]dataSourceEntry, 0, reg.Count())
			for _, r := range reg.All() {
				entries = append(entries, dataSourceEntry{
					Kind:        r.Kind.String(),
					DisplayName: r.DisplayName,
					Summary:     r.HandoffBlurb,
				})
			}
			out, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				return "", fmt.Errorf("encode data sources: %w", err)
			}
			return string(out), nil
		},
	)
}

func newReadAttachedContentTool(rc RequestContext) Tool {
	return MustTool(
		ToolReadAttachedContent,
		"Read the content the user attached to the current request.",
		ToolSchema{},
		func(ctx context.Context, args map[string]any) (string, error) {
			if len(rc.Attachments) == 0 {
				return "no content attached to this request", nil
			}
			return strings.Join(rc.Attachments, "\n---\n"), nil
		},
	)
}
