package copilot

import (
	"context"
	"fmt"
)

// Property describes a single parameter property for JSON schema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
	// Items describes array element schema (required for type="array")
	Items *PropertyItems `json:"items,omitempty"`
}

// PropertyItems describes the schema for array elements.
type PropertyItems struct {
	Type string `json:"type"`
}

// ToolSchema defines the JSON schema for tool arguments.
// This enables LLM tool calling with proper validation.
type ToolSchema struct {
	// Required lists parameters that must be provided.
	Required []string `json:"required"`

	// Properties describes each parameter.
	Properties map[string]Property `json:"properties"`
}

// ExecuteFunc is the signature for tool execution.
// Returns the result string and any error.
type ExecuteFunc func(ctx context.Context, args map[string]any) (string, error)

// Tool is a named capability a specialist or the dispatcher exposes to the
// conversation engine. Tool names are globally meaningful: two tools with the
// same name from different specialists are the same logical capability, which
// is what makes dedup-by-name in the aggregator sound.
type Tool interface {
	// Name is the unique identifier for the tool.
	Name() string

	// Description explains what the tool does, for LLM tool calling.
	Description() string

	// Schema defines the expected arguments.
	Schema() ToolSchema

	// Execute runs the tool with the given arguments.
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// FuncTool is the standard Tool implementation: a closure over the request
// context plus static metadata. Specialists build a fresh instance per request.
type FuncTool struct {
	name        string
	description string
	schema      ToolSchema
	run         ExecuteFunc
}

// NewTool creates a FuncTool, validating the definition.
func NewTool(name, description string, schema ToolSchema, run ExecuteFunc) (*FuncTool, error) {
	if name == "" {
		return nil, ErrToolNameEmpty
	}
	if run == nil {
		return nil, fmt.Errorf("%w: %s", ErrToolExecuteNil, name)
	}
	return &FuncTool{name: name, description: description, schema: schema, run: run}, nil
}

// MustTool creates a FuncTool and panics on error.
// Use this for static tool construction inside BuildTools factories.
func MustTool(name, description string, schema ToolSchema, run ExecuteFunc) *FuncTool {
	t, err := NewTool(name, description, schema, run)
	if err != nil {
		panic(fmt.Sprintf("invalid tool %s: %v", name, err))
	}
	return t
}

func (t *FuncTool) Name() string        { return t.name }
func (t *FuncTool) Description() string { return t.description }
func (t *FuncTool) Schema() ToolSchema  { return t.schema }

// Execute runs the tool.
func (t *FuncTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	return t.run(ctx, args)
}
