package copilot

import "fmt"

// ToolSet is an ordered sequence of tools with unique names.
// Insertion order is preserved and is stable across calls given the same
// inputs, which downstream components rely on for determinism.
type ToolSet struct {
	order  []string
	byName map[string]Tool
}

// NewToolSet creates an empty tool set.
func NewToolSet() *ToolSet {
	return &ToolSet{byName: make(map[string]Tool)}
}

// Add appends a tool. Returns ErrDuplicateToolName if the name is taken.
func (s *ToolSet) Add(t Tool) error {
	name := t.Name()
	if name == "" {
		return ErrToolNameEmpty
	}
	if _, exists := s.byName[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateToolName, name)
	}
	s.order = append(s.order, name)
	s.byName[name] = t
	return nil
}

// MustAdd appends a tool and panics on a duplicate name.
func (s *ToolSet) MustAdd(t Tool) {
	if err := s.Add(t); err != nil {
		panic(fmt.Sprintf("toolset: %v", err))
	}
}

// MergeMissing inserts the tool only if its name is not already present
// (first-writer-wins). Reports whether the tool was inserted.
func (s *ToolSet) MergeMissing(t Tool) bool {
	if _, exists := s.byName[t.Name()]; exists {
		return false
	}
	s.order = append(s.order, t.Name())
	s.byName[t.Name()] = t
	return true
}

// Get returns a tool by name, or nil if not present.
func (s *ToolSet) Get(name string) Tool {
	return s.byName[name]
}

// Has reports whether a tool with the given name is present.
func (s *ToolSet) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// Names returns tool names in insertion order.
func (s *ToolSet) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Tools returns the tools in insertion order.
func (s *ToolSet) Tools() []Tool {
	out := make([]Tool, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byName[name])
	}
	return out
}

// Len returns the number of tools.
func (s *ToolSet) Len() int {
	return len(s.order)
}
