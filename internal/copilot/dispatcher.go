package copilot

import "fmt"

// AgentHandle is a built agent for one request: either a backend specialist
// with its full toolset, or the triage dispatcher with aggregated discovery
// tools and handoff edges.
type AgentHandle struct {
	// Kind of the agent; KindTriage for the dispatcher.
	Kind Kind

	// DisplayName is the human-readable agent name.
	DisplayName string

	// Tools is the agent's toolset for this request.
	Tools *ToolSet

	// Handoffs holds the delegation edges; only set on the triage handle.
	Handoffs []HandoffEdge
}

// HandoffEdge is a directed delegation transition from triage to a specialist.
// Invoking it transfers control of the conversation: the dispatcher must not
// emit conversational content of its own alongside the invocation; the
// specialist responds directly to the user. ToolName and Description come
// verbatim from the Registration's HandoffSpec, because external tooling
// binds to those names.
type HandoffEdge struct {
	TargetKind  Kind
	Specialist  *AgentHandle
	ToolName    string
	Description string
}

// Edge returns the handoff edge with the given public tool name, if any.
func (h *AgentHandle) Edge(toolName string) (*HandoffEdge, bool) {
	for i := range h.Handoffs {
		if h.Handoffs[i].ToolName == toolName {
			return &h.Handoffs[i], true
		}
	}
	return nil, false
}

// Factory builds agents from the registry for a chosen kind.
type Factory struct {
	registry *Registry
}

// NewFactory creates a factory over the given registry.
func NewFactory(reg *Registry) *Factory {
	return &Factory{registry: reg}
}

// Build returns the agent for a kind. KindTriage yields the generic
// dispatcher; any registered kind yields that specialist with its full
// toolset. An unregistered kind fails with ErrKindNotSupported.
func (f *Factory) Build(kind Kind, rc RequestContext) (*AgentHandle, error) {
	if kind == KindTriage {
		return f.buildTriage(rc)
	}

	reg, ok := f.registry.Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKindNotSupported, kind)
	}
	return f.buildSpecialist(reg, rc)
}

// buildTriage assembles the generic dispatcher: aggregated discovery tools
// plus one edge per registration that declares a handoff. Specialists behind
// edges are built eagerly, not lazily on handoff.
func (f *Factory) buildTriage(rc RequestContext) (*AgentHandle, error) {
	tools, err := AggregateDiscoveryTools(f.registry, rc)
	if err != nil {
		return nil, fmt.Errorf("aggregate discovery tools: %w", err)
	}

	handle := &AgentHandle{
		Kind:        KindTriage,
		DisplayName: "Data Copilot",
		Tools:       tools,
	}

	for _, reg := range f.registry.All() {
		if reg.Handoff == nil {
			continue
		}
		specialist, err := f.buildSpecialist(reg, rc)
		if err != nil {
			return nil, fmt.Errorf("build handoff target %s: %w", reg.Kind, err)
		}
		handle.Handoffs = append(handle.Handoffs, HandoffEdge{
			TargetKind:  reg.Kind,
			Specialist:  specialist,
			ToolName:    reg.Handoff.ToolName,
			Description: reg.Handoff.Description,
		})
	}

	return handle, nil
}

// buildSpecialist builds a specialist handle with its full toolset, not the
// filtered discovery subset.
func (f *Factory) buildSpecialist(reg *Registration, rc RequestContext) (*AgentHandle, error) {
	handle, err := reg.BuildSpecialist(rc)
	if err != nil {
		return nil, fmt.Errorf("build specialist %s: %w", reg.Kind, err)
	}

	tools, err := reg.BuildTools(rc)
	if err != nil {
		return nil, fmt.Errorf("build tools for %s: %w", reg.Kind, err)
	}
	handle.Tools = tools

	return handle, nil
}

// SupportedKinds returns all registered kinds plus KindTriage.
func (f *Factory) SupportedKinds() []Kind {
	kinds := f.registry.Kinds()
	return append(kinds, KindTriage)
}

// IsSupported reports whether Build would accept the candidate kind. Use it
// to validate untrusted input before calling Build.
func (f *Factory) IsSupported(candidate Kind) bool {
	if candidate == KindTriage {
		return true
	}
	return f.registry.Has(candidate)
}
