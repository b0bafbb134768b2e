package copilot

import (
	"fmt"
	"sync"
)

// HandoffSpec declares that a specialist can receive a handoff from triage.
// ToolName and Description are the public names the conversation engine and
// external tooling (prompts, observability) bind to; they are surfaced
// verbatim on the generated HandoffEdge.
type HandoffSpec struct {
	ToolName    string
	Description string
}

// Registration is the immutable per-kind record the registry holds: builders,
// routing signals, and the discovery allowlist. Created once at process start,
// looked up for the rest of the process, never mutated.
type Registration struct {
	// Kind identifies the specialist. Must be unique and not the triage kind.
	Kind Kind

	// DisplayName is the human-readable backend name.
	DisplayName string

	// HandoffBlurb is a one-line capability summary shown by the dispatcher's
	// list_data_sources tool.
	HandoffBlurb string

	// Handoff, when non-nil, makes the dispatcher expose a delegation edge to
	// this specialist.
	Handoff *HandoffSpec

	// DiscoveryTools names the subset of this specialist's tools that are safe
	// to expose to the generic dispatcher: read-only exploration only, never
	// mutation or execution tools.
	DiscoveryTools []string

	// ContentSignatures are lowercase syntactic markers of this backend's
	// query language, tested against attached content.
	ContentSignatures []string

	// Keywords are lowercase words/phrases tested against free user text.
	Keywords []string

	// DialectKeywords match free text only when a generic relational query
	// shape ("select … from …") co-occurs. This keeps shared SQL vocabulary
	// from pulling prose toward one dialect.
	DialectKeywords []string

	// BuildSpecialist builds the specialist handle for a request. The factory
	// attaches the full toolset afterwards.
	BuildSpecialist func(RequestContext) (*AgentHandle, error)

	// BuildTools builds the specialist's full toolset for a request.
	BuildTools func(RequestContext) (*ToolSet, error)
}

func (r *Registration) validate() error {
	if r.Kind == "" {
		return ErrKindEmpty
	}
	if r.Kind == KindTriage {
		return fmt.Errorf("%w: %s", ErrKindReserved, r.Kind)
	}
	if r.BuildSpecialist == nil {
		return fmt.Errorf("%w: %s BuildSpecialist", ErrBuilderNil, r.Kind)
	}
	if r.BuildTools == nil {
		return fmt.Errorf("%w: %s BuildTools", ErrBuilderNil, r.Kind)
	}
	return nil
}

// Registry maps capability kinds to their registrations, preserving
// registration order. Order is priority order for the router and the
// aggregator, so registration sequence is part of the system's behavior.
//
// Write-once-per-kind, read-many: populated single-threaded at startup,
// read-only afterwards.
type Registry struct {
	mu     sync.RWMutex
	order  []Kind
	byKind map[Kind]*Registration
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{byKind: make(map[Kind]*Registration)}
}

// Register inserts a registration. Returns a wrapped ErrKindAlreadyRegistered
// if the kind is present; the registry is left unchanged on any error.
func (r *Registry) Register(reg *Registration) error {
	if err := reg.validate(); err != nil {
		return fmt.Errorf("invalid registration: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byKind[reg.Kind]; exists {
		return fmt.Errorf("%w: %s", ErrKindAlreadyRegistered, reg.Kind)
	}

	r.order = append(r.order, reg.Kind)
	r.byKind[reg.Kind] = reg
	return nil
}

// MustRegister registers and panics on error.
// Use this for static registration at startup; a duplicate kind is a
// configuration bug, not a runtime condition to recover from.
func (r *Registry) MustRegister(reg *Registration) {
	if err := r.Register(reg); err != nil {
		panic(fmt.Sprintf("failed to register capability %s: %v", reg.Kind, err))
	}
}

// Lookup returns the registration for a kind. Absence is a normal outcome for
// unsupported kinds, not an error.
func (r *Registry) Lookup(kind Kind) (*Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.byKind[kind]
	return reg, ok
}

// Has reports whether a kind is registered.
func (r *Registry) Has(kind Kind) bool {
	_, ok := r.Lookup(kind)
	return ok
}

// All returns registrations in registration order.
func (r *Registry) All() []*Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Registration, 0, len(r.order))
	for _, kind := range r.order {
		out = append(out, r.byKind[kind])
	}
	return out
}

// Kinds returns registered kinds in registration order.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Kind, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of registrations.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Global registry instance for convenience.
var globalRegistry = NewRegistry()

// Global returns the process-wide registry.
func Global() *Registry {
	return globalRegistry
}

// Register adds a registration to the global registry.
func Register(reg *Registration) error {
	return globalRegistry.Register(reg)
}

// MustRegisterGlobal registers in the global registry, panicking on error.
func MustRegisterGlobal(reg *Registration) {
	globalRegistry.MustRegister(reg)
}
