// Package copilot implements the multi-specialist orchestration core for the
// database copilot: a registry of backend specialists, a deterministic
// content-based router, discovery-tool aggregation for the generic triage
// dispatcher, and the handoff protocol that transfers a conversation from
// triage to a specialist.
//
// Architecture:
//
//	SelectionContext → Select() → Kind → Factory.Build() → AgentHandle
//
// The triage handle carries the aggregated read-only discovery tools plus one
// HandoffEdge per specialist that declares a handoff. Invoking an edge means
// "control now belongs to this specialist".
//
// Silent handoff contract: when the surrounding conversation engine invokes a
// HandoffEdge it must not emit any dispatcher-authored content of its own; the
// specialist responds directly to the end user. This package cannot enforce
// that mechanically; it is a behavioral contract the engine upholds.
//
// Routing is rule-based on purpose. Keyword sets for SQL dialects overlap, and
// ties are broken by registration order alone; that order-dependence is a
// documented property, not something to patch with scoring heuristics.
package copilot
