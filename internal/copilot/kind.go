package copilot

// Kind identifies a backend specialist ("mongo", "bigquery", "postgres").
// Kinds are disjoint over registered specialists.
type Kind string

// KindTriage denotes the generic dispatcher. It is never placed in the
// registry; the factory builds it from the registry as a whole.
const KindTriage Kind = "triage"

// String returns the kind as a plain string.
func (k Kind) String() string {
	return string(k)
}

// IsTriage reports whether the kind is the reserved triage kind.
func (k Kind) IsTriage() bool {
	return k == KindTriage
}
