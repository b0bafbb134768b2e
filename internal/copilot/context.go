package copilot

import "github.com/google/uuid"

// RequestContext carries per-request facts that tool and specialist builders
// close over: workspace scope, attached content, and an optional preferred
// target (collection, dataset, table). Builders must not mutate it.
type RequestContext struct {
	// RequestID correlates logs and tool results for one inbound turn.
	RequestID string

	// WorkspaceID scopes every backend operation.
	WorkspaceID string

	// PreferredTarget is an optional object the user is focused on.
	PreferredTarget string

	// Attachments holds content the user attached to the turn (query text,
	// schema snippets). Exposed via the dispatcher's read_attached_content tool.
	Attachments []string
}

// NewRequestContext creates a RequestContext with a fresh request id.
func NewRequestContext(workspaceID string) RequestContext {
	return RequestContext{
		RequestID:   uuid.NewString(),
		WorkspaceID: workspaceID,
	}
}

// SelectionContext is the per-turn input to Select and Explain. It is
// constructed fresh each turn and never persisted here; sticky-kind
// persistence belongs to the caller.
type SelectionContext struct {
	// StickyKind is the specialist chosen on a previous turn, if any.
	// When set, Select returns it unconditionally.
	StickyKind Kind

	// UserText is the free-text user input for this turn.
	UserText string

	// AttachedContents is the raw text of any attached content.
	AttachedContents []string

	// WorkspaceCapabilities lists the backend kinds configured in the
	// workspace. Used only as a last-resort narrowing signal.
	WorkspaceCapabilities []Kind
}
