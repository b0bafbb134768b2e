package copilot

import "errors"

// Registry and dispatcher errors.
var (
	// ErrKindAlreadyRegistered is returned when registering a duplicate kind.
	// This is a build-time configuration bug; callers should abort startup.
	ErrKindAlreadyRegistered = errors.New("capability kind already registered")

	// ErrKindEmpty is returned when a registration has no kind.
	ErrKindEmpty = errors.New("capability kind cannot be empty")

	// ErrKindReserved is returned when a registration claims the triage kind.
	ErrKindReserved = errors.New("capability kind is reserved")

	// ErrKindNotSupported is returned by the factory for an unregistered kind.
	ErrKindNotSupported = errors.New("capability kind not supported")

	// ErrBuilderNil is returned when a registration lacks a builder function.
	ErrBuilderNil = errors.New("registration builder cannot be nil")

	// ErrToolNameEmpty is returned when a tool has no name.
	ErrToolNameEmpty = errors.New("tool name cannot be empty")

	// ErrToolExecuteNil is returned when a tool has no execute function.
	ErrToolExecuteNil = errors.New("tool execute function cannot be nil")

	// ErrDuplicateToolName is returned when adding a same-named tool to a ToolSet.
	ErrDuplicateToolName = errors.New("duplicate tool name")
)
