// Package engine runs the copilot conversation: it routes each request to an
// agent, exposes that agent's tools to the model, and executes the resulting
// tool calls, including handoff transitions from triage to a specialist.
package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"dbcopilot/internal/copilot"
	"dbcopilot/internal/session"
)

const maxToolRounds = 8

// generator is the single model call the loop needs; it exists so tests can
// drive the loop with canned responses.
type generator interface {
	generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type genaiGenerator struct {
	client *genai.Client
}

func (g *genaiGenerator) generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return g.client.Models.GenerateContent(ctx, model, contents, cfg)
}

// Options configures an Engine.
type Options struct {
	APIKey       string
	Model        string
	Registry     *copilot.Registry
	Store        *session.Store
	Capabilities []copilot.Kind
	Logger       *zap.Logger
}

// Engine drives one conversation turn end to end.
type Engine struct {
	registry *copilot.Registry
	factory  *copilot.Factory
	store    *session.Store
	gen      generator
	model    string
	caps     []copilot.Kind
	logger   *zap.Logger
}

// New creates an engine backed by the Gemini API.
func New(ctx context.Context, opts Options) (*Engine, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("LLM API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: opts.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newEngine(opts, &genaiGenerator{client: client}), nil
}

func newEngine(opts Options, gen generator) *Engine {
	model := opts.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		registry: opts.Registry,
		factory:  copilot.NewFactory(opts.Registry),
		store:    opts.Store,
		gen:      gen,
		model:    model,
		caps:     opts.Capabilities,
		logger:   logger,
	}
}

// TurnResult is the outcome of one conversation turn.
type TurnResult struct {
	// Kind is the agent that produced the final text. A handoff during the
	// turn means this differs from the routed kind.
	Kind copilot.Kind

	// Text is the agent's reply.
	Text string

	// Explanation records how the turn was routed.
	Explanation copilot.Explanation
}

// Turn routes the user's message, builds the chosen agent, and runs the
// model/tool loop until the agent produces text. A handoff call switches the
// active agent mid-loop and persists the choice for the conversation; the
// dispatcher emits no text of its own around the transfer.
func (e *Engine) Turn(ctx context.Context, workspaceID, conversationID, userText string, attachments []string) (*TurnResult, error) {
	sticky, _, err := e.store.StickyKind(ctx, workspaceID, conversationID)
	if err != nil {
		return nil, err
	}

	sc := copilot.SelectionContext{
		StickyKind:            sticky,
		UserText:              userText,
		AttachedContents:      attachments,
		WorkspaceCapabilities: e.caps,
	}
	kind := copilot.Select(e.registry, sc)
	exp := copilot.Explain(e.registry, sc, kind)
	e.logger.Info("routed request",
		zap.String("workspace", workspaceID),
		zap.String("conversation", conversationID),
		zap.String("kind", kind.String()),
		zap.String("confidence", string(exp.Confidence)),
		zap.String("reason", exp.Reason))

	rc := copilot.NewRequestContext(workspaceID)
	rc.Attachments = attachments

	active, err := e.factory.Build(kind, rc)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{
		genai.NewContentFromText(userText, genai.RoleUser),
	}

	for round := 0; round < maxToolRounds; round++ {
		cfg := &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt(active), genai.RoleUser),
			Tools:             declarationsFor(active),
		}
		resp, err := e.gen.generate(ctx, e.model, contents, cfg)
		if err != nil {
			return nil, fmt.Errorf("generate content: %w", err)
		}

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			return &TurnResult{Kind: active.Kind, Text: resp.Text(), Explanation: exp}, nil
		}

		if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
			contents = append(contents, resp.Candidates[0].Content)
		}

		// The whole batch resolves against the agent that received it; a
		// handoff in the batch takes effect only after every call resolved,
		// so sibling calls still reach the pre-handoff agent's tools.
		parts := make([]*genai.Part, 0, len(calls))
		var next *copilot.AgentHandle
		for _, call := range calls {
			part, switched := e.handleCall(ctx, active, call, workspaceID, conversationID)
			parts = append(parts, part)
			if switched != nil && next == nil {
				next = switched
			}
		}
		if next != nil {
			active = next
		}
		contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: parts})
	}

	return nil, fmt.Errorf("tool loop exceeded %d rounds without a reply", maxToolRounds)
}

// handleCall executes one function call against the active agent. A handoff
// edge returns the specialist to switch to; everything else returns nil.
func (e *Engine) handleCall(ctx context.Context, active *copilot.AgentHandle, call *genai.FunctionCall, workspaceID, conversationID string) (*genai.Part, *copilot.AgentHandle) {
	if edge, ok := active.Edge(call.Name); ok {
		if err := e.store.SetStickyKind(ctx, workspaceID, conversationID, edge.TargetKind); err != nil {
			e.logger.Warn("persist sticky kind failed",
				zap.String("kind", edge.TargetKind.String()),
				zap.Error(err))
		}
		e.logger.Info("handoff",
			zap.String("from", active.Kind.String()),
			zap.String("to", edge.TargetKind.String()),
			zap.String("tool", call.Name))
		return genai.NewPartFromFunctionResponse(call.Name, map[string]any{
			"status": "transferred to " + edge.Specialist.DisplayName,
		}), edge.Specialist
	}

	tool := active.Tools.Get(call.Name)
	if tool == nil {
		return genai.NewPartFromFunctionResponse(call.Name, map[string]any{
			"error": fmt.Sprintf("unknown tool %q", call.Name),
		}), nil
	}

	out, err := tool.Execute(ctx, call.Args)
	if err != nil {
		// A failing tool fails only this call; the model sees the error and
		// the conversation continues.
		e.logger.Warn("tool failed",
			zap.String("tool", call.Name),
			zap.Error(err))
		return genai.NewPartFromFunctionResponse(call.Name, map[string]any{
			"error": err.Error(),
		}), nil
	}
	return genai.NewPartFromFunctionResponse(call.Name, map[string]any{
		"output": out,
	}), nil
}

func systemPrompt(h *copilot.AgentHandle) string {
	if h.Kind.IsTriage() {
		return "You are " + h.DisplayName + ", a database console assistant. " +
			"Use your discovery tools to inspect the workspace's data sources. " +
			"When the user's request belongs to a specific backend, call that " +
			"backend's transfer tool and nothing else: do not answer on the " +
			"specialist's behalf."
	}
	return "You are " + h.DisplayName + ". Answer using your tools against " +
		"the connected data source. Report tool errors to the user instead of " +
		"guessing at results."
}

// declarationsFor converts the agent's toolset and handoff edges into model
// function declarations. Handoff edges take no arguments.
func declarationsFor(h *copilot.AgentHandle) []*genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, h.Tools.Len()+len(h.Handoffs))
	for _, t := range h.Tools.Tools() {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  schemaToGenai(t.Schema()),
		})
	}
	for _, edge := range h.Handoffs {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        edge.ToolName,
			Description: edge.Description,
			Parameters:  &genai.Schema{Type: genai.TypeObject},
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func schemaToGenai(s copilot.ToolSchema) *genai.Schema {
	out := &genai.Schema{Type: genai.TypeObject, Required: s.Required}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = propertyToGenai(prop)
		}
	}
	return out
}

func propertyToGenai(p copilot.Property) *genai.Schema {
	g := &genai.Schema{
		Type:        genaiType(p.Type),
		Description: p.Description,
	}
	for _, e := range p.Enum {
		if s, ok := e.(string); ok {
			g.Enum = append(g.Enum, s)
		}
	}
	if p.Items != nil {
		g.Items = &genai.Schema{Type: genaiType(p.Items.Type)}
	}
	return g
}

func genaiType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}
