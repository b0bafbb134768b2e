package engine

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"dbcopilot/internal/copilot"
	"dbcopilot/internal/session"
)

// scriptedGenerator returns canned responses in order and records what the
// engine sent on each round.
type scriptedGenerator struct {
	responses []*genai.GenerateContentResponse
	calls     []*genai.GenerateContentConfig
	contents  [][]*genai.Content
}

func (g *scriptedGenerator) generate(_ context.Context, _ string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	g.calls = append(g.calls, cfg)
	g.contents = append(g.contents, contents)
	if len(g.responses) == 0 {
		return nil, errors.New("script exhausted")
	}
	resp := g.responses[0]
	g.responses = g.responses[1:]
	return resp, nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: text}},
			},
		}},
	}
}

func callResponse(name string, args map[string]any) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{FunctionCall: &genai.FunctionCall{Name: name, Args: args}}},
			},
		}},
	}
}

// testEngine wires a single fake specialist behind triage. The specialist's
// ping tool records whether it ran and can be made to fail.
func testEngine(t *testing.T, gen generator) (*Engine, *session.Store, *bool, *error) {
	t.Helper()

	ran := new(bool)
	failWith := new(error)

	reg := copilot.NewRegistry()
	reg.MustRegister(&copilot.Registration{
		Kind:         "fake",
		DisplayName:  "Fake Specialist",
		HandoffBlurb: "Handles the fake backend.",
		Handoff: &copilot.HandoffSpec{
			ToolName:    "transfer_to_fake_specialist",
			Description: "Transfer to the fake backend specialist.",
		},
		DiscoveryTools: []string{"ping"},
		Keywords:       []string{"fakedb"},
		BuildSpecialist: func(rc copilot.RequestContext) (*copilot.AgentHandle, error) {
			return &copilot.AgentHandle{Kind: "fake", DisplayName: "Fake Specialist"}, nil
		},
		BuildTools: func(rc copilot.RequestContext) (*copilot.ToolSet, error) {
			ts := copilot.NewToolSet()
			ts.MustAdd(copilot.MustTool("ping", "Ping the backend.", copilot.ToolSchema{},
				func(ctx context.Context, args map[string]any) (string, error) {
					*ran = true
					if *failWith != nil {
						return "", *failWith
					}
					return "pong", nil
				}))
			return ts, nil
		},
	})

	store, err := session.Open(context.Background(), filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	eng := newEngine(Options{
		Registry:     reg,
		Store:        store,
		Capabilities: []copilot.Kind{"fake"},
	}, gen)
	return eng, store, ran, failWith
}

func TestTurnPlainReply(t *testing.T) {
	gen := &scriptedGenerator{responses: []*genai.GenerateContentResponse{
		textResponse("hello"),
	}}
	eng, _, _, _ := testEngine(t, gen)

	// One capability means workspace narrowing routes straight to the
	// specialist even without textual signals.
	res, err := eng.Turn(context.Background(), "ws-1", "conv-1", "what do we have?", nil)
	require.NoError(t, err)
	assert.Equal(t, copilot.Kind("fake"), res.Kind)
	assert.Equal(t, "hello", res.Text)
	assert.Equal(t, copilot.ConfidenceLow, res.Explanation.Confidence)
}

func TestTurnExecutesTool(t *testing.T) {
	gen := &scriptedGenerator{responses: []*genai.GenerateContentResponse{
		callResponse("ping", nil),
		textResponse("backend is up"),
	}}
	eng, _, ran, _ := testEngine(t, gen)

	res, err := eng.Turn(context.Background(), "ws-1", "conv-1", "check fakedb for me", nil)
	require.NoError(t, err)
	assert.True(t, *ran, "ping tool never executed")
	assert.Equal(t, "backend is up", res.Text)
	assert.Equal(t, copilot.ConfidenceMedium, res.Explanation.Confidence)
}

func TestTurnHandoffSwitchesAgentAndPersists(t *testing.T) {
	gen := &scriptedGenerator{responses: []*genai.GenerateContentResponse{
		callResponse("transfer_to_fake_specialist", nil),
		textResponse("specialist here"),
	}}
	eng, store, _, _ := testEngine(t, gen)
	// Extra capability keeps narrowing from picking the specialist directly.
	eng.caps = []copilot.Kind{"fake", "other"}

	res, err := eng.Turn(context.Background(), "ws-1", "conv-1", "help me out", nil)
	require.NoError(t, err)

	// The specialist, not the dispatcher, produced the reply.
	assert.Equal(t, copilot.Kind("fake"), res.Kind)
	assert.Equal(t, "specialist here", res.Text)

	// The handoff stuck for the rest of the conversation.
	kind, ok, err := store.StickyKind(context.Background(), "ws-1", "conv-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, copilot.Kind("fake"), kind)

	// After the switch the model sees the specialist's declarations: the full
	// toolset and no transfer tool.
	require.Len(t, gen.calls, 2)
	names := declarationNames(gen.calls[1])
	assert.Contains(t, names, "ping")
	assert.NotContains(t, names, "transfer_to_fake_specialist")
	assert.NotContains(t, names, copilot.ToolListDataSources)
}

func TestTurnHandoffBatchResolvesAgainstDispatcher(t *testing.T) {
	// One model turn emits a handoff plus a dispatcher-owned tool call. The
	// sibling call must still reach the dispatcher's toolset; the switch to
	// the specialist happens only after the batch resolved.
	batch := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role: genai.RoleModel,
				Parts: []*genai.Part{
					{FunctionCall: &genai.FunctionCall{Name: "transfer_to_fake_specialist"}},
					{FunctionCall: &genai.FunctionCall{Name: copilot.ToolReadAttachedContent}},
				},
			},
		}},
	}
	gen := &scriptedGenerator{responses: []*genai.GenerateContentResponse{
		batch,
		textResponse("specialist here"),
	}}
	eng, _, _, _ := testEngine(t, gen)
	eng.caps = []copilot.Kind{"fake", "other"}

	res, err := eng.Turn(context.Background(), "ws-1", "conv-1", "help me out", nil)
	require.NoError(t, err)
	assert.Equal(t, copilot.Kind("fake"), res.Kind)

	// The read_attached_content call exists only on the dispatcher; its
	// response must carry output, not an unknown-tool error.
	require.Len(t, gen.contents, 2)
	resp := functionResponseFor(t, gen.contents[1], copilot.ToolReadAttachedContent)
	assert.NotContains(t, resp, "error")
	assert.Contains(t, resp, "output")
}

func functionResponseFor(t *testing.T, contents []*genai.Content, name string) map[string]any {
	t.Helper()
	for _, c := range contents {
		for _, p := range c.Parts {
			if p.FunctionResponse != nil && p.FunctionResponse.Name == name {
				return p.FunctionResponse.Response
			}
		}
	}
	t.Fatalf("no function response for %s", name)
	return nil
}

func TestTurnToolErrorIsScoped(t *testing.T) {
	gen := &scriptedGenerator{responses: []*genai.GenerateContentResponse{
		callResponse("ping", nil),
		textResponse("the backend is unreachable"),
	}}
	eng, _, _, failWith := testEngine(t, gen)
	*failWith = errors.New("connection refused")

	res, err := eng.Turn(context.Background(), "ws-1", "conv-1", "check fakedb", nil)
	require.NoError(t, err, "a failing tool must not fail the turn")
	assert.Equal(t, "the backend is unreachable", res.Text)
}

func TestTurnLoopBounded(t *testing.T) {
	responses := make([]*genai.GenerateContentResponse, maxToolRounds+1)
	for i := range responses {
		responses[i] = callResponse("ping", nil)
	}
	gen := &scriptedGenerator{responses: responses}
	eng, _, _, _ := testEngine(t, gen)

	_, err := eng.Turn(context.Background(), "ws-1", "conv-1", "check fakedb", nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "tool loop"), "got %v", err)
}

func declarationNames(cfg *genai.GenerateContentConfig) []string {
	var names []string
	for _, tool := range cfg.Tools {
		for _, decl := range tool.FunctionDeclarations {
			names = append(names, decl.Name)
		}
	}
	return names
}
