package copilot

import (
	"context"
	"errors"
	"testing"
)

// testRegistration builds a minimal valid registration whose toolset contains
// the given tool names.
func testRegistration(kind Kind, toolNames ...string) *Registration {
	return &Registration{
		Kind:        kind,
		DisplayName: string(kind),
		BuildSpecialist: func(rc RequestContext) (*AgentHandle, error) {
			return &AgentHandle{Kind: kind, DisplayName: string(kind)}, nil
		},
		BuildTools: func(rc RequestContext) (*ToolSet, error) {
			set := NewToolSet()
			for _, name := range toolNames {
				set.MustAdd(MustTool(name, "test tool "+name, ToolSchema{},
					func(ctx context.Context, args map[string]any) (string, error) {
						return "ok", nil
					}))
			}
			return set, nil
		},
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg == nil {
		t.Fatal("NewRegistry returned nil")
	}
	if reg.Count() != 0 {
		t.Errorf("new registry should be empty, got %d registrations", reg.Count())
	}
}

func TestRegisterAndLookup(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(testRegistration("mongo")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, ok := reg.Lookup("mongo")
	if !ok {
		t.Fatal("Lookup did not find registered kind")
	}
	if got.Kind != "mongo" {
		t.Errorf("got kind %q, want %q", got.Kind, "mongo")
	}

	if _, ok := reg.Lookup("oracle"); ok {
		t.Error("Lookup found a kind that was never registered")
	}
}

func TestRegisterDuplicateKind(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(testRegistration("mongo")); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	err := reg.Register(testRegistration("mongo"))
	if !errors.Is(err, ErrKindAlreadyRegistered) {
		t.Fatalf("expected ErrKindAlreadyRegistered, got %v", err)
	}

	// No partial mutation: registry state is unchanged.
	if reg.Count() != 1 {
		t.Errorf("registry mutated by failed Register, count=%d", reg.Count())
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name    string
		reg     *Registration
		wantErr error
	}{
		{
			name:    "empty kind",
			reg:     testRegistration(""),
			wantErr: ErrKindEmpty,
		},
		{
			name:    "reserved triage kind",
			reg:     testRegistration(KindTriage),
			wantErr: ErrKindReserved,
		},
		{
			name: "nil specialist builder",
			reg: &Registration{
				Kind:       "mongo",
				BuildTools: testRegistration("mongo").BuildTools,
			},
			wantErr: ErrBuilderNil,
		},
		{
			name: "nil tools builder",
			reg: &Registration{
				Kind:            "mongo",
				BuildSpecialist: testRegistration("mongo").BuildSpecialist,
			},
			wantErr: ErrBuilderNil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			if err := reg.Register(tt.reg); !errors.Is(err, tt.wantErr) {
				t.Errorf("got error %v, want %v", err, tt.wantErr)
			}
			if reg.Count() != 0 {
				t.Errorf("failed Register mutated registry, count=%d", reg.Count())
			}
		})
	}
}

func TestAllPreservesRegistrationOrder(t *testing.T) {
	reg := NewRegistry()
	kinds := []Kind{"mongo", "bigquery", "postgres"}
	for _, k := range kinds {
		reg.MustRegister(testRegistration(k))
	}

	all := reg.All()
	if len(all) != len(kinds) {
		t.Fatalf("All returned %d registrations, want %d", len(all), len(kinds))
	}
	for i, r := range all {
		if r.Kind != kinds[i] {
			t.Errorf("position %d: got %q, want %q", i, r.Kind, kinds[i])
		}
	}

	got := reg.Kinds()
	for i, k := range got {
		if k != kinds[i] {
			t.Errorf("Kinds position %d: got %q, want %q", i, k, kinds[i])
		}
	}
}

func TestMustRegisterPanicsOnDuplicate(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(testRegistration("mongo"))

	defer func() {
		if recover() == nil {
			t.Error("MustRegister did not panic on duplicate kind")
		}
	}()
	reg.MustRegister(testRegistration("mongo"))
}
