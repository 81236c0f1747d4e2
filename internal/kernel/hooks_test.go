package kernel

import (
	"context"
	"errors"
	"testing"
)

// TestDispatch_FailureIsolation verifies the canonical two-handler scenario:
// one handler succeeds and contributes an overlay, the other throws; the
// chain reports the failure but keeps the first handler's contribution.
func TestDispatch_FailureIsolation(t *testing.T) {
	reg := NewHookRegistry()
	if err := reg.Register(HookRegistration{
		ID: "h1", PluginID: "p1", Domain: DomainKernel, Event: "before_tool_call", Priority: 10,
		Handler: func(ctx context.Context, p Payload) (Payload, error) {
			return Payload{"note": "ok"}, nil
		},
	}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(HookRegistration{
		ID: "h2", PluginID: "p2", Domain: DomainKernel, Event: "before_tool_call", Priority: 20,
		Handler: func(ctx context.Context, p Payload) (Payload, error) {
			return nil, errors.New("boom")
		},
	}); err != nil {
		t.Fatal(err)
	}

	report := reg.Dispatch(context.Background(), DomainKernel, "before_tool_call", Payload{})

	if len(report.Failures) != 1 || report.Failures[0].HookID != "h2" {
		t.Fatalf("expected exactly h2 to fail, got %+v", report.Failures)
	}
	if report.FinalPayload["note"] != "ok" {
		t.Fatalf("expected final payload to carry h1's overlay, got %+v", report.FinalPayload)
	}
}

func TestDispatch_NeverThrows(t *testing.T) {
	reg := NewHookRegistry()
	if err := reg.Register(HookRegistration{
		ID: "panics", PluginID: "p", Domain: DomainCustom, Event: "e",
		Handler: func(ctx context.Context, p Payload) (Payload, error) {
			panic("bad handler")
		},
	}); err != nil {
		t.Fatal(err)
	}

	report := reg.Dispatch(context.Background(), DomainCustom, "e", Payload{"x": 1})
	if len(report.Failures) != 1 {
		t.Fatalf("expected one captured failure, got %+v", report.Failures)
	}
	if report.FinalPayload["x"] != 1 {
		t.Fatalf("expected payload preserved across panic, got %+v", report.FinalPayload)
	}
}

func TestDispatch_PriorityOrder(t *testing.T) {
	reg := NewHookRegistry()
	var order []string
	add := func(id string, pri int) {
		reg.Register(HookRegistration{
			ID: id, PluginID: "p", Domain: DomainCustom, Event: "e", Priority: pri,
			Handler: func(ctx context.Context, p Payload) (Payload, error) {
				order = append(order, id)
				return nil, nil
			},
		})
	}
	add("b", 20)
	add("a", 10)
	add("c", 10) // registered after "a" at the same priority: tie broken by order

	reg.Dispatch(context.Background(), DomainCustom, "e", Payload{})

	want := []string{"a", "c", "b"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestRegisterTool_DuplicateIDFails(t *testing.T) {
	k := New()
	def := ToolDef{ID: "read", Title: "Read", Description: "reads a file", PluginID: "core",
		Execute: func(ctx *ToolContext, args map[string]any) (ToolResult, error) { return OKResult(""), nil }}
	if err := k.RegisterTool(def); err != nil {
		t.Fatal(err)
	}
	if err := k.RegisterTool(def); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestRunTool_TimeoutProducesTimeoutError(t *testing.T) {
	k := New()
	_ = k.RegisterTool(ToolDef{
		ID: "slow", Title: "Slow", Description: "never returns", PluginID: "core", TimeoutMS: 10,
		Execute: func(ctx *ToolContext, args map[string]any) (ToolResult, error) {
			<-ctx.Context.Done()
			<-make(chan struct{}) // block past the parent timeout too
			return OKResult(""), nil
		},
	})
	res, err := k.RunTool(&ToolContext{Context: context.Background()}, "slow", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.OK || res.Error == nil || res.Error.Code != ErrTimeout {
		t.Fatalf("expected TIMEOUT error, got %+v", res)
	}
}

func TestRunTool_DeniedApproval(t *testing.T) {
	k := New()
	_ = k.RegisterTool(ToolDef{
		ID: "danger", Title: "Danger", Description: "needs approval", PluginID: "core",
		RequiresApproval: true,
		Execute: func(ctx *ToolContext, args map[string]any) (ToolResult, error) { return OKResult("done"), nil },
	})
	res, err := k.RunTool(&ToolContext{
		Context: context.Background(),
		Approve: func(ctx context.Context, toolID string, args map[string]any) bool { return false },
	}, "danger", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.OK || res.Error.Code != ErrDenied {
		t.Fatalf("expected DENIED error, got %+v", res)
	}
}
