package brain

import (
	"context"
	"testing"

	"github.com/kadirpekel/minion/config"
	"github.com/kadirpekel/minion/llms"
	"github.com/kadirpekel/minion/reasoning"
	"github.com/kadirpekel/minion/tools"
)

func newTestWorkers(t *testing.T) *reasoning.Registry {
	t.Helper()
	reg := reasoning.NewRegistry()
	if err := reg.Register("raw", func() reasoning.Worker { return &reasoning.RawWorker{} }); err != nil {
		t.Fatalf("register raw: %v", err)
	}
	if err := reg.Register("moderator", func() reasoning.Worker { return &reasoning.ModeratorWorker{} }); err != nil {
		t.Fatalf("register moderator: %v", err)
	}
	return reg
}

func newTestBrain(t *testing.T, script ...llms.ScriptedCall) *Brain {
	t.Helper()
	models := NewModelRegistry()
	if err := models.RegisterProvider("default", llms.NewMockProvider("mock-model", script...)); err != nil {
		t.Fatalf("register provider: %v", err)
	}
	var cfg config.BrainConfig
	b := New(models, tools.NewRegistry(), cfg)
	return b.WithWorkers(newTestWorkers(t))
}

func TestBrainStepWithExplicitRoute(t *testing.T) {
	b := newTestBrain(t, llms.ScriptedCall{Text: "42"})

	result, err := b.Step(context.Background(), StepInput{
		Query: "what is the answer",
		Route: "raw",
	})
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if result.Answer != "42" {
		t.Fatalf("got answer %q, want %q", result.Answer, "42")
	}
	if result.Info == nil {
		t.Fatal("expected Info to carry the full AgentResponse")
	}
}

func TestBrainStepFallsBackToDefaultRoute(t *testing.T) {
	b := newTestBrain(t, llms.ScriptedCall{Text: "fallback answer"})
	b.Config.DefaultRoute = "raw"

	result, err := b.Step(context.Background(), StepInput{Query: "hello"})
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if result.Answer != "fallback answer" {
		t.Fatalf("got answer %q, want %q", result.Answer, "fallback answer")
	}
}

func TestBrainStepUnknownModelAliasErrors(t *testing.T) {
	b := newTestBrain(t, llms.ScriptedCall{Text: "42"})

	_, err := b.Step(context.Background(), StepInput{
		Query: "hi",
		Route: "raw",
		Model: "nonexistent",
	})
	if err == nil {
		t.Fatal("expected an error for an unregistered model alias")
	}
}

func TestBrainCloseClosesProviders(t *testing.T) {
	b := newTestBrain(t)
	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}
