package reasoning

import (
	"context"
	"testing"

	"github.com/kadirpekel/minion/actionnode"
	"github.com/kadirpekel/minion/interpreter"
	"github.com/kadirpekel/minion/llms"
	"github.com/kadirpekel/minion/schema"
)

func TestRawWorker(t *testing.T) {
	provider := llms.NewMockProvider("mock", llms.ScriptedCall{Text: "the answer is 4"})
	deps := Deps{Node: actionnode.New(provider, nil)}

	w := &RawWorker{}
	resp, err := w.Execute(context.Background(), schema.Input{Query: "2+2?"}, deps)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if resp.Answer != "the answer is 4" {
		t.Fatalf("got %q", resp.Answer)
	}
}

func TestChainOfThoughtExtractsFinalAnswer(t *testing.T) {
	provider := llms.NewMockProvider("mock", llms.ScriptedCall{
		Text: "Step 1: add.\nStep 2: done.\nFinal Answer: 4",
	})
	deps := Deps{Node: actionnode.New(provider, nil)}

	w := &ChainOfThoughtWorker{}
	resp, err := w.Execute(context.Background(), schema.Input{Query: "2+2?"}, deps)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if resp.Answer != "4" {
		t.Fatalf("got %q, want 4", resp.Answer)
	}
}

func TestDynamicChainOfThoughtMajorityVote(t *testing.T) {
	provider := llms.NewMockProvider("mock",
		llms.ScriptedCall{Text: "Final Answer: 4"},
		llms.ScriptedCall{Text: "Final Answer: 4"},
		llms.ScriptedCall{Text: "Final Answer: 5"},
	)
	deps := Deps{Node: actionnode.New(provider, nil), DCoTSamples: 3}

	w := &DynamicChainOfThoughtWorker{}
	resp, err := w.Execute(context.Background(), schema.Input{Query: "2+2?"}, deps)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if resp.Answer != "4" {
		t.Fatalf("got %q, want 4 (majority)", resp.Answer)
	}
}

func TestPythonWorkerRunsCodeAndRetriesOnError(t *testing.T) {
	provider := llms.NewMockProvider("mock",
		llms.ScriptedCall{Text: "```python\nfinal_answer(1/0)\n```"},
		llms.ScriptedCall{Text: "```python\nfinal_answer(42)\n```"},
	)
	deps := Deps{
		Node:       actionnode.New(provider, nil),
		Interp:     interpreter.NewInterp(),
		MaxRetries: 3,
	}

	w := &PythonWorker{}
	resp, err := w.Execute(context.Background(), schema.Input{Query: "compute"}, deps)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if resp.Answer != "42" {
		t.Fatalf("got %q, want 42", resp.Answer)
	}
	if provider.CallCount() != 2 {
		t.Fatalf("expected a retry after the ZeroDivisionError, got %d calls", provider.CallCount())
	}
}

func TestCodeWorkerExtractsSentinelBlock(t *testing.T) {
	provider := llms.NewMockProvider("mock", llms.ScriptedCall{
		Text: "Thought: easy.\nCode:\n```python\nfinal_answer(7)\n```<END>",
	})
	deps := Deps{Node: actionnode.New(provider, nil), Interp: interpreter.NewInterp()}

	w := &CodeWorker{}
	resp, err := w.Execute(context.Background(), schema.Input{Query: "compute"}, deps)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if resp.Answer != "7" {
		t.Fatalf("got %q, want 7", resp.Answer)
	}
}

func TestRouteWorkerDelegatesToChosenRoute(t *testing.T) {
	provider := llms.NewMockProvider("mock",
		llms.ScriptedCall{Text: "raw"},       // the route-picking call
		llms.ScriptedCall{Text: "delegated"}, // the raw worker's call
	)
	registry := NewRegistry()
	if err := registry.Register("raw", func() Worker { return &RawWorker{} }); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	deps := Deps{Node: actionnode.New(provider, nil), Registry: registry}

	w := &RouteWorker{}
	resp, err := w.Execute(context.Background(), schema.Input{Query: "hi"}, deps)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if resp.Answer != "delegated" {
		t.Fatalf("got %q, want delegated", resp.Answer)
	}
}

func TestModeratorHonorsExplicitRoute(t *testing.T) {
	provider := llms.NewMockProvider("mock", llms.ScriptedCall{Text: "answer"})
	registry := NewRegistry()
	if err := registry.Register("raw", func() Worker { return &RawWorker{} }); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	deps := Deps{Node: actionnode.New(provider, nil), Registry: registry}

	w := &ModeratorWorker{}
	resp, err := w.Execute(context.Background(), schema.Input{Query: "hi", Route: "raw"}, deps)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if resp.Answer != "answer" {
		t.Fatalf("got %q", resp.Answer)
	}
}

func TestPlanTopoSortOrdersDependencies(t *testing.T) {
	tasks := []PlanTask{
		{ID: "b", Worker: "raw", DependsOn: []string{"a"}},
		{ID: "a", Worker: "raw"},
		{ID: "c", Worker: "raw", DependsOn: []string{"a", "b"}},
	}
	ordered, err := topoSort(tasks)
	if err != nil {
		t.Fatalf("topoSort failed: %v", err)
	}
	pos := map[string]int{}
	for i, t := range ordered {
		pos[t.ID] = i
	}
	if pos["a"] > pos["b"] || pos["b"] > pos["c"] {
		t.Fatalf("got bad order: %+v", ordered)
	}
}

func TestPlanTopoSortDetectsCycle(t *testing.T) {
	tasks := []PlanTask{
		{ID: "a", DependsOn: []string{"b"}},
		{ID: "b", DependsOn: []string{"a"}},
	}
	if _, err := topoSort(tasks); err == nil {
		t.Fatal("expected a cycle error")
	}
}

func TestRegistryIsolation(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("x", func() Worker { return &RawWorker{} }); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, ok := MinionRegistry.Get("x"); ok {
		t.Fatal("isolated registry leaked into MinionRegistry")
	}
	if _, err := r.New("x"); err != nil {
		t.Fatalf("New failed: %v", err)
	}
}
