package memory

import (
	"context"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	vector, err := NewInProcessStore("", false)
	if err != nil {
		t.Fatalf("NewInProcessStore: %v", err)
	}
	embedder := NewLocalEmbedder(32)
	episodic := NewInProcessEpisodicStore()
	return New("agent-1", vector, embedder, episodic)
}

func TestStore_WorkingMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, ok := s.GetWorking(ctx, "missing"); ok {
		t.Fatalf("GetWorking on empty store returned ok=true")
	}

	if err := s.UpdateWorking(ctx, "plan", "investigate logs"); err != nil {
		t.Fatalf("UpdateWorking: %v", err)
	}
	got, ok := s.GetWorking(ctx, "plan")
	if !ok {
		t.Fatalf("GetWorking(plan) ok=false after UpdateWorking")
	}
	if got != "investigate logs" {
		t.Fatalf("GetWorking(plan) = %v, want %q", got, "investigate logs")
	}

	s.ClearWorking(ctx)
	if _, ok := s.GetWorking(ctx, "plan"); ok {
		t.Fatalf("GetWorking(plan) ok=true after ClearWorking")
	}
}

func TestStore_SemanticRetrieval(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.UpdateSemantic(ctx, "fact-1", "the deployment pipeline runs every night at midnight"); err != nil {
		t.Fatalf("UpdateSemantic: %v", err)
	}
	if err := s.UpdateSemantic(ctx, "fact-2", "the coffee machine on the third floor is broken"); err != nil {
		t.Fatalf("UpdateSemantic: %v", err)
	}

	results, err := s.RetrieveRelevant(ctx, "the deployment pipeline runs every night at midnight", 1)
	if err != nil {
		t.Fatalf("RetrieveRelevant: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("RetrieveRelevant returned %d results, want 1", len(results))
	}
	if results[0].ID != "fact-1" {
		t.Fatalf("RetrieveRelevant top result = %q, want %q", results[0].ID, "fact-1")
	}
}

func TestStore_RetrieveRelevantEmptyQueryIsNoop(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.UpdateSemantic(ctx, "fact-1", "anything"); err != nil {
		t.Fatalf("UpdateSemantic: %v", err)
	}
	results, err := s.RetrieveRelevant(ctx, "", 5)
	if err != nil {
		t.Fatalf("RetrieveRelevant: %v", err)
	}
	if results != nil {
		t.Fatalf("RetrieveRelevant with empty query = %v, want nil", results)
	}
}

func TestStore_WithoutSemanticBackendIsNoop(t *testing.T) {
	ctx := context.Background()
	s := New("agent-2", nil, nil, nil)

	if err := s.UpdateSemantic(ctx, "k", "v"); err != nil {
		t.Fatalf("UpdateSemantic with nil backend: %v", err)
	}
	results, err := s.RetrieveRelevant(ctx, "v", 1)
	if err != nil {
		t.Fatalf("RetrieveRelevant with nil backend: %v", err)
	}
	if results != nil {
		t.Fatalf("RetrieveRelevant with nil backend = %v, want nil", results)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestStore_EpisodicOrdering(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	steps := []EpisodicRecord{
		{Step: 1, Role: "user", Content: "hello"},
		{Step: 2, Role: "assistant", Content: "hi there"},
		{Step: 3, Role: "user", Content: "what's the weather"},
	}
	for _, rec := range steps {
		if err := s.AppendEpisodic(ctx, rec); err != nil {
			t.Fatalf("AppendEpisodic(step=%d): %v", rec.Step, err)
		}
	}

	got, err := s.Episodic(ctx)
	if err != nil {
		t.Fatalf("Episodic: %v", err)
	}
	if len(got) != len(steps) {
		t.Fatalf("Episodic returned %d records, want %d", len(got), len(steps))
	}
	for i, rec := range got {
		if rec.Step != steps[i].Step || rec.Content != steps[i].Content {
			t.Fatalf("Episodic[%d] = %+v, want %+v", i, rec, steps[i])
		}
	}
}

func TestStore_Close(t *testing.T) {
	s := newTestStore(t)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestLocalEmbedder_Deterministic(t *testing.T) {
	e := NewLocalEmbedder(16)
	ctx := context.Background()

	a, err := e.Embed(ctx, "repeatable text")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, err := e.Embed(ctx, "repeatable text")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(a) != e.Dimension() {
		t.Fatalf("Embed returned vector of length %d, want %d", len(a), e.Dimension())
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Embed(%q) is not deterministic at index %d: %v != %v", "repeatable text", i, a, b)
		}
	}
}

func TestInProcessEpisodicStore_IsolatesAgents(t *testing.T) {
	ctx := context.Background()
	store := NewInProcessEpisodicStore()

	if err := store.Append(ctx, "agent-a", EpisodicRecord{Step: 1, Content: "a"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Append(ctx, "agent-b", EpisodicRecord{Step: 1, Content: "b"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	aRecs, err := store.List(ctx, "agent-a")
	if err != nil {
		t.Fatalf("List(agent-a): %v", err)
	}
	if len(aRecs) != 1 || aRecs[0].Content != "a" {
		t.Fatalf("List(agent-a) = %+v, want one record with content %q", aRecs, "a")
	}

	bRecs, err := store.List(ctx, "agent-b")
	if err != nil {
		t.Fatalf("List(agent-b): %v", err)
	}
	if len(bRecs) != 1 || bRecs[0].Content != "b" {
		t.Fatalf("List(agent-b) = %+v, want one record with content %q", bRecs, "b")
	}
}
