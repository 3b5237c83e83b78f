package agentloop

import (
	"context"
	"os"
	"testing"

	"github.com/kadirpekel/minion/brain"
	"github.com/kadirpekel/minion/config"
	"github.com/kadirpekel/minion/llms"
	"github.com/kadirpekel/minion/reasoning"
	"github.com/kadirpekel/minion/schema"
	"github.com/kadirpekel/minion/tools"
)

func newTestBrain(t *testing.T, script ...llms.ScriptedCall) *brain.Brain {
	t.Helper()
	models := brain.NewModelRegistry()
	if err := models.RegisterProvider("default", llms.NewMockProvider("mock-model", script...)); err != nil {
		t.Fatalf("register provider: %v", err)
	}
	workers := reasoning.NewRegistry()
	if err := workers.Register("raw", func() reasoning.Worker { return &reasoning.RawWorker{} }); err != nil {
		t.Fatalf("register raw: %v", err)
	}
	if err := workers.Register("code", func() reasoning.Worker { return &reasoning.CodeWorker{} }); err != nil {
		t.Fatalf("register code: %v", err)
	}
	if err := workers.Register("moderator", func() reasoning.Worker { return &reasoning.ModeratorWorker{} }); err != nil {
		t.Fatalf("register moderator: %v", err)
	}
	var cfg config.BrainConfig
	b := brain.New(models, tools.NewRegistry(), cfg)
	return b.WithWorkers(workers)
}

func newTestAgent(t *testing.T, script ...llms.ScriptedCall) *Agent {
	t.Helper()
	b := newTestBrain(t, script...)
	var cfg config.AgentLoopConfig
	a := New(b, cfg)
	a.DefaultRoute = "raw"
	return a
}

func TestAgentRunAsyncSingleStepTerminates(t *testing.T) {
	a := newTestAgent(t, llms.ScriptedCall{
		Text: "Thought: easy.\nCode:\n```python\nfinal_answer(42)\n```<END>",
	})
	a.DefaultRoute = "code"

	resp, err := a.RunAsync(context.Background(), "what is the answer", nil, 5, false, "")
	if err != nil {
		t.Fatalf("RunAsync failed: %v", err)
	}
	if resp.Answer != "42" {
		t.Fatalf("got answer %q, want 42", resp.Answer)
	}
	if !resp.Terminated {
		t.Fatal("expected a code-route final_answer call to terminate the step")
	}
}

func TestAgentRunAsyncRespectsMaxSteps(t *testing.T) {
	// RawWorker never sets Terminated, so without max_steps the loop
	// would run forever; maxSteps=2 must cap it.
	a := newTestAgent(t, llms.ScriptedCall{Text: "thinking..."})

	state := schema.NewAgentState(schema.Input{Query: "loop forever"})
	_, err := a.RunAsync(context.Background(), "", state, 2, false, "")
	if err != nil {
		t.Fatalf("RunAsync failed: %v", err)
	}
	if state.StepCount != 2 {
		t.Fatalf("got step count %d, want 2", state.StepCount)
	}
	if !state.Done {
		t.Fatal("expected state.Done once max_steps is reached")
	}
}

func TestAutoDecayReplacesLargeOldMessages(t *testing.T) {
	a := newTestAgent(t)
	a.Config.AutoDecay = true
	a.Config.DecayMinSizeBytes = 10
	a.Config.DecayTTLSteps = 1
	a.Config.CacheDir = t.TempDir()

	state := schema.NewAgentState(schema.Input{})
	state.Append(schema.NewTextMessage(schema.RoleUser, "this is a fairly long message body"))
	state.StepCount = 0

	if err := a.autoDecay(state, 5); err != nil {
		t.Fatalf("autoDecay failed: %v", err)
	}
	if state.History[0].Decay == nil || !state.History[0].Decay.Decayed {
		t.Fatal("expected the old, large message to be decayed")
	}
}

func TestAutoDecaySkipsRecentMessages(t *testing.T) {
	a := newTestAgent(t)
	a.Config.AutoDecay = true
	a.Config.DecayMinSizeBytes = 10
	a.Config.DecayTTLSteps = 5
	a.Config.CacheDir = t.TempDir()

	state := schema.NewAgentState(schema.Input{})
	state.Append(schema.NewTextMessage(schema.RoleUser, "this is a fairly long message body"))

	if err := a.autoDecay(state, 1); err != nil {
		t.Fatalf("autoDecay failed: %v", err)
	}
	if state.History[0].Decay != nil {
		t.Fatal("expected a recent message to survive decay untouched")
	}
}

func TestAgentCloseRemovesDecayFiles(t *testing.T) {
	a := newTestAgent(t)
	a.Config.CacheDir = t.TempDir()

	path, err := a.writeDecayFile(0, "some content")
	if err != nil {
		t.Fatalf("writeDecayFile failed: %v", err)
	}
	if err := a.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected decay file %q to be removed on Close", path)
	}
}
