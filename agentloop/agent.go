// Package agentloop implements the Agent loop (C9): the Thought → Code →
// Observation front end that drives a Brain over many turns, with
// context-management passes (auto-decay of large outputs, auto-compact
// of long histories) layered around each step.
package agentloop

import (
	"context"
	"fmt"
	"sync"

	"github.com/kadirpekel/minion/brain"
	"github.com/kadirpekel/minion/config"
	"github.com/kadirpekel/minion/schema"
	"github.com/kadirpekel/minion/tools"
	"github.com/kadirpekel/minion/utils"
)

// Skill is a named snippet of code injected into the agent's interpreter
// namespace at Setup, plus the instruction text appended to the system
// prompt describing when to use it.
type Skill struct {
	Name         string
	Instructions string
	Source       string // code defining the skill's functions, run once at Setup
}

// Agent is spec.md §4.9's `BaseAgent`: an LLM reference (a model alias
// resolved through the Brain), a Brain, a declared tool list, optional
// skills and tool collections, and the context-management knobs that
// bound its running history.
type Agent struct {
	Brain        *brain.Brain
	Model        string // model alias; "" defers to the Brain's default
	DefaultRoute string // New sets "code"; if empty, the Brain's own default route applies
	Config       config.AgentLoopConfig

	Skills  []Skill
	Sources []tools.Source

	// StreamOut, when set before RunAsync, receives every StreamChunk
	// each step's Action Node turns emit. Left nil for non-streaming use.
	StreamOut chan<- schema.StreamChunk

	tokenizer *utils.TokenCounter

	setupOnce sync.Once
	setupErr  error

	createdDecayFiles []string
	mu                sync.Mutex
}

// New builds an Agent bound to b. cfg is defaulted in place.
func New(b *brain.Brain, cfg config.AgentLoopConfig) *Agent {
	cfg.SetDefaults()
	route := "code"
	return &Agent{Brain: b, DefaultRoute: route, Config: cfg}
}

// Setup is idempotent: it sets up every tool collection and injects skill
// scripts into the interpreter namespace. It does not create a Brain: an
// Agent whose Brain is nil fails Setup with an error. Raw callable
// auto-conversion (step 2 of the spec) is not applicable here since
// Minion tools are always declared as tools.Tool, never bare Go funcs.
func (a *Agent) Setup(ctx context.Context) error {
	a.setupOnce.Do(func() {
		for _, s := range a.Sources {
			if err := s.Setup(ctx); err != nil {
				a.setupErr = fmt.Errorf("agentloop: setting up tool source %q: %w", s.Name(), err)
				return
			}
		}
		if a.Brain == nil {
			a.setupErr = fmt.Errorf("agentloop: no Brain configured")
			return
		}
		for _, sk := range a.Skills {
			if sk.Source == "" {
				continue
			}
			interp := a.Brain.EnsureInterpreter(false)
			if _, err := interp.Run(ctx, sk.Source); err != nil {
				a.setupErr = fmt.Errorf("agentloop: loading skill %q: %w", sk.Name, err)
				return
			}
		}
		a.tokenizer = utils.NewTokenCounter(a.Config.CompactModel)
	})
	return a.setupErr
}

// Close releases every tool collection the Agent set up and best-effort
// removes the decay cache files it created during this Agent's life.
func (a *Agent) Close(ctx context.Context) error {
	var firstErr error
	for _, s := range a.Sources {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("agentloop: closing tool source %q: %w", s.Name(), err)
		}
	}
	a.mu.Lock()
	files := a.createdDecayFiles
	a.createdDecayFiles = nil
	a.mu.Unlock()
	for _, f := range files {
		_ = removeFile(f) // best-effort, per spec.md §4.10
	}
	return firstErr
}

// skillInstructions renders the enabled skills' instructions for
// appending to the system prompt, per spec.md §4.9 step contract 2(a).
func (a *Agent) skillInstructions() string {
	if len(a.Skills) == 0 {
		return ""
	}
	out := "\n\nAvailable skills:\n"
	for _, sk := range a.Skills {
		out += fmt.Sprintf("- %s: %s\n", sk.Name, sk.Instructions)
	}
	return out
}

// toolSummary renders the currently available tools for appending to
// the system prompt, per spec.md §4.9 step contract 2(b).
func (a *Agent) toolSummary() string {
	if a.Brain == nil || a.Brain.Tools == nil {
		return ""
	}
	infos := a.Brain.Tools.List()
	if len(infos) == 0 {
		return ""
	}
	out := "\n\nAvailable tools:\n"
	for _, info := range infos {
		out += fmt.Sprintf("- %s: %s\n", info.Name, info.Description)
	}
	return out
}

func buildSystemPrompt(base string, a *Agent) string {
	return base + a.skillInstructions() + a.toolSummary()
}
