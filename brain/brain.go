package brain

import (
	"context"
	"fmt"

	"github.com/kadirpekel/minion/actionnode"
	"github.com/kadirpekel/minion/check"
	"github.com/kadirpekel/minion/config"
	"github.com/kadirpekel/minion/interpreter"
	"github.com/kadirpekel/minion/llms"
	"github.com/kadirpekel/minion/reasoning"
	"github.com/kadirpekel/minion/schema"
	"github.com/kadirpekel/minion/telemetry"
	"github.com/kadirpekel/minion/tools"
)

// StepInput is the caller-facing argument bundle to Brain.Step, mirroring
// spec.md §4.8's `step(query|messages, route?, stream?, tools?, dataset?,
// cache_plan?, …)`.
type StepInput struct {
	Query     any // string, []schema.QueryPart, or []schema.Message
	Route     string
	Model     string // provider alias; falls back to config.BrainConfig.DefaultModel
	Stream    bool
	StreamOut chan<- schema.StreamChunk
	Tools     []schema.ToolDescriptor
	Dataset   []schema.TestCase
	CachePlan schema.CachePlan
	Feedback  string
}

// Result is Brain.Step's return value: spec.md §4.8's `(answer, score,
// terminated, truncated, info)` tuple, with Info carrying the full
// AgentResponse plus cost.
type Result struct {
	Answer     string
	Score      float64
	Terminated bool
	Truncated  bool
	Info       *schema.AgentResponse
}

// asyncInterpAdapter satisfies reasoning.Interpreter by delegating Run to
// the coroutine-aware RunAsync, so a streaming step can share the same
// Deps.Interp field as a synchronous one.
type asyncInterpAdapter struct {
	ai *interpreter.AsyncInterp
}

func (a asyncInterpAdapter) Run(ctx context.Context, src string) (interpreter.Result, error) {
	return a.ai.RunAsync(ctx, src)
}

// Brain owns process-wide configuration: the model registry, the default
// provider alias, the tool registry, and the code interpreters workers
// run against. One Brain is shared across every step it serves.
type Brain struct {
	Models   *ModelRegistry
	Tools    *tools.Registry
	Workers  *reasoning.Registry
	Config   config.BrainConfig
	Extra    []string // extra Python imports the sandboxed interpreter allows

	// Recorder is the optional telemetry seam threaded into every Action
	// Node and interpreter this Brain constructs. Left nil, every call
	// it reaches is a no-op; callers that own a config.Config assign it
	// after New (e.g. brain.Recorder = telemetry.NewRecorder(...)), since
	// BrainConfig itself carries no telemetry settings.
	Recorder *telemetry.Recorder

	syncInterp  *interpreter.Interp
	asyncInterp *interpreter.AsyncInterp
}

// New builds a Brain. workers defaults to reasoning.MinionRegistry when
// nil, matching every other package's process-wide-registry convention.
func New(models *ModelRegistry, toolRegistry *tools.Registry, cfg config.BrainConfig) *Brain {
	cfg.SetDefaults()
	return &Brain{
		Models:  models,
		Tools:   toolRegistry,
		Workers: reasoning.MinionRegistry,
		Config:  cfg,
	}
}

// WithWorkers overrides the worker registry, e.g. to isolate a test from
// the process-wide MinionRegistry.
func (b *Brain) WithWorkers(r *reasoning.Registry) *Brain {
	b.Workers = r
	return b
}

// EnsureInterpreter implements spec.md §4.8 operation 2: inject the sync
// or async interpreter variant based on the stream flag, lazily and at
// most once per variant, since both may be used across the Brain's
// lifetime (a non-streaming step followed by a streaming one). Exported
// so the agent loop (C9) can share the same interpreter instance a Brain
// step would use, e.g. to inject skill scripts into its namespace.
func (b *Brain) EnsureInterpreter(stream bool) reasoning.Interpreter {
	if stream {
		if b.asyncInterp == nil {
			b.asyncInterp = interpreter.NewAsyncInterp(b.Extra...)
		}
		b.asyncInterp.Recorder = b.Recorder
		return asyncInterpAdapter{ai: b.asyncInterp}
	}
	if b.syncInterp == nil {
		b.syncInterp = interpreter.NewInterp(b.Extra...)
	}
	b.syncInterp.Recorder = b.Recorder
	return b.syncInterp
}

// toolDescriptors forces construction of every registered tool and
// collects its descriptor, for attaching to the Action Node's generate
// call. Deferred tools (tool_search/load_tool candidates) are
// intentionally excluded: only tools already materialized are offered
// directly to the model, per spec.md §4.3's dynamic-discovery split.
func toolDescriptors(ctx context.Context, reg *tools.Registry) ([]schema.ToolDescriptor, error) {
	if reg == nil {
		return nil, nil
	}
	var out []schema.ToolDescriptor
	for _, info := range reg.List() {
		t, err := reg.LoadTool(ctx, info.Name)
		if err != nil {
			return nil, fmt.Errorf("brain: loading tool %q: %w", info.Name, err)
		}
		out = append(out, t.Descriptor())
	}
	return out, nil
}

// Step implements spec.md §4.8's four-operation contract: build an Input,
// ensure a code interpreter, instantiate and invoke the Moderator, and
// return the terminal (answer, score, terminated, truncated, info) tuple.
func (b *Brain) Step(ctx context.Context, in StepInput) (*Result, error) {
	modelAlias := in.Model
	if modelAlias == "" {
		modelAlias = b.Config.DefaultModel
	}
	provider, err := b.Models.GetProvider(modelAlias)
	if err != nil {
		return nil, fmt.Errorf("brain: %w", err)
	}

	route := in.Route
	if route == "" {
		route = b.Config.DefaultRoute
	}

	declaredTools := in.Tools
	if declaredTools == nil {
		declaredTools, err = toolDescriptors(ctx, b.Tools)
		if err != nil {
			return nil, err
		}
	}

	input := schema.Input{
		Query:     in.Query,
		Route:     route,
		Stream:    in.Stream,
		Dataset:   in.Dataset,
		CachePlan: in.CachePlan,
		Feedback:  in.Feedback,
	}

	var executor actionnode.ToolExecutor
	if b.Tools != nil {
		executor = b.Tools
	}
	node := actionnode.New(provider, executor)
	node.Recorder = b.Recorder
	interp := b.EnsureInterpreter(in.Stream)

	var checker check.Checker
	if b.Config.Check.Enabled {
		checker = b.buildChecker(node, interp)
	}

	deps := reasoning.Deps{
		Node:       node,
		Interp:     interp,
		Tools:      declaredTools,
		ToolChoice: llms.ToolChoiceAuto,
		Registry:   b.Workers,
		Stream:     in.StreamOut,
	}
	if checker != nil {
		deps.Scorer = func(sctx context.Context, sin schema.Input, candidate string) (float64, error) {
			scored := sin.Clone()
			scored.Answer = candidate
			score, _, err := checker.Check(sctx, scored)
			return score, err
		}
	}

	moderator, err := b.Workers.New("moderator")
	if err != nil {
		return nil, fmt.Errorf("brain: %w", err)
	}

	resp, err := moderator.Execute(ctx, input, deps)
	if err != nil {
		return nil, fmt.Errorf("brain: step failed: %w", err)
	}

	if checker != nil {
		candidate := input.Clone()
		candidate.Answer = resp.Answer
		improver := check.NewFeedbackMinion(moderator, deps)
		outcome, cerr := check.Loop(ctx, checker, improver, candidate, b.Config.Check.MaxRounds, b.Config.Check.AcceptanceThreshold)
		if cerr == nil {
			resp.Answer = outcome.Input.Answer
			resp.Score = outcome.Score
			if outcome.Score >= b.Config.Check.AcceptanceThreshold {
				resp.Terminated = true
			}
		}
	}

	resp.Cost = provider.GetCost()

	return &Result{
		Answer:     resp.Answer,
		Score:      resp.Score,
		Terminated: resp.Terminated,
		Truncated:  resp.Truncated,
		Info:       resp,
	}, nil
}

// buildChecker picks the Checker implementation named by
// b.Config.Check.Mode. "codium" has no held-out set to draw on at this
// layer (HeldOut examples aren't part of StepInput), so it falls back
// to the llm critic like an unrecognized mode would.
func (b *Brain) buildChecker(node *actionnode.Node, interp reasoning.Interpreter) check.Checker {
	switch b.Config.Check.Mode {
	case "test":
		return check.NewTestMinion(interp, b.Config.Check.Tolerance)
	case "doctest":
		return check.NewDoctestMinion(interp, b.Config.Check.Tolerance)
	default:
		return check.NewCheckMinion(node, b.Config.Check.Rubric)
	}
}

// Close releases every constructed provider and interpreter resource the
// Brain owns.
func (b *Brain) Close() error {
	if b.Models != nil {
		return b.Models.Close()
	}
	return nil
}
