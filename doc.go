// Package minion implements the Minion agentic reasoning core: a
// decision engine that turns a user query into a verified answer by
// iteratively producing, executing, checking, and improving candidate
// solutions.
//
// # Components
//
// The package tree mirrors the reasoning pipeline's stages:
//
//	schema      message/tool wire shapes shared by every component
//	llms        provider abstraction (Anthropic, OpenAI, Gemini, mock)
//	tools       tool surface: descriptors, registry, MCP/skill/process collections
//	interpreter sandboxed Python-subset interpreter (sync and async)
//	actionnode  one atomic LLM turn shared by every reasoning worker
//	reasoning   worker strategies (plain, chain-of-thought, code, plan/ensemble)
//	check       check/improve loop that grades and refines candidate answers
//	brain       orchestrator that routes a query to a reasoning strategy
//	config      hierarchical YAML configuration for every component above
//	agentloop   long-running Thought/Code/Observation agent loop
//	memory      working, episodic, and semantic agent memory
//	telemetry   structured logging, tracing, and metrics
//
// # Using as a Go library
//
//	import (
//	    "github.com/kadirpekel/minion/brain"
//	    "github.com/kadirpekel/minion/config"
//	)
//
// A minimal program builds a ModelRegistry and Tools registry, wraps
// them in a brain.Brain, and drives it with brain.Step (single-shot)
// or an agentloop.Agent (multi-turn).
package minion
