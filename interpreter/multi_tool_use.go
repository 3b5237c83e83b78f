package interpreter

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ToolCall is one invocation requested of multi_tool_use.parallel:
// the tool name and its keyword arguments.
type ToolCall struct {
	Name string
	Args map[string]any
}

// MultiToolUse dispatches every call in calls concurrently against
// tools, returning results and errors in the same order calls were
// given, regardless of completion order. One call's error does not
// cancel the others — each slot simply carries its own error. A name
// absent from tools fails that slot with "tool not found" rather than
// aborting the batch.
func MultiToolUse(ctx context.Context, tools map[string]*BoundTool, calls []ToolCall) ([]any, []error) {
	results := make([]any, len(calls))
	errs := make([]error, len(calls))
	var g errgroup.Group
	for i, c := range calls {
		i, c := i, c
		g.Go(func() error {
			t, ok := tools[c.Name]
			if !ok {
				errs[i] = fmt.Errorf("tool not found")
				return nil
			}
			v, err := t.Call(ctx, c.Args)
			results[i] = v
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()
	return results, errs
}

// multiToolUseParallelFunc implements the interpreter-visible
// multi_tool_use.parallel(config) builtin of spec.md §4.4: config is
// {tool_uses: [{recipient_name, parameters}, ...]}, and the return is
// {results, total_calls, successful_calls, failed_calls}, where each
// results[i] is {success, result} or {success: false, error}.
type multiToolUseParallelFunc struct{}

// newMultiToolUseModule builds the `multi_tool_use` object bound into
// AsyncInterp's globals, mirroring the `functions` grouping eval.go's
// BindTool maintains for direct tool calls.
func newMultiToolUseModule() *pyDict {
	d := newDict()
	d.set("parallel", multiToolUseParallelFunc{})
	return d
}

func (multiToolUseParallelFunc) callWithCtx(ctx context.Context, it *Interp, args []any, kwargs map[string]any) (any, error) {
	var configVal any
	if len(args) > 0 {
		configVal = args[0]
	} else if v, ok := kwargs["config"]; ok {
		configVal = v
	}
	cfg, ok := configVal.(*pyDict)
	if !ok {
		return nil, raisef(KindTypeError, "multi_tool_use.parallel() requires a config dict argument")
	}
	rawUses, _ := cfg.get("tool_uses")
	usesList, ok := rawUses.(*pyList)
	if !ok {
		return nil, raisef(KindTypeError, "multi_tool_use.parallel(): config.tool_uses must be a list")
	}

	calls := make([]ToolCall, len(usesList.items))
	for i, item := range usesList.items {
		entry, ok := item.(*pyDict)
		if !ok {
			return nil, raisef(KindTypeError, "multi_tool_use.parallel(): tool_uses[%d] must be a dict", i)
		}
		nameVal, _ := entry.get("recipient_name")
		name, _ := nameVal.(string)
		var params map[string]any
		if paramsVal, ok := entry.get("parameters"); ok {
			if pd, ok := paramsVal.(*pyDict); ok {
				if goVal, ok := pyToGoValue(pd).(map[string]any); ok {
					params = goVal
				}
			}
		}
		calls[i] = ToolCall{Name: name, Args: params}
	}

	results, errs := MultiToolUse(ctx, it.StaticTools, calls)

	outResults := make([]any, len(calls))
	successCount, failCount := 0, 0
	for i := range calls {
		entry := newDict()
		if errs[i] != nil {
			entry.set("success", false)
			entry.set("error", errs[i].Error())
			failCount++
		} else {
			entry.set("success", true)
			entry.set("result", goToPyValue(results[i]))
			successCount++
		}
		outResults[i] = entry
	}

	out := newDict()
	out.set("results", &pyList{items: outResults})
	out.set("total_calls", int64(len(calls)))
	out.set("successful_calls", int64(successCount))
	out.set("failed_calls", int64(failCount))
	return out, nil
}

// pyToGoValue converts an interpreter value tree into plain Go
// map[string]any/[]any/scalars, for handing to code outside the
// interpreter (e.g. a tool's Call).
func pyToGoValue(v any) any {
	switch x := v.(type) {
	case *pyDict:
		m := make(map[string]any, len(x.keys))
		for i, k := range x.keys {
			ks, _ := k.(string)
			m[ks] = pyToGoValue(x.vals[i])
		}
		return m
	case *pyList:
		out := make([]any, len(x.items))
		for i, item := range x.items {
			out[i] = pyToGoValue(item)
		}
		return out
	case pyTuple:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = pyToGoValue(item)
		}
		return out
	default:
		return v
	}
}

// goToPyValue converts a plain Go value tree (as a tool's Result
// typically is) back into interpreter values, inverse of pyToGoValue.
func goToPyValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		d := newDict()
		for k, val := range x {
			d.set(k, goToPyValue(val))
		}
		return d
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = goToPyValue(item)
		}
		return &pyList{items: out}
	default:
		return v
	}
}

var _ ctxCallable = multiToolUseParallelFunc{}
