package interpreter

import (
	"context"
	"fmt"
	"strings"

	"github.com/kadirpekel/minion/telemetry"
)

// Interp is one sandboxed evaluation session: its own global
// namespace, op counter, print log, and static tool bindings. It is
// not safe for concurrent Run calls — per spec.md §5, "multiple
// concurrent interpreter instances may exist in different agents" but
// a single instance's AST walk is synchronous.
type Interp struct {
	Globals       *Env
	StaticTools   map[string]*BoundTool
	MaxOps        int
	MaxPrintLen   int
	importAllowed map[string]bool

	// Recorder is the optional telemetry seam over interpreter
	// executions. A nil Recorder (the zero value) makes Run's telemetry
	// calls no-ops.
	Recorder *telemetry.Recorder

	opCount  int
	logBuf   strings.Builder
	logTrunc bool

	// callHook, when set by AsyncInterp, post-processes every Call
	// expression's result — used to await a channel-shaped return
	// value before the walk continues. nil for a plain sync Interp.
	callHook func(ctx context.Context, v any) (any, error)
}

// AllowImport extends the import allowlist at runtime, beyond the
// modules passed to NewInterp.
func (it *Interp) AllowImport(modules ...string) {
	for _, m := range modules {
		it.importAllowed[m] = true
	}
}

// NewInterp builds an Interp with the curated builtin subset injected
// and the default import allowlist, extended by extraImports.
func NewInterp(extraImports ...string) *Interp {
	it := &Interp{
		Globals:       newEnv(nil),
		StaticTools:   map[string]*BoundTool{},
		MaxOps:        DefaultMaxOps,
		MaxPrintLen:   DefaultMaxPrintLen,
		importAllowed: map[string]bool{},
	}
	for k := range DefaultImportAllowlist {
		it.importAllowed[k] = true
	}
	for _, m := range extraImports {
		it.importAllowed[m] = true
	}
	it.Globals.Define("_", nil)
	return it
}

// BindTool installs a tool under its sanitized name, both directly in
// globals and inside a grouped `functions` namespace object, so
// generated code may call either `tool_name(...)` or
// `functions.tool_name(...)`.
func (it *Interp) BindTool(t *BoundTool) {
	it.StaticTools[t.Name] = t
	it.Globals.Define(t.Name, t)
	fnObj, ok := it.Globals.vars["functions"]
	var d *pyDict
	if ok {
		d, ok = fnObj.(*pyDict)
	}
	if !ok {
		d = newDict()
		it.Globals.Define("functions", d)
	}
	d.set(t.Name, t)
}

func (it *Interp) writeLog(s string) {
	if it.logTrunc {
		return
	}
	if it.logBuf.Len()+len(s) > it.MaxPrintLen {
		remaining := it.MaxPrintLen - it.logBuf.Len()
		if remaining > 0 {
			it.logBuf.WriteString(s[:remaining])
		}
		it.logBuf.WriteString("\n...[output truncated]")
		it.logTrunc = true
		return
	}
	it.logBuf.WriteString(s)
}

func (it *Interp) step() error {
	it.opCount++
	if it.opCount > it.MaxOps {
		return newError(KindOpLimitExceeded, "operation limit exceeded")
	}
	return nil
}

// Result is the outcome of one Run call, matching spec.md §4.4's
// return contract: (last_value_or_final_answer, logs, is_final_answer).
type Result struct {
	Value        any
	Logs         string
	IsFinalAnswer bool
}

// Run parses and evaluates src as a new top-level module in this
// Interp's global namespace (so successive Run calls share state,
// matching a REPL-style sandboxed session).
func (it *Interp) Run(ctx context.Context, src string) (Result, error) {
	ctx, span := it.Recorder.StartInterpreterRun(ctx)

	prog, err := Parse(src)
	if err != nil {
		span.End(it.opCount, err)
		return Result{}, asInterpreterError(err)
	}
	v, _, err := it.evalBlock(ctx, prog.Body, it.Globals)
	if err != nil {
		if fa, ok := err.(*finalAnswerPanic); ok {
			span.End(it.opCount, nil)
			return Result{Value: fa.value, Logs: it.logBuf.String(), IsFinalAnswer: true}, nil
		}
		span.End(it.opCount, err)
		return Result{Logs: it.logBuf.String()}, asInterpreterError(err)
	}
	span.End(it.opCount, nil)
	return Result{Value: v, Logs: it.logBuf.String()}, nil
}

// evalBlock runs a statement list in env, returning the last bare
// expression's value (for the REPL-inspect / auto-print behavior) and
// any active flow signal (break/continue/return).
func (it *Interp) evalBlock(ctx context.Context, stmts []Node, env *Env) (any, *flow, error) {
	var last any
	for _, s := range stmts {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		v, fl, err := it.evalStmt(ctx, s, env)
		if err != nil {
			return nil, nil, err
		}
		if fl != nil {
			return nil, fl, nil
		}
		last = v
	}
	return last, nil, nil
}

type flowKind int

const (
	flowBreak flowKind = iota
	flowContinue
	flowReturn
)

type flow struct {
	kind  flowKind
	value any
}

func (it *Interp) evalStmt(ctx context.Context, node Node, env *Env) (any, *flow, error) {
	if err := it.step(); err != nil {
		return nil, nil, err
	}
	switch n := node.(type) {
	case ExprStmt:
		v, err := it.evalExpr(ctx, n.X, env)
		if err != nil {
			return nil, nil, err
		}
		// Bare expressions auto-print per spec.md §4.4, unless they are
		// calls (already side-effecting, e.g. print()/tool calls).
		if _, isCall := n.X.(Call); !isCall {
			it.writeLog(pyStr(v) + "\n")
		}
		env.vars["_"] = v
		it.Globals.vars["_"] = v
		return v, nil, nil

	case Assign:
		v, err := it.evalExpr(ctx, n.Value, env)
		if err != nil {
			return nil, nil, err
		}
		for _, t := range n.Targets {
			if err := it.assignTo(ctx, t, v, env); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil

	case AugAssign:
		cur, err := it.evalExpr(ctx, n.Target, env)
		if err != nil {
			return nil, nil, err
		}
		rhs, err := it.evalExpr(ctx, n.Value, env)
		if err != nil {
			return nil, nil, err
		}
		result, err := it.binOp(n.Op, cur, rhs)
		if err != nil {
			return nil, nil, err
		}
		if err := it.assignTo(ctx, n.Target, result, env); err != nil {
			return nil, nil, err
		}
		return nil, nil, nil

	case If:
		test, err := it.evalExpr(ctx, n.Test, env)
		if err != nil {
			return nil, nil, err
		}
		if truthy(test) {
			return it.evalBlock(ctx, n.Body, env)
		}
		return it.evalBlock(ctx, n.Else, env)

	case While:
		for {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			test, err := it.evalExpr(ctx, n.Test, env)
			if err != nil {
				return nil, nil, err
			}
			if !truthy(test) {
				return it.evalBlock(ctx, n.Else, env)
			}
			_, fl, err := it.evalBlock(ctx, n.Body, env)
			if err != nil {
				return nil, nil, err
			}
			if fl != nil {
				if fl.kind == flowBreak {
					break
				}
				if fl.kind == flowReturn {
					return nil, fl, nil
				}
			}
		}
		return nil, nil, nil

	case For:
		items, err := it.evalExpr(ctx, n.Iter, env)
		if err != nil {
			return nil, nil, err
		}
		seq, err := iterate(items)
		if err != nil {
			return nil, nil, err
		}
		broke := false
		for _, item := range seq {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			if err := it.assignTo(ctx, n.Target, item, env); err != nil {
				return nil, nil, err
			}
			_, fl, err := it.evalBlock(ctx, n.Body, env)
			if err != nil {
				return nil, nil, err
			}
			if fl != nil {
				if fl.kind == flowBreak {
					broke = true
					break
				}
				if fl.kind == flowReturn {
					return nil, fl, nil
				}
			}
		}
		if !broke {
			return it.evalBlock(ctx, n.Else, env)
		}
		return nil, nil, nil

	case Break:
		return nil, &flow{kind: flowBreak}, nil
	case Continue:
		return nil, &flow{kind: flowContinue}, nil
	case Pass:
		return nil, nil, nil

	case Return:
		var v any
		if n.Value != nil {
			var err error
			v, err = it.evalExpr(ctx, n.Value, env)
			if err != nil {
				return nil, nil, err
			}
		}
		return nil, &flow{kind: flowReturn, value: v}, nil

	case FuncDef:
		fn := &pyFunction{name: n.Name, params: n.Params, body: n.Body, closure: env, isAsync: n.IsAsync}
		env.Define(n.Name, fn)
		return nil, nil, nil

	case ClassDef:
		// Minimal class support: the body's top-level function defs
		// become methods on a dict-backed instance namespace; no
		// inheritance, no __init__ auto-dispatch beyond a direct call.
		classNS := newDict()
		classEnv := newEnv(env)
		if _, _, err := it.evalBlock(ctx, n.Body, classEnv); err != nil {
			return nil, nil, err
		}
		for name, v := range classEnv.vars {
			classNS.set(name, v)
		}
		env.Define(n.Name, classNS)
		return nil, nil, nil

	case Try:
		v, fl, err := it.evalBlock(ctx, n.Body, env)
		if err != nil {
			if _, ok := err.(*finalAnswerPanic); ok {
				return nil, nil, err
			}
			handled := false
			for _, h := range n.Handlers {
				if h.Type == "" || exceptionMatches(err, h.Type) {
					handled = true
					henv := env
					if h.Name != "" {
						henv.Define(h.Name, asInterpreterError(err))
					}
					v, fl, err = it.evalBlock(ctx, h.Body, henv)
					break
				}
			}
			if !handled {
				if len(n.Finally) > 0 {
					if _, _, ferr := it.evalBlock(ctx, n.Finally, env); ferr != nil {
						return nil, nil, ferr
					}
				}
				return nil, nil, err
			}
		} else if len(n.Else) > 0 {
			v, fl, err = it.evalBlock(ctx, n.Else, env)
		}
		if len(n.Finally) > 0 {
			_, ffl, ferr := it.evalBlock(ctx, n.Finally, env)
			if ferr != nil {
				return nil, nil, ferr
			}
			if ffl != nil {
				return nil, ffl, nil
			}
		}
		return v, fl, err

	case Raise:
		if n.Exc == nil {
			return nil, nil, raisef("RuntimeError", "No active exception to re-raise")
		}
		// `raise SomeError("msg")` names an exception kind, not a
		// callable: SomeError has no builtin binding, so it must be
		// recognized here rather than evaluated as an ordinary call.
		if call, ok := n.Exc.(Call); ok {
			if nameExpr, ok := call.Func.(NameExpr); ok && isExceptionKindName(nameExpr.Name) {
				args, err := it.evalExprList(ctx, call.Args, env)
				if err != nil {
					return nil, nil, err
				}
				msg := ""
				if len(args) > 0 {
					msg = pyStr(args[0])
				}
				return nil, nil, raisef(nameExpr.Name, "%s", msg)
			}
		}
		v, err := it.evalExpr(ctx, n.Exc, env)
		if err != nil {
			return nil, nil, err
		}
		if ie, ok := v.(*InterpreterError); ok {
			return nil, nil, &pyException{Kind: ie.Kind, Message: ie.Message}
		}
		if pe, ok := v.(*pyException); ok {
			return nil, nil, pe
		}
		kind := "Exception"
		if name, ok := n.Exc.(NameExpr); ok {
			kind = name.Name
		}
		return nil, nil, raisef(kind, "%s", pyStr(v))

	case With:
		wenv := env
		for _, item := range n.Items {
			ctxVal, err := it.evalExpr(ctx, item.Context, wenv)
			if err != nil {
				return nil, nil, err
			}
			if item.As != "" {
				wenv.Assign(item.As, ctxVal)
			}
		}
		v, fl, err := it.evalBlock(ctx, n.Body, wenv)
		for _, item := range n.Items {
			ctxVal, _ := it.evalExpr(ctx, item.Context, wenv)
			if closer, ok := ctxVal.(interface{ Close() error }); ok {
				_ = closer.Close()
			}
		}
		return v, fl, err

	case Import:
		for _, mod := range n.Modules {
			top := mod
			if idx := strings.Index(mod, "."); idx >= 0 {
				top = mod[:idx]
			}
			if !it.importAllowed[top] {
				return nil, nil, newError(KindImportNotAllowed, "import not allowed: %s", top)
			}
			env.Define(mod, newDict())
		}
		return nil, nil, nil

	case ImportFrom:
		top := n.Module
		if idx := strings.Index(top, "."); idx >= 0 {
			top = top[:idx]
		}
		if !it.importAllowed[top] {
			return nil, nil, newError(KindImportNotAllowed, "import not allowed: %s", top)
		}
		for _, name := range n.Names {
			if name == "*" {
				continue
			}
			env.Define(name, nil)
		}
		return nil, nil, nil

	default:
		return nil, nil, fmt.Errorf("interpreter: unhandled statement %T", node)
	}
}

func exceptionMatches(err error, typeName string) bool {
	ie := asInterpreterError(err)
	if ie == nil {
		return false
	}
	if typeName == "Exception" || typeName == "BaseException" {
		return true
	}
	return ie.Kind == typeName
}

func (it *Interp) assignTo(ctx context.Context, target Node, value any, env *Env) error {
	switch t := target.(type) {
	case NameExpr:
		env.Assign(t.Name, value)
		return nil
	case TupleExpr:
		items, err := iterate(value)
		if err != nil {
			return err
		}
		if len(items) != len(t.Elts) {
			return raisef(KindValueError, "not enough values to unpack (expected %d, got %d)", len(t.Elts), len(items))
		}
		for i, elt := range t.Elts {
			if err := it.assignTo(ctx, elt, items[i], env); err != nil {
				return err
			}
		}
		return nil
	case Subscript:
		xv, err := it.evalExpr(ctx, t.X, env)
		if err != nil {
			return err
		}
		idx, err := it.evalExpr(ctx, t.Index, env)
		if err != nil {
			return err
		}
		return it.setSubscript(xv, idx, value)
	case Attribute:
		xv, err := it.evalExpr(ctx, t.X, env)
		if err != nil {
			return err
		}
		if d, ok := xv.(*pyDict); ok {
			d.set(t.Attr, value)
			return nil
		}
		return raisef(KindAttributeError, "cannot set attribute %q", t.Attr)
	default:
		return raisef(KindTypeError, "cannot assign to this expression")
	}
}

func (it *Interp) setSubscript(x, idx, value any) error {
	switch c := x.(type) {
	case *pyList:
		i, ok := asFloat(idx)
		if !ok {
			return raisef(KindTypeError, "list indices must be integers")
		}
		n := int(i)
		if n < 0 {
			n += len(c.items)
		}
		if n < 0 || n >= len(c.items) {
			return raisef(KindIndexError, "list assignment index out of range")
		}
		c.items[n] = value
		return nil
	case *pyDict:
		c.set(idx, value)
		return nil
	default:
		return raisef(KindTypeError, "object does not support item assignment")
	}
}
