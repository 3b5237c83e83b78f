package interpreter

import "context"

// nativeFunc wraps a builtinFunc (a top-level builtin, or a bound
// string/list/dict method closure) as a callable interpreter value.
type nativeFunc struct {
	name string
	fn   builtinFunc
}

func (it *Interp) evalCall(ctx context.Context, n Call, env *Env) (any, error) {
	callee, err := it.evalExpr(ctx, n.Func, env)
	if err != nil {
		return nil, err
	}
	args, err := it.evalExprList(ctx, n.Args, env)
	if err != nil {
		return nil, err
	}
	var kwargs map[string]any
	if len(n.Kwargs) > 0 {
		kwargs = make(map[string]any, len(n.Kwargs))
		for k, v := range n.Kwargs {
			val, err := it.evalExpr(ctx, v, env)
			if err != nil {
				return nil, err
			}
			kwargs[k] = val
		}
	}
	if n.StarArgs != nil {
		v, err := it.evalExpr(ctx, n.StarArgs, env)
		if err != nil {
			return nil, err
		}
		items, err := iterate(v)
		if err != nil {
			return nil, err
		}
		args = append(args, items...)
	}
	result, err := it.callValue(ctx, callee, args, kwargs)
	if err != nil {
		return nil, err
	}
	if it.callHook != nil {
		return it.callHook(ctx, result)
	}
	return result, nil
}

// callValue dispatches a call to whatever kind of callable value it
// received: a native builtin/method, a bound tool, or a user-defined
// function or lambda. Builtins that call back into interpreted code
// (map, filter) go through this same path with a nil ctx, which is
// normalized to context.Background() here.
func (it *Interp) callValue(ctx context.Context, callee any, args []any, kwargs map[string]any) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	switch fn := callee.(type) {
	case *nativeFunc:
		return fn.fn(it, args, kwargs)
	case *BoundTool:
		if len(args) > 0 {
			return nil, raisef(KindTypeError, "tool %q must be called with keyword arguments", fn.Name)
		}
		merged := make(map[string]any, len(kwargs))
		for k, v := range kwargs {
			merged[k] = v
		}
		return fn.Call(ctx, merged)
	case *pyFunction:
		return it.callFunction(ctx, fn, args, kwargs)
	case ctxCallable:
		return fn.callWithCtx(ctx, it, args, kwargs)
	default:
		return nil, raisef(KindTypeError, "%q object is not callable", pyTypeName(callee))
	}
}

// ctxCallable is implemented by callable values that need the real
// evaluation context rather than context.Background() (e.g. to
// dispatch concurrent tool calls with cancellation). nativeFunc
// builtins don't get ctx for the same reason map/filter don't; a
// value implementing this interface opts back in.
type ctxCallable interface {
	callWithCtx(ctx context.Context, it *Interp, args []any, kwargs map[string]any) (any, error)
}

func (it *Interp) callFunction(ctx context.Context, fn *pyFunction, args []any, kwargs map[string]any) (any, error) {
	fenv := newEnv(fn.closure)
	if err := it.bindParams(ctx, fn.params, args, kwargs, fenv); err != nil {
		return nil, err
	}
	if fn.expr != nil {
		return it.evalExpr(ctx, fn.expr, fenv)
	}
	_, fl, err := it.evalBlock(ctx, fn.body, fenv)
	if err != nil {
		return nil, err
	}
	if fl != nil && fl.kind == flowReturn {
		return fl.value, nil
	}
	return nil, nil
}

func (it *Interp) bindParams(ctx context.Context, params []Param, args []any, kwargs map[string]any, env *Env) error {
	for i, p := range params {
		switch {
		case i < len(args):
			env.Define(p.Name, args[i])
		default:
			if v, ok := kwargs[p.Name]; ok {
				env.Define(p.Name, v)
				continue
			}
			if p.Default != nil {
				v, err := it.evalExpr(ctx, p.Default, env)
				if err != nil {
					return err
				}
				env.Define(p.Name, v)
				continue
			}
			return raisef(KindTypeError, "missing required argument: %q", p.Name)
		}
	}
	return nil
}
