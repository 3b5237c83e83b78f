package interpreter

import (
	"context"
	"math"
	"strings"
)

func (it *Interp) evalExpr(ctx context.Context, node Node, env *Env) (any, error) {
	if err := it.step(); err != nil {
		return nil, err
	}
	switch n := node.(type) {
	case NumberLit:
		if n.Value == math.Trunc(n.Value) {
			return int64(n.Value), nil
		}
		return n.Value, nil
	case StringLit:
		return n.Value, nil
	case BoolLit:
		return n.Value, nil
	case NoneLit:
		return nil, nil

	case FString:
		var sb strings.Builder
		sb.WriteString(n.Parts[0])
		for i, e := range n.Exprs {
			v, err := it.evalExpr(ctx, e, env)
			if err != nil {
				return nil, err
			}
			sb.WriteString(pyStr(v))
			sb.WriteString(n.Parts[i+1])
		}
		return sb.String(), nil

	case NameExpr:
		if v, ok := env.Get(n.Name); ok {
			return v, nil
		}
		if fn, ok := builtins[n.Name]; ok {
			return &nativeFunc{name: n.Name, fn: fn}, nil
		}
		return nil, raisef(KindNameError, "name %q is not defined", n.Name)

	case TupleExpr:
		items, err := it.evalExprList(ctx, n.Elts, env)
		if err != nil {
			return nil, err
		}
		return pyTuple(items), nil
	case ListExpr:
		items, err := it.evalExprList(ctx, n.Elts, env)
		if err != nil {
			return nil, err
		}
		return &pyList{items: items}, nil
	case SetExpr:
		items, err := it.evalExprList(ctx, n.Elts, env)
		if err != nil {
			return nil, err
		}
		s := newSet()
		for _, it2 := range items {
			s.add(it2)
		}
		return s, nil
	case DictExpr:
		d := newDict()
		for i, k := range n.Keys {
			v, err := it.evalExpr(ctx, n.Values[i], env)
			if err != nil {
				return nil, err
			}
			if k == nil {
				src, ok := v.(*pyDict)
				if !ok {
					return nil, raisef(KindTypeError, "argument of ** must be a dict")
				}
				for j, sk := range src.keys {
					d.set(sk, src.vals[j])
				}
				continue
			}
			kv, err := it.evalExpr(ctx, k, env)
			if err != nil {
				return nil, err
			}
			d.set(kv, v)
		}
		return d, nil

	case BinOp:
		l, err := it.evalExpr(ctx, n.Left, env)
		if err != nil {
			return nil, err
		}
		r, err := it.evalExpr(ctx, n.Right, env)
		if err != nil {
			return nil, err
		}
		return it.binOp(n.Op, l, r)

	case UnaryOp:
		x, err := it.evalExpr(ctx, n.X, env)
		if err != nil {
			return nil, err
		}
		return it.unaryOp(n.Op, x)

	case Compare:
		left, err := it.evalExpr(ctx, n.Left, env)
		if err != nil {
			return nil, err
		}
		for i, op := range n.Ops {
			right, err := it.evalExpr(ctx, n.Comparators[i], env)
			if err != nil {
				return nil, err
			}
			ok, err := it.compareOp(op, left, right)
			if err != nil {
				return nil, err
			}
			if !ok {
				return false, nil
			}
			left = right
		}
		return true, nil

	case BoolOp:
		var last any = true
		for _, v := range n.Values {
			val, err := it.evalExpr(ctx, v, env)
			if err != nil {
				return nil, err
			}
			last = val
			if n.Op == "and" && !truthy(val) {
				return val, nil
			}
			if n.Op == "or" && truthy(val) {
				return val, nil
			}
		}
		return last, nil

	case Call:
		return it.evalCall(ctx, n, env)

	case Attribute:
		x, err := it.evalExpr(ctx, n.X, env)
		if err != nil {
			return nil, err
		}
		return it.getAttr(x, n.Attr)

	case Subscript:
		x, err := it.evalExpr(ctx, n.X, env)
		if err != nil {
			return nil, err
		}
		if sl, ok := n.Index.(Slice); ok {
			return it.evalSlice(ctx, x, sl, env)
		}
		idx, err := it.evalExpr(ctx, n.Index, env)
		if err != nil {
			return nil, err
		}
		return it.getSubscript(x, idx)

	case Lambda:
		return &pyFunction{name: "<lambda>", params: n.Params, expr: n.Body, closure: env}, nil

	case Comprehension:
		return it.evalComprehension(ctx, n, env)

	case If: // ternary expression, reusing the statement node
		test, err := it.evalExpr(ctx, n.Test, env)
		if err != nil {
			return nil, err
		}
		if truthy(test) {
			return it.evalExpr(ctx, n.Body[0].(ExprStmt).X, env)
		}
		return it.evalExpr(ctx, n.Else[0].(ExprStmt).X, env)

	default:
		return nil, raisef(KindTypeError, "cannot evaluate expression of type %T", node)
	}
}

func (it *Interp) evalExprList(ctx context.Context, nodes []Node, env *Env) ([]any, error) {
	out := make([]any, 0, len(nodes))
	for _, n := range nodes {
		v, err := it.evalExpr(ctx, n, env)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (it *Interp) getAttr(x any, attr string) (any, error) {
	switch v := x.(type) {
	case *pyDict:
		if val, ok := v.get(attr); ok {
			return val, nil
		}
		return it.dictMethod(v, attr)
	case string:
		return it.stringMethod(v, attr)
	case *pyList:
		return it.listMethod(v, attr)
	default:
		return nil, raisef(KindAttributeError, "%s object has no attribute %q", pyTypeName(x), attr)
	}
}

func (it *Interp) getSubscript(x, idx any) (any, error) {
	switch c := x.(type) {
	case *pyList:
		i, ok := asFloat(idx)
		if !ok {
			return nil, raisef(KindTypeError, "list indices must be integers")
		}
		n := int(i)
		if n < 0 {
			n += len(c.items)
		}
		if n < 0 || n >= len(c.items) {
			return nil, raisef(KindIndexError, "list index out of range")
		}
		return c.items[n], nil
	case pyTuple:
		i, ok := asFloat(idx)
		if !ok {
			return nil, raisef(KindTypeError, "tuple indices must be integers")
		}
		n := int(i)
		if n < 0 {
			n += len(c)
		}
		if n < 0 || n >= len(c) {
			return nil, raisef(KindIndexError, "tuple index out of range")
		}
		return c[n], nil
	case string:
		r := []rune(c)
		i, ok := asFloat(idx)
		if !ok {
			return nil, raisef(KindTypeError, "string indices must be integers")
		}
		n := int(i)
		if n < 0 {
			n += len(r)
		}
		if n < 0 || n >= len(r) {
			return nil, raisef(KindIndexError, "string index out of range")
		}
		return string(r[n]), nil
	case *pyDict:
		v, ok := c.get(idx)
		if !ok {
			return nil, raisef(KindKeyError, "%s", pyRepr(idx))
		}
		return v, nil
	default:
		return nil, raisef(KindTypeError, "%s object is not subscriptable", pyTypeName(x))
	}
}

func (it *Interp) evalSlice(ctx context.Context, x any, sl Slice, env *Env) (any, error) {
	resolve := func(n Node, def int, length int) (int, error) {
		if n == nil {
			return def, nil
		}
		v, err := it.evalExpr(ctx, n, env)
		if err != nil {
			return 0, err
		}
		f, ok := asFloat(v)
		if !ok {
			return 0, raisef(KindTypeError, "slice indices must be integers")
		}
		i := int(f)
		if i < 0 {
			i += length
		}
		if i < 0 {
			i = 0
		}
		if i > length {
			i = length
		}
		return i, nil
	}
	step := 1
	if sl.Step != nil {
		v, err := it.evalExpr(ctx, sl.Step, env)
		if err != nil {
			return nil, err
		}
		f, _ := asFloat(v)
		step = int(f)
		if step == 0 {
			return nil, raisef(KindValueError, "slice step cannot be zero")
		}
	}
	switch c := x.(type) {
	case string:
		r := []rune(c)
		lo, hi, err := sliceBounds(resolve, len(r), sl, step)
		if err != nil {
			return nil, err
		}
		return string(sliceRunes(r, lo, hi, step)), nil
	case *pyList:
		lo, hi, err := sliceBounds(resolve, len(c.items), sl, step)
		if err != nil {
			return nil, err
		}
		return &pyList{items: sliceAny(c.items, lo, hi, step)}, nil
	case pyTuple:
		lo, hi, err := sliceBounds(resolve, len(c), sl, step)
		if err != nil {
			return nil, err
		}
		return pyTuple(sliceAny(c, lo, hi, step)), nil
	default:
		return nil, raisef(KindTypeError, "%s object is not subscriptable", pyTypeName(x))
	}
}

func sliceBounds(resolve func(Node, int, int) (int, error), length int, sl Slice, step int) (int, int, error) {
	def0, def1 := 0, length
	if step < 0 {
		def0, def1 = length-1, -1
	}
	lo, err := resolve(sl.Lower, def0, length)
	if err != nil {
		return 0, 0, err
	}
	hi, err := resolve(sl.Upper, def1, length)
	if err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}

func sliceRunes(r []rune, lo, hi, step int) []rune {
	var out []rune
	if step > 0 {
		for i := lo; i < hi; i += step {
			out = append(out, r[i])
		}
	} else {
		for i := lo; i > hi; i += step {
			out = append(out, r[i])
		}
	}
	return out
}

func sliceAny(s []any, lo, hi, step int) []any {
	var out []any
	if step > 0 {
		for i := lo; i < hi; i += step {
			out = append(out, s[i])
		}
	} else {
		for i := lo; i > hi; i += step {
			out = append(out, s[i])
		}
	}
	return out
}

func (it *Interp) evalComprehension(ctx context.Context, n Comprehension, env *Env) (any, error) {
	var list *pyList
	var set *pySet
	var dict *pyDict
	switch n.Kind {
	case "list", "gen":
		list = &pyList{}
	case "set":
		set = newSet()
	case "dict":
		dict = newDict()
	}
	var walk func(idx int, cenv *Env) error
	walk = func(idx int, cenv *Env) error {
		if idx == len(n.Clauses) {
			val, err := it.evalExpr(ctx, n.Elt, cenv)
			if err != nil {
				return err
			}
			switch n.Kind {
			case "list", "gen":
				list.items = append(list.items, val)
			case "set":
				set.add(val)
			case "dict":
				dv, err := it.evalExpr(ctx, n.Value, cenv)
				if err != nil {
					return err
				}
				dict.set(val, dv)
			}
			return nil
		}
		clause := n.Clauses[idx]
		iterVal, err := it.evalExpr(ctx, clause.Iter, cenv)
		if err != nil {
			return err
		}
		items, err := iterate(iterVal)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := it.step(); err != nil {
				return err
			}
			inner := newEnv(cenv)
			if err := it.assignTo(ctx, clause.Target, item, inner); err != nil {
				return err
			}
			ok := true
			for _, ifExpr := range clause.Ifs {
				cond, err := it.evalExpr(ctx, ifExpr, inner)
				if err != nil {
					return err
				}
				if !truthy(cond) {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
			if err := walk(idx+1, inner); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(0, env); err != nil {
		return nil, err
	}
	switch n.Kind {
	case "list", "gen":
		return list, nil
	case "set":
		return set, nil
	case "dict":
		return dict, nil
	}
	return nil, nil
}
