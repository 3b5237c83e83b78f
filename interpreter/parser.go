package interpreter

import (
	"fmt"
	"strconv"
	"strings"
)

// parser is a straightforward recursive-descent / precedence-climbing
// parser over the lexer's token stream, producing the ast.go node
// types. It implements the statement and expression grammar subset
// documented in spec.md §4.4: assignments (simple, tuple, augmented),
// control flow, function/class defs, try/except/finally/raise, with,
// comprehensions, f-strings, slicing, attribute/subscript access.
type parser struct {
	toks []token
	pos  int
}

// Parse lexes and parses a Python-subset source string into a Program.
func Parse(src string) (*Program, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	prog, err := p.parseProgram()
	if err != nil {
		return nil, err
	}
	return prog, nil
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) at(k tokenKind) bool { return p.cur().kind == k }
func (p *parser) atOp(s string) bool  { return p.cur().kind == tokOp && p.cur().text == s }
func (p *parser) atKw(s string) bool  { return p.cur().kind == tokKeyword && p.cur().text == s }

func (p *parser) advance() token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expectOp(s string) error {
	if !p.atOp(s) {
		return p.errf("expected %q, got %q", s, p.cur().text)
	}
	p.advance()
	return nil
}

func (p *parser) expectKw(s string) error {
	if !p.atKw(s) {
		return p.errf("expected keyword %q, got %q", s, p.cur().text)
	}
	p.advance()
	return nil
}

func (p *parser) errf(format string, args ...any) error {
	return fmt.Errorf("interpreter: parse error at line %d: %s", p.cur().line, fmt.Sprintf(format, args...))
}

func (p *parser) skipNewlines() {
	for p.at(tokNewline) {
		p.advance()
	}
}

func (p *parser) parseProgram() (*Program, error) {
	var body []Node
	p.skipNewlines()
	for !p.at(tokEOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt...)
		p.skipNewlines()
	}
	return &Program{Body: body}, nil
}

// parseBlock consumes `:` NEWLINE INDENT stmt* DEDENT.
func (p *parser) parseBlock() ([]Node, error) {
	if err := p.expectOp(":"); err != nil {
		return nil, err
	}
	if p.at(tokNewline) {
		p.advance()
		p.skipNewlines()
		if !p.at(tokIndent) {
			return nil, p.errf("expected indented block")
		}
		p.advance()
		var body []Node
		for !p.at(tokDedent) && !p.at(tokEOF) {
			stmt, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			body = append(body, stmt...)
			p.skipNewlines()
		}
		if p.at(tokDedent) {
			p.advance()
		}
		return body, nil
	}
	// Single-line suite: `if x: y = 1`
	return p.parseSimpleStatementLine()
}

// parseStatement returns one or more statements (simple-statement
// lines may contain several separated by `;`).
func (p *parser) parseStatement() ([]Node, error) {
	switch {
	case p.atKw("if"):
		s, err := p.parseIf()
		return []Node{s}, err
	case p.atKw("while"):
		s, err := p.parseWhile()
		return []Node{s}, err
	case p.atKw("for"):
		s, err := p.parseFor()
		return []Node{s}, err
	case p.atKw("def"):
		s, err := p.parseFuncDef(false)
		return []Node{s}, err
	case p.atKw("async"):
		p.advance()
		if err := p.expectKw("def"); err != nil {
			return nil, err
		}
		s, err := p.parseFuncDef(true)
		return []Node{s}, err
	case p.atKw("class"):
		s, err := p.parseClassDef()
		return []Node{s}, err
	case p.atKw("try"):
		s, err := p.parseTry()
		return []Node{s}, err
	case p.atKw("with"):
		s, err := p.parseWith()
		return []Node{s}, err
	default:
		return p.parseSimpleStatementLine()
	}
}

func (p *parser) parseSimpleStatementLine() ([]Node, error) {
	var stmts []Node
	for {
		s, err := p.parseSimpleStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
		if p.atOp(";") {
			p.advance()
			continue
		}
		break
	}
	if p.at(tokNewline) {
		p.advance()
	}
	return stmts, nil
}

func (p *parser) parseSimpleStatement() (Node, error) {
	switch {
	case p.atKw("break"):
		p.advance()
		return Break{}, nil
	case p.atKw("continue"):
		p.advance()
		return Continue{}, nil
	case p.atKw("pass"):
		p.advance()
		return Pass{}, nil
	case p.atKw("return"):
		p.advance()
		if p.at(tokNewline) || p.atOp(";") {
			return Return{}, nil
		}
		v, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		return Return{Value: v}, nil
	case p.atKw("raise"):
		p.advance()
		if p.at(tokNewline) || p.atOp(";") {
			return Raise{}, nil
		}
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return Raise{Exc: v}, nil
	case p.atKw("import"):
		return p.parseImport()
	case p.atKw("from"):
		return p.parseImportFrom()
	case p.atKw("global"), p.atKw("nonlocal"):
		p.advance()
		for !p.at(tokNewline) && !p.atOp(";") && !p.at(tokEOF) {
			p.advance()
		}
		return Pass{}, nil
	default:
		return p.parseExprOrAssign()
	}
}

func (p *parser) parseImport() (Node, error) {
	p.advance()
	var mods []string
	for {
		name, err := p.parseDottedName()
		if err != nil {
			return nil, err
		}
		if p.atKw("as") {
			p.advance()
			p.advance() // alias name, kept as the import target under its real name
		}
		mods = append(mods, name)
		if p.atOp(",") {
			p.advance()
			continue
		}
		break
	}
	return Import{Modules: mods}, nil
}

func (p *parser) parseImportFrom() (Node, error) {
	p.advance()
	mod, err := p.parseDottedName()
	if err != nil {
		return nil, err
	}
	if err := p.expectKw("import"); err != nil {
		return nil, err
	}
	var names []string
	if p.atOp("*") {
		p.advance()
		return ImportFrom{Module: mod, Names: []string{"*"}}, nil
	}
	paren := p.atOp("(")
	if paren {
		p.advance()
	}
	for {
		if !p.at(tokName) {
			return nil, p.errf("expected name in import list")
		}
		names = append(names, p.advance().text)
		if p.atOp(",") {
			p.advance()
			continue
		}
		break
	}
	if paren && p.atOp(")") {
		p.advance()
	}
	return ImportFrom{Module: mod, Names: names}, nil
}

func (p *parser) parseDottedName() (string, error) {
	if !p.at(tokName) {
		return "", p.errf("expected module name")
	}
	var sb strings.Builder
	sb.WriteString(p.advance().text)
	for p.atOp(".") {
		p.advance()
		if !p.at(tokName) {
			return "", p.errf("expected name after '.'")
		}
		sb.WriteByte('.')
		sb.WriteString(p.advance().text)
	}
	return sb.String(), nil
}

func (p *parser) parseIf() (Node, error) {
	p.advance()
	test, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var elseBody []Node
	if p.atKw("elif") {
		elif, err := p.parseIf()
		if err != nil {
			return nil, err
		}
		elseBody = []Node{elif}
	} else if p.atKw("else") {
		p.advance()
		elseBody, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	return If{Test: test, Body: body, Else: elseBody}, nil
}

func (p *parser) parseWhile() (Node, error) {
	p.advance()
	test, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var elseBody []Node
	if p.atKw("else") {
		p.advance()
		elseBody, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	return While{Test: test, Body: body, Else: elseBody}, nil
}

func (p *parser) parseFor() (Node, error) {
	p.advance()
	target, err := p.parseTargetList()
	if err != nil {
		return nil, err
	}
	if err := p.expectKw("in"); err != nil {
		return nil, err
	}
	iter, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var elseBody []Node
	if p.atKw("else") {
		p.advance()
		elseBody, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	return For{Target: target, Iter: iter, Body: body, Else: elseBody}, nil
}

func (p *parser) parseTargetList() (Node, error) {
	first, err := p.parseAtomTrailer()
	if err != nil {
		return nil, err
	}
	if !p.atOp(",") {
		return first, nil
	}
	elts := []Node{first}
	for p.atOp(",") {
		p.advance()
		if p.atKw("in") {
			break
		}
		e, err := p.parseAtomTrailer()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	return TupleExpr{Elts: elts}, nil
}

func (p *parser) parseFuncDef(isAsync bool) (Node, error) {
	p.advance() // def
	if !p.at(tokName) {
		return nil, p.errf("expected function name")
	}
	name := p.advance().text
	if err := p.expectOp("("); err != nil {
		return nil, err
	}
	var params []Param
	for !p.atOp(")") {
		if p.atOp("*") || p.atOp("**") {
			p.advance() // *args/**kwargs accepted but not bound individually
			if p.at(tokName) {
				p.advance()
			}
		} else {
			if !p.at(tokName) {
				return nil, p.errf("expected parameter name")
			}
			pname := p.advance().text
			var def Node
			if p.atOp("=") {
				p.advance()
				var err error
				def, err = p.parseExpr()
				if err != nil {
					return nil, err
				}
			}
			params = append(params, Param{Name: pname, Default: def})
		}
		if p.atOp(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	if p.atOp("->") {
		p.advance()
		if _, err := p.parseExpr(); err != nil {
			return nil, err
		}
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return FuncDef{Name: name, Params: params, Body: body, IsAsync: isAsync}, nil
}

func (p *parser) parseClassDef() (Node, error) {
	p.advance()
	if !p.at(tokName) {
		return nil, p.errf("expected class name")
	}
	name := p.advance().text
	if p.atOp("(") {
		p.advance()
		for !p.atOp(")") {
			if _, err := p.parseExpr(); err != nil {
				return nil, err
			}
			if p.atOp(",") {
				p.advance()
				continue
			}
			break
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return ClassDef{Name: name, Body: body}, nil
}

func (p *parser) parseTry() (Node, error) {
	p.advance()
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var handlers []ExceptHandler
	for p.atKw("except") {
		p.advance()
		var typ, as string
		if !p.atOp(":") {
			paren := p.atOp("(")
			if paren {
				p.advance()
			}
			if !p.at(tokName) {
				return nil, p.errf("expected exception type")
			}
			typ = p.advance().text
			for p.atOp(".") {
				p.advance()
				if p.at(tokName) {
					typ = p.advance().text
				}
			}
			if p.atOp(",") || paren {
				// tuple of exception types: only the first type is kept
				for !p.atOp(":") && !p.at(tokKeyword) && !p.at(tokEOF) {
					p.advance()
				}
			}
			if p.atKw("as") {
				p.advance()
				if !p.at(tokName) {
					return nil, p.errf("expected name after 'as'")
				}
				as = p.advance().text
			}
		}
		hbody, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, ExceptHandler{Type: typ, Name: as, Body: hbody})
	}
	var elseBody, finallyBody []Node
	if p.atKw("else") {
		p.advance()
		elseBody, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	if p.atKw("finally") {
		p.advance()
		finallyBody, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	return Try{Body: body, Handlers: handlers, Else: elseBody, Finally: finallyBody}, nil
}

func (p *parser) parseWith() (Node, error) {
	p.advance()
	var items []WithItem
	for {
		ctx, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		as := ""
		if p.atKw("as") {
			p.advance()
			if !p.at(tokName) {
				return nil, p.errf("expected name after 'as'")
			}
			as = p.advance().text
		}
		items = append(items, WithItem{Context: ctx, As: as})
		if p.atOp(",") {
			p.advance()
			continue
		}
		break
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return With{Items: items, Body: body}, nil
}

// parseExprOrAssign handles a bare expression statement, and simple /
// chained / augmented assignment (`a = b = 1`, `a += 1`).
func (p *parser) parseExprOrAssign() (Node, error) {
	first, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	if op, ok := p.augAssignOp(); ok {
		p.advance()
		val, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		return AugAssign{Target: first, Op: op, Value: val}, nil
	}
	if !p.atOp("=") {
		return ExprStmt{X: first}, nil
	}
	targets := []Node{first}
	var value Node
	for p.atOp("=") {
		p.advance()
		v, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		targets = append(targets, v)
	}
	value = targets[len(targets)-1]
	targets = targets[:len(targets)-1]
	return Assign{Targets: targets, Value: value}, nil
}

func (p *parser) augAssignOp() (string, bool) {
	if p.cur().kind != tokOp {
		return "", false
	}
	switch p.cur().text {
	case "+=", "-=", "*=", "/=", "//=", "%=", "**=", "&=", "|=", "^=":
		return strings.TrimSuffix(p.cur().text, "="), true
	}
	return "", false
}

// parseExprList parses a comma-separated expression list as a tuple
// when more than one element is present (bare tuple literal, `a, b`).
func (p *parser) parseExprList() (Node, error) {
	first, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if !p.atOp(",") {
		return first, nil
	}
	elts := []Node{first}
	for p.atOp(",") {
		save := p.pos
		p.advance()
		if p.at(tokNewline) || p.atOp("=") || p.atOp(":") || p.at(tokEOF) {
			p.pos = save
			break
		}
		e, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	return TupleExpr{Elts: elts}, nil
}

func (p *parser) parseExpr() (Node, error) { return p.parseTernary() }

// parseTernary: `X if COND else Y`.
func (p *parser) parseTernary() (Node, error) {
	x, err := p.parseLambda()
	if err != nil {
		return nil, err
	}
	if p.atKw("if") {
		p.advance()
		cond, err := p.parseLambda()
		if err != nil {
			return nil, err
		}
		if err := p.expectKw("else"); err != nil {
			return nil, err
		}
		elseVal, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		return If{Test: cond, Body: []Node{ExprStmt{X: x}}, Else: []Node{ExprStmt{X: elseVal}}}, nil
	}
	return x, nil
}

func (p *parser) parseLambda() (Node, error) {
	if p.atKw("lambda") {
		p.advance()
		var params []Param
		for !p.atOp(":") {
			if !p.at(tokName) {
				return nil, p.errf("expected lambda parameter")
			}
			name := p.advance().text
			var def Node
			if p.atOp("=") {
				p.advance()
				var err error
				def, err = p.parseTernary()
				if err != nil {
					return nil, err
				}
			}
			params = append(params, Param{Name: name, Default: def})
			if p.atOp(",") {
				p.advance()
				continue
			}
			break
		}
		if err := p.expectOp(":"); err != nil {
			return nil, err
		}
		body, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		return Lambda{Params: params, Body: body}, nil
	}
	return p.parseOr()
}

func (p *parser) parseOr() (Node, error) {
	x, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	if p.atKw("or") {
		vals := []Node{x}
		for p.atKw("or") {
			p.advance()
			y, err := p.parseAnd()
			if err != nil {
				return nil, err
			}
			vals = append(vals, y)
		}
		return BoolOp{Op: "or", Values: vals}, nil
	}
	return x, nil
}

func (p *parser) parseAnd() (Node, error) {
	x, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	if p.atKw("and") {
		vals := []Node{x}
		for p.atKw("and") {
			p.advance()
			y, err := p.parseNot()
			if err != nil {
				return nil, err
			}
			vals = append(vals, y)
		}
		return BoolOp{Op: "and", Values: vals}, nil
	}
	return x, nil
}

func (p *parser) parseNot() (Node, error) {
	if p.atKw("not") {
		p.advance()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return UnaryOp{Op: "not", X: x}, nil
	}
	return p.parseComparison()
}

var compareOps = map[string]bool{
	"<": true, ">": true, "<=": true, ">=": true, "==": true, "!=": true,
}

func (p *parser) parseComparison() (Node, error) {
	x, err := p.parseBitOr()
	if err != nil {
		return nil, err
	}
	var ops []string
	var rest []Node
	for {
		if p.cur().kind == tokOp && compareOps[p.cur().text] {
			op := p.advance().text
			y, err := p.parseBitOr()
			if err != nil {
				return nil, err
			}
			ops = append(ops, op)
			rest = append(rest, y)
			continue
		}
		if p.atKw("in") {
			p.advance()
			y, err := p.parseBitOr()
			if err != nil {
				return nil, err
			}
			ops = append(ops, "in")
			rest = append(rest, y)
			continue
		}
		if p.atKw("not") {
			save := p.pos
			p.advance()
			if p.atKw("in") {
				p.advance()
				y, err := p.parseBitOr()
				if err != nil {
					return nil, err
				}
				ops = append(ops, "not in")
				rest = append(rest, y)
				continue
			}
			p.pos = save
		}
		if p.atKw("is") {
			p.advance()
			op := "is"
			if p.atKw("not") {
				p.advance()
				op = "is not"
			}
			y, err := p.parseBitOr()
			if err != nil {
				return nil, err
			}
			ops = append(ops, op)
			rest = append(rest, y)
			continue
		}
		break
	}
	if len(ops) == 0 {
		return x, nil
	}
	return Compare{Left: x, Ops: ops, Comparators: rest}, nil
}

func (p *parser) parseBitOr() (Node, error)  { return p.parseBinLevel([]string{"|"}, (*parser).parseBitXor) }
func (p *parser) parseBitXor() (Node, error) { return p.parseBinLevel([]string{"^"}, (*parser).parseBitAnd) }
func (p *parser) parseBitAnd() (Node, error) { return p.parseBinLevel([]string{"&"}, (*parser).parseShift) }
func (p *parser) parseShift() (Node, error) {
	return p.parseBinLevel([]string{"<<", ">>"}, (*parser).parseAdd)
}
func (p *parser) parseAdd() (Node, error) {
	return p.parseBinLevel([]string{"+", "-"}, (*parser).parseMul)
}
func (p *parser) parseMul() (Node, error) {
	return p.parseBinLevel([]string{"*", "/", "//", "%"}, (*parser).parseUnary)
}

func (p *parser) parseBinLevel(ops []string, next func(*parser) (Node, error)) (Node, error) {
	x, err := next(p)
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && contains(ops, p.cur().text) {
		op := p.advance().text
		y, err := next(p)
		if err != nil {
			return nil, err
		}
		x = BinOp{Op: op, Left: x, Right: y}
	}
	return x, nil
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

func (p *parser) parseUnary() (Node, error) {
	if p.atOp("-") || p.atOp("+") || p.atOp("~") {
		op := p.advance().text
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return UnaryOp{Op: op, X: x}, nil
	}
	if p.atKw("await") {
		p.advance()
		return p.parseUnary()
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Node, error) {
	x, err := p.parseAtomTrailer()
	if err != nil {
		return nil, err
	}
	if p.atOp("**") {
		p.advance()
		y, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return BinOp{Op: "**", Left: x, Right: y}, nil
	}
	return x, nil
}

// parseAtomTrailer parses an atom followed by any chain of call,
// attribute, and subscript trailers.
func (p *parser) parseAtomTrailer() (Node, error) {
	x, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.atOp("("):
			call, err := p.parseCallTrailer(x)
			if err != nil {
				return nil, err
			}
			x = call
		case p.atOp("."):
			p.advance()
			if !p.at(tokName) {
				return nil, p.errf("expected attribute name")
			}
			x = Attribute{X: x, Attr: p.advance().text}
		case p.atOp("["):
			p.advance()
			idx, err := p.parseSubscript()
			if err != nil {
				return nil, err
			}
			if err := p.expectOp("]"); err != nil {
				return nil, err
			}
			x = Subscript{X: x, Index: idx}
		default:
			return x, nil
		}
	}
}

func (p *parser) parseSubscript() (Node, error) {
	var lower, upper, step Node
	var err error
	isSlice := false
	if !p.atOp(":") {
		lower, err = p.parseTernary()
		if err != nil {
			return nil, err
		}
	}
	if p.atOp(":") {
		isSlice = true
		p.advance()
		if !p.atOp(":") && !p.atOp("]") {
			upper, err = p.parseTernary()
			if err != nil {
				return nil, err
			}
		}
		if p.atOp(":") {
			p.advance()
			if !p.atOp("]") {
				step, err = p.parseTernary()
				if err != nil {
					return nil, err
				}
			}
		}
	}
	if isSlice {
		return Slice{Lower: lower, Upper: upper, Step: step}, nil
	}
	return lower, nil
}

func (p *parser) parseCallTrailer(fn Node) (Node, error) {
	p.advance() // (
	call := Call{Func: fn, Kwargs: map[string]Node{}}
	for !p.atOp(")") {
		if p.atOp("**") {
			p.advance()
			v, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			call.StarArgs = v // merged kwargs spread, best-effort
		} else if p.atOp("*") {
			p.advance()
			v, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			call.StarArgs = v
		} else if p.at(tokName) && p.peekIsKwarg() {
			name := p.advance().text
			p.advance() // =
			v, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			call.Kwargs[name] = v
		} else {
			v, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			// comprehension-as-sole-argument: f(x for x in y)
			if p.atKw("for") {
				comp, err := p.parseComprehensionTail("gen", v, nil)
				if err != nil {
					return nil, err
				}
				v = comp
			}
			call.Args = append(call.Args, v)
		}
		if p.atOp(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *parser) peekIsKwarg() bool {
	if p.pos+1 >= len(p.toks) {
		return false
	}
	return p.toks[p.pos+1].kind == tokOp && p.toks[p.pos+1].text == "="
}

func (p *parser) parseAtom() (Node, error) {
	t := p.cur()
	switch {
	case t.kind == tokNumber:
		p.advance()
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, p.errf("invalid number literal %q", t.text)
		}
		return NumberLit{Value: v}, nil
	case t.kind == tokString:
		p.advance()
		return p.parseStringToken(t)
	case t.kind == tokKeyword && t.text == "True":
		p.advance()
		return BoolLit{Value: true}, nil
	case t.kind == tokKeyword && t.text == "False":
		p.advance()
		return BoolLit{Value: false}, nil
	case t.kind == tokKeyword && t.text == "None":
		p.advance()
		return NoneLit{}, nil
	case t.kind == tokName:
		p.advance()
		return NameExpr{Name: t.text}, nil
	case t.kind == tokOp && t.text == "(":
		return p.parseParenOrTuple()
	case t.kind == tokOp && t.text == "[":
		return p.parseListOrComp()
	case t.kind == tokOp && t.text == "{":
		return p.parseDictOrSetOrComp()
	default:
		return nil, p.errf("unexpected token %q", t.text)
	}
}

// parseStringToken handles implicit adjacent-string concatenation
// ("a" "b" -> "ab") and dispatches f-strings to the interpolation parser.
func (p *parser) parseStringToken(t token) (Node, error) {
	text := t.text
	isF := strings.HasPrefix(text, "\x00f")
	if isF {
		text = text[2:]
	}
	var combined Node
	if isF {
		fs, err := p.parseFStringBody(text)
		if err != nil {
			return nil, err
		}
		combined = fs
	} else {
		combined = StringLit{Value: text}
	}
	for p.at(tokString) {
		nt := p.advance()
		ntext := nt.text
		nf := strings.HasPrefix(ntext, "\x00f")
		if nf {
			ntext = ntext[2:]
		}
		if !nf {
			if s, ok := combined.(StringLit); ok {
				combined = StringLit{Value: s.Value + ntext}
				continue
			}
		}
		fs, err := p.parseFStringBody(ntext)
		if err != nil {
			return nil, err
		}
		combined = concatFString(combined, fs)
	}
	return combined, nil
}

func concatFString(a Node, b FString) Node {
	af, ok := a.(FString)
	if !ok {
		af = FString{Parts: []string{a.(StringLit).Value}}
	}
	af.Parts[len(af.Parts)-1] += b.Parts[0]
	af.Parts = append(af.Parts, b.Parts[1:]...)
	af.Exprs = append(af.Exprs, b.Exprs...)
	return af
}

// parseFStringBody splits an f-string's raw content on `{expr}`
// interpolations, recursively lexing and parsing each expression.
func (p *parser) parseFStringBody(text string) (FString, error) {
	var fs FString
	var lit strings.Builder
	runes := []rune(text)
	i := 0
	for i < len(runes) {
		switch {
		case runes[i] == '{' && i+1 < len(runes) && runes[i+1] == '{':
			lit.WriteByte('{')
			i += 2
		case runes[i] == '}' && i+1 < len(runes) && runes[i+1] == '}':
			lit.WriteByte('}')
			i += 2
		case runes[i] == '{':
			depth := 1
			j := i + 1
			for j < len(runes) && depth > 0 {
				if runes[j] == '{' {
					depth++
				} else if runes[j] == '}' {
					depth--
					if depth == 0 {
						break
					}
				}
				j++
			}
			if depth != 0 {
				return fs, fmt.Errorf("interpreter: unterminated f-string expression")
			}
			exprSrc := string(runes[i+1 : j])
			if idx := strings.Index(exprSrc, "!"); idx >= 0 && !strings.ContainsAny(exprSrc[:idx], "([{") {
				exprSrc = exprSrc[:idx]
			}
			if idx := strings.LastIndex(exprSrc, ":"); idx >= 0 {
				depthCheck := 0
				balanced := true
				for _, r := range exprSrc[:idx] {
					if r == '(' || r == '[' || r == '{' {
						depthCheck++
					} else if r == ')' || r == ']' || r == '}' {
						depthCheck--
					}
				}
				if balanced && depthCheck == 0 {
					exprSrc = exprSrc[:idx]
				}
			}
			fs.Parts = append(fs.Parts, lit.String())
			lit.Reset()
			sub, err := Parse(strings.TrimSpace(exprSrc) + "\n")
			if err != nil {
				return fs, err
			}
			if len(sub.Body) != 1 {
				return fs, fmt.Errorf("interpreter: f-string expression must be a single expression")
			}
			exprStmt, ok := sub.Body[0].(ExprStmt)
			if !ok {
				return fs, fmt.Errorf("interpreter: f-string expression must be a single expression")
			}
			fs.Exprs = append(fs.Exprs, exprStmt.X)
			i = j + 1
		default:
			lit.WriteRune(runes[i])
			i++
		}
	}
	fs.Parts = append(fs.Parts, lit.String())
	return fs, nil
}

func (p *parser) parseParenOrTuple() (Node, error) {
	p.advance() // (
	if p.atOp(")") {
		p.advance()
		return TupleExpr{}, nil
	}
	first, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if p.atKw("for") {
		comp, err := p.parseComprehensionTail("gen", first, nil)
		if err != nil {
			return nil, err
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return comp, nil
	}
	if !p.atOp(",") {
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return first, nil
	}
	elts := []Node{first}
	for p.atOp(",") {
		p.advance()
		if p.atOp(")") {
			break
		}
		e, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	return TupleExpr{Elts: elts}, nil
}

func (p *parser) parseListOrComp() (Node, error) {
	p.advance() // [
	if p.atOp("]") {
		p.advance()
		return ListExpr{}, nil
	}
	first, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if p.atKw("for") {
		comp, err := p.parseComprehensionTail("list", first, nil)
		if err != nil {
			return nil, err
		}
		if err := p.expectOp("]"); err != nil {
			return nil, err
		}
		return comp, nil
	}
	elts := []Node{first}
	for p.atOp(",") {
		p.advance()
		if p.atOp("]") {
			break
		}
		e, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	if err := p.expectOp("]"); err != nil {
		return nil, err
	}
	return ListExpr{Elts: elts}, nil
}

func (p *parser) parseDictOrSetOrComp() (Node, error) {
	p.advance() // {
	if p.atOp("}") {
		p.advance()
		return DictExpr{}, nil
	}
	if p.atOp("**") {
		p.advance()
		v, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		d := DictExpr{Keys: []Node{nil}, Values: []Node{v}}
		for p.atOp(",") {
			p.advance()
			if p.atOp("**") {
				p.advance()
				v2, err := p.parseTernary()
				if err != nil {
					return nil, err
				}
				d.Keys = append(d.Keys, nil)
				d.Values = append(d.Values, v2)
				continue
			}
			k, v2, err := p.parseDictPair()
			if err != nil {
				return nil, err
			}
			d.Keys = append(d.Keys, k)
			d.Values = append(d.Values, v2)
		}
		if err := p.expectOp("}"); err != nil {
			return nil, err
		}
		return d, nil
	}
	first, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if p.atOp(":") {
		p.advance()
		val, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		if p.atKw("for") {
			comp, err := p.parseComprehensionTail("dict", first, val)
			if err != nil {
				return nil, err
			}
			if err := p.expectOp("}"); err != nil {
				return nil, err
			}
			return comp, nil
		}
		d := DictExpr{Keys: []Node{first}, Values: []Node{val}}
		for p.atOp(",") {
			p.advance()
			if p.atOp("}") {
				break
			}
			k, v, err := p.parseDictPair()
			if err != nil {
				return nil, err
			}
			d.Keys = append(d.Keys, k)
			d.Values = append(d.Values, v)
		}
		if err := p.expectOp("}"); err != nil {
			return nil, err
		}
		return d, nil
	}
	if p.atKw("for") {
		comp, err := p.parseComprehensionTail("set", first, nil)
		if err != nil {
			return nil, err
		}
		if err := p.expectOp("}"); err != nil {
			return nil, err
		}
		return comp, nil
	}
	elts := []Node{first}
	for p.atOp(",") {
		p.advance()
		if p.atOp("}") {
			break
		}
		e, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	if err := p.expectOp("}"); err != nil {
		return nil, err
	}
	return SetExpr{Elts: elts}, nil
}

func (p *parser) parseDictPair() (Node, Node, error) {
	k, err := p.parseTernary()
	if err != nil {
		return nil, nil, err
	}
	if err := p.expectOp(":"); err != nil {
		return nil, nil, err
	}
	v, err := p.parseTernary()
	if err != nil {
		return nil, nil, err
	}
	return k, v, nil
}

func (p *parser) parseComprehensionTail(kind string, elt, value Node) (Node, error) {
	var clauses []CompClause
	for p.atKw("for") {
		p.advance()
		target, err := p.parseTargetList()
		if err != nil {
			return nil, err
		}
		if err := p.expectKw("in"); err != nil {
			return nil, err
		}
		iter, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		var ifs []Node
		for p.atKw("if") {
			p.advance()
			cond, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			ifs = append(ifs, cond)
		}
		clauses = append(clauses, CompClause{Target: target, Iter: iter, Ifs: ifs})
	}
	return Comprehension{Kind: kind, Elt: elt, Value: value, Clauses: clauses}, nil
}
