package rcp19

import "strings"

type evaluator[S any] struct {
	ctx *EvaluateContext[S]
}

func (ev evaluator[S]) eval(node Node) (any, error) {
	switch n := node.(type) {
	case *Literal:
		return n.Value, nil
	case *Field:
		return ev.field(n), nil
	case *Special:
		return ev.call(n.Name, nil, "."+n.Name+".")
	case *List:
		return ev.evalAll(n.Items)
	case *Unary:
		return ev.unary(n)
	case *Binary:
		return ev.binary(n)
	case *Call:
		if n.Name == "IIF" {
			return ev.iif(n)
		}
		args, err := ev.evalAll(n.Args)
		if err != nil {
			return nil, err
		}
		return ev.call(n.Name, args, n.Name+"()")
	default:
		return nil, evalErrorf("unsupported expression node %T", node)
	}
}

func (ev evaluator[S]) evalAll(nodes []Node) ([]any, error) {
	values := make([]any, len(nodes))
	for i, node := range nodes {
		v, err := ev.eval(node)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func (ev evaluator[S]) field(f *Field) any {
	doc := ev.ctx.value
	if f.Last {
		doc = ev.ctx.previous
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil
	}
	return obj[f.Name]
}

func (ev evaluator[S]) call(name string, args []any, display string) (any, error) {
	fn, ok := ev.ctx.engine.Function(name)
	if !ok {
		return nil, &EvalError{Msg: display, Err: ErrUnknownFunction}
	}
	result, err := fn.Evaluate(FunctionContext[S]{eval: ev.ctx, name: name}, args)
	if err != nil {
		return nil, &EvalError{Msg: display, Err: err}
	}
	return result, nil
}

func (ev evaluator[S]) iif(n *Call) (any, error) {
	if len(n.Args) != 3 {
		return nil, evalErrorf("IIF() expects 3 arguments but got %d", len(n.Args))
	}
	cond, err := ev.eval(n.Args[0])
	if err != nil {
		return nil, err
	}
	ok, err := truth(cond)
	if err != nil {
		return nil, &EvalError{Msg: "IIF() condition", Err: err}
	}
	if ok {
		return ev.eval(n.Args[1])
	}
	return ev.eval(n.Args[2])
}

func (ev evaluator[S]) unary(n *Unary) (any, error) {
	v, err := ev.eval(n.Operand)
	if err != nil {
		return nil, err
	}
	if n.Op == TokenNot {
		b, err := truth(v)
		if err != nil {
			return nil, err
		}
		return !b, nil
	}
	num, ok := toNumber(v)
	if !ok {
		return nil, evalErrorf("cannot negate %s", typeName(v))
	}
	return arithmetic(TokenMinus, number{isInt: true}, num)
}

func (ev evaluator[S]) binary(n *Binary) (any, error) {
	switch n.Op {
	case TokenAnd, TokenOr:
		return ev.logical(n)
	}

	left, err := ev.eval(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := ev.eval(n.Right)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case TokenEqual:
		return equal(left, right), nil
	case TokenNotEqual:
		return !equal(left, right), nil
	case TokenLess, TokenLessEqual, TokenGreater, TokenGreaterEqual:
		c, err := order(left, right)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case TokenLess:
			return c < 0, nil
		case TokenLessEqual:
			return c <= 0, nil
		case TokenGreater:
			return c > 0, nil
		default:
			return c >= 0, nil
		}
	case TokenContains:
		return contains(left, right)
	case TokenIn:
		list, ok := right.([]any)
		if !ok {
			return nil, evalErrorf(".IN. expects a list but found %s", typeName(right))
		}
		return member(list, left), nil
	case TokenConcat:
		ls, err := text(left)
		if err != nil {
			return nil, err
		}
		rs, err := text(right)
		if err != nil {
			return nil, err
		}
		return ls + rs, nil
	case TokenPlus, TokenMinus, TokenMult, TokenDiv, TokenMod:
		ln, lok := toNumber(left)
		rn, rok := toNumber(right)
		if !lok || !rok {
			return nil, evalErrorf("cannot apply %s to %s and %s", n.Op, typeName(left), typeName(right))
		}
		return arithmetic(n.Op, ln, rn)
	default:
		return nil, evalErrorf("unsupported operator %s", n.Op)
	}
}

// logical evaluates .AND. and .OR. with short-circuiting.
func (ev evaluator[S]) logical(n *Binary) (any, error) {
	left, err := ev.eval(n.Left)
	if err != nil {
		return nil, err
	}
	l, err := truth(left)
	if err != nil {
		return nil, &EvalError{Msg: "left operand of " + n.Op.String(), Err: err}
	}
	if n.Op == TokenAnd && !l {
		return false, nil
	}
	if n.Op == TokenOr && l {
		return true, nil
	}
	right, err := ev.eval(n.Right)
	if err != nil {
		return nil, err
	}
	r, err := truth(right)
	if err != nil {
		return nil, &EvalError{Msg: "right operand of " + n.Op.String(), Err: err}
	}
	return r, nil
}

func contains(haystack, needle any) (bool, error) {
	switch h := haystack.(type) {
	case string:
		s, ok := needle.(string)
		if !ok {
			return false, evalErrorf(".CONTAINS. on a string expects a string but found %s", typeName(needle))
		}
		return strings.Contains(h, s), nil
	case []any:
		return member(h, needle), nil
	case nil:
		return false, nil
	default:
		return false, evalErrorf(".CONTAINS. expects a string or list but found %s", typeName(haystack))
	}
}

func member(list []any, v any) bool {
	for _, item := range list {
		if equal(item, v) {
			return true
		}
	}
	return false
}
