package rcp19

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// number is a numeric operand. Integers keep full int64 precision until an
// operation forces a float.
type number struct {
	f     float64
	i     int64
	isInt bool
}

func toNumber(v any) (number, bool) {
	switch n := v.(type) {
	case json.Number:
		s := n.String()
		if !strings.ContainsAny(s, ".eE") {
			if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				return number{i: i, isInt: true}, true
			}
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return number{}, false
		}
		return number{f: f}, true
	case float64:
		return number{f: n}, true
	case int:
		return number{i: int64(n), isInt: true}, true
	case int64:
		return number{i: n, isInt: true}, true
	default:
		return number{}, false
	}
}

func (n number) float() float64 {
	if n.isInt {
		return float64(n.i)
	}
	return n.f
}

func (n number) value() (any, error) {
	if n.isInt {
		return json.Number(strconv.FormatInt(n.i, 10)), nil
	}
	if math.IsInf(n.f, 0) || math.IsNaN(n.f) {
		return nil, evalErrorf("numeric result out of range")
	}
	if n.f == math.Trunc(n.f) && math.Abs(n.f) < 1<<53 {
		return json.Number(strconv.FormatInt(int64(n.f), 10)), nil
	}
	return json.Number(strconv.FormatFloat(n.f, 'g', -1, 64)), nil
}

func compareNumbers(a, b number) int {
	if a.isInt && b.isInt {
		switch {
		case a.i < b.i:
			return -1
		case a.i > b.i:
			return 1
		}
		return 0
	}
	af, bf := a.float(), b.float()
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	}
	return 0
}

// arithmetic applies +, -, *, / or .MOD. to two numbers.
func arithmetic(op TokenType, a, b number) (any, error) {
	if a.isInt && b.isInt {
		if r, ok := intArithmetic(op, a.i, b.i); ok {
			return r.value()
		}
	}
	af, bf := a.float(), b.float()
	var r float64
	switch op {
	case TokenPlus:
		r = af + bf
	case TokenMinus:
		r = af - bf
	case TokenMult:
		r = af * bf
	case TokenDiv:
		if bf == 0 {
			return nil, evalErrorf("division by zero")
		}
		r = af / bf
	case TokenMod:
		if bf == 0 {
			return nil, evalErrorf("division by zero")
		}
		r = math.Mod(af, bf)
	default:
		return nil, evalErrorf("unsupported arithmetic operator %s", op)
	}
	return number{f: r}.value()
}

// intArithmetic reports false when the result is not an exact int64, in
// which case the caller falls back to floating point.
func intArithmetic(op TokenType, a, b int64) (number, bool) {
	switch op {
	case TokenPlus:
		r := a + b
		if (r > a) == (b > 0) {
			return number{i: r, isInt: true}, true
		}
	case TokenMinus:
		r := a - b
		if (r < a) == (b > 0) {
			return number{i: r, isInt: true}, true
		}
	case TokenMult:
		if a == 0 || b == 0 {
			return number{isInt: true}, true
		}
		r := a * b
		if r/b == a && !(a == -1 && b == math.MinInt64) && !(b == -1 && a == math.MinInt64) {
			return number{i: r, isInt: true}, true
		}
	case TokenDiv:
		if b != 0 && a%b == 0 && !(a == math.MinInt64 && b == -1) {
			return number{i: a / b, isInt: true}, true
		}
	case TokenMod:
		if b != 0 && !(a == math.MinInt64 && b == -1) {
			return number{i: a % b, isInt: true}, true
		}
	}
	return number{}, false
}

// isEmpty reports whether v matches .EMPTY.: null, "" or an empty list.
func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []any:
		return len(x) == 0
	default:
		return false
	}
}

// equal compares two values. Numbers compare numerically; null compares
// equal to any empty value.
func equal(a, b any) bool {
	if a == nil || b == nil {
		return isEmpty(a) && isEmpty(b)
	}
	if an, ok := toNumber(a); ok {
		bn, ok := toNumber(b)
		return ok && compareNumbers(an, bn) == 0
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !equal(xv, yv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// order compares two numbers or two strings.
func order(a, b any) (int, error) {
	if an, ok := toNumber(a); ok {
		if bn, ok := toNumber(b); ok {
			return compareNumbers(an, bn), nil
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return strings.Compare(as, bs), nil
		}
	}
	return 0, evalErrorf("cannot compare %s with %s", typeName(a), typeName(b))
}

// truth interprets v as a condition. Null is false.
func truth(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case nil:
		return false, nil
	default:
		return false, evalErrorf("expected a boolean but found %s", typeName(v))
	}
}

// text renders a scalar for string concatenation.
func text(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case json.Number:
		return x.String(), nil
	default:
		if n, ok := toNumber(v); ok {
			r, err := n.value()
			if err != nil {
				return "", err
			}
			return r.(json.Number).String(), nil
		}
		return "", evalErrorf("cannot concatenate %s", typeName(v))
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []any:
		return "list"
	case map[string]any:
		return "object"
	default:
		if _, ok := toNumber(v); ok {
			return "number"
		}
		return "unknown"
	}
}
