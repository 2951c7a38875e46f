package rcp19

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// registerBuiltins installs the functions every engine provides. IIF is
// not among them because its branches are evaluated lazily by the
// evaluator itself.
func registerBuiltins[S any](e *Engine[S]) {
	e.WithFunction("LENGTH", FunctionFunc[S](fnLength[S]))
	e.WithFunction("LOWER", FunctionFunc[S](fnLower[S]))
	e.WithFunction("UPPER", FunctionFunc[S](fnUpper[S]))
	e.WithFunction("TRIM", FunctionFunc[S](fnTrim[S]))
	e.WithFunction("SUBSTR", FunctionFunc[S](fnSubstr[S]))
	e.WithFunction("ABS", FunctionFunc[S](fnAbs[S]))
}

func arity(args []any, want int) error {
	if len(args) != want {
		return fmt.Errorf("expects %d argument(s) but got %d", want, len(args))
	}
	return nil
}

func stringArg(args []any, i int) (string, bool, error) {
	switch v := args[i].(type) {
	case nil:
		return "", false, nil
	case string:
		return v, true, nil
	default:
		return "", false, fmt.Errorf("argument %d must be a string but found %s", i+1, typeName(v))
	}
}

func fnLength[S any](_ FunctionContext[S], args []any) (any, error) {
	if err := arity(args, 1); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case nil:
		return number{isInt: true}.value()
	case string:
		return number{i: int64(utf8.RuneCountInString(v)), isInt: true}.value()
	case []any:
		return number{i: int64(len(v)), isInt: true}.value()
	default:
		return nil, fmt.Errorf("argument 1 must be a string or list but found %s", typeName(v))
	}
}

func stringFunc[S any](fn func(string) string) func(FunctionContext[S], []any) (any, error) {
	return func(_ FunctionContext[S], args []any) (any, error) {
		if err := arity(args, 1); err != nil {
			return nil, err
		}
		s, ok, err := stringArg(args, 0)
		if err != nil || !ok {
			return nil, err
		}
		return fn(s), nil
	}
}

func fnLower[S any](ctx FunctionContext[S], args []any) (any, error) {
	return stringFunc[S](strings.ToLower)(ctx, args)
}

func fnUpper[S any](ctx FunctionContext[S], args []any) (any, error) {
	return stringFunc[S](strings.ToUpper)(ctx, args)
}

func fnTrim[S any](ctx FunctionContext[S], args []any) (any, error) {
	return stringFunc[S](strings.TrimSpace)(ctx, args)
}

// fnSubstr implements SUBSTR(s, start[, length]) with a 1-based start
// counted in characters.
func fnSubstr[S any](_ FunctionContext[S], args []any) (any, error) {
	if len(args) != 2 && len(args) != 3 {
		return nil, fmt.Errorf("expects 2 or 3 arguments but got %d", len(args))
	}
	s, ok, err := stringArg(args, 0)
	if err != nil || !ok {
		return nil, err
	}
	runes := []rune(s)

	start, err := intArg(args, 1)
	if err != nil {
		return nil, err
	}
	if start < 1 {
		return nil, fmt.Errorf("start must be at least 1 but got %d", start)
	}
	from := int(min(start-1, int64(len(runes))))

	to := len(runes)
	if len(args) == 3 {
		length, err := intArg(args, 2)
		if err != nil {
			return nil, err
		}
		if length < 0 {
			return nil, fmt.Errorf("length must not be negative but got %d", length)
		}
		to = int(min(int64(from)+length, int64(len(runes))))
	}
	return string(runes[from:to]), nil
}

func intArg(args []any, i int) (int64, error) {
	n, ok := toNumber(args[i])
	if !ok {
		return 0, fmt.Errorf("argument %d must be a number but found %s", i+1, typeName(args[i]))
	}
	if !n.isInt {
		return 0, fmt.Errorf("argument %d must be a whole number", i+1)
	}
	return n.i, nil
}

func fnAbs[S any](_ FunctionContext[S], args []any) (any, error) {
	if err := arity(args, 1); err != nil {
		return nil, err
	}
	if args[0] == nil {
		return nil, nil
	}
	n, ok := toNumber(args[0])
	if !ok {
		return nil, fmt.Errorf("argument 1 must be a number but found %s", typeName(args[0]))
	}
	if n.isInt {
		if n.i >= 0 {
			return n.value()
		}
		return arithmetic(TokenMinus, number{isInt: true}, n)
	}
	if n.f < 0 {
		n.f = -n.f
	}
	return n.value()
}
