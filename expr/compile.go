package expr

import (
	"fmt"
	"sort"
	"strings"
)

// CompileError describes a malformed expression AST. Compilation happens
// at scene load; a failing expression aborts only the rule that carries it.
type CompileError struct {
	Detail string
}

func (e *CompileError) Error() string {
	return "expression: " + e.Detail
}

func compileErrorf(format string, args ...any) error {
	return &CompileError{Detail: fmt.Sprintf(format, args...)}
}

type opCode uint8

const (
	opEq opCode = iota
	opNe
	opLt
	opLe
	opGt
	opGe
	opAdd
	opSub
	opMul
	opDiv
	opMod
	opAnd
	opOr
	opNot
	opSum
	opCount
	opMin
	opMax
	opAvg
	opAny
	opAll
)

var opsByName = map[string]opCode{
	"==": opEq, "!=": opNe,
	"<": opLt, "<=": opLe, ">": opGt, ">=": opGe,
	"+": opAdd, "-": opSub, "*": opMul, "/": opDiv, "%": opMod,
	"and": opAnd, "or": opOr, "not": opNot,
	"sum": opSum, "count": opCount, "min": opMin, "max": opMax,
	"avg": opAvg, "any": opAny, "all": opAll,
}

func (op opCode) isAggregate() bool { return op >= opSum }

type exprKind uint8

const (
	exprLiteral exprKind = iota
	exprVar
	exprOp
	exprList
	exprObject
)

// Expr is a compiled expression node. Compiled once at load, evaluated
// every frame; never re-parsed.
type Expr struct {
	kind exprKind
	lit  Value
	path []string
	op   opCode
	args []*Expr
	keys []string // object literal field names, aligned with args

	// scratch backs object-literal results, overwritten on re-evaluation.
	scratch map[string]Value
}

// Compile turns a JSON-shaped expression into its compiled form. Accepted
// shapes: scalar literals, arrays of expressions, {"var": "dotted.path"},
// {"op": "<name>", "args": [...]}, and any other object as an object
// literal whose field values are themselves expressions.
func Compile(src any) (*Expr, error) {
	switch v := src.(type) {
	case nil:
		return nil, compileErrorf("null is not an expression")
	case float64, int, int64, bool, string:
		return &Expr{kind: exprLiteral, lit: FromAny(v)}, nil
	case []any:
		args := make([]*Expr, len(v))
		for i, item := range v {
			arg, err := Compile(item)
			if err != nil {
				return nil, err
			}
			args[i] = arg
		}
		return &Expr{kind: exprList, args: args}, nil
	case map[string]any:
		return compileMap(v)
	default:
		return nil, compileErrorf("unsupported expression shape %T", src)
	}
}

func compileMap(m map[string]any) (*Expr, error) {
	if raw, ok := m["var"]; ok {
		path, isStr := raw.(string)
		if !isStr || path == "" {
			return nil, compileErrorf("var reference must be a non-empty string")
		}
		return &Expr{kind: exprVar, path: strings.Split(path, ".")}, nil
	}

	rawOp, ok := m["op"]
	if !ok {
		return compileObject(m)
	}
	name, isStr := rawOp.(string)
	if !isStr {
		return nil, compileErrorf("operator name must be a string")
	}
	op, known := opsByName[name]
	if !known {
		return nil, compileErrorf("unknown operator %q", name)
	}

	var rawArgs []any
	if ra, present := m["args"]; present {
		rawArgs, ok = ra.([]any)
		if !ok {
			return nil, compileErrorf("operator %q args must be an array", name)
		}
	}
	args := make([]*Expr, len(rawArgs))
	for i, item := range rawArgs {
		arg, err := Compile(item)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}

	if err := checkArity(name, op, len(args)); err != nil {
		return nil, err
	}
	return &Expr{kind: exprOp, op: op, args: args}, nil
}

// compileObject compiles an object literal, used for composite mutation
// values like transform components. Keys are sorted so compilation is
// deterministic regardless of decoder map order.
func compileObject(m map[string]any) (*Expr, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]*Expr, len(keys))
	for i, k := range keys {
		arg, err := Compile(m[k])
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	return &Expr{kind: exprObject, keys: keys, args: args}, nil
}

func checkArity(name string, op opCode, n int) error {
	switch {
	case op == opNot:
		if n != 1 {
			return compileErrorf("operator %q takes exactly one argument, got %d", name, n)
		}
	case op == opAnd || op == opOr:
		if n < 2 {
			return compileErrorf("operator %q takes at least two arguments, got %d", name, n)
		}
	case op.isAggregate():
		if n != 1 {
			return compileErrorf("aggregate %q takes exactly one argument, got %d", name, n)
		}
	default:
		if n != 2 {
			return compileErrorf("operator %q takes exactly two arguments, got %d", name, n)
		}
	}
	return nil
}
