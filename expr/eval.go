package expr

import (
	"math"
	"strings"
)

// Snapshot is one entity serialized into expression values: flattened
// property keys plus "id", "tags", "transform", and "layout" for the
// behaviors the entity actually has. Absent behaviors are absent keys,
// not nulls.
type Snapshot map[string]Value

// Context is the evaluation environment for one rule. Guards evaluate
// with Self nil and see the whole matched set; mutation values evaluate
// once per target entity with Self bound to that entity.
//
// Variable resolution, first path segment:
//
//	deltaTime      frame delta
//	self           the target entity's snapshot (mutation context)
//	<key in self>  that entity value (mutation context)
//	<tag name>     projection of the remaining path over matched entities
//	               carrying the tag, as a list ("enemy.health")
//	anything else  guard context: projection over the full matched set;
//	               mutation context: Absent
//
// Unresolved paths yield Absent, never a fault.
type Context struct {
	DeltaTime float64
	Entities  []Snapshot
	Self      Snapshot

	// arena backs projection lists; reset per evaluation so steady-state
	// frames reuse its capacity instead of allocating.
	arena []Value
}

// Reset clears scratch state between evaluations while keeping capacity.
func (ctx *Context) Reset() {
	ctx.arena = ctx.arena[:0]
}

// Alloc carves a list out of the context arena. If the arena grows, lists
// handed out earlier keep pointing into the old backing array, so they
// stay valid.
func (ctx *Context) Alloc(n int) []Value {
	start := len(ctx.arena)
	if start+n > cap(ctx.arena) {
		fresh := make([]Value, 0, max(2*(start+n), 64))
		ctx.arena = fresh
		start = 0
	}
	ctx.arena = ctx.arena[:start+n]
	return ctx.arena[start : start+n : start+n]
}

// Eval evaluates the compiled expression in the given context.
func (e *Expr) Eval(ctx *Context) Value {
	switch e.kind {
	case exprLiteral:
		return e.lit
	case exprVar:
		return ctx.resolve(e.path)
	case exprList:
		items := ctx.Alloc(len(e.args))
		for i, arg := range e.args {
			items[i] = arg.Eval(ctx)
		}
		return ListOf(items)
	case exprObject:
		// The result aliases a per-node scratch map; callers consume it
		// before the same expression evaluates again. Evaluation is
		// single-threaded by contract.
		if e.scratch == nil {
			e.scratch = make(map[string]Value, len(e.keys))
		}
		for i, k := range e.keys {
			e.scratch[k] = e.args[i].Eval(ctx)
		}
		return Object(e.scratch)
	case exprOp:
		return e.evalOp(ctx)
	}
	return None
}

func (e *Expr) evalOp(ctx *Context) Value {
	switch e.op {
	case opNot:
		return Bool(!e.args[0].Eval(ctx).Truthy())
	case opAnd:
		for _, arg := range e.args {
			if !arg.Eval(ctx).Truthy() {
				return Bool(false)
			}
		}
		return Bool(true)
	case opOr:
		for _, arg := range e.args {
			if arg.Eval(ctx).Truthy() {
				return Bool(true)
			}
		}
		return Bool(false)
	}
	if e.op.isAggregate() {
		return evalAggregate(e.op, e.args[0].Eval(ctx))
	}

	a := e.args[0].Eval(ctx)
	b := e.args[1].Eval(ctx)
	if a.kind == KindList || b.kind == KindList {
		return broadcast(ctx, e.op, a, b)
	}
	return scalarOp(e.op, a, b)
}

// broadcast applies a scalar operator element-wise. A scalar operand pairs
// with every element of the list operand; two lists pair index by index
// and must agree on length.
func broadcast(ctx *Context, op opCode, a, b Value) Value {
	al, bl := a.Items(), b.Items()
	n := len(al)
	if a.kind != KindList {
		n = len(bl)
	}
	if a.kind == KindList && b.kind == KindList && len(al) != len(bl) {
		return None
	}
	out := ctx.Alloc(n)
	for i := 0; i < n; i++ {
		ea, eb := a, b
		if a.kind == KindList {
			ea = al[i]
		}
		if b.kind == KindList {
			eb = bl[i]
		}
		out[i] = scalarOp(op, ea, eb)
	}
	return ListOf(out)
}

func scalarOp(op opCode, a, b Value) Value {
	switch op {
	case opEq:
		return Bool(!a.IsAbsent() && !b.IsAbsent() && a.Equal(b))
	case opNe:
		return Bool(!a.IsAbsent() && !b.IsAbsent() && !a.Equal(b))
	case opLt, opLe, opGt, opGe:
		return compareOrdered(op, a, b)
	case opAdd, opSub, opMul, opDiv, opMod:
		return arithmetic(op, a, b)
	}
	return None
}

// compareOrdered orders floats numerically and strings lexicographically.
// Absent or mismatched operands compare false.
func compareOrdered(op opCode, a, b Value) Value {
	if af, ok := a.AsFloat(); ok {
		bf, ok := b.AsFloat()
		if !ok {
			return Bool(false)
		}
		switch op {
		case opLt:
			return Bool(af < bf)
		case opLe:
			return Bool(af <= bf)
		case opGt:
			return Bool(af > bf)
		default:
			return Bool(af >= bf)
		}
	}
	if as, ok := a.AsString(); ok {
		bs, ok := b.AsString()
		if !ok {
			return Bool(false)
		}
		cmp := strings.Compare(as, bs)
		switch op {
		case opLt:
			return Bool(cmp < 0)
		case opLe:
			return Bool(cmp <= 0)
		case opGt:
			return Bool(cmp > 0)
		default:
			return Bool(cmp >= 0)
		}
	}
	return Bool(false)
}

// arithmetic operates on floats; an Absent or non-numeric operand yields
// Absent, keeping unresolved paths neutral instead of faulting.
func arithmetic(op opCode, a, b Value) Value {
	af, aok := a.AsFloat()
	bf, bok := b.AsFloat()
	if !aok || !bok {
		return None
	}
	switch op {
	case opAdd:
		return Float(af + bf)
	case opSub:
		return Float(af - bf)
	case opMul:
		return Float(af * bf)
	case opDiv:
		return Float(af / bf)
	default:
		return Float(math.Mod(af, bf))
	}
}

// evalAggregate folds a list (or single value) into a scalar. Absent
// elements are skipped; numeric aggregates over nothing yield Absent.
func evalAggregate(op opCode, v Value) Value {
	items := v.Items()
	if v.kind != KindList {
		single := [1]Value{v}
		items = single[:]
	}

	switch op {
	case opCount:
		n := 0
		for _, item := range items {
			if !item.IsAbsent() {
				n++
			}
		}
		return Float(float64(n))
	case opAny:
		for _, item := range items {
			if item.Truthy() {
				return Bool(true)
			}
		}
		return Bool(false)
	case opAll:
		for _, item := range items {
			if item.IsAbsent() {
				continue
			}
			if !item.Truthy() {
				return Bool(false)
			}
		}
		return Bool(true)
	}

	var sum float64
	var lo, hi float64
	n := 0
	for _, item := range items {
		f, ok := item.AsFloat()
		if !ok {
			continue
		}
		if n == 0 {
			lo, hi = f, f
		}
		sum += f
		lo = math.Min(lo, f)
		hi = math.Max(hi, f)
		n++
	}
	if n == 0 {
		return None
	}
	switch op {
	case opSum:
		return Float(sum)
	case opMin:
		return Float(lo)
	case opMax:
		return Float(hi)
	default:
		return Float(sum / float64(n))
	}
}

func (ctx *Context) resolve(path []string) Value {
	head := path[0]
	if head == "deltaTime" && len(path) == 1 {
		return Float(ctx.DeltaTime)
	}
	if head == "self" && ctx.Self != nil {
		return walkSnapshot(ctx.Self, path[1:])
	}
	if ctx.Self != nil {
		if v, ok := ctx.Self[head]; ok {
			return walkValue(v, path[1:])
		}
	}

	if out, ok := ctx.projectTag(head, path[1:]); ok {
		return out
	}
	if ctx.Self == nil {
		return ctx.projectAll(path)
	}
	return None
}

// projectTag resolves "tag.rest" paths: the remaining path projected over
// matched entities carrying the tag. Reported found only if at least one
// matched entity has the tag, so property names shadowing nothing still
// fall through to plain projection.
func (ctx *Context) projectTag(name string, rest []string) (Value, bool) {
	tag := strings.ToLower(name)
	n := 0
	for _, snap := range ctx.Entities {
		if snapshotHasTag(snap, tag) {
			n++
		}
	}
	if n == 0 {
		return None, false
	}
	out := ctx.Alloc(n)
	i := 0
	for _, snap := range ctx.Entities {
		if !snapshotHasTag(snap, tag) {
			continue
		}
		if len(rest) == 0 {
			out[i] = Object(snap)
		} else {
			out[i] = walkSnapshot(snap, rest)
		}
		i++
	}
	return ListOf(out), true
}

// projectAll resolves a bare path element-wise over the full matched set.
// The result list is aligned with the set, entry for entry, so comparison
// results can act as a filter mask.
func (ctx *Context) projectAll(path []string) Value {
	out := ctx.Alloc(len(ctx.Entities))
	for i, snap := range ctx.Entities {
		out[i] = walkSnapshot(snap, path)
	}
	return ListOf(out)
}

func walkSnapshot(snap Snapshot, path []string) Value {
	if len(path) == 0 {
		return Object(snap)
	}
	v, ok := snap[path[0]]
	if !ok {
		return None
	}
	return walkValue(v, path[1:])
}

func walkValue(v Value, rest []string) Value {
	for _, seg := range rest {
		v = v.Get(seg)
	}
	return v
}

func snapshotHasTag(snap Snapshot, tag string) bool {
	tags, ok := snap["tags"]
	if !ok {
		return false
	}
	for _, item := range tags.Items() {
		if s, isStr := item.AsString(); isStr && s == tag {
			return true
		}
	}
	return false
}
