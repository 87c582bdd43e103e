package rule

import (
	"github.com/plus3/sigil/diag"
	"github.com/plus3/sigil/entity"
	"github.com/plus3/sigil/expr"
	"github.com/plus3/sigil/selector"
)

// Engine is the per-frame entry point. RunFrame recalculates selectors
// once, then executes every active rule in registry order: gather matches,
// evaluate the guard over the whole set, evaluate mutation values per
// selected entity, apply through the mutation applier. Malformed rules
// degrade to "no mutation plus diagnostic"; a frame always completes.
//
// The engine is single-threaded and not reentrant: calling RunFrame from
// inside a frame is programmer misuse and panics.
type Engine struct {
	store     *entity.Store
	selectors *selector.Registry
	tags      *selector.TagIndex
	rules     *Registry
	reporter  *diag.Reporter
	applier   *Applier

	running bool

	// Frame scratch, reused so steady-state frames stay off the heap.
	matched []entity.Index
	snaps   []expr.Snapshot
	nested  []snapScratch
	ctx     expr.Context
	values  []expr.Value
	mask    []bool
}

// snapScratch holds one snapshot slot's nested value maps, allocated on
// first use and overwritten in place every frame after that. The values are
// consumed within the rule that built them, so reuse across rules is safe.
type snapScratch struct {
	position  map[string]expr.Value
	rotation  map[string]expr.Value
	scale     map[string]expr.Value
	transform map[string]expr.Value
	layout    map[string]expr.Value
}

// NewEngine wires the execution engine against the shared registries.
func NewEngine(store *entity.Store, selectors *selector.Registry, tags *selector.TagIndex, ids *selector.IdIndex, rules *Registry, reporter *diag.Reporter) *Engine {
	return &Engine{
		store:     store,
		selectors: selectors,
		tags:      tags,
		rules:     rules,
		reporter:  reporter,
		applier:   NewApplier(store, selectors, ids, reporter),
	}
}

// Applier exposes the shared mutation applier, used by the scene loader for
// parent resolution.
func (en *Engine) Applier() *Applier { return en.applier }

// RunFrame executes one frame: one selector recalculation pass, then every
// active rule in order. Mutations from an earlier rule are visible to a
// later rule's guard this frame; dirt raised on a selector by a rule's own
// mutations is resolved on the next frame's pass, never mid-frame.
func (en *Engine) RunFrame(deltaTime float64) {
	if en.running {
		panic("rule: RunFrame called reentrantly")
	}
	en.running = true
	defer func() { en.running = false }()

	en.selectors.RecalcAll()
	for _, entry := range en.rules.global {
		en.runRule(entry.rule, deltaTime)
	}
	for _, entry := range en.rules.scene {
		en.runRule(entry.rule, deltaTime)
	}
}

func (en *Engine) runRule(r *Rule, deltaTime float64) {
	en.matched = r.Selector.Matches().AppendTo(en.matched[:0])
	live := 0
	for _, e := range en.matched {
		if en.store.IsActive(e) {
			en.matched[live] = e
			live++
		}
	}
	en.matched = en.matched[:live]
	if len(en.matched) == 0 {
		return
	}

	for len(en.snaps) < len(en.matched) {
		en.snaps = append(en.snaps, nil)
		en.nested = append(en.nested, snapScratch{})
	}
	en.ctx.Reset()
	for i, e := range en.matched {
		en.snaps[i] = en.buildSnapshot(en.snaps[i], &en.nested[i], e)
	}
	en.ctx.DeltaTime = deltaTime
	en.ctx.Entities = en.snaps[:len(en.matched)]
	en.ctx.Self = nil

	if !en.evalGuard(r) {
		return
	}

	for len(en.values) < len(r.Mutations) {
		en.values = append(en.values, expr.None)
	}
	for i, e := range en.matched {
		if !en.mask[i] {
			continue
		}
		// All of an entity's mutation values evaluate against the state
		// captured at rule start, then the entity is written once.
		en.ctx.Self = en.snaps[i]
		for j, m := range r.Mutations {
			en.values[j] = m.Value.Eval(&en.ctx)
		}
		en.ctx.Self = nil
		for j, m := range r.Mutations {
			en.applier.Apply(e, m.Target, en.values[j])
		}
	}
}

// evalGuard decides which matched entities the rule mutates, filling
// en.mask. No guard or boolean true selects the full set; boolean false
// skips the rule silently; a list result of the set's length filters by
// truthiness; anything else is a guard evaluation error.
func (en *Engine) evalGuard(r *Rule) bool {
	for len(en.mask) < len(en.matched) {
		en.mask = append(en.mask, false)
	}
	if r.Guard == nil {
		for i := range en.matched {
			en.mask[i] = true
		}
		return true
	}

	result := r.Guard.Eval(&en.ctx)
	if b, ok := result.AsBool(); ok {
		if !b {
			return false
		}
		for i := range en.matched {
			en.mask[i] = true
		}
		return true
	}
	if items := result.Items(); result.Kind() == expr.KindList {
		if len(items) != len(en.matched) {
			en.reporter.Report("guard evaluation error: filter length does not match set",
				"rule", r.ID.String(), "selector", r.Selector.String(),
				"expected", len(en.matched), "got", len(items))
			return false
		}
		for i, item := range items {
			en.mask[i] = item.Truthy()
		}
		return true
	}

	en.reporter.Report("guard evaluation error: guard must yield a boolean or a filter list",
		"rule", r.ID.String(), "selector", r.Selector.String())
	return false
}

// buildSnapshot serializes one entity into expression values, reusing the
// snapshot map and nested scratch maps from previous frames. Only behaviors
// the entity actually has appear; properties are flattened to the top level,
// with the reserved id/tags/transform/layout keys layered over them.
func (en *Engine) buildSnapshot(snap expr.Snapshot, sc *snapScratch, e entity.Index) expr.Snapshot {
	if snap == nil {
		snap = make(expr.Snapshot, 16)
	} else {
		clear(snap)
	}

	if props := entity.Get[entity.Properties](en.store, e); props != nil {
		for k, v := range props.Values {
			snap[k] = expr.FromAny(v)
		}
	}
	if rec := entity.Get[entity.Identity](en.store, e); rec != nil {
		snap["id"] = expr.Str(rec.Id)
	}
	if tags := en.tags.TagsOf(e); len(tags) > 0 {
		items := en.ctx.Alloc(len(tags))
		for i, tag := range tags {
			items[i] = expr.Str(tag)
		}
		snap["tags"] = expr.ListOf(items)
	}
	if t := entity.Get[entity.Transform](en.store, e); t != nil {
		snap["transform"] = sc.transformValue(t)
	}
	if l := entity.Get[entity.Layout](en.store, e); l != nil {
		snap["layout"] = sc.layoutValue(l)
	}
	return snap
}

func (sc *snapScratch) transformValue(t *entity.Transform) expr.Value {
	if sc.transform == nil {
		sc.position = make(map[string]expr.Value, 3)
		sc.rotation = make(map[string]expr.Value, 4)
		sc.scale = make(map[string]expr.Value, 3)
		sc.transform = map[string]expr.Value{
			"position": expr.Object(sc.position),
			"rotation": expr.Object(sc.rotation),
			"scale":    expr.Object(sc.scale),
		}
	}
	setVec3(sc.position, t.Position)
	setQuat(sc.rotation, t.Rotation)
	setVec3(sc.scale, t.Scale)
	return expr.Object(sc.transform)
}

func (sc *snapScratch) layoutValue(l *entity.Layout) expr.Value {
	if sc.layout == nil {
		sc.layout = make(map[string]expr.Value, 22)
	}
	m := sc.layout
	m["width"], m["height"] = expr.Float(l.Width), expr.Float(l.Height)
	m["minWidth"], m["minHeight"] = expr.Float(l.MinWidth), expr.Float(l.MinHeight)
	m["maxWidth"], m["maxHeight"] = expr.Float(l.MaxWidth), expr.Float(l.MaxHeight)
	m["flexGrow"], m["flexShrink"] = expr.Float(l.FlexGrow), expr.Float(l.FlexShrink)
	m["flexBasis"], m["gap"] = expr.Float(l.FlexBasis), expr.Float(l.Gap)
	m["paddingLeft"], m["paddingRight"] = expr.Float(l.PaddingLeft), expr.Float(l.PaddingRight)
	m["paddingTop"], m["paddingBottom"] = expr.Float(l.PaddingTop), expr.Float(l.PaddingBottom)
	m["marginLeft"], m["marginRight"] = expr.Float(l.MarginLeft), expr.Float(l.MarginRight)
	m["marginTop"], m["marginBottom"] = expr.Float(l.MarginTop), expr.Float(l.MarginBottom)
	m["direction"], m["justify"] = expr.Str(string(l.Direction)), expr.Str(string(l.Justify))
	m["align"], m["display"] = expr.Str(string(l.Align)), expr.Str(string(l.Display))
	return expr.Object(m)
}

func setVec3(m map[string]expr.Value, v entity.Vec3) {
	m["x"], m["y"], m["z"] = expr.Float(v.X), expr.Float(v.Y), expr.Float(v.Z)
}

func setQuat(m map[string]expr.Value, q entity.Quat) {
	m["x"], m["y"], m["z"], m["w"] = expr.Float(q.X), expr.Float(q.Y), expr.Float(q.Z), expr.Float(q.W)
}
