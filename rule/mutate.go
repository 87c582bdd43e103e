package rule

import (
	"github.com/plus3/sigil/diag"
	"github.com/plus3/sigil/entity"
	"github.com/plus3/sigil/expr"
	"github.com/plus3/sigil/selector"
)

// Applier maps an evaluated mutation value onto one entity behavior field.
// Each target shape has its own strict validator; a mutation either fully
// applies or not at all; there is no partial write of a composite field.
// Writes go through the store's normal update path, so the tag/id indices
// and any other listeners observe them through their own subscriptions;
// the applier never reaches into an index directly.
type Applier struct {
	store     *entity.Store
	selectors *selector.Registry
	ids       *selector.IdIndex
	reporter  *diag.Reporter
}

// NewApplier wires a mutation applier against the shared registries.
func NewApplier(store *entity.Store, selectors *selector.Registry, ids *selector.IdIndex, reporter *diag.Reporter) *Applier {
	return &Applier{store: store, selectors: selectors, ids: ids, reporter: reporter}
}

// Apply writes one evaluated value to one target field of one entity.
// Failures emit exactly one diagnostic and return false; sibling mutations
// are unaffected.
func (a *Applier) Apply(e entity.Index, target Target, v expr.Value) bool {
	switch target.Kind {
	case TargetProperty:
		return a.applyProperty(e, target.Key, v)
	case TargetTagAdd:
		return a.applyTagAdd(e, v)
	case TargetTagRemove:
		return a.applyTagRemove(e, v)
	case TargetId:
		return a.applyId(e, v)
	case TargetPosition, TargetRotation, TargetScale:
		return a.applyTransform(e, target, v)
	case TargetParent:
		return a.applyParent(e, v)
	case TargetLayout:
		return a.applyLayout(e, target.Key, v)
	}
	a.reject(e, target, "unrecognized target")
	return false
}

func (a *Applier) reject(e entity.Index, target Target, detail string, kv ...any) {
	ctx := append([]any{"entity", int(e), "target", target.String()}, kv...)
	a.reporter.Report("mutation rejected: "+detail, ctx...)
}

func (a *Applier) applyProperty(e entity.Index, key string, v expr.Value) bool {
	switch v.Kind() {
	case expr.KindFloat, expr.KindBool, expr.KindString:
	default:
		a.reject(e, Target{Kind: TargetProperty, Key: key}, "property value must be a scalar")
		return false
	}
	entity.Set(a.store, e, func(p *entity.Properties) {
		if p.Values == nil {
			p.Values = make(map[string]any, 8)
		}
		p.Values[key] = v.Interface()
	})
	return true
}

func (a *Applier) applyTagAdd(e entity.Index, v expr.Value) bool {
	name, ok := v.AsString()
	if !ok {
		a.reject(e, Target{Kind: TargetTagAdd}, "tag value must be a string")
		return false
	}
	tag, valid := selector.NormalizeTag(name)
	if !valid {
		a.reject(e, Target{Kind: TargetTagAdd}, "invalid tag name", "tag", name)
		return false
	}
	entity.Set(a.store, e, func(t *entity.Tags) {
		for _, existing := range t.Names {
			if existing == tag {
				return
			}
		}
		t.Names = append(t.Names, tag)
	})
	return true
}

func (a *Applier) applyTagRemove(e entity.Index, v expr.Value) bool {
	name, ok := v.AsString()
	if !ok {
		a.reject(e, Target{Kind: TargetTagRemove}, "tag value must be a string")
		return false
	}
	tag, valid := selector.NormalizeTag(name)
	if !valid {
		a.reject(e, Target{Kind: TargetTagRemove}, "invalid tag name", "tag", name)
		return false
	}
	if !entity.Has[entity.Tags](a.store, e) {
		return true
	}
	entity.Set(a.store, e, func(t *entity.Tags) {
		for i, existing := range t.Names {
			if existing == tag {
				t.Names = append(t.Names[:i], t.Names[i+1:]...)
				return
			}
		}
	})
	return true
}

func (a *Applier) applyId(e entity.Index, v expr.Value) bool {
	id, ok := v.AsString()
	if !ok || id == "" {
		a.reject(e, Target{Kind: TargetId}, "id value must be a non-empty string")
		return false
	}
	if holder, taken := a.ids.Resolve(id); taken && holder != e {
		a.reject(e, Target{Kind: TargetId}, "id already registered", "id", id, "holder", int(holder))
		return false
	}
	entity.Set(a.store, e, func(rec *entity.Identity) {
		rec.Id = id
	})
	return true
}

var (
	vec3Components = []string{"x", "y", "z"}
	quatComponents = []string{"x", "y", "z", "w"}
)

func (a *Applier) applyTransform(e entity.Index, target Target, v expr.Value) bool {
	comps := vec3Components
	if target.Kind == TargetRotation {
		comps = quatComponents
	}
	fields := v.Fields()
	if fields == nil || len(fields) != len(comps) {
		a.reject(e, target, "value must be an object with exactly the named numeric components", "components", comps)
		return false
	}
	var nums [4]float64
	for i, comp := range comps {
		f, ok := fields[comp].AsFloat()
		if !ok {
			a.reject(e, target, "missing or non-numeric component", "component", comp)
			return false
		}
		nums[i] = f
	}

	entity.Set(a.store, e, func(t *entity.Transform) {
		switch target.Kind {
		case TargetPosition:
			t.Position = entity.Vec3{X: nums[0], Y: nums[1], Z: nums[2]}
		case TargetRotation:
			t.Rotation = entity.Quat{X: nums[0], Y: nums[1], Z: nums[2], W: nums[3]}
		case TargetScale:
			t.Scale = entity.Vec3{X: nums[0], Y: nums[1], Z: nums[2]}
		}
	})
	return true
}

func (a *Applier) applyParent(e entity.Index, v expr.Value) bool {
	text, ok := v.AsString()
	if !ok {
		a.reject(e, Target{Kind: TargetParent}, "parent value must be selector text")
		return false
	}
	node, err := a.selectors.GetOrCreate(text)
	if err != nil {
		a.reject(e, Target{Kind: TargetParent}, "parent selector failed to parse", "error", err.Error())
		return false
	}
	a.selectors.Recalc(node)
	parent := entity.Invalid
	for match := range node.Matches().Iter() {
		if match != e {
			parent = match
			break
		}
	}
	if parent == entity.Invalid {
		a.reject(e, Target{Kind: TargetParent}, "parent selector matched no entity", "selector", node.String())
		return false
	}
	entity.Set(a.store, e, func(p *entity.Parent) {
		p.Target = parent
	})
	return true
}

func (a *Applier) applyLayout(e entity.Index, key string, v expr.Value) bool {
	field, ok := layoutFields[key]
	if !ok {
		a.reject(e, Target{Kind: TargetLayout, Key: key}, "unrecognized layout field")
		return false
	}
	target := Target{Kind: TargetLayout, Key: key}

	if field.enum == nil {
		f, isFloat := v.AsFloat()
		if !isFloat {
			a.reject(e, target, "layout scalar value must be a number")
			return false
		}
		entity.Set(a.store, e, func(l *entity.Layout) {
			field.setF(l, f)
		})
		return true
	}

	s, isStr := v.AsString()
	if !isStr {
		a.reject(e, target, "layout enum value must be a string", "allowed", field.enum)
		return false
	}
	member := false
	for _, allowed := range field.enum {
		if s == allowed {
			member = true
			break
		}
	}
	if !member {
		a.reject(e, target, "layout enum value not in allowed set", "value", s, "allowed", field.enum)
		return false
	}
	entity.Set(a.store, e, func(l *entity.Layout) {
		field.setS(l, s)
	})
	return true
}
