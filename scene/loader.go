package scene

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/plus3/sigil/entity"
	"github.com/plus3/sigil/expr"
	"github.com/plus3/sigil/rule"
)

// Document is the scene-file shape. "entities" is required (it may be
// empty); "rules" is optional.
type Document struct {
	Entities []EntityDoc `json:"entities"`
	Rules    []RuleDoc   `json:"rules,omitempty"`
}

// EntityDoc describes one entity to spawn.
type EntityDoc struct {
	Id         string         `json:"id,omitempty"`
	Tags       []string       `json:"tags,omitempty"`
	Transform  *TransformDoc  `json:"transform,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	Layout     *entity.Layout `json:"layout,omitempty"`
	Parent     string         `json:"parent,omitempty"`
	Global     bool           `json:"global,omitempty"`
}

// TransformDoc mirrors the transform behavior in scene-file form.
type TransformDoc struct {
	Position VecDoc  `json:"position"`
	Rotation QuatDoc `json:"rotation"`
	Scale    VecDoc  `json:"scale"`
}

type VecDoc struct {
	X, Y, Z float64
}

type QuatDoc struct {
	X, Y, Z, W float64
}

// RuleDoc describes one rule: selector text, optional guard, mutations.
type RuleDoc struct {
	From   string        `json:"from"`
	Where  any           `json:"where,omitempty"`
	Do     []MutationDoc `json:"do"`
	Global bool          `json:"global,omitempty"`
}

// MutationDoc is one {target, value} pair in scene-file form.
type MutationDoc struct {
	Target string `json:"target"`
	Value  any    `json:"value"`
}

// Load parses a scene document and registers its contents into the world.
// A malformed document is a hard error; per-item failures inside a valid
// document (bad selector, duplicate id, invalid tag, unknown mutation
// target) emit one diagnostic each and loading continues.
func Load(data []byte, w *World) error {
	var probe struct {
		Entities json.RawMessage `json:"entities"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("scene: %w", err)
	}
	if probe.Entities == nil {
		return errors.New(`scene: "entities" is required`)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("scene: %w", err)
	}

	spawned := make([]entity.Index, len(doc.Entities))
	for i := range doc.Entities {
		spawned[i] = w.loadEntity(&doc.Entities[i])
	}
	// Parents resolve in a second pass so forward references work.
	for i := range doc.Entities {
		ed := &doc.Entities[i]
		if ed.Parent == "" || spawned[i] == entity.Invalid {
			continue
		}
		w.Engine.Applier().Apply(spawned[i], rule.Target{Kind: rule.TargetParent}, expr.Str(ed.Parent))
	}

	for i := range doc.Rules {
		w.loadRule(&doc.Rules[i])
	}
	return nil
}

func (w *World) loadEntity(ed *EntityDoc) entity.Index {
	partition := entity.Scene
	if ed.Global {
		partition = entity.Global
	}
	e, ok := w.Store.Spawn(partition)
	if !ok {
		w.Reporter.Report("entity partition exhausted", "id", ed.Id, "global", ed.Global)
		return entity.Invalid
	}

	if ed.Id != "" {
		entity.Add(w.Store, e, entity.Identity{Id: ed.Id})
	}
	if len(ed.Tags) > 0 {
		entity.Add(w.Store, e, entity.Tags{Names: ed.Tags})
	}
	if ed.Transform != nil {
		entity.Add(w.Store, e, entity.Transform{
			Position: entity.Vec3{X: ed.Transform.Position.X, Y: ed.Transform.Position.Y, Z: ed.Transform.Position.Z},
			Rotation: entity.Quat{X: ed.Transform.Rotation.X, Y: ed.Transform.Rotation.Y, Z: ed.Transform.Rotation.Z, W: ed.Transform.Rotation.W},
			Scale:    entity.Vec3{X: ed.Transform.Scale.X, Y: ed.Transform.Scale.Y, Z: ed.Transform.Scale.Z},
		})
	}
	if len(ed.Properties) > 0 {
		values := make(map[string]any, len(ed.Properties))
		for k, v := range ed.Properties {
			switch v.(type) {
			case float64, bool, string:
				values[k] = v
			default:
				// Property values are scalar leaves only.
				w.Reporter.Report("non-scalar property skipped", "entity", int(e), "key", k)
			}
		}
		entity.Add(w.Store, e, entity.Properties{Values: values})
	}
	if ed.Layout != nil {
		if !ed.Layout.Direction.Valid() || !ed.Layout.Justify.Valid() ||
			!ed.Layout.Align.Valid() || !ed.Layout.Display.Valid() {
			w.Reporter.Report("layout with invalid enum skipped", "entity", int(e), "id", ed.Id)
		} else {
			entity.Add(w.Store, e, *ed.Layout)
		}
	}
	return e
}

// loadRule registers one rule. Any parse or compile failure inside the
// rule aborts just this rule.
func (w *World) loadRule(rd *RuleDoc) {
	sel, err := w.Selectors.GetOrCreate(rd.From)
	if err != nil {
		w.Reporter.Report("rule selector rejected", "from", rd.From, "error", err.Error())
		return
	}

	var guard *expr.Expr
	if rd.Where != nil {
		guard, err = expr.Compile(rd.Where)
		if err != nil {
			w.Reporter.Report("rule guard rejected", "from", rd.From, "error", err.Error())
			return
		}
	}

	mutations := make([]rule.MutationOp, 0, len(rd.Do))
	for _, md := range rd.Do {
		target, err := rule.ParseTarget(md.Target)
		if err != nil {
			w.Reporter.Report("rule mutation target rejected", "from", rd.From, "error", err.Error())
			return
		}
		value, err := expr.Compile(md.Value)
		if err != nil {
			w.Reporter.Report("rule mutation value rejected", "from", rd.From, "target", md.Target, "error", err.Error())
			return
		}
		mutations = append(mutations, rule.MutationOp{Target: target, Value: value})
	}

	w.Rules.Activate(rule.New(sel, guard, mutations), rd.Global)
}
