package main

import (
	"fmt"
	"math/rand"

	"github.com/plus3/sigil/entity"
	"github.com/plus3/sigil/expr"
	"github.com/plus3/sigil/rule"
	"github.com/plus3/sigil/scene"
)

var propertyNames = []string{
	"health", "mana", "stamina", "armor", "speed",
	"poisonStacks", "burnStacks", "score", "cooldown", "charge",
}

// spawnRandomEntity creates one scene entity with a random tag subset and
// random numeric properties, mirroring the shape loaded scenes produce.
func spawnRandomEntity(w *scene.World, cfg Config, rng *rand.Rand, n int) bool {
	e, ok := w.Store.Spawn(entity.Scene)
	if !ok {
		return false
	}

	tags := make([]string, 0, cfg.TagsPerEntity)
	for _, i := range rng.Perm(len(cfg.Tags))[:min(cfg.TagsPerEntity, len(cfg.Tags))] {
		tags = append(tags, cfg.Tags[i])
	}
	entity.Add(w.Store, e, entity.Tags{Names: tags})

	values := make(map[string]any, cfg.PropertiesPerEntity)
	for _, i := range rng.Perm(len(propertyNames))[:min(cfg.PropertiesPerEntity, len(propertyNames))] {
		values[propertyNames[i]] = float64(rng.Intn(100) + 1)
	}
	entity.Add(w.Store, e, entity.Properties{Values: values})

	if rng.Intn(4) == 0 {
		entity.Add(w.Store, e, entity.Identity{Id: fmt.Sprintf("stress-%d", n)})
	}
	return true
}

// generateRules activates count rules spread over the tag pool. Each rule
// guards on a property threshold and decays that property, so every frame
// does real guard evaluation and mutation work.
func generateRules(w *scene.World, cfg Config, rng *rand.Rand, count int) error {
	for i := 0; i < count; i++ {
		tag := cfg.Tags[rng.Intn(len(cfg.Tags))]
		prop := propertyNames[rng.Intn(len(propertyNames))]

		text := "#" + tag
		if rng.Intn(3) == 0 {
			text += ":#" + cfg.Tags[rng.Intn(len(cfg.Tags))]
		}
		node, err := w.Selectors.GetOrCreate(text)
		if err != nil {
			return err
		}

		guard, err := expr.Compile(map[string]any{
			"op":   ">",
			"args": []any{map[string]any{"var": prop}, float64(rng.Intn(50))},
		})
		if err != nil {
			return err
		}
		value, err := expr.Compile(map[string]any{
			"op": "-",
			"args": []any{
				map[string]any{"var": prop},
				map[string]any{"op": "*", "args": []any{10.0, map[string]any{"var": "deltaTime"}}},
			},
		})
		if err != nil {
			return err
		}
		target, err := rule.ParseTarget("properties." + prop)
		if err != nil {
			return err
		}

		w.Rules.Activate(rule.New(node, guard, []rule.MutationOp{{Target: target, Value: value}}), false)
	}
	return nil
}
