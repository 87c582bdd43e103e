// Package scene wires the engine's registries together and loads scene
// documents: entities plus optional rules, in the JSON shape the content
// pipeline produces.
package scene

import (
	"github.com/plus3/sigil/diag"
	"github.com/plus3/sigil/entity"
	"github.com/plus3/sigil/rule"
	"github.com/plus3/sigil/selector"
)

// World bundles the store and the singleton registries. Construct one per
// process at startup; everything downstream shares these instances.
type World struct {
	Store     *entity.Store
	Tags      *selector.TagIndex
	Ids       *selector.IdIndex
	Selectors *selector.Registry
	Rules     *rule.Registry
	Engine    *rule.Engine
	Reporter  *diag.Reporter
}

// NewWorld constructs the store with fixed capacities and subscribes the
// indices and registries to its lifecycle, in dependency order.
func NewWorld(cfg entity.Config, reporter *diag.Reporter) *World {
	store := entity.NewStore(cfg)
	entity.RegisterCoreBehaviors(store)

	tags := selector.NewTagIndex(store, reporter)
	ids := selector.NewIdIndex(store, reporter)
	selectors := selector.NewRegistry(store, tags, ids, reporter)
	rules := rule.NewRegistry(store)
	engine := rule.NewEngine(store, selectors, tags, ids, rules, reporter)

	return &World{
		Store:     store,
		Tags:      tags,
		Ids:       ids,
		Selectors: selectors,
		Rules:     rules,
		Engine:    engine,
		Reporter:  reporter,
	}
}

// RunFrame advances the world by one frame.
func (w *World) RunFrame(deltaTime float64) {
	w.Engine.RunFrame(deltaTime)
}

/// ResetScene clears the scene partition everywhere: entities, rules,
// tag/id registrations, and selector match state. Global state survives.
func (w *World) ResetScene() {
	w.Store.ResetScene()
}

// Shutdown tears down both partitions.
func (w *World) Shutdown() {
	w.Store.Shutdown()
}
