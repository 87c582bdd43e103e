package rule

import (
	"iter"

	"github.com/kamstrup/intmap"

	"github.com/plus3/sigil/entity"
)

// RuleId is an activation handle. Handles are issued in activation order
// and never reused.
type RuleId uint64

type activeEntry struct {
	id   RuleId
	rule *Rule
}

// Registry holds active rules in two partitions. Iteration order is the
// execution order: global rules first, then scene rules, each in
// activation order. A later rule observes mutations an earlier rule
// already applied in the same frame.
type Registry struct {
	global []activeEntry
	scene  []activeEntry

	byId   *intmap.Map[RuleId, *Rule]
	nextId RuleId
}

// NewRegistry creates the registry and subscribes its scene partition to
// the store's reset lifecycle.
func NewRegistry(store *entity.Store) *Registry {
	r := &Registry{
		byId: intmap.New[RuleId, *Rule](64),
	}
	store.OnSceneReset(r.ClearScene)
	store.OnShutdown(r.Clear)
	return r
}

// Activate registers a rule in the given partition and returns its handle.
func (r *Registry) Activate(rule *Rule, global bool) RuleId {
	r.nextId++
	id := r.nextId
	entry := activeEntry{id: id, rule: rule}
	if global {
		r.global = append(r.global, entry)
	} else {
		r.scene = append(r.scene, entry)
	}
	r.byId.Put(id, rule)
	return id
}

// Deactivate removes a rule by handle. Unknown handles are ignored.
func (r *Registry) Deactivate(id RuleId) {
	if _, ok := r.byId.Get(id); !ok {
		return
	}
	r.byId.Del(id)
	r.global = removeEntry(r.global, id)
	r.scene = removeEntry(r.scene, id)
}

// Get returns an active rule by handle.
func (r *Registry) Get(id RuleId) (*Rule, bool) {
	return r.byId.Get(id)
}

// Len returns the number of active rules across both partitions.
func (r *Registry) Len() int {
	return len(r.global) + len(r.scene)
}

// IterateActive yields active rules in execution order.
func (r *Registry) IterateActive() iter.Seq[*Rule] {
	return func(yield func(*Rule) bool) {
		for _, entry := range r.global {
			if !yield(entry.rule) {
				return
			}
		}
		for _, entry := range r.scene {
			if !yield(entry.rule) {
				return
			}
		}
	}
}

// ClearScene drops every scene-partition rule in one step.
func (r *Registry) ClearScene() {
	for _, entry := range r.scene {
		r.byId.Del(entry.id)
	}
	r.scene = r.scene[:0]
}

// Clear drops all rules from both partitions.
func (r *Registry) Clear() {
	r.global = r.global[:0]
	r.scene = r.scene[:0]
	r.byId.Clear()
}

func removeEntry(entries []activeEntry, id RuleId) []activeEntry {
	for i, entry := range entries {
		if entry.id == id {
			return append(entries[:i], entries[i+1:]...)
		}
	}
	return entries
}
