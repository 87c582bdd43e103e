package selector

import (
	"github.com/cespare/xxhash/v2"

	"github.com/plus3/sigil/diag"
	"github.com/plus3/sigil/entity"
)

// Registry interns selector ASTs and keeps their match bitsets current.
// Structurally identical selector texts share one node and one bitset:
// interning buckets on the xxhash of the canonical text form and
// disambiguates within a bucket by the canonical string itself, so
// "#a:#b" and " #b : #a " are the same selector and a 64-bit hash
// collision cannot alias two distinct ones. Selectors live for the
// process lifetime; a scene reset only empties their scene-partition
// matches.
//
// Dirty propagation runs through the indices: a tag or id membership
// change dirties every node selecting on that key, and dirt spreads to
// every node that refines or unions over a dirty one. RecalcAll settles
// all of it dependency-first.
type Registry struct {
	store    *entity.Store
	tags     *TagIndex
	ids      *IdIndex
	reporter *diag.Reporter

	nodes    map[uint64][]*Node
	count    int
	roots    []*Node
	tagWatch map[string][]*Node
	idWatch  map[string][]*Node
}

// NewRegistry builds the registry and subscribes it to index membership
// changes and store partition events.
func NewRegistry(store *entity.Store, tags *TagIndex, ids *IdIndex, reporter *diag.Reporter) *Registry {
	r := &Registry{
		store:    store,
		tags:     tags,
		ids:      ids,
		reporter: reporter,
		nodes:    make(map[uint64][]*Node),
		tagWatch: make(map[string][]*Node),
		idWatch:  make(map[string][]*Node),
	}

	tags.OnChange(func(tag string) {
		for _, n := range r.tagWatch[tag] {
			markDirty(n)
		}
	})
	ids.OnChange(func(id string) {
		for _, n := range r.idWatch[id] {
			markDirty(n)
		}
	})
	store.OnSceneReset(func() {
		r.clearMatches(entity.Index(store.GlobalCapacity()), entity.Index(store.Capacity()))
	})
	store.OnShutdown(func() {
		r.clearMatches(0, entity.Index(store.Capacity()))
	})

	return r
}

// GetOrCreate parses selector text and returns the shared interned node
// for its structure. Equivalent texts always return the same instance.
// Malformed text returns a *ParseError; the caller decides whether to
// skip and continue.
func (r *Registry) GetOrCreate(text string) (*Node, error) {
	parsed, err := Parse(text)
	if err != nil {
		return nil, err
	}
	node := r.intern(parsed)
	if !node.isRoot {
		node.isRoot = true
		r.roots = append(r.roots, node)
	}
	return node, nil
}

// intern deduplicates a parsed node (and, recursively, everything it
// references) against the cache. The first structurally distinct arrival
// is kept verbatim and wired into the watch lists.
func (r *Registry) intern(n *Node) *Node {
	canonical := canonicalText(n)
	h := xxhash.Sum64String(canonical)
	for _, existing := range r.nodes[h] {
		if existing.canonical == canonical {
			return existing
		}
	}

	if n.prior != nil {
		prior := r.intern(n.prior)
		n.prior = prior
		prior.dependents = append(prior.dependents, n)
	}
	for i, c := range n.children {
		child := r.intern(c)
		n.children[i] = child
		child.dependents = append(child.dependents, n)
	}

	n.canonical = canonical
	n.matches = NewBitset(r.store.Capacity())
	n.dirty = true
	r.nodes[h] = append(r.nodes[h], n)
	r.count++

	switch n.kind {
	case KindById:
		r.idWatch[n.key] = append(r.idWatch[n.key], n)
	case KindByTag:
		r.tagWatch[n.key] = append(r.tagWatch[n.key], n)
	}
	return n
}

// markDirty flags a node and everything downstream of it. A node that is
// already dirty implies its dependents are too, so propagation stops there.
func markDirty(n *Node) {
	if n.dirty {
		return
	}
	n.dirty = true
	for _, d := range n.dependents {
		markDirty(d)
	}
}

// RecalcAll recomputes every dirty selector, walking each root's
// dependencies first. Calling it twice without intervening membership
// changes is a no-op the second time.
func (r *Registry) RecalcAll() {
	for _, root := range r.roots {
		r.Recalc(root)
	}
}

// Recalc settles one node (and its dependencies) on demand. A node's
// matches are a pure function of its own criterion and its prior's
// matches, so recomputation happens strictly dependency-first.
func (r *Registry) Recalc(n *Node) {
	if !n.dirty {
		return
	}
	n.dirty = false

	switch n.kind {
	case KindUnion:
		for _, c := range n.children {
			r.Recalc(c)
		}
		n.matches.ClearAll()
		for _, c := range n.children {
			n.matches.Or(c.matches)
		}
		return
	case KindById:
		n.matches.ClearAll()
		if e, ok := r.ids.Resolve(n.key); ok && r.store.IsActive(e) {
			n.matches.Set(e)
		}
	case KindByTag:
		if set, ok := r.tags.Resolve(n.key); ok {
			n.matches.CopyFrom(set)
		} else {
			// Unknown tag resolves to the empty set, not a fault.
			n.matches.ClearAll()
		}
	case KindCollisionEnter, KindCollisionExit:
		// Staged capability: no collision registry feeds these yet. An
		// explicit diagnostic keeps the placeholder from silently masking
		// integration bugs.
		n.matches.ClearAll()
		r.reporter.Report("collision selectors unsupported", "selector", n.canonical)
	}

	if n.prior != nil {
		r.Recalc(n.prior)
		n.matches.And(n.prior.matches)
	}
}

// clearMatches empties a partition range of every cached bitset and marks
// everything dirty for lazy recomputation.
func (r *Registry) clearMatches(lo, hi entity.Index) {
	for _, bucket := range r.nodes {
		for _, n := range bucket {
			n.matches.ClearRange(lo, hi)
			n.dirty = true
		}
	}
}

// Size returns the number of interned selector nodes.
func (r *Registry) Size() int { return r.count }
