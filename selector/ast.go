// Package selector implements the entity query language: parsing selector
// text into immutable ASTs, interning structurally identical selectors,
// maintaining the tag/id inverted indices, and incrementally recomputing
// each selector's matched-entity bitset behind dirty flags.
package selector

import (
	"sort"
	"strings"
)

// Kind discriminates the closed set of selector node variants.
type Kind uint8

const (
	// KindUnion matches the union of its child chains.
	KindUnion Kind = iota
	// KindById matches the single entity registered under an id.
	KindById
	// KindByTag matches every entity registered under a tag.
	KindByTag
	// KindCollisionEnter matches entities with a pending collision-enter
	// event. Staged: no collision registry feeds it yet.
	KindCollisionEnter
	// KindCollisionExit matches entities with a pending collision-exit event.
	KindCollisionExit
)

// Node is one selector AST node. Nodes are immutable after interning; the
// match bitset is the only mutable state and is recomputed by the registry,
// never written directly. A non-nil prior means intersection: this node's
// own criterion AND whatever the prior matched.
type Node struct {
	kind      Kind
	key       string
	prior     *Node
	children  []*Node
	canonical string

	matches    Bitset
	dirty      bool
	isRoot     bool
	dependents []*Node
}

// Kind returns the node variant.
func (n *Node) Kind() Kind { return n.kind }

// Key returns the id or tag the node selects on. Empty for unions and
// collision atoms.
func (n *Node) Key() string { return n.key }

// Prior returns the refinement link, or nil for an unrefined node.
func (n *Node) Prior() *Node { return n.prior }

// Children returns a union's chains. Nil for atoms.
func (n *Node) Children() []*Node { return n.children }

// Matches returns the cached match bitset. It is only current after the
// registry's recalculation pass; callers must not mutate it.
func (n *Node) Matches() Bitset { return n.matches }

// String returns the canonical selector text. Re-parsing it yields a
// structurally identical AST.
func (n *Node) String() string { return n.canonical }

func (n *Node) atomToken() string {
	switch n.kind {
	case KindById:
		return "@" + n.key
	case KindByTag:
		return "#" + n.key
	case KindCollisionEnter:
		return "!enter"
	case KindCollisionExit:
		return "!exit"
	}
	return ""
}

// canonicalText computes the whitespace- and order-insensitive form used
// for structural interning: atoms within a chain are sorted (intersection
// commutes), as are chains within a union.
func canonicalText(n *Node) string {
	if n.kind == KindUnion {
		parts := make([]string, len(n.children))
		for i, c := range n.children {
			parts[i] = canonicalText(c)
		}
		sort.Strings(parts)
		return strings.Join(parts, ", ")
	}
	var atoms []string
	for at := n; at != nil; at = at.prior {
		atoms = append(atoms, at.atomToken())
	}
	sort.Strings(atoms)
	return strings.Join(atoms, ":")
}
