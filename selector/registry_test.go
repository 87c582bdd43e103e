package selector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/sigil/entity"
	"github.com/plus3/sigil/selector"
)

func (x *env) get(t *testing.T, text string) *selector.Node {
	t.Helper()
	node, err := x.reg.GetOrCreate(text)
	require.NoError(t, err)
	return node
}

func TestRegistryInternsStructurally(t *testing.T) {
	x := newEnv()

	t.Run("chain atom order is irrelevant", func(t *testing.T) {
		a := x.get(t, "#a:#b")
		b := x.get(t, " #b : #a ")
		assert.Same(t, a, b)
	})

	t.Run("union chain order is irrelevant", func(t *testing.T) {
		a := x.get(t, "#a, @player")
		b := x.get(t, "@player, #a")
		assert.Same(t, a, b)
	})

	t.Run("distinct structures stay distinct", func(t *testing.T) {
		assert.NotSame(t, x.get(t, "#a"), x.get(t, "#b"))
	})

	t.Run("canonical text round-trips to the same node", func(t *testing.T) {
		n := x.get(t, "#b:#a, @player")
		again := x.get(t, n.String())
		assert.Same(t, n, again)
	})

	t.Run("rejects malformed text", func(t *testing.T) {
		_, err := x.reg.GetOrCreate("@@x")
		require.Error(t, err)
		var parseErr *selector.ParseError
		assert.ErrorAs(t, err, &parseErr)
	})
}

func TestRegistryRecalc(t *testing.T) {
	x := newEnv()
	grunt := x.spawn(t, entity.Scene)
	boss := x.spawn(t, entity.Scene)
	hero := x.spawn(t, entity.Scene)
	entity.Add(x.store, grunt, entity.Tags{Names: []string{"enemy"}})
	entity.Add(x.store, boss, entity.Tags{Names: []string{"enemy", "boss"}})
	entity.Add(x.store, hero, entity.Identity{Id: "player"})

	node := x.get(t, "#enemy:#boss, @player")
	x.reg.RecalcAll()

	assert.False(t, node.Matches().Has(grunt))
	assert.True(t, node.Matches().Has(boss))
	assert.True(t, node.Matches().Has(hero))
	assert.Equal(t, 2, node.Matches().Count())
}

func TestRegistryRecalcIsIdempotent(t *testing.T) {
	x := newEnv()
	e := x.spawn(t, entity.Scene)
	entity.Add(x.store, e, entity.Tags{Names: []string{"enemy"}})

	node := x.get(t, "#enemy, @player")
	x.reg.RecalcAll()

	before := selector.NewBitset(x.store.Capacity())
	before.CopyFrom(node.Matches())
	x.reg.RecalcAll()
	assert.True(t, before.Equal(node.Matches()))
}

func TestRegistryDirtyPropagation(t *testing.T) {
	x := newEnv()
	grunt := x.spawn(t, entity.Scene)
	entity.Add(x.store, grunt, entity.Tags{Names: []string{"enemy"}})

	node := x.get(t, "#enemy:#boss")
	x.reg.RecalcAll()
	require.Equal(t, 0, node.Matches().Count())

	// Promoting the grunt dirties the #boss watchers and, through the
	// dependent links, the refined chain selecting on it.
	entity.Set(x.store, grunt, func(tags *entity.Tags) {
		tags.Names = append(tags.Names, "boss")
	})
	x.reg.RecalcAll()
	assert.True(t, node.Matches().Has(grunt))

	x.store.Despawn(grunt)
	x.reg.RecalcAll()
	assert.Equal(t, 0, node.Matches().Count())
}

func TestRegistryIdSelectorTracksLiveness(t *testing.T) {
	x := newEnv()
	e := x.spawn(t, entity.Scene)
	entity.Add(x.store, e, entity.Identity{Id: "hero"})

	node := x.get(t, "@hero")
	x.reg.RecalcAll()
	assert.True(t, node.Matches().Has(e))

	x.store.Despawn(e)
	x.reg.RecalcAll()
	assert.Equal(t, 0, node.Matches().Count())
}

func TestRegistryUnknownTagMatchesNothing(t *testing.T) {
	x := newEnv()
	node := x.get(t, "#never-registered")
	x.reg.RecalcAll()
	assert.Equal(t, 0, node.Matches().Count())
	assert.Empty(t, x.diags.Records)
}

func TestRegistrySceneResetClearsScenePartitionOnly(t *testing.T) {
	x := newEnv()
	g := x.spawn(t, entity.Global)
	s := x.spawn(t, entity.Scene)
	entity.Add(x.store, g, entity.Tags{Names: []string{"ui"}})
	entity.Add(x.store, s, entity.Tags{Names: []string{"ui"}})

	node := x.get(t, "#ui")
	x.reg.RecalcAll()
	require.Equal(t, 2, node.Matches().Count())

	x.store.ResetScene()
	x.reg.RecalcAll()
	assert.True(t, node.Matches().Has(g))
	assert.False(t, node.Matches().Has(s))
	assert.Equal(t, 1, node.Matches().Count())
}

func TestRegistryCollisionSelectorsDiagnose(t *testing.T) {
	x := newEnv()
	e := x.spawn(t, entity.Scene)
	entity.Add(x.store, e, entity.Tags{Names: []string{"enemy"}})

	node := x.get(t, "!enter:#enemy")
	x.reg.RecalcAll()

	assert.Equal(t, 0, node.Matches().Count())
	assert.Equal(t, []string{"collision selectors unsupported"}, x.diags.Messages())
}

func TestRegistrySizeCountsInternedNodes(t *testing.T) {
	x := newEnv()
	x.get(t, "#a:#b")
	before := x.reg.Size()
	x.get(t, "#b:#a")
	assert.Equal(t, before, x.reg.Size())
}

func TestRegistryDisambiguatesByCanonicalText(t *testing.T) {
	x := newEnv()
	texts := []string{"#a", "#b", "#c", "@player", "@npc", "#a:#b", "#a, #b"}
	nodes := make([]*selector.Node, len(texts))
	for i, text := range texts {
		nodes[i] = x.get(t, text)
	}

	// Every structurally distinct selector keeps its own node, and
	// re-interning returns the original instance, never a hash neighbor.
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			assert.NotSame(t, nodes[i], nodes[j], "%q vs %q", texts[i], texts[j])
		}
	}
	for i, text := range texts {
		assert.Same(t, nodes[i], x.get(t, text))
	}

	// The chain head and the union share the already interned atoms, so
	// only the seven distinct structures are counted.
	assert.Equal(t, 7, x.reg.Size())
}
