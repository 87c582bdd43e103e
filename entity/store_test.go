package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/sigil/entity"
)

type health struct {
	Current float64
}

func newStore() *entity.Store {
	s := entity.NewStore(entity.Config{GlobalCapacity: 4, SceneCapacity: 8})
	entity.RegisterBehavior[health](s)
	return s
}

func TestSpawnPartitions(t *testing.T) {
	s := newStore()

	g, ok := s.Spawn(entity.Global)
	require.True(t, ok)
	assert.Equal(t, entity.Index(0), g)
	assert.Equal(t, entity.Global, s.PartitionOf(g))

	sc, ok := s.Spawn(entity.Scene)
	require.True(t, ok)
	assert.Equal(t, entity.Index(4), sc)
	assert.Equal(t, entity.Scene, s.PartitionOf(sc))

	assert.True(t, s.IsActive(g))
	assert.True(t, s.IsActive(sc))
	assert.False(t, s.IsActive(entity.Invalid))
	assert.False(t, s.IsActive(entity.Index(1)))
}

func TestSpawnExhaustion(t *testing.T) {
	s := entity.NewStore(entity.Config{GlobalCapacity: 1, SceneCapacity: 1})

	_, ok := s.Spawn(entity.Global)
	require.True(t, ok)
	_, ok = s.Spawn(entity.Global)
	assert.False(t, ok)

	e, ok := s.Spawn(entity.Scene)
	require.True(t, ok)
	_, ok = s.Spawn(entity.Scene)
	assert.False(t, ok)

	s.Despawn(e)
	_, ok = s.Spawn(entity.Scene)
	assert.True(t, ok)
}

func TestBehaviorLifecycle(t *testing.T) {
	s := newStore()
	e, _ := s.Spawn(entity.Scene)

	assert.False(t, entity.Has[health](s, e))
	assert.Nil(t, entity.Get[health](s, e))

	entity.Add(s, e, health{Current: 50})
	require.True(t, entity.Has[health](s, e))
	assert.Equal(t, 50.0, entity.Get[health](s, e).Current)

	entity.Set(s, e, func(h *health) { h.Current -= 10 })
	assert.Equal(t, 40.0, entity.Get[health](s, e).Current)

	entity.Remove[health](s, e)
	assert.False(t, entity.Has[health](s, e))
}

func TestObserverSequence(t *testing.T) {
	s := newStore()
	var events []string
	entity.OnAdded(s, func(e entity.Index, h *health) { events = append(events, "added") })
	entity.OnUpdating(s, func(e entity.Index, h *health) { events = append(events, "updating") })
	entity.OnUpdated(s, func(e entity.Index, h *health) { events = append(events, "updated") })
	entity.OnRemoving(s, func(e entity.Index, h *health) { events = append(events, "removing") })

	e, _ := s.Spawn(entity.Scene)
	entity.Add(s, e, health{Current: 50})
	assert.Equal(t, []string{"added"}, events)

	// Adding over an existing record goes through the update path.
	events = nil
	entity.Add(s, e, health{Current: 60})
	assert.Equal(t, []string{"updating", "updated"}, events)

	events = nil
	entity.Set(s, e, func(h *health) { h.Current = 70 })
	assert.Equal(t, []string{"updating", "updated"}, events)

	events = nil
	entity.Remove[health](s, e)
	assert.Equal(t, []string{"removing"}, events)

	// Set on a bare entity creates the record first.
	events = nil
	entity.Set(s, e, func(h *health) { h.Current = 1 })
	assert.Equal(t, []string{"added", "updating", "updated"}, events)
}

func TestSetBeforeObserverSeesOldValue(t *testing.T) {
	s := newStore()
	e, _ := s.Spawn(entity.Scene)
	entity.Add(s, e, health{Current: 50})

	var before, after float64
	entity.OnUpdating(s, func(e entity.Index, h *health) { before = h.Current })
	entity.OnUpdated(s, func(e entity.Index, h *health) { after = h.Current })

	entity.Set(s, e, func(h *health) { h.Current = 20 })
	assert.Equal(t, 50.0, before)
	assert.Equal(t, 20.0, after)
}

func TestDespawnClearsBehaviorsAndRecyclesIndex(t *testing.T) {
	s := newStore()
	var deactivated []entity.Index
	s.OnDeactivating(func(e entity.Index) {
		// Behaviors must still be readable while deactivating.
		require.True(t, entity.Has[health](s, e))
		deactivated = append(deactivated, e)
	})

	e, _ := s.Spawn(entity.Scene)
	entity.Add(s, e, health{Current: 50})
	s.Despawn(e)

	assert.Equal(t, []entity.Index{e}, deactivated)
	assert.False(t, s.IsActive(e))

	reused, ok := s.Spawn(entity.Scene)
	require.True(t, ok)
	assert.Equal(t, e, reused)
	assert.False(t, entity.Has[health](s, reused))
}

func TestDespawnInactiveIsANoOp(t *testing.T) {
	s := newStore()
	fired := false
	s.OnDeactivating(func(entity.Index) { fired = true })
	s.Despawn(entity.Index(5))
	s.Despawn(entity.Invalid)
	assert.False(t, fired)
}

func TestResetSceneKeepsGlobalPartition(t *testing.T) {
	s := newStore()
	g, _ := s.Spawn(entity.Global)
	sc, _ := s.Spawn(entity.Scene)
	entity.Add(s, g, health{Current: 1})
	entity.Add(s, sc, health{Current: 2})

	resets := 0
	s.OnSceneReset(func() { resets++ })
	s.ResetScene()

	assert.Equal(t, 1, resets)
	assert.True(t, s.IsActive(g))
	assert.Equal(t, 1.0, entity.Get[health](s, g).Current)
	assert.False(t, s.IsActive(sc))

	reused, ok := s.Spawn(entity.Scene)
	require.True(t, ok)
	assert.Equal(t, sc, reused)
	assert.False(t, entity.Has[health](s, reused))
}

func TestShutdownClearsEverything(t *testing.T) {
	s := newStore()
	g, _ := s.Spawn(entity.Global)
	entity.Add(s, g, health{Current: 1})

	shutdowns := 0
	s.OnShutdown(func() { shutdowns++ })
	s.Shutdown()

	assert.Equal(t, 1, shutdowns)
	assert.False(t, s.IsActive(g))

	g2, ok := s.Spawn(entity.Global)
	require.True(t, ok)
	assert.Equal(t, entity.Index(0), g2)
	assert.False(t, entity.Has[health](s, g2))
}

func TestInactiveEntityOpsAreIgnored(t *testing.T) {
	s := newStore()
	e := entity.Index(6)
	entity.Add(s, e, health{Current: 1})
	entity.Set(s, e, func(h *health) { h.Current = 2 })
	entity.Remove[health](s, e)
	assert.Nil(t, entity.Get[health](s, e))
}

func TestRegistrationMisusePanics(t *testing.T) {
	s := newStore()
	assert.Panics(t, func() { entity.RegisterBehavior[health](s) })

	type unregistered struct{ n int }
	e, _ := s.Spawn(entity.Scene)
	assert.Panics(t, func() { entity.Get[unregistered](s, e) })
}
