package scene_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/sigil/diag"
	"github.com/plus3/sigil/entity"
	"github.com/plus3/sigil/scene"
)

func newWorld() (*scene.World, *diag.Collector) {
	col := &diag.Collector{}
	w := scene.NewWorld(entity.Config{GlobalCapacity: 8, SceneCapacity: 56}, diag.NewReporter(col))
	return w, col
}

func resolve(t *testing.T, w *scene.World, id string) entity.Index {
	t.Helper()
	e, ok := w.Ids.Resolve(id)
	require.True(t, ok, id)
	return e
}

func TestLoadScene(t *testing.T) {
	w, col := newWorld()
	doc := `{
		"entities": [
			{"id": "hud", "tags": ["ui"], "global": true,
			 "layout": {"width": 320, "direction": "row"}},
			{"id": "hero", "tags": ["player"],
			 "transform": {"position": {"x": 1, "y": 2, "z": 3},
			               "rotation": {"x": 0, "y": 0, "z": 0, "w": 1},
			               "scale": {"x": 1, "y": 1, "z": 1}},
			 "properties": {"health": 50, "name": "Auric"}},
			{"id": "pet", "parent": "@hero"}
		],
		"rules": [
			{"from": "#player",
			 "do": [{"target": "properties.frames",
			         "value": {"op": "count", "args": [{"var": "id"}]}}]}
		]
	}`
	require.NoError(t, scene.Load([]byte(doc), w))
	assert.Empty(t, col.Records)

	hud := resolve(t, w, "hud")
	hero := resolve(t, w, "hero")
	pet := resolve(t, w, "pet")

	assert.Equal(t, entity.Global, w.Store.PartitionOf(hud))
	assert.Equal(t, entity.Scene, w.Store.PartitionOf(hero))

	layout := entity.Get[entity.Layout](w.Store, hud)
	require.NotNil(t, layout)
	assert.Equal(t, 320.0, layout.Width)
	assert.Equal(t, entity.DirectionRow, layout.Direction)

	tr := entity.Get[entity.Transform](w.Store, hero)
	require.NotNil(t, tr)
	assert.Equal(t, entity.Vec3{X: 1, Y: 2, Z: 3}, tr.Position)
	assert.Equal(t, 50.0, entity.Get[entity.Properties](w.Store, hero).Values["health"])

	parent := entity.Get[entity.Parent](w.Store, pet)
	require.NotNil(t, parent)
	assert.Equal(t, hero, parent.Target)

	require.Equal(t, 1, w.Rules.Len())
	w.RunFrame(1.0 / 60)
	assert.Equal(t, 1.0, entity.Get[entity.Properties](w.Store, hero).Values["frames"])
	assert.Empty(t, col.Records)
}

func TestLoadRequiresEntities(t *testing.T) {
	w, _ := newWorld()
	assert.Error(t, scene.Load([]byte(`{"rules": []}`), w))
	assert.Error(t, scene.Load([]byte(`not json`), w))
	assert.NoError(t, scene.Load([]byte(`{"entities": []}`), w))
}

func TestLoadParentForwardReference(t *testing.T) {
	w, col := newWorld()
	doc := `{"entities": [
		{"id": "child", "parent": "@root"},
		{"id": "root"}
	]}`
	require.NoError(t, scene.Load([]byte(doc), w))
	assert.Empty(t, col.Records)

	parent := entity.Get[entity.Parent](w.Store, resolve(t, w, "child"))
	require.NotNil(t, parent)
	assert.Equal(t, resolve(t, w, "root"), parent.Target)
}

func TestLoadSkipsBadItemsAndContinues(t *testing.T) {
	w, col := newWorld()
	doc := `{
		"entities": [
			{"id": "a"},
			{"id": "a", "tags": ["dupe"]},
			{"id": "b", "properties": {"ok": 1, "bad": {"nested": true}}},
			{"id": "c", "layout": {"direction": "diagonal"}}
		],
		"rules": [
			{"from": "@@broken", "do": []},
			{"from": "@a", "do": [{"target": "velocity.x", "value": 1}]},
			{"from": "@a", "where": {"op": "bogus"}, "do": []},
			{"from": "@a", "do": [{"target": "properties.x", "value": null}]},
			{"from": "@a", "do": [{"target": "properties.x", "value": 7}]}
		]
	}`
	require.NoError(t, scene.Load([]byte(doc), w))

	assert.Equal(t, []string{
		"id already registered",
		"non-scalar property skipped",
		"layout with invalid enum skipped",
		"rule selector rejected",
		"rule mutation target rejected",
		"rule guard rejected",
		"rule mutation value rejected",
	}, col.Messages())

	// The duplicate-id entity still spawned with its other data.
	dupes, ok := w.Tags.Resolve("dupe")
	require.True(t, ok)
	assert.Equal(t, 1, dupes.Count())

	b := resolve(t, w, "b")
	values := entity.Get[entity.Properties](w.Store, b).Values
	assert.Equal(t, 1.0, values["ok"])
	assert.NotContains(t, values, "bad")

	assert.False(t, entity.Has[entity.Layout](w.Store, resolve(t, w, "c")))

	// Only the well-formed rule survived, and it runs.
	require.Equal(t, 1, w.Rules.Len())
	col.Reset()
	w.RunFrame(1.0 / 60)
	a := resolve(t, w, "a")
	assert.Equal(t, 7.0, entity.Get[entity.Properties](w.Store, a).Values["x"])
	assert.Empty(t, col.Records)
}

func TestLoadDiagnosesPartitionExhaustion(t *testing.T) {
	col := &diag.Collector{}
	w := scene.NewWorld(entity.Config{GlobalCapacity: 1, SceneCapacity: 1}, diag.NewReporter(col))

	doc := `{"entities": [{"id": "a"}, {"id": "b"}, {"id": "c"}]}`
	require.NoError(t, scene.Load([]byte(doc), w))
	assert.Equal(t, []string{
		"entity partition exhausted",
		"entity partition exhausted",
	}, col.Messages())

	_, ok := w.Ids.Resolve("a")
	assert.True(t, ok)
	_, ok = w.Ids.Resolve("b")
	assert.False(t, ok)
}
