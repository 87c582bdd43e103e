package main

import (
	"math/rand"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/sigil/diag"
	"github.com/plus3/sigil/entity"
	"github.com/plus3/sigil/scene"
)

func buildWorld(t *testing.T, cfg Config, entities, rules int) (*scene.World, *diag.Collector) {
	t.Helper()
	col := &diag.Collector{}
	w := scene.NewWorld(entity.Config{
		GlobalCapacity: cfg.GlobalCapacity,
		SceneCapacity:  cfg.SceneCapacity,
	}, diag.NewReporter(col))
	rng := rand.New(rand.NewSource(cfg.Seed))
	for i := 0; i < entities; i++ {
		require.True(t, spawnRandomEntity(w, cfg, rng, i))
	}
	require.NoError(t, generateRules(w, cfg, rng, rules))
	return w, col
}

func TestGeneratedWorldIsDeterministic(t *testing.T) {
	cfg := defaultConfig()
	cfg.SceneCapacity = 512

	a, _ := buildWorld(t, cfg, 200, 20)
	b, _ := buildWorld(t, cfg, 200, 20)

	assert.Equal(t, a.Rules.Len(), b.Rules.Len())
	assert.Equal(t, a.Selectors.Size(), b.Selectors.Size())
	for e := entity.Index(0); int(e) < cfg.GlobalCapacity+cfg.SceneCapacity; e++ {
		assert.Equal(t, a.Tags.TagsOf(e), b.Tags.TagsOf(e))
		pa := entity.Get[entity.Properties](a.Store, e)
		pb := entity.Get[entity.Properties](b.Store, e)
		if pa == nil {
			assert.Nil(t, pb)
			continue
		}
		require.NotNil(t, pb)
		assert.Equal(t, pa.Values, pb.Values)
	}
}

func TestGeneratedWorldRunsClean(t *testing.T) {
	cfg := defaultConfig()
	cfg.SceneCapacity = 512
	w, col := buildWorld(t, cfg, 300, 30)

	for i := 0; i < 10; i++ {
		w.RunFrame(1.0 / 60)
	}
	assert.Empty(t, col.Records)
}

func TestLoadConfigDefaultsAndOverrides(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)

	path := t.TempDir() + "/stress.yaml"
	require.NoError(t, os.WriteFile(path, []byte("sceneCapacity: 128\ntags: [only]\n"), 0o644))
	cfg, err = loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 128, cfg.SceneCapacity)
	assert.Equal(t, []string{"only"}, cfg.Tags)
	assert.Equal(t, defaultConfig().GlobalCapacity, cfg.GlobalCapacity)

	_, err = loadConfig(t.TempDir() + "/missing.yaml")
	assert.Error(t, err)
}
