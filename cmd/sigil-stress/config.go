package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config shapes the generated stress scene. Zero fields fall back to the
// defaults below, so a partial YAML file only overrides what it names.
type Config struct {
	GlobalCapacity int `yaml:"globalCapacity"`
	SceneCapacity  int `yaml:"sceneCapacity"`

	// Tags is the pool entity tags are drawn from; every tag also gets
	// selectors generated against it.
	Tags []string `yaml:"tags"`

	TagsPerEntity       int   `yaml:"tagsPerEntity"`
	PropertiesPerEntity int   `yaml:"propertiesPerEntity"`
	Seed                int64 `yaml:"seed"`
}

func defaultConfig() Config {
	return Config{
		GlobalCapacity: 256,
		SceneCapacity:  65536,
		Tags: []string{
			"enemy", "boss", "minion", "projectile", "pickup",
			"player", "ui", "poisoned", "burning", "shielded",
		},
		TagsPerEntity:       3,
		PropertiesPerEntity: 4,
		Seed:                1,
	}
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	var overrides Config
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	if overrides.GlobalCapacity > 0 {
		cfg.GlobalCapacity = overrides.GlobalCapacity
	}
	if overrides.SceneCapacity > 0 {
		cfg.SceneCapacity = overrides.SceneCapacity
	}
	if len(overrides.Tags) > 0 {
		cfg.Tags = overrides.Tags
	}
	if overrides.TagsPerEntity > 0 {
		cfg.TagsPerEntity = overrides.TagsPerEntity
	}
	if overrides.PropertiesPerEntity > 0 {
		cfg.PropertiesPerEntity = overrides.PropertiesPerEntity
	}
	if overrides.Seed != 0 {
		cfg.Seed = overrides.Seed
	}
	return cfg, nil
}
