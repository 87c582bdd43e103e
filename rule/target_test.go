package rule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/sigil/rule"
)

func TestParseTarget(t *testing.T) {
	cases := []struct {
		path string
		want rule.Target
	}{
		{"properties.health", rule.Target{Kind: rule.TargetProperty, Key: "health"}},
		{"tags.add", rule.Target{Kind: rule.TargetTagAdd}},
		{"tags.remove", rule.Target{Kind: rule.TargetTagRemove}},
		{"id", rule.Target{Kind: rule.TargetId}},
		{"transform.position", rule.Target{Kind: rule.TargetPosition}},
		{"transform.rotation", rule.Target{Kind: rule.TargetRotation}},
		{"transform.scale", rule.Target{Kind: rule.TargetScale}},
		{"parent", rule.Target{Kind: rule.TargetParent}},
		{"layout.flexGrow", rule.Target{Kind: rule.TargetLayout, Key: "flexGrow"}},
		{"layout.direction", rule.Target{Kind: rule.TargetLayout, Key: "direction"}},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			got, err := rule.ParseTarget(tc.path)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.path, got.String())
		})
	}
}

func TestParseTargetRejectsUnknownPaths(t *testing.T) {
	paths := []string{
		"",
		"velocity.x",
		"properties",
		"properties.a.b",
		"tags",
		"tags.toggle",
		"id.suffix",
		"transform",
		"transform.up",
		"parent.id",
		"layout",
		"layout.bogus",
		"layout.computedWidth",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			_, err := rule.ParseTarget(path)
			require.Error(t, err)
			var targetErr *rule.TargetError
			require.ErrorAs(t, err, &targetErr)
			assert.Equal(t, path, targetErr.Path)
		})
	}
}
