package selector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/sigil/selector"
)

func TestParseChainPrecedence(t *testing.T) {
	// ':' binds tighter than ','.
	node, err := selector.Parse("@player, !enter:#enemies:#boss")
	require.NoError(t, err)
	require.Equal(t, selector.KindUnion, node.Kind())
	require.Len(t, node.Children(), 2)

	byId := node.Children()[0]
	assert.Equal(t, selector.KindById, byId.Kind())
	assert.Equal(t, "player", byId.Key())
	assert.Nil(t, byId.Prior())

	enter := node.Children()[1]
	require.Equal(t, selector.KindCollisionEnter, enter.Kind())
	enemies := enter.Prior()
	require.NotNil(t, enemies)
	assert.Equal(t, selector.KindByTag, enemies.Kind())
	assert.Equal(t, "enemies", enemies.Key())
	boss := enemies.Prior()
	require.NotNil(t, boss)
	assert.Equal(t, selector.KindByTag, boss.Kind())
	assert.Equal(t, "boss", boss.Key())
	assert.Nil(t, boss.Prior())
}

func TestParseNormalizesTagCase(t *testing.T) {
	node, err := selector.Parse("#Enemy")
	require.NoError(t, err)
	assert.Equal(t, "enemy", node.Key())
}

func TestParseKeepsIdCase(t *testing.T) {
	node, err := selector.Parse("@Boss-1")
	require.NoError(t, err)
	assert.Equal(t, "Boss-1", node.Key())
}

func TestParseIgnoresWhitespace(t *testing.T) {
	node, err := selector.Parse("  #a : #b ,\t@c  ")
	require.NoError(t, err)
	require.Equal(t, selector.KindUnion, node.Kind())
	require.Len(t, node.Children(), 2)
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"blank", "   "},
		{"double prefix", "@@x"},
		{"mixed double prefix", "@#x"},
		{"leading separator", ",@x"},
		{"trailing separator", "@x,"},
		{"double separator", "@x,,@y"},
		{"empty identifier", "@"},
		{"empty tag", "# "},
		{"empty atom after colon", "@x:"},
		{"empty atom between colons", "#a::#b"},
		{"unknown atom word", "!explode"},
		{"bare event prefix", "!"},
		{"unexpected character", "player"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := selector.Parse(tc.input)
			require.Error(t, err)
			var parseErr *selector.ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tc.input, parseErr.Input)
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := selector.Parse("@player, @@boss")
	var parseErr *selector.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 9, parseErr.Pos)
	assert.Equal(t, "@@", parseErr.Token)
}
