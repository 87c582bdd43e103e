package diag_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/sigil/diag"
)

func TestReporterBuildsContextFromPairs(t *testing.T) {
	col := &diag.Collector{}
	r := diag.NewReporter(col)

	r.Report("invalid tag rejected", "tag", "Bad Tag", "entity", 7)
	require.Len(t, col.Records, 1)
	rec := col.Records[0]
	assert.Equal(t, "invalid tag rejected", rec.Message)
	assert.Equal(t, map[string]any{"tag": "Bad Tag", "entity": 7}, rec.Context)
}

func TestReporterDropsTrailingKey(t *testing.T) {
	col := &diag.Collector{}
	r := diag.NewReporter(col)

	r.Report("odd pairs", "key", 1, "dangling")
	require.Len(t, col.Records, 1)
	assert.Equal(t, map[string]any{"key": 1}, col.Records[0].Context)
}

func TestZeroReporterDiscards(t *testing.T) {
	var r diag.Reporter
	r.Report("nobody listening", "k", "v")
}

func TestCollectorMessages(t *testing.T) {
	col := &diag.Collector{}
	r := diag.NewReporter(col)
	r.Report("first")
	r.Report("second")
	assert.Equal(t, []string{"first", "second"}, col.Messages())
	col.Reset()
	assert.Empty(t, col.Messages())
}
