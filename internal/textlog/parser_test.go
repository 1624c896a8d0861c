package textlog

import (
	"testing"
	"time"

	"github.com/existflow/irontime/internal/category"
	"github.com/existflow/irontime/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testForest() []category.Node {
	health, work := "health", "work"
	return category.Build([]model.Category{
		{ID: "health", Name: "Health", Level: model.LevelRoot, SortOrder: 0},
		{ID: "work", Name: "Work", Level: model.LevelRoot, SortOrder: 1},
		{ID: "run", Name: "Running", Level: model.LevelLeaf, ParentID: &health},
		{ID: "deep", Name: "Deep Work", Level: model.LevelLeaf, ParentID: &work},
		{ID: "wrun", Name: "Running", Level: model.LevelLeaf, ParentID: &work, SortOrder: 1},
	})
}

var ref = time.Date(2024, 3, 6, 18, 0, 0, 0, time.UTC)

func TestParseDuration(t *testing.T) {
	cases := map[string]int{
		"45m":     45,
		"1h":      60,
		"1h30m":   90,
		"1.5h":    90,
		"90":      90,
		"1:30":    90,
		"0:05":    5,
		"2hrs":    120,
		"20min":   20,
		"1hr15min": 75,
		"24h":     1440,
	}
	for in, want := range cases {
		got, err := ParseDuration(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "abc", "0", "-5", "1:5", "1:75", "25h", "1h30", "h"} {
		_, err := ParseDuration(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseLines(t *testing.T) {
	text := `# morning
07:30 45m Health/Running - easy pace

Deep Work 1h30m
1:30 running
work/running 20m - commute ride`

	res := Parse(text, testForest(), ref)
	require.Empty(t, res.Errors)
	require.Len(t, res.Entries, 4)

	e := res.Entries[0]
	assert.Equal(t, 2, e.Line)
	assert.Equal(t, "run", e.CategoryID)
	assert.Equal(t, "Health/Running", e.CategoryPath)
	assert.Equal(t, time.Date(2024, 3, 6, 7, 30, 0, 0, time.UTC), e.StartedAt)
	assert.Equal(t, 45, e.DurationMinutes)
	assert.Equal(t, "easy pace", e.Notes)

	e = res.Entries[1]
	assert.Equal(t, "deep", e.CategoryID)
	assert.Equal(t, 90, e.DurationMinutes)
	assert.Equal(t, ref.Add(-90*time.Minute), e.StartedAt)

	e = res.Entries[2]
	assert.Equal(t, "run", e.CategoryID, "single name matches the first subcategory")
	assert.Equal(t, 90, e.DurationMinutes)

	e = res.Entries[3]
	assert.Equal(t, "wrun", e.CategoryID)
	assert.Equal(t, "commute ride", e.Notes)

	a := e.Activity()
	assert.Equal(t, "wrun", a.CategoryID)
	assert.NoError(t, a.Validate())
}

func TestParseRootAndErrors(t *testing.T) {
	text := "Work 2h\nGardening 30m\nHealth\n30m Health/Nope\n25h Work"
	res := Parse(text, testForest(), ref)

	require.Len(t, res.Entries, 1)
	assert.Equal(t, "work", res.Entries[0].CategoryID)
	assert.Equal(t, "Work", res.Entries[0].CategoryPath)

	require.Len(t, res.Errors, 4)
	assert.Equal(t, 2, res.Errors[0].Line)
	assert.Contains(t, res.Errors[0].Reason, "unknown category")
	assert.Contains(t, res.Errors[1].Reason, "expected a duration")
	assert.Contains(t, res.Errors[2].Reason, "unknown category")
	assert.Contains(t, res.Errors[3].Error(), "line 5")
}

func TestParseEmpty(t *testing.T) {
	res := Parse("\n  \n# nothing\n", testForest(), ref)
	assert.Empty(t, res.Entries)
	assert.Empty(t, res.Errors)
}

func TestResolve(t *testing.T) {
	c, path, ok := Resolve(testForest(), "work/running")
	require.True(t, ok)
	assert.Equal(t, "wrun", c.ID)
	assert.Equal(t, "Work/Running", path)

	c, path, ok = Resolve(testForest(), "Work")
	require.True(t, ok)
	assert.Equal(t, "work", c.ID)
	assert.Equal(t, "Work", path)

	_, _, ok = Resolve(testForest(), "Gardening")
	assert.False(t, ok)
}
