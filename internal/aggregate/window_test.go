package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindows(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	tm := time.Date(2024, 3, 6, 1, 30, 0, 0, loc) // Wednesday

	assert.Equal(t, time.Date(2024, 3, 6, 0, 0, 0, 0, loc), StartOfDay(tm))
	assert.Equal(t, time.Date(2024, 3, 6, 23, 59, 59, 999999999, loc), EndOfDay(tm))

	assert.Equal(t, time.Date(2024, 3, 3, 0, 0, 0, 0, loc), StartOfWeek(tm, time.Sunday))
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, loc), StartOfWeek(tm, time.Monday))
	assert.Equal(t, time.Date(2024, 3, 6, 0, 0, 0, 0, loc), StartOfWeek(tm, time.Wednesday))
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, loc), StartOfWeek(tm, time.Thursday))
	assert.Equal(t, time.Date(2024, 3, 9, 23, 59, 59, 999999999, loc), EndOfWeek(tm, time.Sunday))
}

func TestWithinIsInclusive(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)
	assert.True(t, Within(from, from, to))
	assert.True(t, Within(to, from, to))
	assert.False(t, Within(to.Add(time.Nanosecond), from, to))
}

func TestParseWeekday(t *testing.T) {
	d, err := ParseWeekday("Monday")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, d)

	d, err = ParseWeekday(" sat ")
	require.NoError(t, err)
	assert.Equal(t, time.Saturday, d)

	d, err = ParseWeekday("")
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, d)

	_, err = ParseWeekday("someday")
	assert.Error(t, err)
}
