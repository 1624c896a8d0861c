package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)

func TestStopwatch(t *testing.T) {
	tm, err := Start("cat", "Work/Code", 0, t0)
	require.NoError(t, err)
	assert.True(t, tm.Running())
	assert.False(t, tm.IsCountdown())

	assert.Equal(t, 10*time.Minute, tm.Elapsed(t0.Add(10*time.Minute)))
	assert.Zero(t, tm.Remaining(t0.Add(10*time.Minute)))
	assert.False(t, tm.Expired(t0.Add(10*time.Hour)))
}

func TestPauseResume(t *testing.T) {
	tm, err := Start("cat", "", 0, t0)
	require.NoError(t, err)

	require.NoError(t, tm.Pause(t0.Add(10*time.Minute)))
	assert.False(t, tm.Running())
	assert.ErrorIs(t, tm.Pause(t0.Add(11*time.Minute)), ErrPaused)

	assert.Equal(t, 10*time.Minute, tm.Elapsed(t0.Add(time.Hour)), "paused time does not count")

	require.NoError(t, tm.Resume(t0.Add(time.Hour)))
	assert.ErrorIs(t, tm.Resume(t0.Add(time.Hour)), ErrRunning)
	assert.Equal(t, 15*time.Minute, tm.Elapsed(t0.Add(time.Hour+5*time.Minute)))
}

func TestCountdown(t *testing.T) {
	tm, err := Start("cat", "", 25*time.Minute, t0)
	require.NoError(t, err)
	assert.True(t, tm.IsCountdown())

	assert.Equal(t, 15*time.Minute, tm.Remaining(t0.Add(10*time.Minute)))
	assert.False(t, tm.Expired(t0.Add(24*time.Minute)))
	assert.True(t, tm.Expired(t0.Add(25*time.Minute)))
	assert.Zero(t, tm.Remaining(t0.Add(time.Hour)))
}

func TestStop(t *testing.T) {
	tm, err := Start("cat", "", 0, t0)
	require.NoError(t, err)
	tm.Notes = "focus"

	a, err := tm.Stop(t0.Add(42*time.Minute + 50*time.Second))
	require.NoError(t, err)
	assert.Equal(t, "cat", a.CategoryID)
	assert.Equal(t, t0, a.StartedAt)
	assert.Equal(t, 42, a.DurationMinutes, "whole minutes, truncated")
	assert.Equal(t, "focus", a.Notes)
	assert.False(t, tm.Running())
}

func TestStopCapsAtOneDay(t *testing.T) {
	tm, err := Start("cat", "", 0, t0)
	require.NoError(t, err)

	a, err := tm.Stop(t0.Add(30 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1440, a.DurationMinutes)
}

func TestStopTooShort(t *testing.T) {
	tm, err := Start("cat", "", 0, t0)
	require.NoError(t, err)
	_, err = tm.Stop(t0.Add(59 * time.Second))
	assert.ErrorIs(t, err, ErrTooShort)
}

func TestStartNeedsCategory(t *testing.T) {
	_, err := Start("", "", 0, t0)
	assert.ErrorIs(t, err, ErrNoCategory)
}
