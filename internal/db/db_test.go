package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/existflow/irontime/internal/model"
	"github.com/existflow/irontime/internal/timer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestTimerPersistence(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	_, err := d.LoadTimer(ctx)
	assert.ErrorIs(t, err, timer.ErrNoTimer)

	start := time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)
	tm, err := timer.Start("cat-1", "Work/Code", 25*time.Minute, start)
	require.NoError(t, err)
	require.NoError(t, tm.Pause(start.Add(10*time.Minute)))
	tm.Notes = "refactor"
	require.NoError(t, d.SaveTimer(ctx, tm))

	loaded, err := d.LoadTimer(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cat-1", loaded.CategoryID)
	assert.Equal(t, "Work/Code", loaded.CategoryPath)
	assert.Equal(t, "refactor", loaded.Notes)
	assert.Equal(t, 25*time.Minute, loaded.Target)
	assert.False(t, loaded.Running())
	assert.Equal(t, 10*time.Minute, loaded.Elapsed(start.Add(time.Hour)))
	assert.True(t, loaded.StartedAt.Equal(start))

	require.NoError(t, loaded.Resume(start.Add(time.Hour)))
	require.NoError(t, d.SaveTimer(ctx, loaded))
	again, err := d.LoadTimer(ctx)
	require.NoError(t, err)
	assert.True(t, again.Running())

	require.NoError(t, d.ClearTimer(ctx))
	_, err = d.LoadTimer(ctx)
	assert.ErrorIs(t, err, timer.ErrNoTimer)
}

func TestCategorySnapshot(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	root := "r"

	require.NoError(t, d.SaveCategories(ctx, "u1", []model.Category{
		{ID: "c", Name: "Code", Level: model.LevelLeaf, ParentID: &root},
		{ID: "r", Name: "Work", Level: model.LevelRoot, DailyGoal: intPtr(120)},
	}))
	require.NoError(t, d.SaveCategories(ctx, "u2", []model.Category{{ID: "x", Name: "Other"}}))

	cats, err := d.Categories(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "r", cats[0].ID, "roots first")
	require.NotNil(t, cats[0].DailyGoal)
	assert.Equal(t, 120, *cats[0].DailyGoal)
	require.NotNil(t, cats[1].ParentID)
	assert.Equal(t, "r", *cats[1].ParentID)

	require.NoError(t, d.SaveCategories(ctx, "u1", nil))
	cats, err = d.Categories(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, cats)

	cats, err = d.Categories(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, cats, 1)
}

func intPtr(v int) *int { return &v }

func TestQueue(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)

	first, err := d.Enqueue(ctx, model.Activity{CategoryID: "a", StartedAt: at, DurationMinutes: 30, Notes: "n"})
	require.NoError(t, err)
	second, err := d.Enqueue(ctx, model.Activity{CategoryID: "b", StartedAt: at, DurationMinutes: 15})
	require.NoError(t, err)

	n, err := d.PendingCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	pending, err := d.Pending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, first.ID, pending[0].ID)
	act := pending[0].Activity()
	assert.Equal(t, "a", act.CategoryID)
	assert.Equal(t, 30, act.DurationMinutes)
	assert.Equal(t, "n", act.Notes)

	require.NoError(t, d.MarkFailed(ctx, []uint{second.ID}, errors.New("bad category")))
	require.NoError(t, d.MarkFailed(ctx, []uint{second.ID}, errors.New("still bad")))
	require.NoError(t, d.RemovePending(ctx, []uint{first.ID}))

	pending, err = d.Pending(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)
	n, err = d.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	rejected, err := d.Rejected(ctx)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, second.ID, rejected[0].ID)
	assert.Equal(t, 2, rejected[0].Attempts)
	assert.Equal(t, "still bad", rejected[0].LastError)
}

func TestRejectedEntriesDoNotBlockQueue(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)

	var bad []uint
	for i := 0; i < 5; i++ {
		p, err := d.Enqueue(ctx, model.Activity{CategoryID: "gone", StartedAt: at, DurationMinutes: 10})
		require.NoError(t, err)
		bad = append(bad, p.ID)
	}
	good, err := d.Enqueue(ctx, model.Activity{CategoryID: "good", StartedAt: at, DurationMinutes: 10})
	require.NoError(t, err)
	require.NoError(t, d.MarkFailed(ctx, bad, errors.New("unknown category")))

	pending, err := d.Pending(ctx, 5)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, good.ID, pending[0].ID)
}
