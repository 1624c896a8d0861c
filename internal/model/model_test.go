package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestCategoryValidate(t *testing.T) {
	parent := "root-1"

	tests := []struct {
		name    string
		cat     Category
		wantErr string
	}{
		{"valid root", Category{Name: "Health", Color: "#95E1A3", Level: LevelRoot}, ""},
		{"valid leaf", Category{Name: "Run", Color: "#abc", Level: LevelLeaf, ParentID: &parent}, ""},
		{"empty name", Category{Name: "  ", Level: LevelRoot}, "name"},
		{"bad color", Category{Name: "x", Color: "red", Level: LevelRoot}, "color"},
		{"root with parent", Category{Name: "x", Level: LevelRoot, ParentID: &parent}, "parent_id"},
		{"leaf without parent", Category{Name: "x", Level: LevelLeaf}, "parent_id"},
		{"level two", Category{Name: "x", Level: 2, ParentID: &parent}, "level"},
		{"negative goal", Category{Name: "x", Level: LevelRoot, DailyGoal: intPtr(-1)}, "daily_goal"},
		{"daily goal too long", Category{Name: "x", Level: LevelRoot, DailyGoal: intPtr(1441)}, "daily_goal"},
		{"weekly goal ok", Category{Name: "x", Level: LevelRoot, WeeklyGoal: intPtr(600)}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cat.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantErr, verr.Field)
		})
	}
}

func TestCategoryPatchApply(t *testing.T) {
	c := Category{Name: "Old", Color: "#000", DailyGoal: intPtr(30), WeeklyGoal: intPtr(200)}

	patched := CategoryPatch{Name: strPtr("  New "), WeeklyGoal: intPtr(300)}.Apply(c)
	assert.Equal(t, "New", patched.Name)
	assert.Equal(t, 30, *patched.DailyGoal)
	assert.Equal(t, 300, *patched.WeeklyGoal)
	assert.Equal(t, "Old", c.Name, "original is not modified")

	cleared := CategoryPatch{ClearGoals: true, DailyGoal: intPtr(15)}.Apply(c)
	assert.Equal(t, 15, *cleared.DailyGoal)
	assert.Nil(t, cleared.WeeklyGoal)

	assert.True(t, CategoryPatch{}.IsEmpty())
	assert.False(t, CategoryPatch{ClearGoals: true}.IsEmpty())
}

func TestActivityValidate(t *testing.T) {
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	a := Activity{CategoryID: "c", StartedAt: now, DurationMinutes: 30}
	assert.NoError(t, a.Validate())
	assert.Equal(t, now.Add(30*time.Minute), a.EndsAt())

	a.DurationMinutes = 1441
	assert.Error(t, a.Validate())

	a.DurationMinutes = -5
	assert.Error(t, a.Validate())

	a = Activity{StartedAt: now, DurationMinutes: 5}
	assert.Error(t, a.Validate())
}

func TestSleepEntry(t *testing.T) {
	bed := time.Date(2024, 3, 3, 23, 0, 0, 0, time.UTC)
	s := SleepEntry{BedTime: bed, WakeTime: bed.Add(7*time.Hour + 30*time.Minute)}
	require.NoError(t, s.Validate())
	assert.Equal(t, 450, s.Minutes())

	s.Quality = intPtr(6)
	assert.Error(t, s.Validate())

	s = SleepEntry{BedTime: bed, WakeTime: bed.Add(-time.Hour)}
	assert.Error(t, s.Validate())
	assert.Equal(t, 0, s.Minutes())
}

func TestSessionIsExpired(t *testing.T) {
	now := time.Now()
	s := Session{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, s.IsExpired(now))
	assert.True(t, s.IsExpired(now.Add(2*time.Minute)))
}
