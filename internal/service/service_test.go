package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/existflow/irontime/internal/cache"
	"github.com/existflow/irontime/internal/events"
	"github.com/existflow/irontime/internal/model"
	"github.com/existflow/irontime/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu         sync.Mutex
	categories []model.Category
	activities []model.Activity
	sleep      []model.SleepEntry
	calls      map[string]int
	failWith   error
}

func newFakeStore() *fakeStore {
	health := "health"
	return &fakeStore{
		categories: []model.Category{
			{ID: "health", UserID: "u1", Name: "Health", Level: model.LevelRoot, DailyGoal: intPtr(60), Active: true},
			{ID: "exercise", UserID: "u1", Name: "Exercise", Level: model.LevelLeaf, ParentID: &health, Active: true},
		},
		calls: map[string]int{},
	}
}

func intPtr(v int) *int { return &v }

func (f *fakeStore) hit(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.failWith
}

func (f *fakeStore) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeStore) ListCategories(_ context.Context, userID string) ([]model.Category, error) {
	if err := f.hit("ListCategories"); err != nil {
		return nil, err
	}
	var out []model.Category
	for _, c := range f.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateCategory(_ context.Context, c model.Category) (model.Category, error) {
	if err := f.hit("CreateCategory"); err != nil {
		return model.Category{}, err
	}
	c.ID = "new-category"
	f.categories = append(f.categories, c)
	return c, nil
}

func (f *fakeStore) UpdateCategory(_ context.Context, userID, id string, patch model.CategoryPatch) (model.Category, error) {
	if err := f.hit("UpdateCategory"); err != nil {
		return model.Category{}, err
	}
	for i, c := range f.categories {
		if c.ID == id && c.UserID == userID {
			f.categories[i] = patch.Apply(c)
			return f.categories[i], nil
		}
	}
	return model.Category{}, store.ErrNotFound
}

func (f *fakeStore) DeleteCategory(_ context.Context, userID, id string) ([]string, error) {
	if err := f.hit("DeleteCategory"); err != nil {
		return nil, err
	}
	return []string{id}, nil
}

func (f *fakeStore) SeedDefaults(_ context.Context, userID string) ([]model.Category, error) {
	if err := f.hit("SeedDefaults"); err != nil {
		return nil, err
	}
	return []model.Category{{ID: "seeded", UserID: userID}}, nil
}

func (f *fakeStore) ListActivities(_ context.Context, userID string, _ store.ActivityFilter) ([]model.Activity, error) {
	if err := f.hit("ListActivities"); err != nil {
		return nil, err
	}
	return append([]model.Activity(nil), f.activities...), nil
}

func (f *fakeStore) CreateActivities(_ context.Context, userID string, acts []model.Activity) ([]model.Activity, error) {
	if err := f.hit("CreateActivities"); err != nil {
		return nil, err
	}
	out := make([]model.Activity, len(acts))
	for i, a := range acts {
		a.ID = "act-" + a.CategoryID
		a.UserID = userID
		out[i] = a
	}
	f.activities = append(f.activities, out...)
	return out, nil
}

func (f *fakeStore) DeleteActivity(_ context.Context, _, _ string) error {
	return f.hit("DeleteActivity")
}

func (f *fakeStore) ListSleep(_ context.Context, _ string, _ *time.Time, _ int) ([]model.SleepEntry, error) {
	if err := f.hit("ListSleep"); err != nil {
		return nil, err
	}
	return f.sleep, nil
}

func (f *fakeStore) CreateSleep(_ context.Context, e model.SleepEntry) (model.SleepEntry, error) {
	if err := f.hit("CreateSleep"); err != nil {
		return model.SleepEntry{}, err
	}
	e.ID = "sleep-1"
	return e, nil
}

func (f *fakeStore) DeleteSleep(_ context.Context, _, _ string) error {
	return f.hit("DeleteSleep")
}

var testNow = time.Date(2024, 3, 6, 15, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *fakeStore, *events.Bus) {
	t.Helper()
	st := newFakeStore()
	bus := events.NewBus()
	svc := New(st, cache.NewMemory().WithClock(func() time.Time { return testNow }), bus, Options{CacheTTL: time.Minute})
	svc.now = func() time.Time { return testNow }
	return svc, st, bus
}

func TestLookupCachesSecondRead(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Lookup(ctx, "u1", DomainCategories, nil)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, "u1:categories:", first.CacheKey)

	second, err := svc.Lookup(ctx, "u1", DomainCategories, nil)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.JSONEq(t, string(first.Data), string(second.Data))
	assert.Equal(t, 1, st.count("ListCategories"))
}

func TestLookupTree(t *testing.T) {
	svc, _, _ := newTestService(t)

	res, err := svc.Lookup(context.Background(), "u1", DomainTree, nil)
	require.NoError(t, err)

	var tree []struct {
		ID       string           `json:"id"`
		Children []model.Category `json:"children"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &tree))
	require.Len(t, tree, 1)
	assert.Equal(t, "health", tree[0].ID)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "exercise", tree[0].Children[0].ID)
}

func TestLookupUnknownDomain(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Lookup(context.Background(), "u1", "projects", nil)
	assert.ErrorIs(t, err, ErrUnknownDomain)
}

func TestLookupRejectsBadParams(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Lookup(context.Background(), "u1", DomainActivities, map[string]string{"limit": "many"})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "limit", verr.Field)
}

func TestLookupStoreErrorIsNotCached(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	st.failWith = errors.New("connection refused")
	_, err := svc.Lookup(ctx, "u1", DomainCategories, nil)
	require.Error(t, err)

	st.failWith = nil
	res, err := svc.Lookup(ctx, "u1", DomainCategories, nil)
	require.NoError(t, err)
	assert.False(t, res.Cached)
}

func TestWriteInvalidatesThenPublishes(t *testing.T) {
	svc, st, bus := newTestService(t)
	ctx := context.Background()

	_, err := svc.Lookup(ctx, "u1", DomainCategories, nil)
	require.NoError(t, err)

	ch, cancel := bus.Subscribe("u1", 4)
	defer cancel()

	_, err = svc.CreateActivity(ctx, model.Activity{UserID: "u1", CategoryID: "exercise", DurationMinutes: 30, StartedAt: testNow})
	require.NoError(t, err)

	select {
	case e := <-ch:
		assert.Equal(t, events.ActivityCreated, e.Type)
		assert.Equal(t, "act-exercise", e.EntityID)
		res, err := svc.Lookup(ctx, "u1", DomainCategories, nil)
		require.NoError(t, err)
		assert.False(t, res.Cached, "cache must be cleared before the event is seen")
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
	assert.Equal(t, 2, st.count("ListCategories"))
}

func TestFailedWritePublishesNothing(t *testing.T) {
	svc, st, bus := newTestService(t)
	ch, cancel := bus.Subscribe("u1", 1)
	defer cancel()

	st.failWith = store.ErrForeignCategory
	_, err := svc.CreateActivity(context.Background(), model.Activity{UserID: "u1", CategoryID: "x", DurationMinutes: 5, StartedAt: testNow})
	assert.ErrorIs(t, err, store.ErrForeignCategory)

	select {
	case e := <-ch:
		t.Fatalf("unexpected event %v", e)
	default:
	}
}

func TestUpdateCategoryRejectsEmptyPatch(t *testing.T) {
	svc, st, _ := newTestService(t)
	_, err := svc.UpdateCategory(context.Background(), "u1", "health", model.CategoryPatch{})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, st.count("UpdateCategory"))
}

func TestDashboard(t *testing.T) {
	svc, st, _ := newTestService(t)
	st.activities = []model.Activity{
		{ID: "a1", UserID: "u1", CategoryID: "exercise", DurationMinutes: 30, StartedAt: testNow.Add(-time.Hour)},
		{ID: "a2", UserID: "u1", CategoryID: "health", DurationMinutes: 15, StartedAt: testNow.AddDate(0, 0, -1)},
	}

	view, err := svc.Dashboard(context.Background(), "u1", 7)
	require.NoError(t, err)

	require.Len(t, view.Tree, 1)
	s := view.Summaries["health"]
	assert.Equal(t, 45, s.TotalTime)
	assert.Equal(t, 30, s.DailyTime)
	assert.Equal(t, 45, s.WeeklyTime)
	require.NotNil(t, s.DailyGoalProgress)
	assert.InDelta(t, 50.0, *s.DailyGoalProgress, 1e-9)
	assert.Equal(t, "Sunday", view.WeekStart)
	assert.Equal(t, testNow, view.GeneratedAt)
	assert.Len(t, view.Days, 4)
}

func TestDashboardReportsOrphans(t *testing.T) {
	svc, st, _ := newTestService(t)
	gone := "gone"
	st.categories = append(st.categories, model.Category{ID: "lost", UserID: "u1", Level: model.LevelLeaf, ParentID: &gone})

	view, err := svc.Dashboard(context.Background(), "u1", 0)
	require.NoError(t, err)
	require.Len(t, view.Orphans, 1)
	assert.Equal(t, "lost", view.Orphans[0].ID)
}

func TestInvalidate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Lookup(ctx, "u1", DomainCategories, nil)
	require.NoError(t, err)
	_, err = svc.Lookup(ctx, "u1", DomainSleep, map[string]string{"days": "7"})
	require.NoError(t, err)

	n, err := svc.Invalidate(ctx, "u1", DomainSleep, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	res, err := svc.Lookup(ctx, "u1", DomainCategories, nil)
	require.NoError(t, err)
	assert.True(t, res.Cached)

	n, err = svc.Invalidate(ctx, "u1", "all", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestInvalidateTargetsLookupKey(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	params := map[string]string{"from": "2024-03-01"}

	first, err := svc.Lookup(ctx, "u1", DomainActivities, params)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	n, err := svc.Invalidate(ctx, "u1", DomainActivities, params)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	next, err := svc.Lookup(ctx, "u1", DomainActivities, params)
	require.NoError(t, err)
	assert.False(t, next.Cached)
	assert.Equal(t, first.CacheKey, next.CacheKey)
	assert.Equal(t, 2, st.count("ListActivities"))

	n, err = svc.Invalidate(ctx, "u1", DomainActivities, map[string]string{"from": "2024-02-01"})
	require.NoError(t, err)
	assert.Zero(t, n, "nothing stored under that key")

	_, err = svc.Lookup(ctx, "u1", DomainSleep, nil)
	require.NoError(t, err)
	n, err = svc.Invalidate(ctx, "u1", DomainSleep, map[string]string{"days": "14"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = svc.Invalidate(ctx, "u1", "projects", nil)
	assert.ErrorIs(t, err, ErrUnknownDomain)
}

func TestInvalidateTreeClearsCategories(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Lookup(ctx, "u1", DomainTree, nil)
	require.NoError(t, err)

	n, err := svc.Invalidate(ctx, "u1", DomainTree, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	res, err := svc.Lookup(ctx, "u1", DomainTree, nil)
	require.NoError(t, err)
	assert.False(t, res.Cached)
}

func TestImportText(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	text := "30m exercise - run\nnonsense line\n# comment"

	dry, err := svc.ImportText(ctx, "u1", text, testNow, false)
	require.NoError(t, err)
	assert.Len(t, dry.Entries, 1)
	assert.Len(t, dry.Errors, 1)
	assert.Empty(t, dry.Created)
	assert.Equal(t, 0, st.count("CreateActivities"))

	committed, err := svc.ImportText(ctx, "u1", text, testNow, true)
	require.NoError(t, err)
	require.Len(t, committed.Created, 1)
	assert.Equal(t, "exercise", committed.Created[0].CategoryID)
	assert.Equal(t, 30, committed.Created[0].DurationMinutes)
	assert.Equal(t, "run", committed.Created[0].Notes)
}

func TestActivityFilterFromParams(t *testing.T) {
	f, err := ActivityFilterFromParams(map[string]string{
		"from":       "2024-03-01",
		"to":         "2024-03-02",
		"categories": "a, b,",
		"limit":      "10",
	})
	require.NoError(t, err)
	require.NotNil(t, f.From)
	require.NotNil(t, f.To)
	assert.Equal(t, 1, f.From.Day())
	assert.Equal(t, 23, f.To.Hour())
	assert.Equal(t, []string{"a", "b"}, f.CategoryIDs)
	assert.Equal(t, 10, f.Limit)

	_, err = ActivityFilterFromParams(map[string]string{"from": "2024-03-05", "to": "2024-03-01"})
	assert.Error(t, err)
}
