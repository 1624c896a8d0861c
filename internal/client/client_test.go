package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/existflow/irontime/internal/db"
	"github.com/existflow/irontime/internal/events"
	"github.com/existflow/irontime/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) (*Client, string) {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	path := filepath.Join(t.TempDir(), "client.json")
	return New(ts.URL, path), path
}

func TestLoginPersistsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "secret123" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":"invalid credentials"}`)
			return
		}
		fmt.Fprint(w, `{"token":"tok","user_id":"u1","expires_at":"2030-01-01T00:00:00Z"}`)
	})
	mux.HandleFunc("/api/v1/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"id":"u1","username":"ada"}`)
	})

	c, path := newTestClient(t, mux)
	ctx := context.Background()

	err := c.Login(ctx, "ada", "wrong")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Contains(t, err.Error(), "invalid credentials")
	assert.False(t, c.IsLoggedIn())

	require.NoError(t, c.Login(ctx, "ada", "secret123"))
	assert.True(t, c.IsLoggedIn())

	reloaded := New("", path)
	assert.Equal(t, "tok", reloaded.Session().Token)
	assert.Equal(t, "ada", reloaded.Session().Username)
	assert.Equal(t, c.ServerURL(), reloaded.ServerURL())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ada", me.Username)
}

func TestCallsNeedSession(t *testing.T) {
	c := New("http://127.0.0.1:1", filepath.Join(t.TempDir(), "client.json"))
	_, err := c.Categories(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestLogoutClearsSessionEvenWhenUnauthorized(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	c, path := newTestClient(t, mux)
	c.session.Token = "tok"
	c.session.Salt = "c2FsdA=="
	require.NoError(t, c.saveSession())

	require.NoError(t, c.Logout(context.Background()))
	assert.False(t, c.IsLoggedIn())
	assert.Equal(t, "c2FsdA==", New("", path).Session().Salt, "salt survives logout")
}

func TestActivityQueryValues(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	v := ActivityQuery{From: &from, CategoryIDs: []string{"a", "b"}, Limit: 5}.values()
	assert.Equal(t, "2024-03-01T00:00:00Z", v.Get("from"))
	assert.Equal(t, "a,b", v.Get("categories"))
	assert.Equal(t, "5", v.Get("limit"))
	assert.Empty(t, v.Get("to"))
}

func TestDashboardAndCacheCalls(t *testing.T) {
	var days []string
	var bodies []map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/dashboard", func(w http.ResponseWriter, r *http.Request) {
		days = append(days, r.URL.Query().Get("days"))
		fmt.Fprint(w, `{"tree":[],"summaries":{},"week_start":"Monday"}`)
	})
	mux.HandleFunc("/api/v1/cache", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		if body["invalidate"] == true {
			fmt.Fprint(w, `{"success":true,"removed":2}`)
			return
		}
		fmt.Fprint(w, `{"data":[{"id":"c1"}],"cached":true,"cacheKey":"u1:categories:"}`)
	})
	c, _ := newTestClient(t, mux)
	c.session.Token = "tok"
	ctx := context.Background()

	v, err := c.Dashboard(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "Monday", v.WeekStart)
	_, err = c.Dashboard(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"0", ""}, days)

	res, err := c.Lookup(ctx, "categories", nil)
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, "u1:categories:", res.CacheKey)
	assert.JSONEq(t, `[{"id":"c1"}]`, string(res.Data))

	require.NoError(t, c.Invalidate(ctx, "all"))
	require.Len(t, bodies, 2)
	assert.Equal(t, "all", bodies[1]["type"])
}

func TestWatch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": connected\n\n")
		fmt.Fprint(w, "event: activity.created\ndata: {\"type\":\"activity.created\",\"user_id\":\"u1\",\"entity_id\":\"a1\"}\n\n")
		fmt.Fprint(w, ": ping\n\n")
		fmt.Fprint(w, "data: not json\n\n")
		fmt.Fprint(w, "event: sleep.deleted\ndata: {\"type\":\"sleep.deleted\",\"user_id\":\"u1\"}\n\n")
	})
	c, _ := newTestClient(t, mux)
	c.session.Token = "tok"

	var got []events.Event
	err := c.Watch(context.Background(), func(e events.Event) { got = append(got, e) })
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, events.ActivityCreated, got[0].Type)
	assert.Equal(t, "a1", got[0].EntityID)
	assert.Equal(t, events.SleepDeleted, got[1].Type)
}

func TestCryptoNotes(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)
	c := NewCrypto("passphrase", salt)

	sealed, err := c.EncryptNotes("private thoughts")
	require.NoError(t, err)
	assert.True(t, IsEncrypted(sealed))
	assert.NotContains(t, sealed, "private")

	again, err := c.EncryptNotes(sealed)
	require.NoError(t, err)
	assert.Equal(t, sealed, again, "already sealed notes are left alone")

	plain, err := c.DecryptNotes(sealed)
	require.NoError(t, err)
	assert.Equal(t, "private thoughts", plain)

	_, err = NewCrypto("other", salt).DecryptNotes(sealed)
	assert.Error(t, err)

	empty, err := c.EncryptNotes("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	passthrough, err := c.DecryptNotes("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", passthrough)
}

func TestClientCryptoStoresSalt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.json")
	c := New("http://localhost", path)

	first, err := c.Crypto("pw")
	require.NoError(t, err)
	sealed, err := first.EncryptNotes("x")
	require.NoError(t, err)

	second, err := New("", path).Crypto("pw")
	require.NoError(t, err)
	plain, err := second.DecryptNotes(sealed)
	require.NoError(t, err)
	assert.Equal(t, "x", plain)
}

func openQueue(t *testing.T) *db.DB {
	t.Helper()
	q, err := db.Open(filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })
	return q
}

func TestUploaderSkipsRejectedEntries(t *testing.T) {
	var calls atomic.Int32
	var stored []string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/activities/bulk", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var body struct {
			Activities []NewActivity `json:"activities"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		for _, a := range body.Activities {
			if a.CategoryID == "gone" {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `{"error":"category does not exist or belongs to another user"}`)
				return
			}
			assert.True(t, IsEncrypted(a.Notes) || a.Notes == "")
		}
		for _, a := range body.Activities {
			stored = append(stored, a.CategoryID)
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"created":[]}`)
	})
	c, _ := newTestClient(t, mux)
	c.session.Token = "tok"

	ctx := context.Background()
	q := openQueue(t)
	at := time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)
	for _, a := range []model.Activity{
		{CategoryID: "gone", StartedAt: at, DurationMinutes: 10},
		{CategoryID: "gone", StartedAt: at, DurationMinutes: 10},
		{CategoryID: "gone", StartedAt: at, DurationMinutes: 10},
		{CategoryID: "a", StartedAt: at, DurationMinutes: 10, Notes: "secret"},
		{CategoryID: "b", StartedAt: at, DurationMinutes: 10},
	} {
		_, err := q.Enqueue(ctx, a)
		require.NoError(t, err)
	}
	salt, err := GenerateSalt()
	require.NoError(t, err)

	u := NewUploader(c, q).WithCrypto(NewCrypto("pw", salt))
	u.batch = 2
	sent, err := u.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, []string{"a", "b"}, stored)

	left, err := q.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, left)
	rejected, err := q.Rejected(ctx)
	require.NoError(t, err)
	require.Len(t, rejected, 3)
	assert.Contains(t, rejected[0].LastError, "belongs to another user")

	before := calls.Load()
	sent, err = u.Flush(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Equal(t, before, calls.Load(), "rejected entries are not retried")
}

func TestUploaderStopsOnServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/activities/bulk", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c, _ := newTestClient(t, mux)
	c.session.Token = "tok"

	ctx := context.Background()
	q := openQueue(t)
	_, err := q.Enqueue(ctx, model.Activity{CategoryID: "a", DurationMinutes: 5})
	require.NoError(t, err)

	sent, err := NewUploader(c, q).Flush(ctx)
	assert.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
	assert.Zero(t, sent)

	left, err := q.PendingCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, left)
	rejected, err := q.Rejected(ctx)
	require.NoError(t, err)
	assert.Empty(t, rejected)
}
