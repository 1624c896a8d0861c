package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/existflow/irontime/internal/cache"
	"github.com/existflow/irontime/internal/model"
	"github.com/existflow/irontime/internal/store"
)

// ErrUnknownDomain is returned for a lookup of an unsupported data type
var ErrUnknownDomain = errors.New("unknown data type")

// LookupResult is the response of the caching proxy
type LookupResult struct {
	Data     json.RawMessage `json:"data"`
	Cached   bool            `json:"cached"`
	CacheKey string          `json:"cacheKey"`
}

// Lookup reads one domain of a user's data through the cache
func (s *Service) Lookup(ctx context.Context, userID, domain string, params map[string]string) (LookupResult, error) {
	key, err := keyFor(userID, domain, params)
	if err != nil {
		return LookupResult{}, err
	}

	var (
		data   any
		cached bool
	)
	switch domain {
	case DomainCategories:
		data, cached, err = s.Categories(ctx, userID)
	case DomainTree:
		data, cached, err = s.Tree(ctx, userID)
	case DomainActivities:
		f, _ := ActivityFilterFromParams(params)
		data, cached, err = s.Activities(ctx, userID, f)
	case DomainSleep:
		days, _ := intParam(params, "days")
		data, cached, err = s.SleepLog(ctx, userID, days)
	case DomainDashboard:
		days, _ := intParam(params, "days")
		data, cached, err = readThrough(ctx, s, key, func() (View, error) {
			return s.Dashboard(ctx, userID, days)
		})
	}
	if err != nil {
		return LookupResult{}, err
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return LookupResult{}, fmt.Errorf("encode %s: %w", domain, err)
	}
	return LookupResult{Data: raw, Cached: cached, CacheKey: key}, nil
}

// Invalidate drops cached data and returns how many entries went. An empty
// or "all" domain clears everything of the user; params narrow it to the
// one key Lookup would use for them.
func (s *Service) Invalidate(ctx context.Context, userID, domain string, params map[string]string) (int, error) {
	switch domain {
	case "", "all":
		return s.cache.DeletePrefix(ctx, cache.UserPrefix(userID))
	case DomainTree:
		domain = DomainCategories
	}

	if len(params) == 0 || domain == DomainCategories {
		if _, err := keyFor(userID, domain, nil); err != nil {
			return 0, err
		}
		return s.cache.DeletePrefix(ctx, cache.DomainPrefix(userID, domain))
	}

	key, err := keyFor(userID, domain, params)
	if err != nil {
		return 0, err
	}
	ok, err := s.cache.Delete(ctx, key)
	if err != nil || !ok {
		return 0, err
	}
	return 1, nil
}

// keyFor returns the cache key a domain read with params is stored under.
// The tree is derived from the categories entry.
func keyFor(userID, domain string, params map[string]string) (string, error) {
	switch domain {
	case DomainCategories, DomainTree:
		return categoriesKey(userID), nil
	case DomainActivities:
		f, err := ActivityFilterFromParams(params)
		if err != nil {
			return "", err
		}
		return activitiesKey(userID, f), nil
	case DomainSleep:
		days, err := intParam(params, "days")
		if err != nil {
			return "", err
		}
		return sleepKey(userID, sleepDays(days)), nil
	case DomainDashboard:
		days, err := intParam(params, "days")
		if err != nil {
			return "", err
		}
		return cache.Key(userID, DomainDashboard, map[string]string{"days": itoa(days)}), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDomain, domain)
	}
}

func categoriesKey(userID string) string {
	return cache.Key(userID, DomainCategories, nil)
}

func activitiesKey(userID string, f store.ActivityFilter) string {
	return cache.Key(userID, DomainActivities, f.Params())
}

func sleepKey(userID string, days int) string {
	return cache.Key(userID, DomainSleep, map[string]string{"days": itoa(days)})
}

// sleepDays applies the default two week window
func sleepDays(days int) int {
	if days <= 0 {
		return 14
	}
	return days
}

// ActivityFilterFromParams reads from, to, categories and limit. Times are
// RFC 3339 or plain dates; a plain "to" date covers that whole day.
func ActivityFilterFromParams(params map[string]string) (store.ActivityFilter, error) {
	var f store.ActivityFilter

	if v := params["from"]; v != "" {
		t, _, err := parseTime(v)
		if err != nil {
			return f, model.Invalid("from", "must be a date or RFC 3339 time")
		}
		f.From = &t
	}
	if v := params["to"]; v != "" {
		t, dateOnly, err := parseTime(v)
		if err != nil {
			return f, model.Invalid("to", "must be a date or RFC 3339 time")
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		f.To = &t
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return f, model.Invalid("to", "must not be before from")
	}
	if v := params["categories"]; v != "" {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				f.CategoryIDs = append(f.CategoryIDs, id)
			}
		}
	}
	limit, err := intParam(params, "limit")
	if err != nil {
		return f, err
	}
	f.Limit = limit
	return f, nil
}

func parseTime(v string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, false, nil
	}
	t, err := time.ParseInLocation("2006-01-02", v, time.Local)
	return t, true, err
}

func intParam(params map[string]string, name string) (int, error) {
	v := params[name]
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, model.Invalid(name, "must be a non-negative integer")
	}
	return n, nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
