// Package textlog parses free-text time logs such as
//
//	07:30 45m Health/Exercise - morning run
//	Deep Work 1h30m
//	1.5h reading
//
// into activities against a user's category forest.
package textlog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/existflow/irontime/internal/category"
	"github.com/existflow/irontime/internal/model"
)

// Entry is one successfully parsed line
type Entry struct {
	Line            int       `json:"line"`
	CategoryID      string    `json:"category_id"`
	CategoryPath    string    `json:"category_path"`
	StartedAt       time.Time `json:"started_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Notes           string    `json:"notes,omitempty"`
}

// Activity converts the entry to an unsaved activity
func (e Entry) Activity() model.Activity {
	return model.Activity{
		CategoryID:      e.CategoryID,
		StartedAt:       e.StartedAt,
		DurationMinutes: e.DurationMinutes,
		Notes:           e.Notes,
	}
}

// LineError explains why a line was rejected
type LineError struct {
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Result holds parsed entries and per-line failures
type Result struct {
	Entries []Entry     `json:"entries"`
	Errors  []LineError `json:"errors"`
}

var clockRe = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)

// Parse reads one entry per line. Blank lines and lines starting with '#'
// are ignored. Lines without a start time end at ref.
func Parse(text string, forest []category.Node, ref time.Time) Result {
	res := Result{Entries: []Entry{}, Errors: []LineError{}}
	resolver := newResolver(forest)

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entry, err := parseLine(line, resolver, ref)
		if err != nil {
			res.Errors = append(res.Errors, LineError{Line: i + 1, Text: line, Reason: err.Error()})
			continue
		}
		entry.Line = i + 1
		res.Entries = append(res.Entries, entry)
	}
	return res
}

func parseLine(line string, r *resolver, ref time.Time) (Entry, error) {
	var notes string
	if i := strings.Index(line, " - "); i >= 0 {
		notes = strings.TrimSpace(line[i+3:])
		line = strings.TrimSpace(line[:i])
	}

	tokens := strings.Fields(line)
	if len(tokens) < 2 {
		return Entry{}, fmt.Errorf("expected a duration and a category")
	}

	var start *time.Time
	if m := clockRe.FindStringSubmatch(tokens[0]); m != nil && len(tokens) >= 3 && (isDuration(tokens[1]) || isDuration(tokens[len(tokens)-1])) {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		t := time.Date(ref.Year(), ref.Month(), ref.Day(), hour, minute, 0, 0, ref.Location())
		start = &t
		tokens = tokens[1:]
	}

	var durToken string
	var pathTokens []string
	switch {
	case isDuration(tokens[0]):
		durToken, pathTokens = tokens[0], tokens[1:]
	case isDuration(tokens[len(tokens)-1]):
		durToken, pathTokens = tokens[len(tokens)-1], tokens[:len(tokens)-1]
	default:
		return Entry{}, fmt.Errorf("no duration found")
	}

	minutes, err := ParseDuration(durToken)
	if err != nil {
		return Entry{}, err
	}

	path := strings.Join(pathTokens, " ")
	cat, ok := r.resolve(path)
	if !ok {
		return Entry{}, fmt.Errorf("unknown category %q", path)
	}

	startedAt := ref.Add(-time.Duration(minutes) * time.Minute)
	if start != nil {
		startedAt = *start
	}

	return Entry{
		CategoryID:      cat.ID,
		CategoryPath:    r.path(cat),
		StartedAt:       startedAt,
		DurationMinutes: minutes,
		Notes:           notes,
	}, nil
}

var unitReplacer = strings.NewReplacer(
	"hours", "h", "hour", "h", "hrs", "h", "hr", "h",
	"minutes", "m", "minute", "m", "mins", "m", "min", "m",
)

func isDuration(s string) bool {
	_, err := ParseDuration(s)
	return err == nil
}

// ParseDuration reads 45m, 1h, 1h30m, 1.5h, 90 (minutes) or 1:30 into whole
// minutes, rounding to the nearest minute.
func ParseDuration(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || !strings.ContainsAny(s, "0123456789") {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	var minutes int
	if n, err := strconv.Atoi(s); err == nil {
		minutes = n
	} else if h, m, ok := strings.Cut(s, ":"); ok {
		hours, err1 := strconv.Atoi(h)
		mins, err2 := strconv.Atoi(m)
		if err1 != nil || err2 != nil || len(m) != 2 || mins > 59 || hours < 0 {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		minutes = hours*60 + mins
	} else {
		d, err := time.ParseDuration(unitReplacer.Replace(s))
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		minutes = int(d.Round(time.Minute) / time.Minute)
	}

	if minutes <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}
	if minutes > model.MaxMinutesPerDay {
		return 0, fmt.Errorf("duration %q exceeds 24h", s)
	}
	return minutes, nil
}

type resolver struct {
	forest []category.Node
	roots  map[string]string
}

func newResolver(forest []category.Node) *resolver {
	roots := make(map[string]string)
	for _, n := range forest {
		roots[n.ID] = n.Name
	}
	return &resolver{forest: forest, roots: roots}
}

// resolve matches "Root/Leaf" or a single name; a single name prefers a
// subcategory over a root, first match in display order.
func (r *resolver) resolve(path string) (model.Category, bool) {
	parts := strings.Split(path, "/")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch len(parts) {
	case 1:
		for _, n := range r.forest {
			for _, c := range n.Children {
				if strings.EqualFold(c.Name, parts[0]) {
					return c, true
				}
			}
		}
		for _, n := range r.forest {
			if strings.EqualFold(n.Name, parts[0]) {
				return n.Category, true
			}
		}
	case 2:
		for _, n := range r.forest {
			if !strings.EqualFold(n.Name, parts[0]) {
				continue
			}
			for _, c := range n.Children {
				if strings.EqualFold(c.Name, parts[1]) {
					return c, true
				}
			}
		}
	}
	return model.Category{}, false
}

func (r *resolver) path(c model.Category) string {
	if c.IsRoot() {
		return c.Name
	}
	return r.roots[c.Parent()] + "/" + c.Name
}

// Resolve finds the category named by path the same way log lines are
// resolved and returns it with its display path.
func Resolve(forest []category.Node, path string) (model.Category, string, bool) {
	r := newResolver(forest)
	c, ok := r.resolve(path)
	if !ok {
		return model.Category{}, "", false
	}
	return c, r.path(c), true
}
