package model

import (
	"regexp"
	"strings"
	"time"
)

// Category levels
const (
	LevelRoot = 0 // Top-level category, no parent
	LevelLeaf = 1 // Subcategory under a root
)

// MaxMinutesPerDay bounds any single duration or daily goal
const MaxMinutesPerDay = 1440

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Category is a node in the two-level category hierarchy
type Category struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	Name       string    `json:"name" db:"name"`
	Color      string    `json:"color" db:"color"`
	ParentID   *string   `json:"parent_id,omitempty" db:"parent_id"`
	Level      int       `json:"level" db:"level"`
	SortOrder  int       `json:"sort_order" db:"sort_order"`
	DailyGoal  *int      `json:"daily_goal,omitempty" db:"daily_goal"`
	WeeklyGoal *int      `json:"weekly_goal,omitempty" db:"weekly_goal"`
	Active     bool      `json:"active" db:"active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// IsRoot returns true for level-0 categories
func (c *Category) IsRoot() bool {
	return c.Level == LevelRoot
}

// Parent returns the parent id or an empty string
func (c *Category) Parent() string {
	if c.ParentID == nil {
		return ""
	}
	return *c.ParentID
}

// Validate checks the fields a user can set
func (c *Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return Invalid("name", "is required")
	}
	if len(c.Name) > 100 {
		return Invalid("name", "must be at most 100 characters")
	}
	if c.Color != "" && !hexColor.MatchString(c.Color) {
		return Invalid("color", "must be a hex color like #4ECDC4")
	}
	switch c.Level {
	case LevelRoot:
		if c.Parent() != "" {
			return Invalid("parent_id", "root categories cannot have a parent")
		}
	case LevelLeaf:
		if c.Parent() == "" {
			return Invalid("parent_id", "subcategories need a parent")
		}
	default:
		return Invalid("level", "must be 0 or 1")
	}
	if err := validateGoal("daily_goal", c.DailyGoal, MaxMinutesPerDay); err != nil {
		return err
	}
	return validateGoal("weekly_goal", c.WeeklyGoal, 7*MaxMinutesPerDay)
}

func validateGoal(field string, goal *int, max int) error {
	if goal == nil {
		return nil
	}
	if *goal < 0 {
		return Invalid(field, "cannot be negative")
	}
	if *goal > max {
		return Invalid(field, "is longer than the period")
	}
	return nil
}

// CategoryPatch holds the optional fields of a category edit
type CategoryPatch struct {
	Name       *string `json:"name,omitempty"`
	Color      *string `json:"color,omitempty"`
	SortOrder  *int    `json:"sort_order,omitempty"`
	DailyGoal  *int    `json:"daily_goal,omitempty"`
	WeeklyGoal *int    `json:"weekly_goal,omitempty"`
	// ClearGoals removes both goals before applying the values above
	ClearGoals bool `json:"clear_goals,omitempty"`
}

// IsEmpty returns true when the patch changes nothing
func (p CategoryPatch) IsEmpty() bool {
	return p.Name == nil && p.Color == nil && p.SortOrder == nil &&
		p.DailyGoal == nil && p.WeeklyGoal == nil && !p.ClearGoals
}

// Apply returns a copy of c with the patch applied
func (p CategoryPatch) Apply(c Category) Category {
	if p.ClearGoals {
		c.DailyGoal = nil
		c.WeeklyGoal = nil
	}
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.SortOrder != nil {
		c.SortOrder = *p.SortOrder
	}
	if p.DailyGoal != nil {
		c.DailyGoal = p.DailyGoal
	}
	if p.WeeklyGoal != nil {
		c.WeeklyGoal = p.WeeklyGoal
	}
	return c
}

// DefaultCategory describes one entry of the starter set
type DefaultCategory struct {
	Name     string
	Color    string
	Children []string
}

// DefaultCategories is seeded for new accounts
func DefaultCategories() []DefaultCategory {
	return []DefaultCategory{
		{Name: "Health", Color: "#95E1A3", Children: []string{"Exercise", "Walking", "Stretching"}},
		{Name: "Work", Color: "#4ECDC4", Children: []string{"Deep Work", "Meetings", "Email"}},
		{Name: "Learning", Color: "#FFB347", Children: []string{"Reading", "Courses"}},
		{Name: "Mindfulness", Color: "#C3A6FF", Children: []string{"Meditation", "Journaling"}},
		{Name: "Social", Color: "#FF6B6B", Children: []string{"Family", "Friends"}},
	}
}
