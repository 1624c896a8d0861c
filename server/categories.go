package server

import (
	"net/http"
	"strings"

	"github.com/existflow/irontime/internal/model"
	"github.com/labstack/echo/v4"
)

type categoryRequest struct {
	Name       string  `json:"name"`
	Color      string  `json:"color"`
	ParentID   *string `json:"parent_id"`
	SortOrder  int     `json:"sort_order"`
	DailyGoal  *int    `json:"daily_goal"`
	WeeklyGoal *int    `json:"weekly_goal"`
}

func (r categoryRequest) category(userID string) model.Category {
	c := model.Category{
		UserID:     userID,
		Name:       strings.TrimSpace(r.Name),
		Color:      r.Color,
		SortOrder:  r.SortOrder,
		DailyGoal:  r.DailyGoal,
		WeeklyGoal: r.WeeklyGoal,
		Level:      model.LevelRoot,
	}
	if r.ParentID != nil && *r.ParentID != "" {
		c.ParentID = r.ParentID
		c.Level = model.LevelLeaf
	}
	return c
}

func (s *Server) handleListCategories(c echo.Context) error {
	cats, _, err := s.svc.Categories(c.Request().Context(), userID(c))
	if err != nil {
		return fail(c, err)
	}
	if cats == nil {
		cats = []model.Category{}
	}
	return c.JSON(http.StatusOK, cats)
}

func (s *Server) handleCategoryTree(c echo.Context) error {
	tree, _, err := s.svc.Tree(c.Request().Context(), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, tree)
}

func (s *Server) handleCreateCategory(c echo.Context) error {
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}

	created, err := s.svc.CreateCategory(c.Request().Context(), req.category(userID(c)))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) handleUpdateCategory(c echo.Context) error {
	var patch model.CategoryPatch
	if err := c.Bind(&patch); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}

	updated, err := s.svc.UpdateCategory(c.Request().Context(), userID(c), c.Param("id"), patch)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteCategory(c echo.Context) error {
	removed, err := s.svc.DeleteCategory(c.Request().Context(), userID(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"removed": removed})
}

// handleSeedCategories creates the starter categories for an empty account
func (s *Server) handleSeedCategories(c echo.Context) error {
	seeded, err := s.svc.SeedDefaults(c.Request().Context(), userID(c))
	if err != nil {
		return fail(c, err)
	}
	if seeded == nil {
		seeded = []model.Category{}
	}
	return c.JSON(http.StatusOK, map[string]any{"seeded": len(seeded), "categories": seeded})
}
