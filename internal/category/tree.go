// Package category turns the flat category rows of one user into the
// two-level forest the dashboards work with.
package category

import (
	"sort"

	"github.com/existflow/irontime/internal/model"
)

// Node is a root category with its subcategories
type Node struct {
	model.Category
	Children []model.Category `json:"children"`
}

// Build converts a flat list into root nodes with their children.
// Roots and children are stably sorted by SortOrder. Subcategories whose
// parent is not a root in the input are dropped.
func Build(categories []model.Category) []Node {
	forest, _ := BuildWithOrphans(categories)
	return forest
}

// BuildWithOrphans is Build but also returns the records that could not be
// placed: subcategories with a missing or non-root parent and rows with an
// unsupported level.
func BuildWithOrphans(categories []model.Category) ([]Node, []model.Category) {
	forest := make([]Node, 0)
	rootIndex := make(map[string]int)

	for _, c := range categories {
		if c.Level != model.LevelRoot {
			continue
		}
		rootIndex[c.ID] = len(forest)
		forest = append(forest, Node{Category: c, Children: []model.Category{}})
	}

	var orphans []model.Category
	for _, c := range categories {
		if c.Level == model.LevelRoot {
			continue
		}
		if c.Level != model.LevelLeaf {
			orphans = append(orphans, c)
			continue
		}
		i, ok := rootIndex[c.Parent()]
		if !ok {
			orphans = append(orphans, c)
			continue
		}
		forest[i].Children = append(forest[i].Children, c)
	}

	sort.SliceStable(forest, func(i, j int) bool {
		return forest[i].SortOrder < forest[j].SortOrder
	})
	for i := range forest {
		children := forest[i].Children
		sort.SliceStable(children, func(a, b int) bool {
			return children[a].SortOrder < children[b].SortOrder
		})
	}

	return forest, orphans
}

// Ref is a category placed in the forest
type Ref struct {
	Category model.Category
	RootID   string
}

// Index maps every category id in the forest to its placement.
// A root resolves to itself.
func Index(forest []Node) map[string]Ref {
	idx := make(map[string]Ref)
	for _, n := range forest {
		idx[n.ID] = Ref{Category: n.Category, RootID: n.ID}
		for _, c := range n.Children {
			idx[c.ID] = Ref{Category: c, RootID: n.ID}
		}
	}
	return idx
}

// Flatten returns roots and children in display order
func Flatten(forest []Node) []model.Category {
	var out []model.Category
	for _, n := range forest {
		out = append(out, n.Category)
		out = append(out, n.Children...)
	}
	return out
}
