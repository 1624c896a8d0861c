package category

import (
	"testing"

	"github.com/existflow/irontime/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func root(id string, sort int) model.Category {
	return model.Category{ID: id, Name: id, Level: model.LevelRoot, SortOrder: sort, Active: true}
}

func leaf(id, parent string, sort int) model.Category {
	return model.Category{ID: id, Name: id, Level: model.LevelLeaf, ParentID: &parent, SortOrder: sort, Active: true}
}

func ids(cats []model.Category) []string {
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		out = append(out, c.ID)
	}
	return out
}

func rootIDs(forest []Node) []string {
	out := make([]string, 0, len(forest))
	for _, n := range forest {
		out = append(out, n.ID)
	}
	return out
}

func TestBuildNestsChildrenUnderParents(t *testing.T) {
	forest := Build([]model.Category{
		leaf("B", "A", 0),
		root("A", 0),
		root("C", 1),
		leaf("D", "C", 0),
		leaf("E", "A", 1),
	})

	require.Len(t, forest, 2)
	assert.Equal(t, []string{"A", "C"}, rootIDs(forest))
	assert.Equal(t, []string{"B", "E"}, ids(forest[0].Children))
	assert.Equal(t, []string{"D"}, ids(forest[1].Children))
}

func TestBuildSortsBySortOrder(t *testing.T) {
	forest := Build([]model.Category{
		root("late", 5),
		root("early", 1),
		leaf("x2", "early", 2),
		leaf("x1", "early", 1),
	})

	assert.Equal(t, []string{"early", "late"}, rootIDs(forest))
	assert.Equal(t, []string{"x1", "x2"}, ids(forest[0].Children))
	assert.NotNil(t, forest[1].Children)
	assert.Empty(t, forest[1].Children)
}

func TestBuildIsStableOnEqualSortOrder(t *testing.T) {
	forest := Build([]model.Category{root("X", 0), root("Y", 0)})
	assert.Equal(t, []string{"X", "Y"}, rootIDs(forest))

	forest = Build([]model.Category{root("Y", 0), root("X", 0)})
	assert.Equal(t, []string{"Y", "X"}, rootIDs(forest))

	forest = Build([]model.Category{
		root("P", 0),
		leaf("c3", "P", 0),
		leaf("c1", "P", 0),
		leaf("c2", "P", 0),
	})
	assert.Equal(t, []string{"c3", "c1", "c2"}, ids(forest[0].Children))
}

func TestBuildWithOrphans(t *testing.T) {
	weird := model.Category{ID: "deep", Level: 2}
	forest, orphans := BuildWithOrphans([]model.Category{
		root("A", 0),
		leaf("B", "A", 0),
		leaf("lost", "missing", 0),
		leaf("nested", "B", 0),
		weird,
	})

	require.Len(t, forest, 1)
	assert.Equal(t, []string{"B"}, ids(forest[0].Children))
	assert.Equal(t, []string{"lost", "nested", "deep"}, ids(orphans))

	assert.Len(t, Build([]model.Category{leaf("lost", "missing", 0)}), 0)
}

func TestEveryPlaceableRecordAppearsOnce(t *testing.T) {
	input := []model.Category{
		root("r1", 2), root("r2", 1), root("r3", 2),
		leaf("a", "r1", 0), leaf("b", "r2", 0), leaf("c", "r3", 0), leaf("d", "r1", 0),
	}
	forest := Build(input)

	seen := map[string]int{}
	for _, n := range forest {
		seen[n.ID]++
		for _, c := range n.Children {
			seen[c.ID]++
			assert.Equal(t, n.ID, c.Parent())
		}
	}
	for _, c := range input {
		assert.Equal(t, 1, seen[c.ID], c.ID)
	}
}

func TestIndexAndFlatten(t *testing.T) {
	forest := Build([]model.Category{root("A", 0), leaf("B", "A", 0), root("C", 1)})
	idx := Index(forest)

	assert.Equal(t, "A", idx["A"].RootID)
	assert.Equal(t, "A", idx["B"].RootID)
	assert.Equal(t, "C", idx["C"].RootID)
	_, ok := idx["missing"]
	assert.False(t, ok)

	assert.Equal(t, []string{"A", "B", "C"}, ids(Flatten(forest)))
}
