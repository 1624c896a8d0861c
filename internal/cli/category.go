package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/existflow/irontime/internal/category"
	"github.com/existflow/irontime/internal/client"
	"github.com/existflow/irontime/internal/model"
	"github.com/existflow/irontime/internal/textlog"
	"github.com/spf13/cobra"
)

var categoryCmd = &cobra.Command{
	Use:     "category",
	Aliases: []string{"cat"},
	Short:   "Manage categories",
	Long: `Manage the two-level category tree.

Examples:
  irontime category list
  irontime category new Health --daily 60
  irontime category new Running --parent Health
  irontime category goal Health --weekly 300
  irontime category rm Health/Running`,
}

var categoryListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Show the category tree",
	RunE:    runCategoryList,
}

var categoryNewCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Create a category",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCategoryNew,
}

var categoryRmCmd = &cobra.Command{
	Use:     "rm [path]",
	Aliases: []string{"delete"},
	Short:   "Delete a category, its subcategories and their activities",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runCategoryRm,
}

var categoryGoalCmd = &cobra.Command{
	Use:   "goal [path]",
	Short: "Set or clear daily and weekly goals",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCategoryGoal,
}

var categorySeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the starter categories on an empty account",
	RunE:  runCategorySeed,
}

var (
	catParent string
	catColor  string
	catDaily  int
	catWeekly int
	catClear  bool
	catRename string
)

func init() {
	categoryCmd.AddCommand(categoryListCmd)
	categoryCmd.AddCommand(categoryNewCmd)
	categoryCmd.AddCommand(categoryRmCmd)
	categoryCmd.AddCommand(categoryGoalCmd)
	categoryCmd.AddCommand(categorySeedCmd)

	categoryNewCmd.Flags().StringVarP(&catParent, "parent", "p", "", "Parent category for a subcategory")
	categoryNewCmd.Flags().StringVarP(&catColor, "color", "c", "", "Hex color, e.g. #4ECDC4")
	categoryNewCmd.Flags().IntVar(&catDaily, "daily", 0, "Daily goal in minutes")
	categoryNewCmd.Flags().IntVar(&catWeekly, "weekly", 0, "Weekly goal in minutes")

	categoryGoalCmd.Flags().IntVar(&catDaily, "daily", 0, "Daily goal in minutes")
	categoryGoalCmd.Flags().IntVar(&catWeekly, "weekly", 0, "Weekly goal in minutes")
	categoryGoalCmd.Flags().BoolVar(&catClear, "clear", false, "Remove both goals")
	categoryGoalCmd.Flags().StringVar(&catRename, "rename", "", "New name")
}

func runCategoryList(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	tree, err := c.Tree(context.Background())
	if err != nil {
		return err
	}
	if len(tree) == 0 {
		fmt.Println("No categories yet. Create some with: irontime category seed")
		return nil
	}

	fmt.Println()
	for _, root := range tree {
		fmt.Printf("📁 %s%s\n", root.Name, goals(root.Category))
		for _, child := range root.Children {
			fmt.Printf("   └─ %s%s\n", child.Name, goals(child))
		}
	}
	fmt.Println()
	return nil
}

func goals(c model.Category) string {
	var parts []string
	if c.DailyGoal != nil && *c.DailyGoal > 0 {
		parts = append(parts, formatMinutes(*c.DailyGoal)+"/day")
	}
	if c.WeeklyGoal != nil && *c.WeeklyGoal > 0 {
		parts = append(parts, formatMinutes(*c.WeeklyGoal)+"/week")
	}
	if len(parts) == 0 {
		return ""
	}
	return "  (" + strings.Join(parts, ", ") + ")"
}

// findCategory resolves a path against the server tree
func findCategory(ctx context.Context, c *client.Client, path string) (model.Category, string, error) {
	tree, err := c.Tree(ctx)
	if err != nil {
		return model.Category{}, "", err
	}
	return lookup(tree, path)
}

func lookup(tree []category.Node, path string) (model.Category, string, error) {
	cat, display, ok := textlog.Resolve(tree, path)
	if !ok {
		return model.Category{}, "", fmt.Errorf("category not found: %s", path)
	}
	return cat, display, nil
}

func runCategoryNew(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	req := client.NewCategory{Name: strings.Join(args, " "), Color: catColor}
	if catParent != "" {
		parent, _, err := findCategory(ctx, c, catParent)
		if err != nil {
			return err
		}
		if !parent.IsRoot() {
			return fmt.Errorf("%s is a subcategory; only two levels are supported", catParent)
		}
		req.ParentID = &parent.ID
	}
	if cmd.Flags().Changed("daily") {
		req.DailyGoal = &catDaily
	}
	if cmd.Flags().Changed("weekly") {
		req.WeeklyGoal = &catWeekly
	}

	created, err := c.CreateCategory(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Created %s\n", created.Name)
	return nil
}

func runCategoryRm(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	cat, display, err := findCategory(ctx, c, strings.Join(args, " "))
	if err != nil {
		return err
	}
	if !confirm(fmt.Sprintf("Delete %s with its subcategories and logged time?", display)) {
		fmt.Println("Cancelled.")
		return nil
	}

	removed, err := c.DeleteCategory(ctx, cat.ID)
	if err != nil {
		return err
	}
	fmt.Printf("🗑  Deleted %s (%d categories)\n", display, len(removed))
	return nil
}

func runCategoryGoal(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	cat, display, err := findCategory(ctx, c, strings.Join(args, " "))
	if err != nil {
		return err
	}

	patch := model.CategoryPatch{ClearGoals: catClear}
	if cmd.Flags().Changed("daily") {
		patch.DailyGoal = &catDaily
	}
	if cmd.Flags().Changed("weekly") {
		patch.WeeklyGoal = &catWeekly
	}
	if catRename != "" {
		patch.Name = &catRename
	}
	if patch.IsEmpty() {
		return fmt.Errorf("nothing to change, use --daily, --weekly, --clear or --rename")
	}

	updated, err := c.UpdateCategory(ctx, cat.ID, patch)
	if err != nil {
		return err
	}
	fmt.Printf("✓ %s%s\n", display, goals(updated))
	return nil
}

func runCategorySeed(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	n, err := c.SeedCategories(context.Background())
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Println("You already have categories; nothing seeded.")
		return nil
	}
	fmt.Printf("✓ Seeded %d categories\n", n)
	return nil
}
