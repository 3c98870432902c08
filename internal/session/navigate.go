package session

import (
	"context"
	"fmt"

	"github.com/petervd13-web/Recipe33/internal/planner"
	"github.com/petervd13-web/Recipe33/internal/recipe"
	"github.com/petervd13-web/Recipe33/internal/settings"
	"github.com/petervd13-web/Recipe33/internal/shopping"
	"github.com/petervd13-web/Recipe33/internal/storage"
)

// GoHome returns to the planner. Transient cursors (pending plan date,
// open recipe) are dropped; domain state is untouched.
func (c *Controller) GoHome() {
	c.pendingDate = ""
	c.viewingID = ""
	c.view = ViewHome
}

// OpenCookbook shows the saved recipe list.
func (c *Controller) OpenCookbook() {
	c.viewingID = ""
	c.view = ViewCookbook
}

// OpenRecipe opens one saved recipe in the detail view, starting on
// the Balanced tab. An id that no longer resolves degrades to a
// placeholder detail view and reports ErrNotFound.
func (c *Controller) OpenRecipe(id string) error {
	c.viewingID = id
	c.activeKind = recipe.Balanced
	c.view = ViewCookbookDetail
	c.project()
	if c.backing() == nil {
		return ErrNotFound
	}
	return nil
}

// WeekStart returns the Monday anchoring the visible week.
func (c *Controller) WeekStart() planner.Date { return c.weekStart }

// WeekDates returns the seven visible days.
func (c *Controller) WeekDates() [7]planner.Date { return c.weekStart.Week() }

// NextWeek moves the visible window one week forward. A pure view
// cursor: plan data never changes.
func (c *Controller) NextWeek() {
	c.weekStart = c.weekStart.AddDays(7)
}

// PrevWeek moves the visible window one week back.
func (c *Controller) PrevWeek() {
	c.weekStart = c.weekStart.AddDays(-7)
}

// PlanDate starts assigning a recipe to date: the selector opens with
// the date pending until AssignPlan or CancelSelect resolves it.
func (c *Controller) PlanDate(date planner.Date) error {
	if _, err := planner.ParseDate(string(date)); err != nil {
		return err
	}
	c.pendingDate = date
	c.view = ViewRecipeSelector
	return nil
}

// PendingDate returns the date awaiting a recipe in the selector.
func (c *Controller) PendingDate() planner.Date { return c.pendingDate }

// AssignPlan binds (recipe, variation) to the pending date, replacing
// whatever was planned there, and returns to the planner.
func (c *Controller) AssignPlan(ctx context.Context, recipeID string, kind recipe.VariationKind) error {
	if c.pendingDate == "" {
		return fmt.Errorf("no date is awaiting a recipe")
	}
	if !kind.Valid() {
		return fmt.Errorf("unknown variation %q", kind)
	}
	if _, ok := c.cookbook.Find(recipeID); !ok {
		return ErrNotFound
	}

	c.plan = c.plan.Assign(planner.DayPlan{
		Date:      c.pendingDate,
		RecipeID:  recipeID,
		Variation: kind,
	})
	c.pendingDate = ""
	c.view = ViewHome

	c.commit(ctx, storage.SlotWeekPlan)
	return nil
}

// CancelSelect abandons the selector without touching the plan.
func (c *Controller) CancelSelect() {
	c.pendingDate = ""
	c.view = ViewHome
}

// ClearPlan removes the day plan for date unconditionally. Clearing an
// unplanned date is a no-op.
func (c *Controller) ClearPlan(ctx context.Context, date planner.Date) {
	c.plan = c.plan.Clear(date)
	c.commit(ctx, storage.SlotWeekPlan)
}

// OpenShoppingList shows the shopping list for the visible week.
func (c *Controller) OpenShoppingList() {
	c.view = ViewShoppingList
}

// ShoppingSort returns the active presentation ordering.
func (c *Controller) ShoppingSort() shopping.SortMode { return c.shoppingSort }

// SetShoppingSort switches between the by-date and alphabetical
// presentations of the same entries.
func (c *Controller) SetShoppingSort(mode shopping.SortMode) error {
	if mode != shopping.SortByDate && mode != shopping.SortAlphabetical {
		return fmt.Errorf("unknown sort mode %q", mode)
	}
	c.shoppingSort = mode
	return nil
}

// ShoppingItems builds the list for the visible week in the active
// ordering.
func (c *Controller) ShoppingItems() []shopping.Item {
	items := shopping.Build(c.plan, c.cookbook, c.weekStart, c.weekStart.AddDays(6))
	if c.shoppingSort == shopping.SortAlphabetical {
		return shopping.Alphabetical(items)
	}
	return items
}

// IsChecked reports whether the shopping item id is checked off.
func (c *Controller) IsChecked(id string) bool { return c.checked.Has(id) }

// ToggleChecked flips one shopping item's checked state.
func (c *Controller) ToggleChecked(ctx context.Context, id string) {
	c.checked.Toggle(id)
	c.commit(ctx, storage.SlotCheckedItems)
}

// OpenConfig shows the profile settings.
func (c *Controller) OpenConfig() {
	c.view = ViewConfig
}

// UpdateSettings replaces the profile and persists it as a whole.
func (c *Controller) UpdateSettings(ctx context.Context, prefs settings.Settings) error {
	if !prefs.Activity.Valid() {
		return fmt.Errorf("unknown activity level %q", prefs.Activity)
	}
	if prefs.Kitchen == nil {
		prefs.Kitchen = map[string]bool{}
	}
	c.prefs = prefs

	c.commit(ctx, storage.SlotSettings)
	return nil
}
