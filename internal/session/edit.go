package session

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/petervd13-web/Recipe33/internal/recipe"
	"github.com/petervd13-web/Recipe33/internal/settings"
	"github.com/petervd13-web/Recipe33/internal/storage"
)

// IngredientField names one editable column of the ingredient buffer.
type IngredientField string

const (
	FieldAmount   IngredientField = "amount"
	FieldName     IngredientField = "name"
	FieldCalories IngredientField = "calories"
	FieldProtein  IngredientField = "protein"
	FieldFat      IngredientField = "fat"
	FieldCarbs    IngredientField = "carbs"
)

// backing returns the analysis the edit buffer projects from: the
// saved recipe open in the cookbook, or the unsaved in-memory result.
// Nil when the open recipe id no longer resolves (the view degrades to
// a placeholder) or when nothing has been analyzed yet.
func (c *Controller) backing() *recipe.Analysis {
	if c.viewingID != "" {
		if i := c.cookbook.Index(c.viewingID); i >= 0 {
			return &c.cookbook[i].Analysis
		}
		return nil
	}
	return c.analysis
}

// project replaces the edit buffer with the active variation of the
// backing analysis. Unsaved buffer edits are discarded; that is the
// point of a variation switch.
func (c *Controller) project() {
	base := c.backing()
	if base == nil {
		c.editTitle = ""
		c.editIngredients = nil
		return
	}
	c.editTitle = base.Title
	c.editIngredients = slices.Clone(base.Variations.Get(c.activeKind).Ingredients)
}

// CurrentAnalysis returns the analysis behind the current view, nil
// when there is none.
func (c *Controller) CurrentAnalysis() *recipe.Analysis { return c.backing() }

// ViewingRecipeID returns the id of the cookbook entry open in the
// detail view, or "" in Results.
func (c *Controller) ViewingRecipeID() string { return c.viewingID }

// ActiveVariation returns the selected variation tab.
func (c *Controller) ActiveVariation() recipe.VariationKind { return c.activeKind }

// EditTitle returns the displayed title buffer.
func (c *Controller) EditTitle() string { return c.editTitle }

// SetTitle replaces the displayed title buffer.
func (c *Controller) SetTitle(title string) {
	c.editTitle = title
}

// EditIngredients returns the live ingredient buffer.
func (c *Controller) EditIngredients() []recipe.Ingredient { return c.editIngredients }

// EditTotals aggregates the live buffer. Non-numeric values count as
// zero, so mid-edit text never breaks the running totals.
func (c *Controller) EditTotals() recipe.Totals {
	return recipe.Sum(c.editIngredients)
}

// TargetStatus assesses the live totals against the profile targets.
func (c *Controller) TargetStatus() settings.TargetStatus {
	return c.prefs.Assess(c.EditTotals())
}

// ActiveNotes returns the active variation's notes for display.
func (c *Controller) ActiveNotes() string {
	if base := c.backing(); base != nil {
		return base.Variations.Get(c.activeKind).Notes
	}
	return ""
}

// ActiveSteps returns the active variation's cooking steps for display.
func (c *Controller) ActiveSteps() []recipe.CookingStep {
	if base := c.backing(); base != nil {
		return base.Variations.Get(c.activeKind).Steps
	}
	return nil
}

// SwitchVariation selects another variation tab: a pure projection
// from the backing analysis. In Results any buffer edits are lost; in
// the cookbook detail view they are lost unless UpdateRecipe committed
// them to the stored recipe first.
func (c *Controller) SwitchVariation(kind recipe.VariationKind) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown variation %q", kind)
	}
	if c.backing() == nil {
		return ErrNotFound
	}
	c.activeKind = kind
	c.project()
	return nil
}

// EditIngredient updates one field of one buffer row. The raw input is
// accepted as-is; numeric fields may transiently hold non-numeric text.
func (c *Controller) EditIngredient(index int, field IngredientField, value string) error {
	if index < 0 || index >= len(c.editIngredients) {
		return ErrNotFound
	}
	ing := &c.editIngredients[index]
	switch field {
	case FieldAmount:
		ing.Amount = value
	case FieldName:
		ing.Name = value
	case FieldCalories:
		ing.Calories = value
	case FieldProtein:
		ing.Protein = value
	case FieldFat:
		ing.Fat = value
	case FieldCarbs:
		ing.Carbs = value
	default:
		return fmt.Errorf("unknown ingredient field %q", field)
	}
	return nil
}

// DeleteIngredient removes one buffer row by position.
func (c *Controller) DeleteIngredient(index int) error {
	if index < 0 || index >= len(c.editIngredients) {
		return ErrNotFound
	}
	c.editIngredients = append(c.editIngredients[:index], c.editIngredients[index+1:]...)
	return nil
}

// SaveToCookbook commits the unsaved Results analysis as a new saved
// recipe: the displayed title and the edited buffer merge into the
// active variation only, the other two variations carry over
// unchanged. The new entry is prepended (most recent first) and the
// capture buffers are cleared.
func (c *Controller) SaveToCookbook(ctx context.Context) error {
	if c.viewingID != "" || c.analysis == nil {
		return ErrNotFound
	}

	merged := c.analysis.Clone()
	merged.Title = c.editTitle
	v := merged.Variations.Get(c.activeKind)
	v.Ingredients = slices.Clone(c.editIngredients)
	merged.Variations.Set(c.activeKind, v)

	saved := recipe.SavedRecipe{
		ID:        uuid.NewString(),
		Title:     merged.Title,
		CreatedAt: time.Now().UTC(),
		Analysis:  *merged,
	}
	c.cookbook = append(recipe.Cookbook{saved}, c.cookbook...)

	c.inputText = ""
	c.inputImages = nil
	c.analysis = nil
	c.editTitle = ""
	c.editIngredients = nil
	c.view = ViewCookbook

	c.commit(ctx, storage.SlotCookbook)
	return nil
}

// UpdateRecipe is the cookbook detail's explicit save: the displayed
// title and the edited buffer merge into the stored recipe in place,
// active variation only. Without this call, detail edits vanish on the
// next variation switch.
func (c *Controller) UpdateRecipe(ctx context.Context) error {
	if c.viewingID == "" {
		return ErrNotFound
	}
	i := c.cookbook.Index(c.viewingID)
	if i < 0 {
		return ErrNotFound
	}

	entry := &c.cookbook[i]
	entry.Title = c.editTitle
	entry.Analysis.Title = c.editTitle
	v := entry.Analysis.Variations.Get(c.activeKind)
	v.Ingredients = slices.Clone(c.editIngredients)
	entry.Analysis.Variations.Set(c.activeKind, v)

	c.commit(ctx, storage.SlotCookbook)
	return nil
}

// Refine sends the displayed analysis and a free-text instruction to
// the AI gateway. The response replaces the whole analysis — all three
// variations, overwriting local edits: refinement is authoritative. A
// saved recipe is updated in place; the unsaved Results analysis is
// replaced in memory only. Failure leaves prior state unchanged and is
// reported inline, never retried.
func (c *Controller) Refine(ctx context.Context, instruction string) error {
	if c.busy {
		return ErrBusy
	}
	if strings.TrimSpace(instruction) == "" {
		return ErrNoInput
	}
	base := c.backing()
	if base == nil {
		return ErrNotFound
	}

	c.busy = true
	refined, meta, err := c.gateway.Refine(ctx, c.prefs, base, instruction)
	c.busy = false
	c.recordMeta(ctx, meta)

	if err != nil {
		return err
	}

	if c.viewingID != "" {
		i := c.cookbook.Index(c.viewingID)
		if i < 0 {
			return ErrNotFound
		}
		c.cookbook[i].Analysis = *refined
		c.cookbook[i].Title = refined.Title
		c.project()
		c.commit(ctx, storage.SlotCookbook)
		return nil
	}

	c.analysis = refined
	c.project()
	return nil
}
