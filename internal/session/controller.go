// Package session implements the planning state machine. A single
// Controller owns the view state, the in-progress edit buffers, and
// the four persisted collections (cookbook, week plan, settings,
// checked items). Every transition runs to completion before the next
// user action is processed, and committing transitions end with a
// batched write of the slots they touched.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/petervd13-web/Recipe33/internal/llm"
	"github.com/petervd13-web/Recipe33/internal/metrics"
	"github.com/petervd13-web/Recipe33/internal/planner"
	"github.com/petervd13-web/Recipe33/internal/recipe"
	"github.com/petervd13-web/Recipe33/internal/settings"
	"github.com/petervd13-web/Recipe33/internal/shared"
	"github.com/petervd13-web/Recipe33/internal/shopping"
	"github.com/petervd13-web/Recipe33/internal/storage"
)

// View names one screen of the session. The set is closed; there is no
// terminal view.
type View string

const (
	ViewHome           View = "home"
	ViewShoppingList   View = "shopping_list"
	ViewRecipeSelector View = "recipe_selector"
	ViewCookbook       View = "cookbook"
	ViewCookbookDetail View = "cookbook_detail"
	ViewConfig         View = "config"
	ViewInput          View = "input"
	ViewAnalyzing      View = "analyzing"
	ViewResults        View = "results"
	ViewError          View = "error"
)

var (
	// ErrNoInput marks a withheld action: analyzing without any input,
	// or refining without an instruction. Not a runtime failure.
	ErrNoInput = errors.New("no input: add a photo or some text first")

	// ErrBusy rejects a second gateway call while one is in flight.
	ErrBusy = errors.New("an AI call is already in progress")

	// ErrNotFound marks navigation to an id that no longer resolves.
	ErrNotFound = errors.New("not found")
)

// Controller is the single owner of session state. It is not safe for
// concurrent use; the surface adapter feeds it one action at a time.
type Controller struct {
	store     *storage.Store
	gateway   llm.Gateway
	telemetry *metrics.Store

	view   View
	errMsg string

	cookbook recipe.Cookbook
	plan     planner.WeekPlan
	prefs    settings.Settings
	checked  shopping.Checked

	// Input capture buffers. They survive a failed analysis so the
	// user can retry from Input without re-entering anything.
	inputText   string
	inputImages []llm.Image

	// The unsaved analysis shown in Results, and the edit buffers
	// projected from whichever analysis is currently displayed.
	analysis        *recipe.Analysis
	viewingID       string
	activeKind      recipe.VariationKind
	editTitle       string
	editIngredients []recipe.Ingredient

	weekStart    planner.Date
	pendingDate  planner.Date
	shoppingSort shopping.SortMode

	busy bool
}

// New creates a controller over the given gateways. telemetry may be
// nil to skip usage recording.
func New(store *storage.Store, gateway llm.Gateway, telemetry *metrics.Store) *Controller {
	return &Controller{
		store:        store,
		gateway:      gateway,
		telemetry:    telemetry,
		view:         ViewHome,
		prefs:        settings.Default(),
		checked:      shopping.NewChecked(nil),
		activeKind:   recipe.Balanced,
		weekStart:    planner.NewDate(time.Now()).WeekStart(),
		shoppingSort: shopping.SortByDate,
	}
}

// Load restores the persisted collections. A slot that was never
// written falls back to its default; a structurally incompatible
// payload is logged and treated as absent rather than surfaced as
// corrupt state.
func (c *Controller) Load(ctx context.Context) error {
	c.cookbook = nil
	if data, err := c.store.Load(ctx, storage.SlotCookbook); err != nil {
		return fmt.Errorf("failed to load cookbook: %w", err)
	} else if data != nil {
		var book recipe.Cookbook
		if err := json.Unmarshal(data, &book); err != nil {
			log.Printf("Warning: cookbook slot is corrupt, starting empty: %v", err)
		} else {
			for _, saved := range book {
				if saved.ID == "" || saved.Analysis.Validate() != nil {
					log.Printf("Warning: dropping structurally incomplete cookbook entry %q", saved.ID)
					continue
				}
				c.cookbook = append(c.cookbook, saved)
			}
		}
	}

	c.plan = nil
	if data, err := c.store.Load(ctx, storage.SlotWeekPlan); err != nil {
		return fmt.Errorf("failed to load week plan: %w", err)
	} else if data != nil {
		var plan planner.WeekPlan
		if err := json.Unmarshal(data, &plan); err != nil {
			log.Printf("Warning: week plan slot is corrupt, starting empty: %v", err)
		} else {
			for _, dp := range plan {
				if _, err := planner.ParseDate(string(dp.Date)); err != nil || dp.RecipeID == "" {
					log.Printf("Warning: dropping malformed plan entry for %q", dp.Date)
					continue
				}
				c.plan = append(c.plan, dp)
			}
		}
	}

	c.prefs = settings.Default()
	if data, err := c.store.Load(ctx, storage.SlotSettings); err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	} else if data != nil {
		var prefs settings.Settings
		if err := json.Unmarshal(data, &prefs); err != nil {
			log.Printf("Warning: settings slot is corrupt, using defaults: %v", err)
		} else {
			if prefs.Kitchen == nil {
				prefs.Kitchen = map[string]bool{}
			}
			if !prefs.Activity.Valid() {
				prefs.Activity = settings.Active
			}
			c.prefs = prefs
		}
	}

	c.checked = shopping.NewChecked(nil)
	if data, err := c.store.Load(ctx, storage.SlotCheckedItems); err != nil {
		return fmt.Errorf("failed to load checked items: %w", err)
	} else if data != nil {
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			log.Printf("Warning: checked items slot is corrupt, starting empty: %v", err)
		} else {
			c.checked = shopping.NewChecked(ids)
		}
	}

	c.view = ViewHome
	c.weekStart = planner.NewDate(time.Now()).WeekStart()
	return nil
}

// View returns the current screen.
func (c *Controller) View() View { return c.view }

// ErrorMessage returns the gateway message shown by the Error view.
func (c *Controller) ErrorMessage() string { return c.errMsg }

// Busy reports whether an analyze or refine call is in flight.
func (c *Controller) Busy() bool { return c.busy }

// Cookbook returns the saved recipes, most recent first.
func (c *Controller) Cookbook() recipe.Cookbook { return c.cookbook }

// Plan returns the full day-plan collection.
func (c *Controller) Plan() planner.WeekPlan { return c.plan }

// Settings returns the current user profile.
func (c *Controller) Settings() settings.Settings { return c.prefs }

// commit persists the named slots as one transactional write. A failed
// write is logged, never fatal: the in-memory state has already moved
// on and the session stays interactive.
func (c *Controller) commit(ctx context.Context, slots ...storage.Slot) {
	payloads := make(map[storage.Slot][]byte, len(slots))
	for _, slot := range slots {
		data, err := c.encodeSlot(slot)
		if err != nil {
			log.Printf("Warning: failed to encode slot %s: %v", slot, err)
			continue
		}
		payloads[slot] = data
	}
	if err := c.store.SaveAll(ctx, payloads); err != nil {
		log.Printf("Warning: failed to persist state: %v", err)
	}
}

func (c *Controller) encodeSlot(slot storage.Slot) ([]byte, error) {
	switch slot {
	case storage.SlotCookbook:
		return json.Marshal(c.cookbook)
	case storage.SlotWeekPlan:
		return json.Marshal(c.plan)
	case storage.SlotSettings:
		return json.Marshal(c.prefs)
	case storage.SlotCheckedItems:
		return json.Marshal(c.checked.IDs())
	}
	return nil, fmt.Errorf("unknown slot %s", slot)
}

func (c *Controller) recordMeta(ctx context.Context, meta shared.CallMeta) {
	if c.telemetry == nil {
		return
	}
	if err := c.telemetry.RecordMeta(ctx, meta); err != nil {
		log.Printf("Warning: failed to record metrics for %s: %v", meta.Operation, err)
	}
}
