package session

import (
	"context"
	"strings"

	"github.com/petervd13-web/Recipe33/internal/llm"
	"github.com/petervd13-web/Recipe33/internal/recipe"
)

// StartNewRecipe opens the Input view. The capture buffers are kept as
// they are: a user coming back after a failed analysis finds their
// text and photos still in place.
func (c *Controller) StartNewRecipe() {
	c.view = ViewInput
}

// ReturnToInput leaves the Error (or Results) view and resumes
// capture. The failed attempt's partial state is dropped; the buffers
// survive.
func (c *Controller) ReturnToInput() {
	c.errMsg = ""
	c.view = ViewInput
}

// SetInputText replaces the free-text capture buffer.
func (c *Controller) SetInputText(text string) {
	c.inputText = text
}

// InputText returns the free-text capture buffer.
func (c *Controller) InputText() string { return c.inputText }

// AddImage appends one captured image blob.
func (c *Controller) AddImage(format string, data []byte) {
	c.inputImages = append(c.inputImages, llm.Image{Format: format, Data: data})
}

// RemoveImage drops the image at index.
func (c *Controller) RemoveImage(index int) error {
	if index < 0 || index >= len(c.inputImages) {
		return ErrNotFound
	}
	c.inputImages = append(c.inputImages[:index], c.inputImages[index+1:]...)
	return nil
}

// ImageCount returns how many images are captured.
func (c *Controller) ImageCount() int { return len(c.inputImages) }

// CanAnalyze reports whether the analyze action is available: at least
// one image or non-empty text. Calling Analyze without input is a
// withheld action, not a runtime error.
func (c *Controller) CanAnalyze() bool {
	return len(c.inputImages) > 0 || strings.TrimSpace(c.inputText) != ""
}

// Analyze sends the capture buffers to the AI gateway and moves to
// Results on success or Error on failure. The previous analysis stays
// referenced until a new one arrives, so a failed call changes nothing
// beyond the view. A second call while one is in flight returns
// ErrBusy.
func (c *Controller) Analyze(ctx context.Context) error {
	if c.busy {
		return ErrBusy
	}
	if !c.CanAnalyze() {
		return ErrNoInput
	}

	c.busy = true
	c.view = ViewAnalyzing

	analysis, meta, err := c.gateway.Analyze(ctx, c.prefs, c.inputImages, c.inputText)
	c.busy = false
	c.recordMeta(ctx, meta)

	if err != nil {
		c.errMsg = err.Error()
		c.view = ViewError
		return err
	}

	c.analysis = analysis
	c.viewingID = ""
	c.activeKind = recipe.Balanced
	c.project()
	c.errMsg = ""
	c.view = ViewResults
	return nil
}
