package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/petervd13-web/Recipe33/internal/metrics"
	"github.com/petervd13-web/Recipe33/internal/planner"
	"github.com/petervd13-web/Recipe33/internal/recipe"
	"github.com/petervd13-web/Recipe33/internal/session"
	"github.com/petervd13-web/Recipe33/internal/settings"
	"github.com/petervd13-web/Recipe33/internal/shopping"
)

// renderScreen turns the controller's current view into the message
// text and inline keyboard of the single "app screen" message.
func renderScreen(c *session.Controller) (string, [][]tgbotapi.InlineKeyboardButton) {
	switch c.View() {
	case session.ViewHome:
		return renderHome(c)
	case session.ViewInput:
		return renderInput(c)
	case session.ViewAnalyzing:
		return "🧑‍🍳 *Analyzing...*\n_Building three macro variations of your recipe._", nil
	case session.ViewResults:
		return renderRecipe(c, false)
	case session.ViewCookbook:
		return renderCookbook(c)
	case session.ViewCookbookDetail:
		return renderRecipe(c, true)
	case session.ViewRecipeSelector:
		return renderSelector(c)
	case session.ViewShoppingList:
		return renderShoppingList(c)
	case session.ViewConfig:
		return renderConfig(c)
	case session.ViewError:
		return renderError(c)
	}
	return "🏠 /start", nil
}

func renderHome(c *session.Controller) (string, [][]tgbotapi.InlineKeyboardButton) {
	year, week := c.WeekStart().ISOWeek()

	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 *Week %d, %d*\n\n", week, year)

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, date := range c.WeekDates() {
		label := fmtDay(date) + " — free"
		if dp, ok := c.Plan().Get(date); ok {
			title := "(missing recipe)"
			if saved, found := c.Cookbook().Find(dp.RecipeID); found {
				title = saved.Title
			}
			fmt.Fprintf(&sb, "*%s* · %s %s\n", fmtDay(date), kindEmoji(dp.Variation), esc(title))
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(fmtDay(date)+" — "+truncate(title, 18), "day|"+string(date)),
				tgbotapi.NewInlineKeyboardButtonData("✖️", "clear|"+string(date)),
			))
			continue
		}
		fmt.Fprintf(&sb, "%s · —\n", fmtDay(date))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "day|"+string(date)),
		))
	}

	sb.WriteString("\nPick a day to plan it.")
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️", "nav|prev"),
			tgbotapi.NewInlineKeyboardButtonData("🛒 Shopping", "nav|shop"),
			tgbotapi.NewInlineKeyboardButtonData("➡️", "nav|next"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ New recipe", "nav|input"),
			tgbotapi.NewInlineKeyboardButtonData("📖 Cookbook", "nav|cookbook"),
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Settings", "nav|config"),
		),
	)
	return sb.String(), rows
}

func renderInput(c *session.Controller) (string, [][]tgbotapi.InlineKeyboardButton) {
	var sb strings.Builder
	sb.WriteString("🍳 *New recipe*\n\n")
	sb.WriteString("Send photos of a recipe, paste a link, or just type it out.\n\n")

	if n := c.ImageCount(); n > 0 {
		fmt.Fprintf(&sb, "📸 %d photo(s) attached\n", n)
	}
	if text := c.InputText(); text != "" {
		fmt.Fprintf(&sb, "📝 %s\n", esc(truncate(text, 200)))
	}
	if !c.CanAnalyze() {
		sb.WriteString("_Nothing captured yet._\n")
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < c.ImageCount(); i++ {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🗑 Remove photo %d", i+1), fmt.Sprintf("delimg|%d", i)),
		))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔍 Analyze", "analyze"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏠 Home", "nav|home"),
		),
	)
	return sb.String(), rows
}

// renderRecipe covers both the unsaved analysis results and the
// cookbook detail page; only the action row differs.
func renderRecipe(c *session.Controller, saved bool) (string, [][]tgbotapi.InlineKeyboardButton) {
	if c.CurrentAnalysis() == nil {
		// Placeholder page for a recipe that no longer exists.
		rows := [][]tgbotapi.InlineKeyboardButton{tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📖 Cookbook", "nav|cookbook"),
			tgbotapi.NewInlineKeyboardButtonData("🏠 Home", "nav|home"),
		)}
		return "🤷 *Recipe not found*\nIt may have been removed.", rows
	}

	kind := c.ActiveVariation()
	var sb strings.Builder
	fmt.Fprintf(&sb, "🍽 *%s*\n%s %s\n\n", esc(c.EditTitle()), kindEmoji(kind), kind.Label())

	sb.WriteString("*Ingredients* _(for 2 servings)_\n")
	for i, ing := range c.EditIngredients() {
		fmt.Fprintf(&sb, "%d. %s %s — %s kcal · %sP %sF %sC\n",
			i+1, esc(ing.Amount), esc(ing.Name),
			macroText(ing.Calories), macroText(ing.Protein), macroText(ing.Fat), macroText(ing.Carbs))
	}

	totals := c.EditTotals()
	status := c.TargetStatus()
	prefs := c.Settings()
	fmt.Fprintf(&sb, "\n*Per serving:* %s\n", fmtTotals(totals))
	fmt.Fprintf(&sb, "🎯 %s kcal ≤ %d · %s protein ≥ %d · %s carbs ≥ %d\n",
		statusMark(status.CaloriesMet), prefs.TargetCalories,
		statusMark(status.ProteinMet), prefs.TargetProtein,
		statusMark(status.CarbsMet), prefs.TargetCarbs)

	if notes := c.ActiveNotes(); notes != "" {
		fmt.Fprintf(&sb, "\n📝 _%s_\n", esc(notes))
	}
	if steps := c.ActiveSteps(); len(steps) > 0 {
		sb.WriteString("\n*Steps*\n")
		for i, step := range steps {
			fmt.Fprintf(&sb, "%d. %s%s\n", i+1, esc(step.Text), fmtTimer(step))
		}
	}

	sb.WriteString("\n✏️ /title, /set, /del edit this variation. Reply with plain text to refine the whole recipe.")

	tabs := tgbotapi.NewInlineKeyboardRow(
		tabButton(recipe.Proteins, kind),
		tabButton(recipe.Balanced, kind),
		tabButton(recipe.Carbs, kind),
	)

	var action, back tgbotapi.InlineKeyboardButton
	if saved {
		action = tgbotapi.NewInlineKeyboardButtonData("✅ Update recipe", "update")
		back = tgbotapi.NewInlineKeyboardButtonData("📖 Cookbook", "nav|cookbook")
	} else {
		action = tgbotapi.NewInlineKeyboardButtonData("💾 Save to cookbook", "save")
		back = tgbotapi.NewInlineKeyboardButtonData("◀️ Back to input", "nav|back")
	}

	rows := [][]tgbotapi.InlineKeyboardButton{
		tabs,
		tgbotapi.NewInlineKeyboardRow(action),
		tgbotapi.NewInlineKeyboardRow(back, tgbotapi.NewInlineKeyboardButtonData("🏠 Home", "nav|home")),
	}
	return sb.String(), rows
}

func tabButton(kind, active recipe.VariationKind) tgbotapi.InlineKeyboardButton {
	label := kindEmoji(kind) + " " + kind.Label()
	if kind == active {
		label = "· " + label + " ·"
	}
	return tgbotapi.NewInlineKeyboardButtonData(label, "tab|"+string(kind))
}

func renderCookbook(c *session.Controller) (string, [][]tgbotapi.InlineKeyboardButton) {
	book := c.Cookbook()

	var sb strings.Builder
	fmt.Fprintf(&sb, "📖 *Cookbook* — %d recipe(s)\n\n", len(book))
	if len(book) == 0 {
		sb.WriteString("_Nothing saved yet. Analyze a recipe and save it here._")
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, saved := range book {
		// The list preview always aggregates the Balanced variation,
		// whatever tab the user looked at last.
		totals := recipe.Sum(saved.Analysis.Variations.Balanced.Ingredients)
		fmt.Fprintf(&sb, "• %s — %s _(saved %s)_\n",
			esc(saved.Title), fmtTotals(totals), saved.CreatedAt.Format("02.01.2006"))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🍽 "+truncate(saved.Title, 40), "open|"+saved.ID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🏠 Home", "nav|home"),
	))
	return sb.String(), rows
}

func renderSelector(c *session.Controller) (string, [][]tgbotapi.InlineKeyboardButton) {
	book := c.Cookbook()

	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 *Planning %s*\n\n", fmtDay(c.PendingDate()))
	if len(book) == 0 {
		sb.WriteString("_The cookbook is empty — save a recipe first._")
	} else {
		sb.WriteString("Pick a recipe and macro profile:\n\n")
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, saved := range book {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, esc(saved.Title))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d 💪", i+1), "pick|"+saved.ID+"|proteins"),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d ⚖️", i+1), "pick|"+saved.ID+"|balanced"),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d 🍚", i+1), "pick|"+saved.ID+"|carbs"),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✖️ Cancel", "cancel"),
	))
	return sb.String(), rows
}

func renderShoppingList(c *session.Controller) (string, [][]tgbotapi.InlineKeyboardButton) {
	items := c.ShoppingItems()
	year, week := c.WeekStart().ISOWeek()

	var sb strings.Builder
	fmt.Fprintf(&sb, "🛒 *Shopping list* — week %d, %d\n\n", week, year)
	if len(items) == 0 {
		sb.WriteString("_No planned meals this week._")
	} else {
		sb.WriteString("Tap an item to check it off.\n")
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, item := range items {
		mark := "⬜"
		if c.IsChecked(item.ID) {
			mark = "✅"
		}
		label := fmt.Sprintf("%s %s %s (%s)", mark, item.Ingredient.Amount, item.Ingredient.Name, item.Date.Weekday())
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(truncate(label, 58), "check|"+item.ID),
		))
	}

	sortLabel := "🔤 Sort A–Z"
	sortTarget := string(shopping.SortAlphabetical)
	if c.ShoppingSort() == shopping.SortAlphabetical {
		sortLabel = "📅 Sort by day"
		sortTarget = string(shopping.SortByDate)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(sortLabel, "sort|"+sortTarget),
		tgbotapi.NewInlineKeyboardButtonData("🏠 Home", "nav|home"),
	))
	return sb.String(), rows
}

func renderConfig(c *session.Controller) (string, [][]tgbotapi.InlineKeyboardButton) {
	prefs := c.Settings()

	var sb strings.Builder
	sb.WriteString("⚙️ *Settings*\n\n")
	fmt.Fprintf(&sb, "👤 %s · %d kg · %s\n", esc(prefs.Name), prefs.Weight, prefs.Activity)
	fmt.Fprintf(&sb, "🎯 per serving: ≤ %d kcal · ≥ %d g protein · ≥ %d g carbs\n", prefs.TargetCalories, prefs.TargetProtein, prefs.TargetCarbs)
	if prefs.ExcludedIngredients != "" {
		fmt.Fprintf(&sb, "🚫 excluded: %s\n", esc(prefs.ExcludedIngredients))
	}
	sb.WriteString("\nEdit with /name, /weight, /targets, /exclude.\nToggle your kitchen equipment and activity below.\n")

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, item := range settings.Equipment {
		mark := "▫️"
		if prefs.Kitchen[item] {
			mark = "✅"
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(mark+" "+item, "equip|"+item))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	var actRow []tgbotapi.InlineKeyboardButton
	for _, level := range []settings.ActivityLevel{settings.Sedentary, settings.Active, settings.Athlete} {
		label := string(level)
		if prefs.Activity == level {
			label = "● " + label
		}
		actRow = append(actRow, tgbotapi.NewInlineKeyboardButtonData(label, "act|"+string(level)))
	}
	rows = append(rows, actRow)

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🏠 Home", "nav|home"),
	))
	return sb.String(), rows
}

func renderError(c *session.Controller) (string, [][]tgbotapi.InlineKeyboardButton) {
	safeErr := strings.ReplaceAll(c.ErrorMessage(), "`", "'")
	text := fmt.Sprintf("❌ *Analysis failed:*\n```\n%s\n```\nYour photos and text are still here.", safeErr)
	rows := [][]tgbotapi.InlineKeyboardButton{tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("↩️ Back to input", "nav|back"),
		tgbotapi.NewInlineKeyboardButtonData("🏠 Home", "nav|home"),
	)}
	return text, rows
}

// formatStats renders the /stats report from usage rows and a health
// snapshot.
func formatStats(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent AI Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d calls)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Database: %s\n", health.DatabaseSize))
	return sb.String()
}

const helpText = `🍳 *What I do*

Send me a recipe — photos, a link, or plain text — and I return three versions of it: 💪 protein-heavy, ⚖️ balanced and 🍚 carb-heavy, with macros per serving.

*Editing the shown variation*
/title <new title>
/set <row> <amount|name|calories|protein|fat|carbs> <value>
/del <row>
Plain text on a recipe page refines the whole recipe through the AI.

*Profile*
/name <name> · /weight <kg> · /targets <kcal> <protein> <carbs> · /exclude <ingredients>

*Other*
/start — show the planner
/stats — usage and health
`

func fmtDay(d planner.Date) string {
	return d.Time().Format("Mon 02.01")
}

func kindEmoji(kind recipe.VariationKind) string {
	switch kind {
	case recipe.Proteins:
		return "💪"
	case recipe.Carbs:
		return "🍚"
	default:
		return "⚖️"
	}
}

func fmtTotals(t recipe.Totals) string {
	return fmt.Sprintf("%s kcal · %sP %sF %sC",
		fmtFloat(t.Calories), fmtFloat(t.Protein), fmtFloat(t.Fat), fmtFloat(t.Carbs))
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// macroText shows raw macro text, substituting "?" for blanks so the
// ingredient lines stay aligned.
func macroText(s string) string {
	if strings.TrimSpace(s) == "" {
		return "?"
	}
	return s
}

func statusMark(met bool) string {
	if met {
		return "✅"
	}
	return "⚠️"
}

func fmtTimer(step recipe.CookingStep) string {
	if !step.HasTimer() {
		return ""
	}
	return " ⏱ " + (time.Duration(step.Timer) * time.Second).String()
}

// esc neutralizes Markdown control characters in user-supplied text.
func esc(s string) string {
	r := strings.NewReplacer("*", "∗", "_", "‗", "`", "'", "[", "(", "]", ")")
	return r.Replace(s)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
