// Package telegram is the user interface: it maps every incoming
// update to one session controller action and redraws the single "app
// screen" message from the controller's state afterwards.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/petervd13-web/Recipe33/internal/clipper"
	"github.com/petervd13-web/Recipe33/internal/config"
	"github.com/petervd13-web/Recipe33/internal/metrics"
	"github.com/petervd13-web/Recipe33/internal/planner"
	"github.com/petervd13-web/Recipe33/internal/recipe"
	"github.com/petervd13-web/Recipe33/internal/session"
	"github.com/petervd13-web/Recipe33/internal/settings"
	"github.com/petervd13-web/Recipe33/internal/shopping"
)

// Bot wraps the Telegram API around the session controller.
type Bot struct {
	api        *tgbotapi.BotAPI
	ctrl       *session.Controller
	clip       *clipper.Clipper
	telemetry  *metrics.Store
	cfg        *config.Config
	httpClient *http.Client

	// mu serializes update processing: one action runs to completion
	// before the next update is looked at.
	mu        sync.Mutex
	chatID    int64
	screenMsg int
}

// NewBot initializes the Telegram Bot and sets the webhook.
func NewBot(cfg *config.Config, ctrl *session.Controller, clip *clipper.Clipper, telemetry *metrics.Store) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{
		api:        api,
		ctrl:       ctrl,
		clip:       clip,
		telemetry:  telemetry,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// RegisterHandlers registers the webhook handler with the default HTTP mux.
func (b *Bot) RegisterHandlers() {
	http.HandleFunc("/webhook", b.handleWebhook)
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}

	from := updateSender(update)
	if from == nil {
		return
	}
	if from.ID != b.cfg.TelegramAllowUserID {
		log.Printf("Warning: unauthorized access attempt from UserID: %d (@%s)", from.ID, from.UserName)
		return
	}

	go b.process(update)
}

func updateSender(update *tgbotapi.Update) *tgbotapi.User {
	switch {
	case update.CallbackQuery != nil:
		return update.CallbackQuery.From
	case update.Message != nil:
		return update.Message.From
	}
	return nil
}

// process handles one update start to finish while holding the lock,
// so controller state never interleaves between updates.
func (b *Bot) process(update *tgbotapi.Update) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	if update.Message != nil {
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	b.chatID = msg.Chat.ID

	switch {
	case msg.IsCommand():
		b.handleCommand(ctx, msg)
	case len(msg.Photo) > 0:
		b.handlePhoto(ctx, msg)
	case strings.TrimSpace(msg.Text) != "":
		b.handleText(ctx, strings.TrimSpace(msg.Text))
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		b.ctrl.GoHome()
		b.redrawScreen("")
	case "help":
		b.sendMarkdown(helpText)
	case "stats":
		b.sendStats(ctx)
	case "title", "set", "del":
		if b.ctrl.CurrentAnalysis() == nil {
			b.redrawScreen("⚠️ Open a recipe first, then edit it.")
			return
		}
		b.handleEditCommand(msg.Command(), args)
	case "name", "weight", "targets", "exclude":
		b.handleProfileCommand(ctx, msg.Command(), args)
	default:
		b.redrawScreen("💬 Unknown command. /help lists what I understand.")
	}
}

func (b *Bot) handleEditCommand(command, args string) {
	switch command {
	case "title":
		if args == "" {
			b.redrawScreen("⚠️ Usage: /title <new title>")
			return
		}
		b.ctrl.SetTitle(args)
		b.redrawScreen("")

	case "set":
		parts := strings.SplitN(args, " ", 3)
		if len(parts) < 3 {
			b.redrawScreen("⚠️ Usage: /set <row> <amount|name|calories|protein|fat|carbs> <value>")
			return
		}
		row, err := strconv.Atoi(parts[0])
		if err != nil || row < 1 {
			b.redrawScreen("⚠️ The row must be a number from the ingredient list.")
			return
		}
		field := session.IngredientField(strings.ToLower(parts[1]))
		if err := b.ctrl.EditIngredient(row-1, field, strings.TrimSpace(parts[2])); err != nil {
			b.redrawScreen("⚠️ " + err.Error())
			return
		}
		b.redrawScreen("")

	case "del":
		row, err := strconv.Atoi(args)
		if err != nil || row < 1 {
			b.redrawScreen("⚠️ Usage: /del <row>")
			return
		}
		if err := b.ctrl.DeleteIngredient(row - 1); err != nil {
			b.redrawScreen("⚠️ " + err.Error())
			return
		}
		b.redrawScreen("")
	}
}

func (b *Bot) handleProfileCommand(ctx context.Context, command, args string) {
	prefs := b.ctrl.Settings()

	switch command {
	case "name":
		if args == "" {
			b.redrawScreen("⚠️ Usage: /name <name>")
			return
		}
		prefs.Name = args
	case "weight":
		kg, err := strconv.Atoi(args)
		if err != nil || kg <= 0 {
			b.redrawScreen("⚠️ Usage: /weight <kg>")
			return
		}
		prefs.Weight = kg
	case "targets":
		fields := strings.Fields(args)
		if len(fields) != 3 {
			b.redrawScreen("⚠️ Usage: /targets <kcal> <protein> <carbs>")
			return
		}
		values := make([]int, 3)
		for i, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil || v < 0 {
				b.redrawScreen("⚠️ Targets must be non-negative numbers.")
				return
			}
			values[i] = v
		}
		prefs.TargetCalories, prefs.TargetProtein, prefs.TargetCarbs = values[0], values[1], values[2]
	case "exclude":
		// An empty argument clears the exclusion list.
		prefs.ExcludedIngredients = args
	}

	if err := b.ctrl.UpdateSettings(ctx, prefs); err != nil {
		b.redrawScreen("⚠️ " + err.Error())
		return
	}
	b.ctrl.OpenConfig()
	b.redrawScreen("✅ Profile updated.")
}

func (b *Bot) handleText(ctx context.Context, text string) {
	switch b.ctrl.View() {
	case session.ViewInput:
		if clipper.LooksLikeURL(text) {
			b.sendScreen("✂️ *Clipping the page...*", nil)
			clipped, err := b.clip.Fetch(ctx, text)
			if err != nil {
				log.Printf("Error clipping %s: %v", text, err)
				b.refreshScreen("⚠️ " + err.Error())
				return
			}
			b.ctrl.SetInputText(clipped)
			b.refreshScreen("✂️ Page text captured.")
			return
		}
		b.ctrl.SetInputText(text)
		b.redrawScreen("")

	case session.ViewResults, session.ViewCookbookDetail:
		b.sendScreen("🧑‍🍳 *Refining...*", nil)
		if err := b.ctrl.Refine(ctx, text); err != nil {
			log.Printf("Error refining recipe: %v", err)
			safeErr := strings.ReplaceAll(err.Error(), "`", "'")
			b.refreshScreen("❌ Refinement failed: " + safeErr)
			return
		}
		b.refreshScreen("")

	default:
		b.redrawScreen("💬 Tap ➕ New recipe to start, or /help.")
	}
}

func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	if b.ctrl.View() != session.ViewInput {
		b.ctrl.StartNewRecipe()
	}

	// Telegram offers several resolutions; the last one is the largest.
	best := msg.Photo[len(msg.Photo)-1]
	data, err := b.downloadFile(ctx, best.FileID)
	if err != nil {
		log.Printf("Error downloading photo: %v", err)
		b.redrawScreen("⚠️ Could not download that photo, try again.")
		return
	}

	b.ctrl.AddImage("jpeg", data)
	if caption := strings.TrimSpace(msg.Caption); caption != "" {
		b.ctrl.SetInputText(caption)
	}
	b.redrawScreen("")
}

func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download file: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	// Answer right away so the button spinner clears.
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.Printf("Error answering callback: %v", err)
	}
	if query.Message != nil {
		b.chatID = query.Message.Chat.ID
		b.screenMsg = query.Message.MessageID
	}

	action, arg, extra := splitCallback(query.Data)

	var err error
	var notice string
	switch action {
	case "nav":
		b.navigate(arg)
	case "analyze":
		b.runAnalyze(ctx)
		return
	case "tab":
		err = b.ctrl.SwitchVariation(recipe.VariationKind(arg))
	case "save":
		if err = b.ctrl.SaveToCookbook(ctx); err == nil {
			notice = "💾 Saved to your cookbook."
		}
	case "update":
		if err = b.ctrl.UpdateRecipe(ctx); err == nil {
			notice = "✅ Recipe updated."
		}
	case "open":
		err = b.ctrl.OpenRecipe(arg)
	case "day":
		err = b.ctrl.PlanDate(planner.Date(arg))
	case "clear":
		b.ctrl.ClearPlan(ctx, planner.Date(arg))
	case "pick":
		err = b.ctrl.AssignPlan(ctx, arg, recipe.VariationKind(extra))
	case "cancel":
		b.ctrl.CancelSelect()
	case "check":
		b.ctrl.ToggleChecked(ctx, arg)
	case "sort":
		err = b.ctrl.SetShoppingSort(shopping.SortMode(arg))
	case "delimg":
		index, convErr := strconv.Atoi(arg)
		if convErr != nil {
			index = -1
		}
		err = b.ctrl.RemoveImage(index)
	case "equip":
		err = b.toggleEquipment(ctx, arg)
	case "act":
		err = b.setActivity(ctx, arg)
	default:
		log.Printf("Warning: unknown callback action %q", query.Data)
	}

	if err != nil {
		notice = "⚠️ " + err.Error()
	}
	b.refreshScreen(notice)
}

// splitCallback parses "action|arg|extra" callback data.
func splitCallback(data string) (action, arg, extra string) {
	parts := strings.SplitN(data, "|", 3)
	action = parts[0]
	if len(parts) > 1 {
		arg = parts[1]
	}
	if len(parts) > 2 {
		extra = parts[2]
	}
	return action, arg, extra
}

func (b *Bot) navigate(target string) {
	switch target {
	case "home":
		b.ctrl.GoHome()
	case "cookbook":
		b.ctrl.OpenCookbook()
	case "shop":
		b.ctrl.OpenShoppingList()
	case "config":
		b.ctrl.OpenConfig()
	case "input":
		b.ctrl.StartNewRecipe()
	case "back":
		b.ctrl.ReturnToInput()
	case "prev":
		b.ctrl.PrevWeek()
	case "next":
		b.ctrl.NextWeek()
	default:
		log.Printf("Warning: unknown navigation target %q", target)
	}
}

// runAnalyze shows the waiting screen, runs the AI call to completion
// and redraws whatever view the controller landed on.
func (b *Bot) runAnalyze(ctx context.Context) {
	b.refreshTransient("🧑‍🍳 *Analyzing...*\n_Building three macro variations of your recipe._")

	err := b.ctrl.Analyze(ctx)
	switch {
	case err == nil:
		b.refreshScreen("")
	case errors.Is(err, session.ErrNoInput), errors.Is(err, session.ErrBusy):
		b.refreshScreen("⚠️ " + err.Error())
	default:
		// The error view carries the message already.
		log.Printf("Error analyzing recipe: %v", err)
		b.refreshScreen("")
	}
}

func (b *Bot) toggleEquipment(ctx context.Context, item string) error {
	prefs := b.ctrl.Settings()
	kitchen := make(map[string]bool, len(prefs.Kitchen)+1)
	for k, v := range prefs.Kitchen {
		kitchen[k] = v
	}
	kitchen[item] = !kitchen[item]
	prefs.Kitchen = kitchen
	return b.ctrl.UpdateSettings(ctx, prefs)
}

func (b *Bot) setActivity(ctx context.Context, level string) error {
	prefs := b.ctrl.Settings()
	prefs.Activity = settings.ActivityLevel(level)
	return b.ctrl.UpdateSettings(ctx, prefs)
}

func (b *Bot) sendStats(ctx context.Context) {
	usage, err := b.telemetry.GetDailyUsage(ctx, 7)
	if err != nil {
		log.Printf("Error fetching usage: %v", err)
		b.sendMarkdown("❌ Error fetching metrics.")
		return
	}
	health := metrics.GetSysHealth(b.cfg.DatabasePath)
	b.sendMarkdown(formatStats(usage, health))
}

// refreshScreen redraws the app screen in place. A non-empty notice is
// appended under the view.
func (b *Bot) refreshScreen(notice string) {
	text, rows := renderScreen(b.ctrl)
	if notice != "" {
		text += "\n\n" + notice
	}
	b.editScreen(text, rows)
}

// redrawScreen renders the view as a fresh message at the bottom of
// the chat, replacing the previous screen message. Used after updates
// the user typed, so the screen stays below their message.
func (b *Bot) redrawScreen(notice string) {
	text, rows := renderScreen(b.ctrl)
	if notice != "" {
		text += "\n\n" + notice
	}
	b.sendScreen(text, rows)
}

// refreshTransient replaces the screen content with a waiting notice,
// keeping the message in place.
func (b *Bot) refreshTransient(text string) {
	b.editScreen(text, nil)
}

func (b *Bot) sendScreen(text string, rows [][]tgbotapi.InlineKeyboardButton) {
	if b.chatID == 0 {
		return
	}
	if b.screenMsg != 0 {
		if _, err := b.api.Request(tgbotapi.NewDeleteMessage(b.chatID, b.screenMsg)); err != nil {
			log.Printf("Warning: failed to drop old screen message: %v", err)
		}
		b.screenMsg = 0
	}

	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = "Markdown"
	if len(rows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	sent, err := b.api.Send(msg)
	if err != nil {
		log.Printf("Error sending screen: %v", err)
		return
	}
	b.screenMsg = sent.MessageID
}

func (b *Bot) editScreen(text string, rows [][]tgbotapi.InlineKeyboardButton) {
	if b.chatID == 0 {
		return
	}
	if b.screenMsg == 0 {
		b.sendScreen(text, rows)
		return
	}

	if len(rows) == 0 {
		edit := tgbotapi.NewEditMessageText(b.chatID, b.screenMsg, text)
		edit.ParseMode = "Markdown"
		if _, err := b.api.Send(edit); err != nil {
			log.Printf("Error editing screen: %v", err)
		}
		return
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(b.chatID, b.screenMsg, text, tgbotapi.NewInlineKeyboardMarkup(rows...))
	edit.ParseMode = "Markdown"
	if _, err := b.api.Send(edit); err != nil {
		log.Printf("Error editing screen: %v", err)
	}
}

func (b *Bot) sendMarkdown(text string) {
	if b.chatID == 0 {
		return
	}
	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = "Markdown"
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}
