package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"daya/internal/habits"
	"daya/internal/services"
	"daya/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	callbackDone    = "done_"
	callbackNotDone = "notdone_"
)

type Bot struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	services *services.ServiceManager
	handlers map[string]func(*tgbotapi.Message)

	liveMu    sync.Mutex
	liveMsgID int
}

func NewBot(token string, chatID int64, serviceManager *services.ServiceManager) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	bot := &Bot{
		bot:      botAPI,
		chatID:   chatID,
		services: serviceManager,
		handlers: make(map[string]func(*tgbotapi.Message)),
	}

	bot.registerHandlers()
	log.Printf("🤖 bot initialised: %s", botAPI.Self.UserName)
	return bot, nil
}

func (b *Bot) registerHandlers() {
	b.handlers["/start"] = b.handleStart
	b.handlers["/help"] = b.handleHelp
	b.handlers["/today"] = b.handleToday
	b.handlers["/done"] = b.handleMark(true)
	b.handlers["/notdone"] = b.handleMark(false)
	b.handlers["/mark"] = b.handleMarkDay
	b.handlers["/clear"] = b.handleClear
	b.handlers["/angs"] = b.handleAngs
	b.handlers["/target"] = b.handleTarget
	b.handlers["/progress"] = b.handleProgress
	b.handlers["/week"] = b.handleWeek
	b.handlers["/calendar"] = b.handleCalendar
	b.handlers["/widget"] = b.handleWidget
	b.handlers["/stats"] = b.handleStats
	b.handlers["/habits"] = b.handleHabits
	b.handlers["/addhabit"] = b.handleAddHabit
	b.handlers["/hide"] = b.handleHide
	b.handlers["/delhabit"] = b.handleDeleteHabit
	b.handlers["/move"] = b.handleMove
	b.handlers["/reminders"] = b.handleReminders
	b.handlers["/quotes"] = b.handleQuotes
	b.handlers["/quote"] = b.handleAddQuote
	b.handlers["/unquote"] = b.handleRemoveQuote
	b.handlers["/reset"] = b.handleReset
}

func (b *Bot) SendMessage(text string) error {
	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = "HTML"
	_, err := b.bot.Send(msg)
	return err
}

// SendMessageOrLogError sends text and logs a failure instead of returning it.
func (b *Bot) SendMessageOrLogError(text string) {
	if err := b.SendMessage(text); err != nil {
		log.Printf("❌ send message: %v", err)
	}
}

// SendReminder sends today's status with answer buttons for every open
// yes/no habit.
func (b *Bot) SendReminder(view services.TodayView) error {
	msg := tgbotapi.NewMessage(b.chatID, "🙏 <b>Time for your daily practice</b>\n\n"+FormatToday(view, b.services.Progress.Calendar().Now()))
	msg.ParseMode = "HTML"
	if keyboard, ok := reminderKeyboard(view); ok {
		msg.ReplyMarkup = keyboard
	}
	_, err := b.bot.Send(msg)
	return err
}

// reminderKeyboard builds one row of buttons per unanswered yes/no habit.
func reminderKeyboard(view services.TodayView) (tgbotapi.InlineKeyboardMarkup, bool) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, h := range view.Habits {
		if h.Cumulative || h.Done {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ "+h.Habit.Title(), callbackDone+h.Habit.ID),
			tgbotapi.NewInlineKeyboardButtonData("❌", callbackNotDone+h.Habit.ID),
		))
	}
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

// UpdateLiveStatus keeps a single status message in the chat up to date and
// removes it once the day's practices are complete.
func (b *Bot) UpdateLiveStatus(status services.LiveStatus) {
	b.liveMu.Lock()
	defer b.liveMu.Unlock()

	if !status.Active {
		if b.liveMsgID != 0 {
			b.safeDeleteMessage(b.liveMsgID)
			b.liveMsgID = 0
		}
		return
	}

	text := FormatLiveStatus(status)
	if b.liveMsgID != 0 {
		edit := tgbotapi.NewEditMessageText(b.chatID, b.liveMsgID, text)
		edit.ParseMode = "HTML"
		if _, err := b.bot.Send(edit); err == nil {
			return
		}
	}

	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = "HTML"
	sent, err := b.bot.Send(msg)
	if err != nil {
		log.Printf("⚠️ live status: %v", err)
		return
	}
	b.liveMsgID = sent.MessageID
}

func (b *Bot) GetUsername() string {
	return b.bot.Self.UserName
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.bot.GetUpdatesChan(u)
	defer b.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case update := <-updates:
			b.handleUpdate(update)
		}
	}
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handleCallbackQuery(update.CallbackQuery)
		return
	}

	if update.Message == nil {
		return
	}

	if update.Message.Chat.ID != b.chatID {
		log.Printf("⛔ ignoring message from chat %d", update.Message.Chat.ID)
		return
	}

	b.handleMessage(update.Message)
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if !strings.HasPrefix(msg.Text, "/") {
		return
	}

	command, _ := splitCommand(msg.Text)
	if handler, exists := b.handlers[command]; exists {
		handler(msg)
		return
	}
	b.SendMessageOrLogError("❌ Unknown command. Use /help")
}

func (b *Bot) handleCallbackQuery(callback *tgbotapi.CallbackQuery) {
	defer func() {
		if _, err := b.bot.Request(tgbotapi.NewCallback(callback.ID, "✅")); err != nil {
			log.Printf("⚠️ callback answer: %v", err)
		}
	}()

	if callback.Message == nil || callback.Message.Chat.ID != b.chatID {
		return
	}

	id, done, ok := parseCallback(callback.Data)
	if !ok {
		log.Printf("⚠️ unknown callback: %s", callback.Data)
		return
	}

	h, err := b.services.Progress.Mark(id, b.services.Progress.Calendar().Today(), done)
	if err != nil {
		b.SendMessageOrLogError(errorText(err))
		return
	}

	b.safeDeleteMessage(callback.Message.MessageID)
	b.SendMessageOrLogError(markedText(h, done))
}

// parseCallback decodes the data of a reminder button.
func parseCallback(data string) (string, bool, bool) {
	switch {
	case strings.HasPrefix(data, callbackDone):
		return strings.TrimPrefix(data, callbackDone), true, true
	case strings.HasPrefix(data, callbackNotDone):
		return strings.TrimPrefix(data, callbackNotDone), false, true
	}
	return "", false, false
}

// safeDeleteMessage deletes a message, logging instead of failing.
func (b *Bot) safeDeleteMessage(messageID int) {
	resp, err := b.bot.Request(tgbotapi.NewDeleteMessage(b.chatID, messageID))
	if err != nil {
		log.Printf("⚠️ delete message %d: %v", messageID, err)
		return
	}

	var deleted bool
	if err := json.Unmarshal(resp.Result, &deleted); err != nil {
		log.Printf("⚠️ delete message %d: unexpected response: %v", messageID, err)
		return
	}
	if deleted {
		log.Printf("✅ message %d deleted", messageID)
	}
}

// Welcome is the greeting sent when the bot starts.
func Welcome(registry *habits.Registry, view services.TodayView) string {
	var names []string
	for _, h := range registry.Visible() {
		names = append(names, h.Title())
	}
	return fmt.Sprintf("🙏 <b>Daya is running</b>\n\nToday: %s\nTracking: %s\n\nUse /today or /help",
		utils.FormatDate(view.Date), escape(strings.Join(names, ", ")))
}
