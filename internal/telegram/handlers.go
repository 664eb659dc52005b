package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/DRPozdniakov/Tracker/internal/logging"
	"github.com/DRPozdniakov/Tracker/internal/models"
	"github.com/DRPozdniakov/Tracker/internal/repositories"
	"github.com/DRPozdniakov/Tracker/internal/services"
)

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	userID := userKey(message.From)

	switch message.Command() {
	case "start":
		b.replyWithMarkup(ctx, chatID, startText(b.displayName(message.From), b.profileFor(ctx, userID)), mainKeyboard())

	case "help":
		b.reply(ctx, chatID, helpText())

	case "status":
		status, err := b.timesheet.Status(ctx, userID)
		if err != nil {
			b.replyOutcome(ctx, chatID, err)
			return
		}
		b.reply(ctx, chatID, statusText(b.displayName(message.From), status))

	case "records":
		shifts, err := b.timesheet.Timesheet(ctx, userID, 0)
		if err != nil {
			b.replyOutcome(ctx, chatID, err)
			return
		}
		b.reply(ctx, chatID, timesheetText(shifts))

	case "note":
		text := message.CommandArguments()
		if text == "" {
			b.reply(ctx, chatID, "Usage: /note fixed the pump on level 2")
			return
		}
		if _, err := b.timesheet.RecordNote(ctx, userID, text); err != nil {
			b.replyOutcome(ctx, chatID, err)
			return
		}
		b.reply(ctx, chatID, "📝 Note added to today's shift.")

	case "config":
		b.startDialog(ctx, chatID, message.From)

	case "skip":
		pending, ok := b.coordinator.PendingFor(userID)
		if !ok {
			b.reply(ctx, chatID, "Nothing is waiting for a location.")
			return
		}
		event, err := b.coordinator.CompleteAction(ctx, userID, pending.Token, nil)
		if err != nil {
			b.replyOutcome(ctx, chatID, err)
			return
		}
		b.replyWithMarkup(ctx, chatID, confirmationText(event, b.profileFor(ctx, userID)), removeKeyboard())

	case "cancel":
		if pending, ok := b.coordinator.PendingFor(userID); ok {
			if err := b.coordinator.CancelAction(ctx, userID, pending.Token); err != nil {
				b.replyOutcome(ctx, chatID, err)
				return
			}
			b.replyWithMarkup(ctx, chatID, "Cancelled. Nothing was recorded.", removeKeyboard())
			return
		}
		if b.cancelDialog(ctx, userID) {
			b.reply(ctx, chatID, "Project setup cancelled.")
			return
		}
		b.reply(ctx, chatID, "Nothing to cancel.")

	default:
		b.reply(ctx, chatID, "I don't know that command, try /help.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	// Answer first so the button stops spinning even if the rest fails.
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		logging.FromContext(ctx).Warn("failed to answer callback", "error", err)
	}

	chatID := query.Message.Chat.ID

	switch query.Data {
	case callbackClockIn:
		b.beginClock(ctx, chatID, query.From, models.ActionClockIn)
	case callbackClockOut:
		b.beginClock(ctx, chatID, query.From, models.ActionClockOut)
	case callbackConfig:
		b.startDialog(ctx, chatID, query.From)
	default:
		logging.FromContext(ctx).Warn("unknown callback", "data", query.Data)
	}
}

func (b *Bot) beginClock(ctx context.Context, chatID int64, from *tgbotapi.User, action models.Action) {
	pending, err := b.coordinator.BeginAction(ctx, userKey(from), action)
	if err != nil {
		b.replyOutcome(ctx, chatID, err)
		return
	}
	b.replyWithMarkup(ctx, chatID, promptLocationText(pending.Action), locationKeyboard())
}

func (b *Bot) handleLocation(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	userID := userKey(message.From)

	pending, ok := b.coordinator.PendingFor(userID)
	if !ok {
		b.replyWithMarkup(ctx, chatID, "I wasn't expecting a location right now.", removeKeyboard())
		return
	}

	raw := &services.RawLocation{
		Latitude:   message.Location.Latitude,
		Longitude:  message.Location.Longitude,
		CapturedAt: message.Time(),
	}
	if message.Location.HorizontalAccuracy > 0 {
		accuracy := message.Location.HorizontalAccuracy
		raw.Accuracy = &accuracy
	}

	event, err := b.coordinator.CompleteAction(ctx, userID, pending.Token, raw)
	if err != nil {
		b.replyOutcome(ctx, chatID, err)
		return
	}
	b.replyWithMarkup(ctx, chatID, confirmationText(event, b.profileFor(ctx, userID)), removeKeyboard())
}

// profileFor loads the user's saved profile for message headers. Missing
// or unreadable profiles just mean a plainer message.
func (b *Bot) profileFor(ctx context.Context, userID string) *models.Profile {
	profile, err := b.profiles.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			logging.FromContext(ctx).Warn("failed to load profile", "error", err)
		}
		return nil
	}
	return profile
}

func (b *Bot) handleText(ctx context.Context, message *tgbotapi.Message) {
	if b.continueDialog(ctx, message.Chat.ID, message.From, message.Text) {
		return
	}
	b.reply(ctx, message.Chat.ID, "Use the buttons or /help to see what I can do.")
}
