package telegram

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/DRPozdniakov/Tracker/internal/config"
	"github.com/DRPozdniakov/Tracker/internal/logging"
	"github.com/DRPozdniakov/Tracker/internal/repositories"
	"github.com/DRPozdniakov/Tracker/internal/services"
)

const (
	pollTimeoutSeconds = 30
	dialogTTL          = 10 * time.Minute
)

// Bot is the chat transport. It owns no attendance decisions: every press
// and location reply is delegated to the coordinator, and its replies are
// rendered from the coordinator's return values.
type Bot struct {
	api         *tgbotapi.BotAPI
	coordinator *services.ActionCoordinator
	timesheet   *services.TimesheetService
	profiles    repositories.ProfileStore
	dialogs     repositories.DialogStore
	roster      *config.Roster
	logger      *slog.Logger
}

type Deps struct {
	Coordinator *services.ActionCoordinator
	Timesheet   *services.TimesheetService
	Profiles    repositories.ProfileStore
	Dialogs     repositories.DialogStore
	Roster      *config.Roster
	Logger      *slog.Logger
}

func New(token string, deps Deps) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Roster == nil {
		deps.Roster = &config.Roster{Users: map[string]string{}}
	}

	return &Bot{
		api:         api,
		coordinator: deps.Coordinator,
		timesheet:   deps.Timesheet,
		profiles:    deps.Profiles,
		dialogs:     deps.Dialogs,
		roster:      deps.Roster,
		logger:      logger.With("component", "telegram"),
	}, nil
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = pollTimeoutSeconds

	updates := b.api.GetUpdatesChan(updateConfig)
	defer b.api.StopReceivingUpdates()

	b.logger.Info("telegram bot started", "username", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("update handler panicked", "panic", r)
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		query := update.CallbackQuery
		if query.From == nil || query.Message == nil {
			return
		}
		uctx := b.userContext(ctx, query.From)
		b.handleCallback(uctx, query)

	case update.Message != nil:
		message := update.Message
		if message.From == nil {
			return
		}
		uctx := b.userContext(ctx, message.From)
		switch {
		case message.IsCommand():
			b.handleCommand(uctx, message)
		case message.Location != nil:
			b.handleLocation(uctx, message)
		default:
			b.handleText(uctx, message)
		}
	}
}

func (b *Bot) userContext(ctx context.Context, from *tgbotapi.User) context.Context {
	logger := b.logger.With("user_id", userKey(from))
	return logging.WithContext(ctx, logger)
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	b.replyWithMarkup(ctx, chatID, text, nil)
}

func (b *Bot) replyWithMarkup(ctx context.Context, chatID int64, text string, markup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		logging.FromContext(ctx).Error("failed to send message", "chat_id", chatID, "error", err)
	}
}

// replyOutcome renders a coordinator result: refusals go back verbatim,
// internal failures get a generic apology and a log line.
func (b *Bot) replyOutcome(ctx context.Context, chatID int64, err error) {
	if rejection, ok := services.AsRejection(err); ok {
		b.reply(ctx, chatID, "⚠️ "+rejection.Message)
		return
	}
	logging.FromContext(ctx).Error("request failed", "error", err)
	b.reply(ctx, chatID, "Something went wrong on our side, please try again.")
}

func userKey(from *tgbotapi.User) string {
	return strconv.FormatInt(from.ID, 10)
}

func (b *Bot) displayName(from *tgbotapi.User) string {
	fallback := from.FirstName
	if fallback == "" {
		fallback = from.UserName
	}
	return b.roster.DisplayName(userKey(from), fallback)
}
