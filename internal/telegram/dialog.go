package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/DRPozdniakov/Tracker/internal/logging"
	"github.com/DRPozdniakov/Tracker/internal/models"
	"github.com/DRPozdniakov/Tracker/internal/repositories"
)

// The profile dialog asks four questions in a fixed order and saves the
// draft only after the last answer. Walking away mid-dialog lets the
// draft expire.

func dialogQuestion(step models.DialogStep) string {
	switch step {
	case models.StepProjectName:
		return "What is the name of your project?"
	case models.StepProjectSite:
		return "Where is the project located?"
	case models.StepContractor:
		return "Who is the contractor?"
	case models.StepLunchBreak:
		return "How long is your lunch break? (e.g. 30 minutes)"
	}
	return ""
}

// applyDialogAnswer records answer on the draft and advances the step.
// done reports that the last question has been answered.
func applyDialogAnswer(state *models.DialogState, answer string) (done bool) {
	answer = strings.TrimSpace(answer)
	switch state.Step {
	case models.StepProjectName:
		state.Draft.ProjectName = answer
		state.Step = models.StepProjectSite
	case models.StepProjectSite:
		state.Draft.ProjectSite = answer
		state.Step = models.StepContractor
	case models.StepContractor:
		state.Draft.Contractor = answer
		state.Step = models.StepLunchBreak
	case models.StepLunchBreak:
		state.Draft.LunchBreak = answer
		return true
	}
	return false
}

func (b *Bot) startDialog(ctx context.Context, chatID int64, from *tgbotapi.User) {
	userID := userKey(from)
	state := &models.DialogState{
		UserID: userID,
		Step:   models.StepProjectName,
		Draft: models.Profile{
			UserID:      userID,
			DisplayName: b.displayName(from),
		},
	}

	if err := b.dialogs.Put(ctx, state, dialogTTL); err != nil {
		logging.FromContext(ctx).Error("failed to start dialog", "error", err)
		b.reply(ctx, chatID, "Something went wrong on our side, please try again.")
		return
	}
	b.reply(ctx, chatID, "Let's set up your project. "+dialogQuestion(state.Step))
}

// continueDialog feeds a plain-text message into an in-flight dialog.
// It reports false when the user has no dialog open.
func (b *Bot) continueDialog(ctx context.Context, chatID int64, from *tgbotapi.User, text string) bool {
	userID := userKey(from)

	state, err := b.dialogs.Get(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return false
	}
	if err != nil {
		logging.FromContext(ctx).Error("failed to read dialog", "error", err)
		b.reply(ctx, chatID, "Something went wrong on our side, please try again.")
		return true
	}

	if applyDialogAnswer(state, text) {
		profile := state.Draft
		if err := b.profiles.Upsert(ctx, &profile); err != nil {
			logging.FromContext(ctx).Error("failed to save profile", "error", err)
			b.reply(ctx, chatID, "Could not save your project details, please try /config again.")
			return true
		}
		if err := b.dialogs.Delete(ctx, userID); err != nil {
			logging.FromContext(ctx).Error("failed to clear dialog", "error", err)
		}
		b.replyWithMarkup(ctx, chatID, "✅ Project details saved.\n"+profileSummary(&profile), mainKeyboard())
		return true
	}

	if err := b.dialogs.Put(ctx, state, dialogTTL); err != nil {
		logging.FromContext(ctx).Error("failed to advance dialog", "error", err)
		b.reply(ctx, chatID, "Something went wrong on our side, please try again.")
		return true
	}
	b.reply(ctx, chatID, dialogQuestion(state.Step))
	return true
}

func (b *Bot) cancelDialog(ctx context.Context, userID string) bool {
	if _, err := b.dialogs.Get(ctx, userID); err != nil {
		return false
	}
	if err := b.dialogs.Delete(ctx, userID); err != nil {
		logging.FromContext(ctx).Error("failed to cancel dialog", "error", err)
	}
	return true
}
