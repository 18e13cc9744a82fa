package bot

import (
	"context"
	"errors"
	"strconv"

	"boltalka-bot/internal/crocodile"
	"boltalka-bot/internal/telegram"
)

// cbHint posts the active word's description as a clue for the whole chat.
func (b *Dispatcher) cbHint(ctx context.Context, q *telegram.CallbackQuery, _ string) error {
	chatID := q.Message.Chat.ID
	clue, err := b.game.Clue(ctx, chatID)
	if errors.Is(err, crocodile.ErrNoActiveGame) {
		return b.tg.AnswerCallbackQuery(ctx, q.ID, msgGameOver, true)
	}
	if err != nil {
		_ = b.tg.AnswerCallbackQuery(ctx, q.ID, "", false)
		return b.storeFailure(ctx, chatID, err)
	}
	if err := b.reply(ctx, chatID, clueText(clue)); err != nil {
		return err
	}
	return b.tg.AnswerCallbackQuery(ctx, q.ID, "", false)
}

// cbVerify confirms a new member. Only the member the button was made for
// may press it.
func (b *Dispatcher) cbVerify(ctx context.Context, q *telegram.CallbackQuery, payload string) error {
	userID, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return b.tg.AnswerCallbackQuery(ctx, q.ID, "", false)
	}
	if q.From.ID != userID {
		return b.tg.AnswerCallbackQuery(ctx, q.ID, msgNotYourButton, true)
	}
	chatID := q.Message.Chat.ID
	if _, err := b.karma.Verified(ctx, userID, chatID); err != nil {
		_ = b.tg.AnswerCallbackQuery(ctx, q.ID, "", false)
		return b.storeFailure(ctx, chatID, err)
	}
	if err := b.tg.EditMessageText(ctx, chatID, q.Message.MessageID, verifiedText(q.From.FirstName), nil); err != nil {
		return err
	}
	return b.tg.AnswerCallbackQuery(ctx, q.ID, "", false)
}
