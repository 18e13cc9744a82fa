package bot

import (
	"context"
	"strings"

	"boltalka-bot/internal/crocodile"
	"boltalka-bot/internal/telegram"

	"github.com/rs/zerolog/log"
)

// handleText routes a plain message. A "+" reply awards karma even during a
// game; otherwise an active game takes the text as a guess.
func (b *Dispatcher) handleText(ctx context.Context, msg *telegram.Message) error {
	if strings.TrimSpace(msg.Text) == "+" && msg.ReplyToMessage != nil {
		return b.handlePlus(ctx, msg)
	}
	chatID := msg.Chat.ID
	active, err := b.game.IsActive(ctx, chatID)
	if err != nil {
		return b.storeFailure(ctx, chatID, err)
	}
	if active {
		return b.handleGuess(ctx, msg)
	}
	if b.fallback != nil {
		return b.fallback(ctx, msg)
	}
	return nil
}

func (b *Dispatcher) handleGuess(ctx context.Context, msg *telegram.Message) error {
	chatID := msg.Chat.ID
	out, err := b.game.EvaluateGuess(ctx, chatID, msg.From.ID, msg.From.FirstName, msg.Text, b.now())
	if err != nil && out.Kind == crocodile.OutcomeNoActiveGame {
		return b.storeFailure(ctx, chatID, err)
	}
	if err != nil {
		// The game outcome is committed; only a follow-up write failed.
		log.Error().Err(err).Int64("chat_id", chatID).Str("outcome", out.Kind.String()).Msg("crocodile bookkeeping failed")
	}

	switch out.Kind {
	case crocodile.OutcomeTimedOut:
		return b.reply(ctx, chatID, TimeoutText(out.Word))
	case crocodile.OutcomeCorrect:
		return b.reply(ctx, chatID, correctGuessText(msg.From.FirstName, out.Word, out.Description))
	case crocodile.OutcomeIncorrect:
		if out.Hint == crocodile.HintNone {
			return nil
		}
		return b.reply(ctx, chatID, hintMessage(out.Hint))
	default:
		return nil
	}
}

func (b *Dispatcher) handlePlus(ctx context.Context, msg *telegram.Message) error {
	target := msg.ReplyToMessage.From
	if target == nil || target.IsBot {
		return nil
	}
	chatID := msg.Chat.ID
	if _, err := b.karma.Plus(ctx, target.ID, chatID); err != nil {
		return b.storeFailure(ctx, chatID, err)
	}
	return b.reply(ctx, chatID, plusText(target.FirstName))
}

func (b *Dispatcher) greetMembers(ctx context.Context, msg *telegram.Message) error {
	chatID := msg.Chat.ID
	for _, m := range msg.NewChatMembers {
		if m.ID == b.botID {
			if err := b.reply(ctx, chatID, msgBotJoined); err != nil {
				return err
			}
			continue
		}
		if m.IsBot {
			continue
		}
		kb := telegram.Keyboard(telegram.InlineKeyboardButton{Text: buttonVerify, CallbackData: callbackVerify + itoa(m.ID)})
		if _, err := b.tg.SendMessage(ctx, chatID, verifyPromptText(m.FirstName), kb); err != nil {
			return err
		}
	}
	return nil
}
