package bot

import (
	"context"
	"errors"
	"strings"

	"boltalka-bot/internal/crocodile"
	"boltalka-bot/internal/karma"
	"boltalka-bot/internal/telegram"
)

func (b *Dispatcher) cmdStart(ctx context.Context, msg *telegram.Message, _ string) error {
	return b.reply(ctx, msg.Chat.ID, msgStart)
}

func (b *Dispatcher) cmdHelp(ctx context.Context, msg *telegram.Message, _ string) error {
	return b.reply(ctx, msg.Chat.ID, msgHelp)
}

func (b *Dispatcher) cmdCrocodile(ctx context.Context, msg *telegram.Message, _ string) error {
	chatID := msg.Chat.ID
	n, err := b.game.Start(ctx, chatID)
	switch {
	case errors.Is(err, crocodile.ErrAlreadyActive):
		return b.reply(ctx, chatID, msgAlreadyActive)
	case err != nil:
		return b.storeFailure(ctx, chatID, err)
	}
	kb := telegram.Keyboard(telegram.InlineKeyboardButton{Text: buttonHint, CallbackData: callbackHint})
	_, err = b.tg.SendMessage(ctx, chatID, gameStartedText(n), kb)
	return err
}

func (b *Dispatcher) cmdAddWord(ctx context.Context, msg *telegram.Message, args string) error {
	chatID := msg.Chat.ID
	if !b.tg.IsAdmin(ctx, chatID, msg.From.ID) {
		return b.reply(ctx, chatID, msgAdminsOnly)
	}
	word, desc, ok := strings.Cut(args, "|")
	if !ok || strings.TrimSpace(word) == "" {
		return b.reply(ctx, chatID, msgAddWordUsage)
	}

	e, err := b.words.AddWord(ctx, word, desc, msg.From.ID)
	var lengthErr *crocodile.LengthError
	switch {
	case errors.As(err, &lengthErr):
		return b.reply(ctx, chatID, lengthErrorText(lengthErr))
	case errors.Is(err, crocodile.ErrAlreadyExists):
		return b.reply(ctx, chatID, wordExistsText(word))
	case err != nil:
		return b.storeFailure(ctx, chatID, err)
	}
	return b.reply(ctx, chatID, wordAddedText(e.Word))
}

func (b *Dispatcher) cmdWords(ctx context.Context, msg *telegram.Message, _ string) error {
	chatID := msg.Chat.ID
	entries, err := b.words.ListAll(ctx)
	if err != nil {
		return b.storeFailure(ctx, chatID, err)
	}
	if len(entries) == 0 {
		return b.reply(ctx, chatID, msgWordsEmpty)
	}
	for _, part := range wordListText(entries) {
		if err := b.reply(ctx, chatID, part); err != nil {
			return err
		}
	}
	return nil
}

func (b *Dispatcher) cmdCrocTop(ctx context.Context, msg *telegram.Message, _ string) error {
	chatID := msg.Chat.ID
	top, err := b.leaderboard.TopByWins(ctx, chatID, crocodile.DefaultTopLimit)
	if err != nil {
		return b.storeFailure(ctx, chatID, err)
	}
	if len(top) == 0 {
		return b.reply(ctx, chatID, msgCrocTopEmpty)
	}
	var sb strings.Builder
	sb.WriteString("🏆 <b>Топ игроков в Крокодила</b>\n\n")
	for i, p := range top {
		name := b.displayName(ctx, chatID, p.UserID, playerFallbackName)
		sb.WriteString(crocTopLine(i+1, name, p))
		sb.WriteByte('\n')
	}
	return b.reply(ctx, chatID, sb.String())
}

func (b *Dispatcher) cmdKarma(ctx context.Context, msg *telegram.Message, _ string) error {
	chatID := msg.Chat.ID
	user := msg.From
	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil {
		user = msg.ReplyToMessage.From
	}
	k, err := b.karma.Get(ctx, user.ID, chatID)
	if err != nil {
		return b.storeFailure(ctx, chatID, err)
	}
	return b.reply(ctx, chatID, karmaText(user.FirstName, k))
}

func (b *Dispatcher) cmdTop(ctx context.Context, msg *telegram.Message, _ string) error {
	chatID := msg.Chat.ID
	top, err := b.karma.Top(ctx, chatID, karma.TopLimit)
	if err != nil {
		return b.storeFailure(ctx, chatID, err)
	}
	if len(top) == 0 {
		return b.reply(ctx, chatID, msgKarmaTopEmpty)
	}
	var sb strings.Builder
	sb.WriteString("🏆 <b>Топ 10 по карме:</b>\n\n")
	for i, e := range top {
		name := b.displayName(ctx, chatID, e.UserID, userFallbackName)
		sb.WriteString(itoa(int64(i+1)) + ". " + esc(name) + " — " + itoa(e.Karma) + " ⭐\n")
	}
	return b.reply(ctx, chatID, sb.String())
}
