package bot

import (
	"context"
	"time"

	"boltalka-bot/internal/telegram"
)

type sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) (*telegram.Message, error)
}

// TimeoutNotifier tells a chat that the sweeper ended its game.
type TimeoutNotifier struct {
	tg      sender
	timeout time.Duration
}

func NewTimeoutNotifier(tg sender, timeout time.Duration) *TimeoutNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TimeoutNotifier{tg: tg, timeout: timeout}
}

func (n *TimeoutNotifier) NotifyTimeout(ctx context.Context, chatID int64, word string) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	_, err := n.tg.SendMessage(ctx, chatID, TimeoutText(word), nil)
	return err
}
