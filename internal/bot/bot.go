package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"boltalka-bot/internal/crocodile"
	"boltalka-bot/internal/store"
	"boltalka-bot/internal/telegram"

	"github.com/rs/zerolog/log"
)

// Messenger is the part of the Bot API the dispatcher talks to.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) (*telegram.Message, error)
	EditMessageText(ctx context.Context, chatID, messageID int64, text string, markup *telegram.InlineKeyboardMarkup) error
	AnswerCallbackQuery(ctx context.Context, id, text string, showAlert bool) error
	GetChatMember(ctx context.Context, chatID, userID int64) (*telegram.ChatMember, error)
	IsAdmin(ctx context.Context, chatID, userID int64) bool
}

type Game interface {
	Start(ctx context.Context, chatID int64) (int, error)
	IsActive(ctx context.Context, chatID int64) (bool, error)
	EvaluateGuess(ctx context.Context, chatID, guesserID int64, guesserName, text string, now time.Time) (crocodile.GuessOutcome, error)
	Clue(ctx context.Context, chatID int64) (string, error)
}

type Words interface {
	AddWord(ctx context.Context, word, description string, addedBy int64) (crocodile.Entry, error)
	ListAll(ctx context.Context) ([]crocodile.Entry, error)
}

type Leaderboard interface {
	TopByWins(ctx context.Context, chatID int64, limit int) ([]crocodile.PlayerStat, error)
}

type Karma interface {
	Plus(ctx context.Context, userID, chatID int64) (int64, error)
	Verified(ctx context.Context, userID, chatID int64) (int64, error)
	Get(ctx context.Context, userID, chatID int64) (int64, error)
	Top(ctx context.Context, chatID int64, limit int) ([]store.KarmaEntry, error)
}

// TextFallback receives plain messages that are neither guesses nor karma
// pluses, e.g. an AI chat responder.
type TextFallback func(ctx context.Context, msg *telegram.Message) error

type Deps struct {
	Messenger   Messenger
	Game        Game
	Words       Words
	Leaderboard Leaderboard
	Karma       Karma
	Fallback    TextFallback
	Clock       func() time.Time

	BotID       int64
	BotUsername string
}

type commandFunc func(ctx context.Context, msg *telegram.Message, args string) error

type callbackFunc func(ctx context.Context, q *telegram.CallbackQuery, payload string) error

type callbackRoute struct {
	prefix string
	fn     callbackFunc
}

// Dispatcher turns Telegram updates into game, catalog and karma operations.
// Routes are fixed at construction.
type Dispatcher struct {
	tg          Messenger
	game        Game
	words       Words
	leaderboard Leaderboard
	karma       Karma
	fallback    TextFallback
	now         func() time.Time
	botID       int64
	botUsername string

	commands  map[string]commandFunc
	callbacks []callbackRoute
}

func New(d Deps) *Dispatcher {
	b := &Dispatcher{
		tg:          d.Messenger,
		game:        d.Game,
		words:       d.Words,
		leaderboard: d.Leaderboard,
		karma:       d.Karma,
		fallback:    d.Fallback,
		now:         d.Clock,
		botID:       d.BotID,
		botUsername: strings.ToLower(strings.TrimPrefix(d.BotUsername, "@")),
	}
	if b.now == nil {
		b.now = time.Now
	}
	b.commands = map[string]commandFunc{
		"start":     b.cmdStart,
		"help":      b.cmdHelp,
		"crocodile": b.cmdCrocodile,
		"addword":   b.cmdAddWord,
		"words":     b.cmdWords,
		"croctop":   b.cmdCrocTop,
		"karma":     b.cmdKarma,
		"top":       b.cmdTop,
	}
	b.callbacks = []callbackRoute{
		{prefix: callbackHint, fn: b.cbHint},
		{prefix: callbackVerify, fn: b.cbVerify},
	}
	return b
}

// Handle processes one update. The returned error is for logging only; the
// user has already been told whatever they need to know.
func (b *Dispatcher) Handle(ctx context.Context, upd telegram.Update) error {
	switch {
	case upd.CallbackQuery != nil:
		return b.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil:
		return b.handleMessage(ctx, upd.Message)
	default:
		return nil
	}
}

func (b *Dispatcher) handleMessage(ctx context.Context, msg *telegram.Message) error {
	if len(msg.NewChatMembers) > 0 {
		return b.greetMembers(ctx, msg)
	}
	if msg.From == nil || msg.Text == "" {
		return nil
	}
	if strings.HasPrefix(msg.Text, "/") {
		name, args, ok := b.parseCommand(msg.Text)
		if !ok {
			return nil
		}
		cmd, found := b.commands[name]
		if !found {
			return nil
		}
		log.Debug().Int64("chat_id", msg.Chat.ID).Str("command", name).Msg("command received")
		return cmd(ctx, msg, args)
	}
	return b.handleText(ctx, msg)
}

func (b *Dispatcher) handleCallback(ctx context.Context, q *telegram.CallbackQuery) error {
	if q.Message == nil {
		return b.tg.AnswerCallbackQuery(ctx, q.ID, "", false)
	}
	for _, r := range b.callbacks {
		if payload, ok := strings.CutPrefix(q.Data, r.prefix); ok {
			return r.fn(ctx, q, payload)
		}
	}
	return b.tg.AnswerCallbackQuery(ctx, q.ID, "", false)
}

// parseCommand splits "/name@bot args". Commands addressed to another bot
// are not ours.
func (b *Dispatcher) parseCommand(text string) (name, args string, ok bool) {
	head, rest, _ := strings.Cut(strings.TrimPrefix(text, "/"), " ")
	head, addressee, hasAt := strings.Cut(head, "@")
	if hasAt && b.botUsername != "" && strings.ToLower(addressee) != b.botUsername {
		return "", "", false
	}
	return strings.ToLower(head), strings.TrimSpace(rest), head != ""
}

func (b *Dispatcher) reply(ctx context.Context, chatID int64, text string) error {
	_, err := b.tg.SendMessage(ctx, chatID, text, nil)
	return err
}

// displayName resolves a user's first name through the chat, falling back to
// "<fallback> <id>".
func (b *Dispatcher) displayName(ctx context.Context, chatID, userID int64, fallback string) string {
	m, err := b.tg.GetChatMember(ctx, chatID, userID)
	if err != nil || m.User.FirstName == "" {
		return fallback + " " + itoa(userID)
	}
	return m.User.FirstName
}

func (b *Dispatcher) storeFailure(ctx context.Context, chatID int64, err error) error {
	if sendErr := b.reply(ctx, chatID, msgStoreFailure); sendErr != nil {
		return errors.Join(err, &crocodile.NotifyFailure{ChatID: chatID, Err: sendErr})
	}
	return err
}
