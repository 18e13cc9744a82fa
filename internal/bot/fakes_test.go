package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	"boltalka-bot/internal/crocodile"
	"boltalka-bot/internal/karma"
	"boltalka-bot/internal/store"
	"boltalka-bot/internal/telegram"
)

type sentMessage struct {
	ChatID int64
	Text   string
	Markup *telegram.InlineKeyboardMarkup
}

type answer struct {
	ID    string
	Text  string
	Alert bool
}

type fakeMessenger struct {
	mu       sync.Mutex
	sent     []sentMessage
	edited   []sentMessage
	answers  []answer
	admins   map[int64]bool
	names    map[int64]string
	sendErr  error
	lastSent int64
}

func (f *fakeMessenger) SendMessage(_ context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) (*telegram.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text, Markup: markup})
	f.lastSent++
	return &telegram.Message{MessageID: f.lastSent, Chat: telegram.Chat{ID: chatID}}, nil
}

func (f *fakeMessenger) EditMessageText(_ context.Context, chatID, _ int64, text string, markup *telegram.InlineKeyboardMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edited = append(f.edited, sentMessage{ChatID: chatID, Text: text, Markup: markup})
	return nil
}

func (f *fakeMessenger) AnswerCallbackQuery(_ context.Context, id, text string, showAlert bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, answer{ID: id, Text: text, Alert: showAlert})
	return nil
}

func (f *fakeMessenger) GetChatMember(_ context.Context, _, userID int64) (*telegram.ChatMember, error) {
	name, ok := f.names[userID]
	if !ok {
		return nil, errors.New("user not found")
	}
	return &telegram.ChatMember{Status: "member", User: telegram.User{ID: userID, FirstName: name}}, nil
}

func (f *fakeMessenger) IsAdmin(_ context.Context, _, userID int64) bool {
	return f.admins[userID]
}

func (f *fakeMessenger) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.Text)
	}
	return out
}

type fakeGame struct {
	active   map[int64]bool
	startErr error
	length   int
	outcome  crocodile.GuessOutcome
	guessErr error
	clue     string
	guesses  []string
}

func (g *fakeGame) Start(_ context.Context, chatID int64) (int, error) {
	if g.startErr != nil {
		return 0, g.startErr
	}
	if g.active[chatID] {
		return 0, crocodile.ErrAlreadyActive
	}
	g.active[chatID] = true
	return g.length, nil
}

func (g *fakeGame) IsActive(_ context.Context, chatID int64) (bool, error) {
	return g.active[chatID], nil
}

func (g *fakeGame) EvaluateGuess(_ context.Context, _, _ int64, _, text string, _ time.Time) (crocodile.GuessOutcome, error) {
	g.guesses = append(g.guesses, text)
	return g.outcome, g.guessErr
}

func (g *fakeGame) Clue(_ context.Context, chatID int64) (string, error) {
	if !g.active[chatID] {
		return "", crocodile.ErrNoActiveGame
	}
	return g.clue, nil
}

type fakeWords struct {
	added   []crocodile.Entry
	entries []crocodile.Entry
	err     error
}

func (w *fakeWords) AddWord(_ context.Context, word, description string, _ int64) (crocodile.Entry, error) {
	if w.err != nil {
		return crocodile.Entry{}, w.err
	}
	e := crocodile.Entry{Word: crocodile.Normalize(word), Description: description}
	w.added = append(w.added, e)
	return e, nil
}

func (w *fakeWords) ListAll(context.Context) ([]crocodile.Entry, error) {
	return w.entries, w.err
}

type fakeBoard []crocodile.PlayerStat

func (b fakeBoard) TopByWins(context.Context, int64, int) ([]crocodile.PlayerStat, error) {
	return b, nil
}

type fakeKarma map[[2]int64]int64

func (k fakeKarma) award(userID, chatID, delta int64) (int64, error) {
	k[[2]int64{userID, chatID}] += delta
	return k[[2]int64{userID, chatID}], nil
}

func (k fakeKarma) Plus(_ context.Context, userID, chatID int64) (int64, error) {
	return k.award(userID, chatID, karma.PlusDelta)
}

func (k fakeKarma) Verified(_ context.Context, userID, chatID int64) (int64, error) {
	return k.award(userID, chatID, karma.VerifyDelta)
}

func (k fakeKarma) Get(_ context.Context, userID, chatID int64) (int64, error) {
	return k[[2]int64{userID, chatID}], nil
}

func (k fakeKarma) Top(_ context.Context, chatID int64, _ int) ([]store.KarmaEntry, error) {
	var out []store.KarmaEntry
	for key, v := range k {
		if key[1] == chatID {
			out = append(out, store.KarmaEntry{UserID: key[0], ChatID: chatID, Karma: v})
		}
	}
	return out, nil
}

type harness struct {
	d     *Dispatcher
	tg    *fakeMessenger
	game  *fakeGame
	words *fakeWords
	karma fakeKarma
}

func newHarness() *harness {
	h := &harness{
		tg:    &fakeMessenger{admins: map[int64]bool{}, names: map[int64]string{}},
		game:  &fakeGame{active: map[int64]bool{}, length: 4},
		words: &fakeWords{},
		karma: fakeKarma{},
	}
	h.d = New(Deps{
		Messenger:   h.tg,
		Game:        h.game,
		Words:       h.words,
		Leaderboard: fakeBoard{},
		Karma:       h.karma,
		BotID:       999,
		BotUsername: "BoltalkaChatBot_bot",
	})
	return h
}

func textMessage(chatID, userID int64, name, text string) telegram.Update {
	return telegram.Update{Message: &telegram.Message{
		Chat: telegram.Chat{ID: chatID, Type: "group"},
		From: &telegram.User{ID: userID, FirstName: name},
		Text: text,
	}}
}
