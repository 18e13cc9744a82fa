package crocodile

import (
	"context"
	"errors"
	"time"

	"boltalka-bot/internal/store"

	"github.com/rs/zerolog/log"
)

const (
	GameDuration  = 5 * time.Minute
	HintCooldown  = 30 * time.Second
	SweepInterval = time.Minute
	KarmaPerWin   = 1
)

type SessionStore interface {
	CreateActiveSession(ctx context.Context, chatID int64, word string, startedAt time.Time) (*store.GameSession, error)
	GetActiveSession(ctx context.Context, chatID int64) (*store.GameSession, error)
	HasActiveSession(ctx context.Context, chatID int64) (bool, error)
	ResolveSession(ctx context.Context, id, outcome string, at time.Time) (bool, error)
	ListExpiredSessions(ctx context.Context, cutoff time.Time) ([]store.GameSession, error)
}

type KarmaAwarder interface {
	Award(ctx context.Context, userID, chatID, delta int64) (int64, error)
}

type Deps struct {
	Sessions SessionStore
	Catalog  *Catalog
	Stats    *Stats
	Karma    KarmaAwarder
	Throttle HintThrottle
	Metrics  *Metrics
	Clock    func() time.Time
}

type OutcomeKind int

const (
	OutcomeNoActiveGame OutcomeKind = iota
	OutcomeTimedOut
	OutcomeCorrect
	OutcomeIncorrect
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeCorrect:
		return "correct"
	case OutcomeIncorrect:
		return "incorrect"
	default:
		return "no_active_game"
	}
}

// GuessOutcome is the result of evaluating one chat message against the
// active game. Word is set for TimedOut and Correct, Description only for
// Correct, and Hint only for Incorrect (HintNone when throttled).
type GuessOutcome struct {
	Kind        OutcomeKind
	Word        string
	Description string
	Hint        HintLevel
}

// Manager runs the per-chat game state machine. It holds no session state of
// its own; every call reads and writes through the store.
type Manager struct {
	sessions SessionStore
	catalog  *Catalog
	stats    *Stats
	karma    KarmaAwarder
	throttle HintThrottle
	metrics  *Metrics
	now      func() time.Time
}

func NewManager(d Deps) *Manager {
	m := &Manager{
		sessions: d.Sessions,
		catalog:  d.Catalog,
		stats:    d.Stats,
		karma:    d.Karma,
		throttle: d.Throttle,
		metrics:  d.Metrics,
		now:      d.Clock,
	}
	if m.throttle == nil {
		m.throttle = NewMemoryThrottle(HintCooldown)
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Start opens a game in chatID and returns the secret word's length. The
// store's one-active-per-chat constraint makes the check and the insert a
// single step, so concurrent starts yield exactly one success.
func (m *Manager) Start(ctx context.Context, chatID int64) (int, error) {
	entry, err := m.catalog.RandomEntry(ctx)
	if err != nil {
		return 0, err
	}
	sess, err := m.sessions.CreateActiveSession(ctx, chatID, Normalize(entry.Word), m.now())
	if errors.Is(err, store.ErrAlreadyActive) {
		return 0, ErrAlreadyActive
	}
	if err != nil {
		return 0, storeErr("create session", err)
	}
	m.metrics.started()
	log.Info().Int64("chat_id", chatID).Str("session_id", sess.ID).Msg("crocodile game started")
	return WordLength(sess.Word), nil
}

func (m *Manager) IsActive(ctx context.Context, chatID int64) (bool, error) {
	ok, err := m.sessions.HasActiveSession(ctx, chatID)
	if err != nil {
		return false, storeErr("has active session", err)
	}
	return ok, nil
}

// Clue returns the catalog description of the active game's word.
func (m *Manager) Clue(ctx context.Context, chatID int64) (string, error) {
	sess, err := m.activeSession(ctx, chatID)
	if err != nil {
		return "", err
	}
	return m.catalog.Description(ctx, sess.Word)
}

// EvaluateGuess checks text from guesserID against the active game in chatID.
// Expiry is checked before the word, so a correct guess after the deadline
// still times the game out. When the session was resolved concurrently the
// result is NoActiveGame. A non-nil error may accompany any other outcome
// when a karma or stats write failed; the outcome itself still stands.
func (m *Manager) EvaluateGuess(ctx context.Context, chatID, guesserID int64, guesserName, text string, now time.Time) (GuessOutcome, error) {
	sess, err := m.activeSession(ctx, chatID)
	if errors.Is(err, ErrNoActiveGame) {
		return GuessOutcome{Kind: OutcomeNoActiveGame}, nil
	}
	if err != nil {
		return GuessOutcome{}, err
	}

	if expired(sess, now) {
		won, err := m.resolve(ctx, sess, store.OutcomeTimeout, now)
		if err != nil {
			return GuessOutcome{}, err
		}
		if !won {
			return GuessOutcome{Kind: OutcomeNoActiveGame}, nil
		}
		out := GuessOutcome{Kind: OutcomeTimedOut, Word: sess.Word}
		return out, m.stats.Record(ctx, guesserID, chatID, false, now)
	}

	if Normalize(text) == Normalize(sess.Word) {
		won, err := m.resolve(ctx, sess, store.OutcomeWon, now)
		if err != nil {
			return GuessOutcome{}, err
		}
		if !won {
			return GuessOutcome{Kind: OutcomeNoActiveGame}, nil
		}
		log.Info().
			Int64("chat_id", chatID).
			Int64("user_id", guesserID).
			Str("user_name", guesserName).
			Str("session_id", sess.ID).
			Msg("crocodile word guessed")
		return m.reward(ctx, sess, guesserID, now)
	}

	guessErr := m.stats.Guess(ctx, guesserID, chatID, now)
	allowed, err := m.throttle.Allow(ctx, chatID, now)
	if err != nil {
		log.Warn().Err(err).Int64("chat_id", chatID).Msg("hint throttle unavailable")
		return GuessOutcome{Kind: OutcomeIncorrect}, guessErr
	}
	if !allowed {
		return GuessOutcome{Kind: OutcomeIncorrect}, guessErr
	}
	m.metrics.hint()
	return GuessOutcome{Kind: OutcomeIncorrect, Hint: Classify(text, sess.Word)}, guessErr
}

func (m *Manager) reward(ctx context.Context, sess *store.GameSession, guesserID int64, now time.Time) (GuessOutcome, error) {
	out := GuessOutcome{Kind: OutcomeCorrect, Word: sess.Word}

	var errs []error
	if _, err := m.karma.Award(ctx, guesserID, sess.ChatID, KarmaPerWin); err != nil {
		errs = append(errs, storeErr("award karma", err))
	}
	if err := m.stats.Record(ctx, guesserID, sess.ChatID, true, now); err != nil {
		errs = append(errs, err)
	}
	desc, err := m.catalog.Description(ctx, sess.Word)
	if err != nil {
		log.Warn().Err(err).Str("word", sess.Word).Msg("crocodile description lookup failed")
	}
	out.Description = desc
	return out, errors.Join(errs...)
}

func (m *Manager) activeSession(ctx context.Context, chatID int64) (*store.GameSession, error) {
	sess, err := m.sessions.GetActiveSession(ctx, chatID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoActiveGame
	}
	if err != nil {
		return nil, storeErr("get active session", err)
	}
	return sess, nil
}

// resolve ends sess with outcome. It reports false when another caller got
// there first.
func (m *Manager) resolve(ctx context.Context, sess *store.GameSession, outcome string, at time.Time) (bool, error) {
	ok, err := m.sessions.ResolveSession(ctx, sess.ID, outcome, at)
	if err != nil {
		return false, storeErr("resolve session", err)
	}
	if ok {
		m.metrics.resolved(outcome)
	}
	return ok, nil
}

func (m *Manager) expiredSessions(ctx context.Context, now time.Time) ([]store.GameSession, error) {
	rows, err := m.sessions.ListExpiredSessions(ctx, now.Add(-GameDuration))
	if err != nil {
		return nil, storeErr("list expired sessions", err)
	}
	return rows, nil
}

func expired(sess *store.GameSession, now time.Time) bool {
	return now.Sub(sess.StartedAt) > GameDuration
}
