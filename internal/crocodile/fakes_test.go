package crocodile

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"boltalka-bot/internal/store"
)

// memStore is an in-process stand-in for the Postgres store. Every method
// holds the lock for its whole read-modify-write, mirroring the atomicity
// the SQL statements give.
type memStore struct {
	mu       sync.Mutex
	sessions []store.GameSession
	words    map[string]store.WordEntry
	stats    map[[2]int64]store.GameStat
	karma    map[[2]int64]int64
	failAll  error
}

func newMemStore() *memStore {
	return &memStore{
		words: map[string]store.WordEntry{},
		stats: map[[2]int64]store.GameStat{},
		karma: map[[2]int64]int64{},
	}
}

func (s *memStore) CreateActiveSession(_ context.Context, chatID int64, word string, startedAt time.Time) (*store.GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}
	for _, g := range s.sessions {
		if g.ChatID == chatID && g.Active {
			return nil, store.ErrAlreadyActive
		}
	}
	g := store.GameSession{ID: store.NewID(), ChatID: chatID, Word: word, Active: true, StartedAt: startedAt}
	s.sessions = append(s.sessions, g)
	return &g, nil
}

func (s *memStore) GetActiveSession(_ context.Context, chatID int64) (*store.GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}
	for _, g := range s.sessions {
		if g.ChatID == chatID && g.Active {
			return &g, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *memStore) HasActiveSession(ctx context.Context, chatID int64) (bool, error) {
	_, err := s.GetActiveSession(ctx, chatID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *memStore) ResolveSession(_ context.Context, id, outcome string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return false, s.failAll
	}
	for i := range s.sessions {
		g := &s.sessions[i]
		if g.ID == id && g.Active {
			g.Active = false
			g.Outcome = outcome
			g.ResolvedAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) ListExpiredSessions(_ context.Context, cutoff time.Time) ([]store.GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}
	var out []store.GameSession
	for _, g := range s.sessions {
		if g.Active && g.StartedAt.Before(cutoff) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *memStore) activeCount(chatID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, g := range s.sessions {
		if g.ChatID == chatID && g.Active {
			n++
		}
	}
	return n
}

func (s *memStore) InsertWord(_ context.Context, w store.WordEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.words[w.Word]; ok {
		return store.ErrDuplicate
	}
	s.words[w.Word] = w
	return nil
}

func (s *memStore) RandomWord(_ context.Context) (*store.WordEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.words) == 0 {
		return nil, store.ErrNotFound
	}
	keys := s.sortedWords()
	w := s.words[keys[rand.IntN(len(keys))]]
	return &w, nil
}

func (s *memStore) GetWord(_ context.Context, word string) (*store.WordEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.words[word]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &w, nil
}

func (s *memStore) ListWords(_ context.Context) ([]store.WordEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.WordEntry, 0, len(s.words))
	for _, k := range s.sortedWords() {
		out = append(out, s.words[k])
	}
	return out, nil
}

func (s *memStore) EnsureDefaultWords(_ context.Context, defaults []store.WordEntry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.words) > 0 {
		return 0, nil
	}
	for _, w := range defaults {
		s.words[w.Word] = w
	}
	return len(defaults), nil
}

func (s *memStore) sortedWords() []string {
	keys := make([]string, 0, len(s.words))
	for k := range s.words {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *memStore) RecordGameResult(_ context.Context, userID, chatID int64, won bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return s.failAll
	}
	k := [2]int64{userID, chatID}
	st := s.stats[k]
	st.UserID, st.ChatID = userID, chatID
	st.GamesPlayed++
	st.TotalGuesses++
	if won {
		st.GamesWon++
	}
	st.LastPlayed = at
	s.stats[k] = st
	return nil
}

func (s *memStore) RecordGuess(_ context.Context, userID, chatID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return s.failAll
	}
	k := [2]int64{userID, chatID}
	st := s.stats[k]
	st.UserID, st.ChatID = userID, chatID
	st.TotalGuesses++
	st.LastPlayed = at
	s.stats[k] = st
	return nil
}

func (s *memStore) TopByWins(_ context.Context, chatID int64, limit int) ([]store.GameStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.GameStat
	for _, st := range s.stats {
		if st.ChatID == chatID && st.GamesPlayed > 0 {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GamesWon != out[j].GamesWon {
			return out[i].GamesWon > out[j].GamesWon
		}
		if out[i].GamesPlayed != out[j].GamesPlayed {
			return out[i].GamesPlayed < out[j].GamesPlayed
		}
		return out[i].UserID < out[j].UserID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) stat(userID, chatID int64) store.GameStat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats[[2]int64{userID, chatID}]
}

func (s *memStore) Award(_ context.Context, userID, chatID, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := [2]int64{userID, chatID}
	s.karma[k] += delta
	return s.karma[k], nil
}

func (s *memStore) karmaOf(userID, chatID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.karma[[2]int64{userID, chatID}]
}

func (s *memStore) setFail(err error) {
	s.mu.Lock()
	s.failAll = err
	s.mu.Unlock()
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls map[int64]string
	err   error
}

func (n *recordingNotifier) NotifyTimeout(_ context.Context, chatID int64, word string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.calls == nil {
		n.calls = map[int64]string{}
	}
	n.calls[chatID] = word
	return n.err
}

func newTestManager(words ...Entry) (*Manager, *memStore, *fakeClock) {
	s := newMemStore()
	for _, e := range words {
		s.words[e.Word] = store.WordEntry{Word: e.Word, Description: e.Description}
	}
	clk := newFakeClock()
	m := NewManager(Deps{
		Sessions: s,
		Catalog:  NewCatalog(s),
		Stats:    NewStats(s),
		Karma:    s,
		Throttle: NewMemoryThrottle(HintCooldown),
		Clock:    clk.Now,
	})
	return m, s, clk
}

func storeWord(e Entry) store.WordEntry {
	return store.WordEntry{Word: e.Word, Description: e.Description}
}
