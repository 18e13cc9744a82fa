package crocodile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

var elephant = Entry{Word: "слон", Description: "огромное серое животное с хоботом"}

func TestStartReturnsWordLength(t *testing.T) {
	m, s, _ := newTestManager(elephant)
	n, err := m.Start(context.Background(), 1)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected length 4, got %d", n)
	}
	if s.activeCount(1) != 1 {
		t.Fatalf("expected one active session")
	}
}

func TestStartTwiceIsAlreadyActive(t *testing.T) {
	m, _, _ := newTestManager(elephant)
	ctx := context.Background()
	if _, err := m.Start(ctx, 1); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if _, err := m.Start(ctx, 1); !errors.Is(err, ErrAlreadyActive) {
		t.Fatalf("expected already_active, got %v", err)
	}
	if _, err := m.Start(ctx, 2); err != nil {
		t.Fatalf("other chat must be independent: %v", err)
	}
}

func TestConcurrentStartsExactlyOneWins(t *testing.T) {
	m, s, _ := newTestManager(elephant)
	const n = 32
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, busy int
	)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := m.Start(context.Background(), 5)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrAlreadyActive):
				busy++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if ok != 1 || busy != n-1 {
		t.Fatalf("expected 1 ok and %d already_active, got %d and %d", n-1, ok, busy)
	}
	if s.activeCount(5) != 1 {
		t.Fatalf("expected exactly one active session, got %d", s.activeCount(5))
	}
}

func TestGuessWithoutGame(t *testing.T) {
	m, _, clk := newTestManager(elephant)
	out, err := m.EvaluateGuess(context.Background(), 1, 7, "Вася", "слон", clk.Now())
	if err != nil {
		t.Fatalf("guess: %v", err)
	}
	if out.Kind != OutcomeNoActiveGame {
		t.Fatalf("expected no_active_game, got %s", out.Kind)
	}
}

func TestCorrectGuessResolvesOnce(t *testing.T) {
	m, s, clk := newTestManager(elephant)
	ctx := context.Background()
	if _, err := m.Start(ctx, 1); err != nil {
		t.Fatalf("start: %v", err)
	}

	out, err := m.EvaluateGuess(ctx, 1, 7, "Вася", "  СЛОН ", clk.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("guess: %v", err)
	}
	if out.Kind != OutcomeCorrect || out.Word != "слон" || out.Description != elephant.Description {
		t.Fatalf("unexpected outcome %+v", out)
	}
	active, err := m.IsActive(ctx, 1)
	if err != nil || active {
		t.Fatalf("expected game to be over, active=%v err=%v", active, err)
	}
	if st := s.stat(7, 1); st.GamesWon != 1 || st.GamesPlayed != 1 {
		t.Fatalf("expected 1/1 stats, got %+v", st)
	}
	if k := s.karmaOf(7, 1); k != KarmaPerWin {
		t.Fatalf("expected karma %d, got %d", KarmaPerWin, k)
	}

	again, err := m.EvaluateGuess(ctx, 1, 8, "Петя", "слон", clk.Now().Add(2*time.Minute))
	if err != nil {
		t.Fatalf("second guess: %v", err)
	}
	if again.Kind != OutcomeNoActiveGame {
		t.Fatalf("expected no_active_game after win, got %s", again.Kind)
	}
	if k := s.karmaOf(8, 1); k != 0 {
		t.Fatalf("late guesser must not get karma, got %d", k)
	}
}

func TestExpiredGuessTimesOutEvenWhenCorrect(t *testing.T) {
	m, s, clk := newTestManager(elephant)
	ctx := context.Background()
	if _, err := m.Start(ctx, 1); err != nil {
		t.Fatalf("start: %v", err)
	}

	out, err := m.EvaluateGuess(ctx, 1, 7, "Вася", "слон", clk.Now().Add(301*time.Second))
	if err != nil {
		t.Fatalf("guess: %v", err)
	}
	if out.Kind != OutcomeTimedOut || out.Word != "слон" {
		t.Fatalf("expected timed_out with word, got %+v", out)
	}
	if s.karmaOf(7, 1) != 0 {
		t.Fatalf("timed out game must not award karma")
	}
	if st := s.stat(7, 1); st.GamesPlayed != 1 || st.GamesWon != 0 {
		t.Fatalf("expected a recorded loss, got %+v", st)
	}
	if active, _ := m.IsActive(ctx, 1); active {
		t.Fatalf("expected timed out game to be inactive")
	}
}

func TestGuessAtExactDeadlineStillCounts(t *testing.T) {
	m, _, clk := newTestManager(elephant)
	ctx := context.Background()
	if _, err := m.Start(ctx, 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	out, err := m.EvaluateGuess(ctx, 1, 7, "Вася", "слон", clk.Now().Add(GameDuration))
	if err != nil {
		t.Fatalf("guess: %v", err)
	}
	if out.Kind != OutcomeCorrect {
		t.Fatalf("expected correct at exactly %s, got %s", GameDuration, out.Kind)
	}
}

func TestHintThrottling(t *testing.T) {
	m, _, clk := newTestManager(elephant)
	ctx := context.Background()
	if _, err := m.Start(ctx, 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	t0 := clk.Now()

	first, err := m.EvaluateGuess(ctx, 1, 7, "Вася", "слоп", t0.Add(time.Second))
	if err != nil {
		t.Fatalf("guess: %v", err)
	}
	if first.Kind != OutcomeIncorrect || first.Hint != HintVeryHot {
		t.Fatalf("expected very_hot hint, got %+v", first)
	}

	second, err := m.EvaluateGuess(ctx, 1, 8, "Петя", "кот", t0.Add(20*time.Second))
	if err != nil {
		t.Fatalf("guess: %v", err)
	}
	if second.Kind != OutcomeIncorrect || second.Hint != HintNone {
		t.Fatalf("expected throttled guess, got %+v", second)
	}

	// 29s after the last hint.
	third, err := m.EvaluateGuess(ctx, 1, 8, "Петя", "кот", t0.Add(30*time.Second))
	if err != nil {
		t.Fatalf("guess: %v", err)
	}
	if third.Hint != HintNone {
		t.Fatalf("expected throttled guess 1s before cooldown ends, got %+v", third)
	}

	// Exactly HintCooldown after the last hint.
	fourth, err := m.EvaluateGuess(ctx, 1, 8, "Петя", "кот", t0.Add(31*time.Second))
	if err != nil {
		t.Fatalf("guess: %v", err)
	}
	if fourth.Hint != HintNearLength {
		t.Fatalf("expected fresh hint once cooldown elapsed, got %+v", fourth)
	}

	fifth, err := m.EvaluateGuess(ctx, 1, 8, "Петя", "кот", t0.Add(31*time.Second+HintCooldown-time.Second))
	if err != nil {
		t.Fatalf("guess: %v", err)
	}
	if fifth.Hint != HintNone {
		t.Fatalf("cooldown must restart from the last hint, got %+v", fifth)
	}
}

func TestWrongGuessesAreCounted(t *testing.T) {
	m, s, clk := newTestManager(elephant)
	ctx := context.Background()
	if _, err := m.Start(ctx, 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i, word := range []string{"кот", "слоп"} {
		if _, err := m.EvaluateGuess(ctx, 1, 7, "Вася", word, clk.Now().Add(time.Duration(i+1)*time.Second)); err != nil {
			t.Fatalf("guess %q: %v", word, err)
		}
	}
	if st := s.stat(7, 1); st.TotalGuesses != 2 || st.GamesPlayed != 0 {
		t.Fatalf("expected 2 guesses and no finished game, got %+v", st)
	}
	if _, err := m.EvaluateGuess(ctx, 1, 7, "Вася", "слон", clk.Now().Add(5*time.Second)); err != nil {
		t.Fatalf("win: %v", err)
	}
	if st := s.stat(7, 1); st.TotalGuesses != 3 || st.GamesPlayed != 1 || st.GamesWon != 1 {
		t.Fatalf("expected winning guess counted, got %+v", st)
	}
}

func TestHintThrottleIsPerChat(t *testing.T) {
	m, _, clk := newTestManager(elephant)
	ctx := context.Background()
	for _, chat := range []int64{1, 2} {
		if _, err := m.Start(ctx, chat); err != nil {
			t.Fatalf("start %d: %v", chat, err)
		}
	}
	now := clk.Now().Add(time.Second)
	for _, chat := range []int64{1, 2} {
		out, err := m.EvaluateGuess(ctx, chat, 7, "Вася", "кот", now)
		if err != nil {
			t.Fatalf("guess: %v", err)
		}
		if out.Hint == HintNone {
			t.Fatalf("chat %d should get its own first hint", chat)
		}
	}
}

func TestStoreFailureIsStoreError(t *testing.T) {
	m, s, clk := newTestManager(elephant)
	boom := errors.New("connection refused")
	s.setFail(boom)
	ctx := context.Background()

	if _, err := m.Start(ctx, 1); !errors.Is(err, ErrStore) || !errors.Is(err, boom) {
		t.Fatalf("expected store error wrapping cause, got %v", err)
	}
	if _, err := m.EvaluateGuess(ctx, 1, 7, "Вася", "слон", clk.Now()); !errors.Is(err, ErrStore) {
		t.Fatalf("expected store error, got %v", err)
	}
	if _, err := m.IsActive(ctx, 1); !errors.Is(err, ErrStore) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestClue(t *testing.T) {
	m, _, _ := newTestManager(elephant)
	ctx := context.Background()
	if _, err := m.Clue(ctx, 1); !errors.Is(err, ErrNoActiveGame) {
		t.Fatalf("expected no_active_game, got %v", err)
	}
	if _, err := m.Start(ctx, 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	clue, err := m.Clue(ctx, 1)
	if err != nil || clue != elephant.Description {
		t.Fatalf("expected clue %q, got %q, %v", elephant.Description, clue, err)
	}
}

func TestStartWithEmptyCatalogUsesFallback(t *testing.T) {
	m, _, clk := newTestManager()
	ctx := context.Background()
	n, err := m.Start(ctx, 1)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if n != WordLength(FallbackEntry.Word) {
		t.Fatalf("expected fallback length, got %d", n)
	}
	out, err := m.EvaluateGuess(ctx, 1, 7, "Вася", FallbackEntry.Word, clk.Now())
	if err != nil || out.Kind != OutcomeCorrect || out.Description != FallbackEntry.Description {
		t.Fatalf("unexpected outcome %+v, %v", out, err)
	}
}

func TestTopByWins(t *testing.T) {
	m, s, clk := newTestManager(elephant)
	ctx := context.Background()
	for i, user := range []int64{7, 7, 8} {
		if _, err := m.Start(ctx, 1); err != nil {
			t.Fatalf("start %d: %v", i, err)
		}
		if _, err := m.EvaluateGuess(ctx, 1, user, "", "слон", clk.Now()); err != nil {
			t.Fatalf("guess %d: %v", i, err)
		}
	}
	top, err := NewStats(s).TopByWins(ctx, 1, 0)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 || top[0].UserID != 7 || top[0].Wins != 2 || top[1].UserID != 8 {
		t.Fatalf("unexpected leaderboard %+v", top)
	}
	if top[0].WinRate() != 100 {
		t.Fatalf("expected 100%% win rate, got %v", top[0].WinRate())
	}
}
