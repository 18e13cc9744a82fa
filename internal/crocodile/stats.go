package crocodile

import (
	"context"
	"time"

	"boltalka-bot/internal/store"
)

const DefaultTopLimit = 10

type StatsStore interface {
	RecordGameResult(ctx context.Context, userID, chatID int64, won bool, at time.Time) error
	RecordGuess(ctx context.Context, userID, chatID int64, at time.Time) error
	TopByWins(ctx context.Context, chatID int64, limit int) ([]store.GameStat, error)
}

type PlayerStat struct {
	UserID int64
	Wins   int
	Played int
}

// WinRate is the share of played games that were won, in percent.
func (p PlayerStat) WinRate() float64 {
	if p.Played == 0 {
		return 0
	}
	return float64(p.Wins) / float64(p.Played) * 100
}

// Stats tracks per-(user, chat) play and win counters.
type Stats struct {
	store StatsStore
}

func NewStats(s StatsStore) *Stats {
	return &Stats{store: s}
}

func (s *Stats) Record(ctx context.Context, userID, chatID int64, won bool, at time.Time) error {
	if err := s.store.RecordGameResult(ctx, userID, chatID, won, at); err != nil {
		return storeErr("record game result", err)
	}
	return nil
}

// Guess counts a wrong guess toward the user's total.
func (s *Stats) Guess(ctx context.Context, userID, chatID int64, at time.Time) error {
	if err := s.store.RecordGuess(ctx, userID, chatID, at); err != nil {
		return storeErr("record guess", err)
	}
	return nil
}

// TopByWins returns at most limit players ordered by wins, descending.
func (s *Stats) TopByWins(ctx context.Context, chatID int64, limit int) ([]PlayerStat, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	rows, err := s.store.TopByWins(ctx, chatID, limit)
	if err != nil {
		return nil, storeErr("top by wins", err)
	}
	out := make([]PlayerStat, 0, len(rows))
	for _, r := range rows {
		out = append(out, PlayerStat{UserID: r.UserID, Wins: r.GamesWon, Played: r.GamesPlayed})
	}
	return out, nil
}
