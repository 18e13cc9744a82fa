package store

import "time"

const (
	OutcomeWon     = "won"
	OutcomeTimeout = "timeout"
)

type GameSession struct {
	ID         string
	ChatID     int64
	Word       string
	Active     bool
	StartedAt  time.Time
	ResolvedAt *time.Time
	Outcome    string
}

type WordEntry struct {
	Word        string
	Description string
	AddedBy     int64
	AddedAt     time.Time
}

type GameStat struct {
	UserID       int64
	ChatID       int64
	GamesPlayed  int
	GamesWon     int
	TotalGuesses int
	LastPlayed   time.Time
}

type KarmaEntry struct {
	UserID int64
	ChatID int64
	Karma  int64
}
