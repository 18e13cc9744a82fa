package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// RecordGameResult counts one resolved game for the user in a single upsert.
// The guess that decided the game is counted in total_guesses as well.
func (s *Store) RecordGameResult(ctx context.Context, userID, chatID int64, won bool, at time.Time) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO game_stats (user_id, chat_id, games_played, games_won, total_guesses, last_played)
		VALUES ($1, $2, 1, $3, 1, $4)
		ON CONFLICT (user_id, chat_id) DO UPDATE
		SET games_played = game_stats.games_played + 1,
		    games_won = game_stats.games_won + EXCLUDED.games_won,
		    total_guesses = game_stats.total_guesses + 1,
		    last_played = EXCLUDED.last_played
	`, userID, chatID, boolToInt(won), timestamptzParam(at))
	return err
}

// RecordGuess counts a wrong guess made while a game was still running.
func (s *Store) RecordGuess(ctx context.Context, userID, chatID int64, at time.Time) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO game_stats (user_id, chat_id, total_guesses, last_played)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (user_id, chat_id) DO UPDATE
		SET total_guesses = game_stats.total_guesses + 1,
		    last_played = EXCLUDED.last_played
	`, userID, chatID, timestamptzParam(at))
	return err
}

func (s *Store) GetGameStat(ctx context.Context, userID, chatID int64) (*GameStat, error) {
	var (
		st         GameStat
		lastPlayed pgtype.Timestamptz
	)
	err := s.Pool.QueryRow(ctx, `
		SELECT user_id, chat_id, games_played, games_won, total_guesses, last_played
		FROM game_stats WHERE user_id = $1 AND chat_id = $2
	`, userID, chatID).Scan(&st.UserID, &st.ChatID, &st.GamesPlayed, &st.GamesWon, &st.TotalGuesses, &lastPlayed)
	if err != nil {
		return nil, mapNotFound(err)
	}
	st.LastPlayed = lastPlayed.Time
	return &st, nil
}

func (s *Store) TopByWins(ctx context.Context, chatID int64, limit int) ([]GameStat, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT user_id, chat_id, games_played, games_won, total_guesses, last_played
		FROM game_stats
		WHERE chat_id = $1 AND games_played > 0
		ORDER BY games_won DESC, games_played ASC, user_id ASC
		LIMIT $2
	`, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []GameStat{}
	for rows.Next() {
		var (
			st         GameStat
			lastPlayed pgtype.Timestamptz
		)
		if err := rows.Scan(&st.UserID, &st.ChatID, &st.GamesPlayed, &st.GamesWon, &st.TotalGuesses, &lastPlayed); err != nil {
			return nil, err
		}
		st.LastPlayed = lastPlayed.Time
		out = append(out, st)
	}
	return out, rows.Err()
}
