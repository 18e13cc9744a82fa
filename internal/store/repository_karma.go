package store

import (
	"context"
	"errors"
)

// AddKarma applies delta atomically and returns the resulting karma.
func (s *Store) AddKarma(ctx context.Context, userID, chatID, delta int64) (int64, error) {
	var karma int64
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO karma (user_id, chat_id, karma)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, chat_id) DO UPDATE
		SET karma = karma.karma + EXCLUDED.karma
		RETURNING karma
	`, userID, chatID, delta).Scan(&karma)
	return karma, err
}

func (s *Store) GetKarma(ctx context.Context, userID, chatID int64) (int64, error) {
	var karma int64
	err := s.Pool.QueryRow(ctx, `SELECT karma FROM karma WHERE user_id = $1 AND chat_id = $2`, userID, chatID).Scan(&karma)
	if err != nil {
		if err = mapNotFound(err); errors.Is(err, ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return karma, nil
}

func (s *Store) TopKarma(ctx context.Context, chatID int64, limit int) ([]KarmaEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT user_id, chat_id, karma FROM karma
		WHERE chat_id = $1
		ORDER BY karma DESC, user_id ASC
		LIMIT $2
	`, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []KarmaEntry{}
	for rows.Next() {
		var e KarmaEntry
		if err := rows.Scan(&e.UserID, &e.ChatID, &e.Karma); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
