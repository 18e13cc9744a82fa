package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

func (s *Store) CountWords(ctx context.Context) (int, error) {
	var c int
	if err := s.Pool.QueryRow(ctx, `SELECT COUNT(1) FROM game_words`).Scan(&c); err != nil {
		return 0, err
	}
	return c, nil
}

// InsertWord adds a catalog entry. An existing word yields ErrDuplicate and
// leaves the row untouched.
func (s *Store) InsertWord(ctx context.Context, w WordEntry) error {
	if w.AddedAt.IsZero() {
		w.AddedAt = time.Now()
	}
	tag, err := s.Pool.Exec(ctx, `
		INSERT INTO game_words (word, description, added_by, added_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (word) DO NOTHING
	`, w.Word, w.Description, w.AddedBy, timestamptzParam(w.AddedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicate
	}
	return nil
}

func (s *Store) RandomWord(ctx context.Context) (*WordEntry, error) {
	row := s.Pool.QueryRow(ctx, `SELECT word, description, added_by, added_at FROM game_words ORDER BY random() LIMIT 1`)
	w, err := scanWord(row)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return w, nil
}

func (s *Store) GetWord(ctx context.Context, word string) (*WordEntry, error) {
	row := s.Pool.QueryRow(ctx, `SELECT word, description, added_by, added_at FROM game_words WHERE word = $1`, word)
	w, err := scanWord(row)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return w, nil
}

func (s *Store) ListWords(ctx context.Context) ([]WordEntry, error) {
	rows, err := s.Pool.Query(ctx, `SELECT word, description, added_by, added_at FROM game_words ORDER BY word ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []WordEntry{}
	for rows.Next() {
		w, err := scanWord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

// EnsureDefaultWords seeds the catalog when it is empty and returns how many
// rows were inserted. Concurrent seeders are harmless: conflicts are skipped.
func (s *Store) EnsureDefaultWords(ctx context.Context, defaults []WordEntry) (int, error) {
	c, err := s.CountWords(ctx)
	if err != nil {
		return 0, err
	}
	if c > 0 {
		return 0, nil
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	inserted := 0
	now := time.Now()
	for _, w := range defaults {
		tag, err := tx.Exec(ctx, `
			INSERT INTO game_words (word, description, added_by, added_at)
			VALUES ($1, $2, 0, $3)
			ON CONFLICT (word) DO NOTHING
		`, w.Word, w.Description, timestamptzParam(now))
		if err != nil {
			return 0, err
		}
		inserted += int(tag.RowsAffected())
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return inserted, nil
}

func scanWord(row pgx.Row) (*WordEntry, error) {
	var (
		w       WordEntry
		addedAt pgtype.Timestamptz
	)
	if err := row.Scan(&w.Word, &w.Description, &w.AddedBy, &addedAt); err != nil {
		return nil, err
	}
	w.AddedAt = addedAt.Time
	return &w, nil
}
