package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const gameSessionColumns = `id, chat_id, word, active, started_at, resolved_at, outcome`

// CreateActiveSession inserts a new active session for the chat. The partial
// unique index on (chat_id) WHERE active turns a concurrent second insert into
// ErrAlreadyActive.
func (s *Store) CreateActiveSession(ctx context.Context, chatID int64, word string, startedAt time.Time) (*GameSession, error) {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO game_sessions (id, chat_id, word, active, started_at)
		VALUES ($1, $2, $3, TRUE, $4)
		RETURNING `+gameSessionColumns,
		NewID(), chatID, word, timestamptzParam(startedAt))
	sess, err := scanGameSession(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyActive
		}
		return nil, err
	}
	return sess, nil
}

func (s *Store) GetActiveSession(ctx context.Context, chatID int64) (*GameSession, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+gameSessionColumns+` FROM game_sessions WHERE chat_id = $1 AND active`, chatID)
	sess, err := scanGameSession(row)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return sess, nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*GameSession, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+gameSessionColumns+` FROM game_sessions WHERE id = $1`, id)
	sess, err := scanGameSession(row)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return sess, nil
}

func (s *Store) HasActiveSession(ctx context.Context, chatID int64) (bool, error) {
	var ok bool
	err := s.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM game_sessions WHERE chat_id = $1 AND active)`, chatID).Scan(&ok)
	return ok, err
}

// ResolveSession marks the session inactive. It reports false when the session
// was already resolved, so competing resolutions are no-ops.
func (s *Store) ResolveSession(ctx context.Context, id, outcome string, at time.Time) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE game_sessions
		SET active = FALSE, resolved_at = $2, outcome = $3
		WHERE id = $1 AND active
	`, id, timestamptzParam(at), outcome)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListExpiredSessions returns active sessions started strictly before cutoff,
// across all chats.
func (s *Store) ListExpiredSessions(ctx context.Context, cutoff time.Time) ([]GameSession, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+gameSessionColumns+`
		FROM game_sessions
		WHERE active AND started_at < $1
		ORDER BY started_at ASC
	`, timestamptzParam(cutoff))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []GameSession{}
	for rows.Next() {
		sess, err := scanGameSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sess)
	}
	return out, rows.Err()
}

func scanGameSession(row pgx.Row) (*GameSession, error) {
	var (
		sess       GameSession
		startedAt  pgtype.Timestamptz
		resolvedAt pgtype.Timestamptz
	)
	if err := row.Scan(&sess.ID, &sess.ChatID, &sess.Word, &sess.Active, &startedAt, &resolvedAt, &sess.Outcome); err != nil {
		return nil, err
	}
	sess.StartedAt = startedAt.Time
	sess.ResolvedAt = timePtrVal(resolvedAt)
	return &sess, nil
}
