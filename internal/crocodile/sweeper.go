package crocodile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"boltalka-bot/internal/store"

	"github.com/rs/zerolog/log"
)

// Notifier tells a chat that its game ran out of time.
type Notifier interface {
	NotifyTimeout(ctx context.Context, chatID int64, word string) error
}

type pruner interface {
	Prune(before time.Time) int
}

type SweepResult struct {
	Expired        int
	Resolved       int
	NotifyFailures int
}

// Sweeper force-ends games that outlived GameDuration, whether or not anyone
// is still guessing in the chat.
type Sweeper struct {
	manager  *Manager
	notifier Notifier
	interval time.Duration
}

func NewSweeper(m *Manager, n Notifier) *Sweeper {
	return &Sweeper{manager: m, notifier: n, interval: SweepInterval}
}

// Run ticks until ctx is done. Tick errors are logged and retried on the next
// tick; Run itself only returns when the context ends.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	log.Info().Dur("interval", s.interval).Msg("crocodile sweeper started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("crocodile sweeper stopped")
			return nil
		case now := <-ticker.C:
			s.safeTick(ctx, now)
		}
	}
}

func (s *Sweeper) safeTick(ctx context.Context, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("crocodile sweep panicked")
		}
	}()
	if _, err := s.Tick(ctx, now); err != nil {
		log.Error().Err(err).Msg("crocodile sweep failed")
	}
}

// Tick resolves every session that expired before now and notifies each chat.
// A failed notification never undoes the resolution.
func (s *Sweeper) Tick(ctx context.Context, now time.Time) (SweepResult, error) {
	var res SweepResult
	m := s.manager

	sessions, err := m.expiredSessions(ctx, now)
	m.metrics.sweepTick(err)
	if err != nil {
		return res, err
	}
	res.Expired = len(sessions)

	var errs []error
	for i := range sessions {
		sess := &sessions[i]
		ok, err := m.resolve(ctx, sess, store.OutcomeTimeout, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", sess.ChatID, err))
			continue
		}
		if !ok {
			continue
		}
		res.Resolved++
		log.Info().Int64("chat_id", sess.ChatID).Str("session_id", sess.ID).Msg("crocodile game timed out")

		if s.notifier == nil {
			continue
		}
		if err := s.notifier.NotifyTimeout(ctx, sess.ChatID, sess.Word); err != nil {
			res.NotifyFailures++
			m.metrics.notifyFailure()
			nf := &NotifyFailure{ChatID: sess.ChatID, Err: err}
			log.Warn().Err(nf).Msg("crocodile timeout notification not delivered")
		}
	}

	if p, ok := m.throttle.(pruner); ok {
		p.Prune(now.Add(-GameDuration))
	}
	return res, errors.Join(errs...)
}
