package karma

import (
	"context"

	"boltalka-bot/internal/store"
)

const (
	PlusDelta   = 1
	VerifyDelta = 3
	TopLimit    = 10
)

type Store interface {
	AddKarma(ctx context.Context, userID, chatID, delta int64) (int64, error)
	GetKarma(ctx context.Context, userID, chatID int64) (int64, error)
	TopKarma(ctx context.Context, chatID int64, limit int) ([]store.KarmaEntry, error)
}

// Ledger is the per-chat reputation counter shared by social actions and
// game wins.
type Ledger struct {
	Store Store
}

func New(s Store) *Ledger {
	return &Ledger{Store: s}
}

// Award adds delta to the user's karma in chatID and returns the new total.
func (l *Ledger) Award(ctx context.Context, userID, chatID, delta int64) (int64, error) {
	return l.Store.AddKarma(ctx, userID, chatID, delta)
}

func (l *Ledger) Plus(ctx context.Context, userID, chatID int64) (int64, error) {
	return l.Award(ctx, userID, chatID, PlusDelta)
}

func (l *Ledger) Verified(ctx context.Context, userID, chatID int64) (int64, error) {
	return l.Award(ctx, userID, chatID, VerifyDelta)
}

func (l *Ledger) Get(ctx context.Context, userID, chatID int64) (int64, error) {
	return l.Store.GetKarma(ctx, userID, chatID)
}

func (l *Ledger) Top(ctx context.Context, chatID int64, limit int) ([]store.KarmaEntry, error) {
	if limit <= 0 {
		limit = TopLimit
	}
	return l.Store.TopKarma(ctx, chatID, limit)
}
