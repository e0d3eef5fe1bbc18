package reputation

import (
	"context"
	"errors"
)

var ErrUserNotFound = errors.New("user not found")

// Ledger mutates reputation scores. Every mutation is one store transaction
// that locks the user row, clamps the new score, writes it, and appends
// exactly one entry.
type Ledger struct {
	Store    Store
	MaxScore int
}

func (l *Ledger) Penalize(ctx context.Context, userID uint64, amount int, reason string) (int, error) {
	return l.apply(ctx, userID, -amount, reason)
}

func (l *Ledger) Reward(ctx context.Context, userID uint64, amount int, reason string) (int, error) {
	return l.apply(ctx, userID, amount, reason)
}

func (l *Ledger) apply(ctx context.Context, userID uint64, delta int, reason string) (int, error) {
	var resulting int
	err := l.Store.Mutate(ctx, userID, func(current int) (int, Entry) {
		resulting = clamp(current+delta, 0, l.MaxScore)
		return resulting, Entry{
			Delta:          delta,
			Reason:         reason,
			ResultingScore: resulting,
		}
	})
	return resulting, err
}

// SetBanned is a deliberate administrative action. Ban state is decoupled
// from the score: hitting zero never bans anyone automatically.
func (l *Ledger) SetBanned(ctx context.Context, userID uint64, banned bool) error {
	return l.Store.SetBanned(ctx, userID, banned)
}

// History returns a user's entries oldest-first, for audit and replay.
func (l *Ledger) History(ctx context.Context, userID uint64) ([]Entry, error) {
	return l.Store.History(ctx, userID)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
