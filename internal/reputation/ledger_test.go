package reputation

import (
	"context"
	"testing"
)

// memStore keeps one user's score and an append-only entry list.
type memStore struct {
	score   int
	entries []Entry
}

func (m *memStore) Mutate(_ context.Context, userID uint64, fn func(int) (int, Entry)) error {
	next, e := fn(m.score)
	e.UserID = userID
	m.score = next
	m.entries = append(m.entries, e)
	return nil
}

func (m *memStore) SetBanned(context.Context, uint64, bool) error { return nil }

func (m *memStore) History(context.Context, uint64) ([]Entry, error) {
	return m.entries, nil
}

func TestLedgerOneEntryPerMutation(t *testing.T) {
	ctx := context.Background()
	store := &memStore{score: 100}
	l := &Ledger{Store: store, MaxScore: 100}

	steps := []struct {
		penalize  bool
		amount    int
		wantScore int
	}{
		{true, 5, 95},
		{true, 10, 85},
		{true, 90, 0}, // clamped at the floor
		{false, 50, 50},
		{false, 70, 100}, // clamped at the ceiling
	}

	for i, s := range steps {
		var got int
		var err error
		if s.penalize {
			got, err = l.Penalize(ctx, 7, s.amount, "x")
		} else {
			got, err = l.Reward(ctx, 7, s.amount, "x")
		}
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got != s.wantScore {
			t.Fatalf("step %d: resulting score = %d, want %d", i, got, s.wantScore)
		}
		if len(store.entries) != i+1 {
			t.Fatalf("step %d: %d entries, want %d", i, len(store.entries), i+1)
		}
		e := store.entries[i]
		if e.ResultingScore != s.wantScore {
			t.Fatalf("step %d: entry resulting score = %d, want %d", i, e.ResultingScore, s.wantScore)
		}
		if e.UserID != 7 {
			t.Fatalf("step %d: entry user = %d", i, e.UserID)
		}
		if s.penalize && e.Delta != -s.amount {
			t.Fatalf("step %d: delta = %d, want %d", i, e.Delta, -s.amount)
		}
		if !s.penalize && e.Delta != s.amount {
			t.Fatalf("step %d: delta = %d, want %d", i, e.Delta, s.amount)
		}
	}
}

func TestClamp(t *testing.T) {
	cases := []struct {
		v, lo, hi, want int
	}{
		{50, 0, 100, 50},
		{-5, 0, 100, 0},
		{0, 0, 100, 0},
		{100, 0, 100, 100},
		{105, 0, 100, 100},
		{3, 0, 100, 3},
	}
	for _, tc := range cases {
		if got := clamp(tc.v, tc.lo, tc.hi); got != tc.want {
			t.Fatalf("clamp(%d, %d, %d) = %d, want %d", tc.v, tc.lo, tc.hi, got, tc.want)
		}
	}
}
