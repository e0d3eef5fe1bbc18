package post

import (
	"context"
	"fmt"
	"testing"

	"chorus/internal/moderation"
	"chorus/internal/reputation"
)

type stubClassifier struct{ raw string }

func (c stubClassifier) Classify(context.Context, string) (string, error) {
	return c.raw, nil
}

type memAuditStore struct{}

func (memAuditStore) Save(context.Context, *moderation.Audit) error { return nil }

type memLedgerStore struct {
	score   int
	entries []reputation.Entry
}

func (m *memLedgerStore) Mutate(_ context.Context, userID uint64, fn func(int) (int, reputation.Entry)) error {
	next, e := fn(m.score)
	e.UserID = userID
	m.score = next
	m.entries = append(m.entries, e)
	return nil
}

func (m *memLedgerStore) SetBanned(context.Context, uint64, bool) error { return nil }

func (m *memLedgerStore) History(context.Context, uint64) ([]reputation.Entry, error) {
	return m.entries, nil
}

func serviceWithVerdict(confidence float64, ledgerStore *memLedgerStore) *Service {
	return &Service{
		Engine: &moderation.Engine{
			Audits: memAuditStore{},
			Classifier: stubClassifier{raw: fmt.Sprintf(
				`{"is_violation": %t, "category": "t", "confidence": %g, "reason": "too spicy", "suggestion": "tone it down"}`,
				confidence >= 0.5, confidence)},
			FlagThreshold:   0.5,
			BlockThreshold:  0.7,
			StandardPenalty: 5,
		},
		Ledger: &reputation.Ledger{Store: ledgerStore, MaxScore: 100},
	}
}

func TestModerateTiersContent(t *testing.T) {
	cases := []struct {
		confidence  float64
		wantFlagged bool
		wantReject  bool
	}{
		{0.1, false, false},
		{0.49, false, false},
		{0.5, true, false},
		{0.69, true, false},
		{0.7, false, true},
		{0.95, false, true},
	}

	for _, tc := range cases {
		store := &memLedgerStore{score: 100}
		s := serviceWithVerdict(tc.confidence, store)

		flagged, rej, err := s.moderate(context.Background(), 7, "a take", "", nil)
		if err != nil {
			t.Fatalf("confidence %g: %v", tc.confidence, err)
		}
		if flagged != tc.wantFlagged {
			t.Fatalf("confidence %g: flagged = %t, want %t", tc.confidence, flagged, tc.wantFlagged)
		}
		if (rej != nil) != tc.wantReject {
			t.Fatalf("confidence %g: rejected = %t, want %t", tc.confidence, rej != nil, tc.wantReject)
		}
	}
}

func TestModerateRejectionAppliesPenalty(t *testing.T) {
	store := &memLedgerStore{score: 100}
	s := serviceWithVerdict(0.9, store)

	_, rej, err := s.moderate(context.Background(), 7, "a take", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if rej == nil {
		t.Fatal("blocked content not rejected")
	}
	if rej.Reason != "too spicy" || rej.Suggestion != "tone it down" {
		t.Fatalf("rejection = %+v", rej)
	}
	if rej.ResultingScore != 95 {
		t.Fatalf("resulting score = %d, want 95", rej.ResultingScore)
	}
	if len(store.entries) != 1 {
		t.Fatalf("%d ledger entries, want 1", len(store.entries))
	}
	if store.entries[0].Delta != -5 {
		t.Fatalf("delta = %d, want -5", store.entries[0].Delta)
	}

	// flagged and allowed content never touches the ledger
	store = &memLedgerStore{score: 100}
	s = serviceWithVerdict(0.6, store)
	if _, _, err := s.moderate(context.Background(), 7, "a take", "", nil); err != nil {
		t.Fatal(err)
	}
	if len(store.entries) != 0 {
		t.Fatalf("flagged content wrote %d ledger entries", len(store.entries))
	}
}
