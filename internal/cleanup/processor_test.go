package cleanup

import (
	"context"
	"testing"

	"chorus/internal/tasks"
)

// memStore models a group with a flat count of content rows.
type memStore struct {
	remaining int64
	finalized bool
}

func (m *memStore) PurgeContentBatch(_ context.Context, _ uint64, limit int) (int, error) {
	n := int64(limit)
	if n > m.remaining {
		n = m.remaining
	}
	m.remaining -= n
	return int(n), nil
}

func (m *memStore) RemainingContent(context.Context, uint64) (int64, error) {
	return m.remaining, nil
}

func (m *memStore) Finalize(context.Context, uint64) error {
	m.finalized = true
	return nil
}

type memEnqueuer struct {
	enqueued []tasks.Task
}

func (m *memEnqueuer) Enqueue(_ context.Context, queue, targetPath string, payload any, opts ...tasks.Option) (uint64, error) {
	t, err := tasks.NewTask(queue, targetPath, payload, opts...)
	if err != nil {
		return 0, err
	}
	m.enqueued = append(m.enqueued, t)
	return uint64(len(m.enqueued)), nil
}

func TestProcessTerminatesInBatchCeilingCycles(t *testing.T) {
	cases := []struct {
		content    int64
		batch      int
		wantCycles int
	}{
		{0, 100, 1},
		{50, 100, 1},
		{100, 100, 1},
		{101, 100, 2},
		{250, 100, 3},
		{1000, 100, 10},
		{7, 3, 3},
	}

	for _, tc := range cases {
		store := &memStore{remaining: tc.content}
		enq := &memEnqueuer{}
		p := &Processor{Store: store, Dispatcher: enq, Queue: "cleanup", BatchLimit: tc.batch}
		in := Payload{GroupID: 9, GroupName: "quiet circle"}

		cycles := 0
		for {
			cycles++
			before := len(enq.enqueued)
			if err := p.Process(context.Background(), in); err != nil {
				t.Fatal(err)
			}
			if len(enq.enqueued) == before {
				break // no re-enqueue, teardown finished
			}
			if cycles > tc.wantCycles {
				break
			}
		}

		if cycles != tc.wantCycles {
			t.Fatalf("content=%d batch=%d: %d cycles, want %d", tc.content, tc.batch, cycles, tc.wantCycles)
		}
		if !store.finalized {
			t.Fatalf("content=%d batch=%d: never finalized", tc.content, tc.batch)
		}
		if store.remaining != 0 {
			t.Fatalf("content=%d batch=%d: %d rows left", tc.content, tc.batch, store.remaining)
		}
	}
}

func TestProcessReenqueuesWithDedupKey(t *testing.T) {
	store := &memStore{remaining: 500}
	enq := &memEnqueuer{}
	p := &Processor{Store: store, Dispatcher: enq, Queue: "cleanup", BatchLimit: 100}

	if err := p.Process(context.Background(), Payload{GroupID: 42}); err != nil {
		t.Fatal(err)
	}

	if len(enq.enqueued) != 1 {
		t.Fatalf("%d tasks enqueued, want 1", len(enq.enqueued))
	}
	task := enq.enqueued[0]
	if task.TargetPath != Path {
		t.Fatalf("target = %q", task.TargetPath)
	}
	if task.DedupKey == nil || *task.DedupKey != "cleanup-42" {
		t.Fatalf("dedupKey = %v, want cleanup-42", task.DedupKey)
	}
}
