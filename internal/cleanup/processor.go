package cleanup

import (
	"context"
	"fmt"
	"log"
	"time"

	"chorus/internal/tasks"
)

const Path = "/internal/tasks/cleanup-group"

// Payload carries no cursor: progress is entirely observable from remaining
// row counts, so restarting from scratch after a crash is always correct.
type Payload struct {
	GroupID   uint64 `json:"group_id"`
	GroupName string `json:"group_name"`
}

// BlobStore abstracts the artifact bucket. Deletes are if-exists.
type BlobStore interface {
	DeleteObject(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// NopBlobStore is used when no bucket is configured.
type NopBlobStore struct{}

func (NopBlobStore) DeleteObject(context.Context, string) error { return nil }
func (NopBlobStore) DeletePrefix(context.Context, string) error { return nil }

// Enqueuer is the slice of the task dispatcher the processor needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, queue, targetPath string, payload any, opts ...tasks.Option) (uint64, error)
}

// Store is the persistence boundary of the teardown. Every operation is safe
// to re-run, because redelivery and parallel chains both happen.
type Store interface {
	// PurgeContentBatch removes up to limit child records of the group
	// (comments, reactions, posts with their media) and reports how many.
	PurgeContentBatch(ctx context.Context, groupID uint64, limit int) (int, error)
	RemainingContent(ctx context.Context, groupID uint64) (int64, error)
	// Finalize removes everything that is not paged content: secondary
	// records, blob prefixes, scoped personas, the group row itself.
	Finalize(ctx context.Context, groupID uint64) error
}

// Processor tears down a condemned group one bounded page at a time. Instead
// of looping in-process it re-enqueues itself, so arbitrarily large groups
// survive per-invocation time limits and process restarts.
type Processor struct {
	Store      Store
	Dispatcher Enqueuer
	Queue      string

	BatchLimit int
	// RequeueDelay is the short fixed gap between self-enqueued pages.
	RequeueDelay time.Duration
}

func (p *Processor) batchLimit() int {
	if p.BatchLimit > 0 {
		return p.BatchLimit
	}
	return 100
}

// Process runs one invocation: delete up to one batch of child content, and
// either hand the rest to a future invocation or finish the teardown.
func (p *Processor) Process(ctx context.Context, in Payload) error {
	deleted, err := p.Store.PurgeContentBatch(ctx, in.GroupID, p.batchLimit())
	if err != nil {
		return err
	}

	remaining, err := p.Store.RemainingContent(ctx, in.GroupID)
	if err != nil {
		return err
	}
	if remaining > 0 {
		log.Printf("cleanup: group %d (%s): %d deleted, %d remain, re-enqueueing\n",
			in.GroupID, in.GroupName, deleted, remaining)
		delay := p.RequeueDelay
		if delay <= 0 {
			delay = 15 * time.Second
		}
		// the dedup key folds a redelivered invocation's re-enqueue into the
		// chain instead of forking a parallel one
		_, err := p.Dispatcher.Enqueue(ctx, p.Queue, Path, in,
			tasks.At(time.Now().Add(delay)),
			tasks.Dedup(fmt.Sprintf("cleanup-%d", in.GroupID)))
		return err
	}

	if err := p.Store.Finalize(ctx, in.GroupID); err != nil {
		return err
	}
	log.Printf("cleanup: group %d (%s) fully removed\n", in.GroupID, in.GroupName)
	return nil
}
