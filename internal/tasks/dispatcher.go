package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotSerializable = errors.New("payload not serializable")

// Dispatcher enqueues deferred work. It inserts exactly one row per call and
// never retries; retry/backoff on delivery is the worker's concern. Enqueue
// failure surfaces synchronously so the caller can decide whether to fail the
// enclosing operation or degrade.
type Dispatcher struct {
	DB *gorm.DB
}

// WithTx returns a Dispatcher bound to an open transaction, so a domain write
// and its follow-up task commit or roll back together (outbox pattern).
func (d *Dispatcher) WithTx(tx *gorm.DB) *Dispatcher {
	return &Dispatcher{DB: tx}
}

type enqueueOpts struct {
	runAt     time.Time
	headers   map[string]string
	principal string
	dedupKey  *string
	noRetry   bool
}

type Option func(*enqueueOpts)

// At delays delivery until the given time. Zero means as soon as possible.
func At(t time.Time) Option {
	return func(o *enqueueOpts) { o.runAt = t }
}

func Headers(h map[string]string) Option {
	return func(o *enqueueOpts) { o.headers = h }
}

func As(principal string) Option {
	return func(o *enqueueOpts) { o.principal = principal }
}

func Dedup(key string) Option {
	return func(o *enqueueOpts) { o.dedupKey = &key }
}

func NoRetry() Option {
	return func(o *enqueueOpts) { o.noRetry = true }
}

// NewTask resolves options into the pending task row an enqueue would insert.
func NewTask(queue, targetPath string, payload any, opts ...Option) (Task, error) {
	o := enqueueOpts{runAt: time.Now()}
	for _, fn := range opts {
		fn(&o)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Task{}, ErrNotSerializable
	}

	t := Task{
		Queue:      queue,
		TargetPath: targetPath,
		Payload:    body,
		Principal:  o.principal,
		DedupKey:   o.dedupKey,
		RunAt:      o.runAt,
		Status:     StatusPending,
	}
	if o.noRetry {
		t.MaxAttempts = 1
	}
	if len(o.headers) > 0 {
		h, err := json.Marshal(o.headers)
		if err != nil {
			return Task{}, ErrNotSerializable
		}
		t.Headers = h
	}
	return t, nil
}

// Enqueue inserts one task and returns its handle. The handle is only useful
// for best-effort cancellation later.
func (d *Dispatcher) Enqueue(ctx context.Context, queue, targetPath string, payload any, opts ...Option) (uint64, error) {
	t, err := NewTask(queue, targetPath, payload, opts...)
	if err != nil {
		return 0, err
	}

	q := d.DB.WithContext(ctx)
	if t.DedupKey != nil {
		// a pending task with the same key already covers this enqueue
		q = q.Clauses(clause.OnConflict{DoNothing: true})
	}
	res := q.Create(&t)
	if res.Error != nil {
		return 0, res.Error
	}
	if t.DedupKey != nil && res.RowsAffected == 0 {
		return 0, nil
	}
	return t.ID, nil
}

// Cancel is best-effort: it removes the task only while it is still pending.
// Delivery and cancellation can race, so handlers must re-check their trigger
// condition regardless.
func (d *Dispatcher) Cancel(ctx context.Context, id uint64) error {
	return d.DB.WithContext(ctx).
		Exec(`delete from tasks where id = ? and status = 'PENDING'`, id).Error
}

// CancelByDedup removes all pending tasks carrying the given dedup key.
func (d *Dispatcher) CancelByDedup(ctx context.Context, key string) error {
	return d.DB.WithContext(ctx).
		Exec(`delete from tasks where dedup_key = ? and status = 'PENDING'`, key).Error
}
