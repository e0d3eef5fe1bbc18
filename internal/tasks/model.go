package tasks

import "time"

const (
	StatusPending   = "PENDING"
	StatusRunning   = "RUNNING"
	StatusDone      = "DONE"
	StatusFailed    = "FAILED"
	StatusCancelled = "CANCELLED"
)

// Task is one unit of deferred work. Immutable once enqueued; the queue owns
// it until delivery. Delivery is at-least-once, so every callback endpoint
// must be idempotent.
type Task struct {
	ID uint64 `gorm:"primaryKey"`

	Queue      string `gorm:"index;not null"`
	TargetPath string `gorm:"type:text;not null"`
	Payload    []byte `gorm:"type:jsonb;not null;default:'{}'::jsonb"`
	Headers    []byte `gorm:"type:jsonb"`

	// Principal the callback token is signed as, empty for the default
	// dispatcher identity.
	Principal string `gorm:"type:text;not null;default:''"`

	// DedupKey lets callers collapse logically-equal enqueues (partial
	// unique index over pending rows).
	DedupKey *string `gorm:"type:text"`

	RunAt  time.Time `gorm:"index;not null"`
	Status string    `gorm:"index;not null;default:'PENDING'"`

	Attempts    int `gorm:"not null;default:0"`
	MaxAttempts int `gorm:"not null;default:8"`

	LockedBy *string    `gorm:"type:text"`
	LockedAt *time.Time `gorm:"type:timestamptz"`

	LastError *string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}
