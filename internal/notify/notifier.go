package notify

import (
	"context"
	"errors"
	"log"
	"time"

	"chorus/internal/auth"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	KindLifecycleWarning   = "lifecycle_warning"
	KindLifecycleCondemned = "lifecycle_condemned"
	KindModerationFlag     = "moderation_flag"
)

// Notification is the stored record; delivery to a device is a separate,
// best-effort concern behind Transport.
type Notification struct {
	ID     uint64 `gorm:"primaryKey"`
	UserID uint64 `gorm:"index;not null"`

	Kind  string `gorm:"not null"`
	Title string `gorm:"not null"`
	Body  string `gorm:"type:text;not null"`

	// DedupKey collapses repeated sends of the same logical notification
	// (partial unique index on user_id+kind+dedup_key).
	DedupKey *string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

// Transport pushes a notification out-of-band. The default implementation
// only logs; the real push pipeline lives outside this service.
type Transport interface {
	Push(ctx context.Context, userID uint64, title, body string) error
}

type LogTransport struct{}

func (LogTransport) Push(_ context.Context, userID uint64, title, _ string) error {
	log.Printf("[push] user=%d title=%q\n", userID, title)
	return nil
}

type Notifier struct {
	DB        *gorm.DB
	Transport Transport
}

// Send stores the notification and pushes it. A dedup conflict is a benign
// no-op, not an error: redelivered jobs may send the same notification twice.
func (n *Notifier) Send(ctx context.Context, userID uint64, kind, title, body string, dedupKey *string) error {
	rec := Notification{
		UserID:   userID,
		Kind:     kind,
		Title:    title,
		Body:     body,
		DedupKey: dedupKey,
	}

	res := n.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil // already sent
	}

	if n.Transport != nil {
		if err := n.Transport.Push(ctx, userID, title, body); err != nil {
			// The stored record is the source of truth; push is best effort.
			log.Printf("notify: push failed for user %d: %v\n", userID, err)
		}
	}
	return nil
}

// NotifyOperators fans out to every operator account. The batch is not
// transactional across operators; a partial send is compensated by dedup
// keys on retry.
func (n *Notifier) NotifyOperators(ctx context.Context, subject, body string) error {
	var ops []auth.User
	if err := n.DB.WithContext(ctx).
		Where("role = ?", auth.RoleOperator).
		Find(&ops).Error; err != nil {
		return err
	}

	var firstErr error
	for _, op := range ops {
		if err := n.Send(ctx, op.ID, KindModerationFlag, subject, body, nil); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return errors.New("operator notify partial failure: " + firstErr.Error())
	}
	return nil
}
