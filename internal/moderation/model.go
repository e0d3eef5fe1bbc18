package moderation

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Audit rows keep the violating (or borderline) content together with the
// verdict that condemned it, for human review.
type Audit struct {
	ID       uint64 `gorm:"primaryKey"`
	AuthorID uint64 `gorm:"index;not null"`

	ContentType string `gorm:"not null"` // text/media
	Content     string `gorm:"type:text;not null"`

	Category   string  `gorm:"not null"`
	Confidence float64 `gorm:"not null"`
	Reason     string  `gorm:"type:text;not null"`
	Tier       string  `gorm:"index;not null"`

	Reviewed bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"index;not null;default:now()"`
}

func (Audit) TableName() string { return "moderation_audits" }

// AuditStore persists audit rows. Split out so the engine is testable
// without a database.
type AuditStore interface {
	Save(ctx context.Context, a *Audit) error
}

type GormAuditStore struct {
	DB *gorm.DB
}

func (s GormAuditStore) Save(ctx context.Context, a *Audit) error {
	return s.DB.WithContext(ctx).Create(a).Error
}
