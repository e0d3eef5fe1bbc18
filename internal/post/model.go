package post

import (
	"time"

	"github.com/lib/pq"
)

const (
	ModeOpen  = "open"
	ModeGroup = "group"
	// ModeHuman opts a post out of synthetic engagement entirely.
	ModeHuman = "human"
)

type Post struct {
	ID       uint64  `gorm:"primaryKey"`
	AuthorID uint64  `gorm:"index;not null"`
	GroupID  *uint64 `gorm:"index"`

	Body     string  `gorm:"type:text;not null"`
	MediaURL *string `gorm:"type:text"`
	Mode     string  `gorm:"not null;default:'open'"` // open/group/human

	Tags pq.StringArray `gorm:"type:text[];not null;default:'{}'"`

	// Counters mutated only via atomic increments, never read-modify-write.
	CommentCount  int `gorm:"not null;default:0"`
	ReactionCount int `gorm:"not null;default:0"`

	FlaggedForReview bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"index;not null;default:now()"`
}

type Comment struct {
	ID       uint64 `gorm:"primaryKey"`
	PostID   uint64 `gorm:"index;not null"`
	AuthorID uint64 `gorm:"index;not null"`

	Body        string `gorm:"type:text;not null"`
	IsSynthetic bool   `gorm:"not null;default:false"`

	FlaggedForReview bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

// Reaction is unique per (post, actor); duplicate deliveries of the same
// reaction job must collapse onto one row.
type Reaction struct {
	ID      uint64 `gorm:"primaryKey"`
	PostID  uint64 `gorm:"index;not null"`
	ActorID uint64 `gorm:"index;not null"`

	Emoji string `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

// Group is a long-lived interest circle subject to the lifecycle sweep.
type Group struct {
	ID      uint64 `gorm:"primaryKey"`
	OwnerID uint64 `gorm:"index;not null"`

	Name        string `gorm:"not null"`
	Description string `gorm:"type:text;not null;default:''"`

	MemberCount int `gorm:"not null;default:0"`

	// Lifecycle state machine: active -> warned -> condemned (soft delete).
	LastHumanActivityAt *time.Time `gorm:"type:timestamptz"`
	WarnedAt            *time.Time `gorm:"type:timestamptz"`
	CondemnedAt         *time.Time `gorm:"type:timestamptz;index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

type GroupMember struct {
	GroupID  uint64    `gorm:"primaryKey"`
	UserID   uint64    `gorm:"primaryKey;index"`
	JoinedAt time.Time `gorm:"not null;default:now()"`
}

type JoinRequest struct {
	ID      uint64 `gorm:"primaryKey"`
	GroupID uint64 `gorm:"index;not null"`
	UserID  uint64 `gorm:"index;not null"`

	Status string `gorm:"not null;default:'PENDING'"` // PENDING/APPROVED/DENIED

	CreatedAt time.Time `gorm:"not null;default:now()"`
}
