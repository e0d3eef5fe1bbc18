package reputation

import "time"

// Entry is an immutable record of one score change, written in the same
// transaction as the score itself. The current score is always derivable by
// replaying a user's entries from account creation.
type Entry struct {
	ID     uint64 `gorm:"primaryKey" json:"id"`
	UserID uint64 `gorm:"index;not null" json:"user_id"`

	Delta          int    `gorm:"not null" json:"delta"`
	Reason         string `gorm:"type:text;not null" json:"reason"`
	ResultingScore int    `gorm:"not null" json:"resulting_score"`

	CreatedAt time.Time `gorm:"index;not null;default:now()" json:"created_at"`
}

func (Entry) TableName() string { return "reputation_entries" }
