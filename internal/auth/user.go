package auth

import "time"

const (
	RoleMember    = "member"
	RoleOperator  = "operator"
	RoleSynthetic = "synthetic"
)

// User covers both humans and synthetic personas; personas share the same
// data model and differ only in Role/IsSynthetic and an optional group scope.
type User struct {
	ID           uint64 `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	DisplayName  string `gorm:"not null;default:''"`
	Role         string `gorm:"not null;default:'member'"`

	IsSynthetic bool    `gorm:"index;not null;default:false"`
	GroupID     *uint64 `gorm:"index"` // persona scoped to one group, nil = open

	ReputationScore int  `gorm:"not null;default:100"`
	Banned          bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}
