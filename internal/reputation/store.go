package reputation

import (
	"context"
	"errors"

	"chorus/internal/auth"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the persistence boundary of the ledger. Mutate must hold an
// exclusive lock on the user's score for the duration of fn, so concurrent
// mutations of the same user serialize.
type Store interface {
	Mutate(ctx context.Context, userID uint64, fn func(current int) (next int, e Entry)) error
	SetBanned(ctx context.Context, userID uint64, banned bool) error
	History(ctx context.Context, userID uint64) ([]Entry, error)
}

type GormStore struct {
	DB *gorm.DB
}

func (s GormStore) Mutate(ctx context.Context, userID uint64, fn func(current int) (int, Entry)) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u auth.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", userID).
			First(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		next, entry := fn(u.ReputationScore)
		entry.UserID = userID

		if err := tx.Model(&auth.User{}).
			Where("id = ?", userID).
			Update("reputation_score", next).Error; err != nil {
			return err
		}
		return tx.Create(&entry).Error
	})
}

func (s GormStore) SetBanned(ctx context.Context, userID uint64, banned bool) error {
	res := s.DB.WithContext(ctx).Model(&auth.User{}).
		Where("id = ?", userID).
		Update("banned", banned)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s GormStore) History(ctx context.Context, userID uint64) ([]Entry, error) {
	var entries []Entry
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&entries).Error
	return entries, err
}
