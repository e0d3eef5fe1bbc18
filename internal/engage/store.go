package engage

import (
	"context"
	"errors"

	"chorus/internal/auth"
	"chorus/internal/post"

	"gorm.io/gorm"
)

// Store is the persistence boundary shared by the orchestrator and the
// writer. Lookups return nil (no error) for rows that no longer exist,
// because a vanished post or actor is a benign outcome for deferred work.
type Store interface {
	FindPost(ctx context.Context, id uint64) (*post.Post, error)
	FindActor(ctx context.Context, id uint64) (*auth.User, error)
	// SyntheticActors returns the unbanned persona pool: the open pool when
	// groupID is nil, the group's own personas otherwise.
	SyntheticActors(ctx context.Context, groupID *uint64) ([]auth.User, error)
	RecentSyntheticComments(ctx context.Context, postID uint64, limit int) ([]post.Comment, error)
	AddComment(ctx context.Context, c *post.Comment) error
	// AddReaction stores at most one reaction per (post, actor) and reports
	// whether this call inserted it.
	AddReaction(ctx context.Context, postID, actorID uint64, emoji string) (bool, error)
}

type GormStore struct {
	DB *gorm.DB
}

func (s GormStore) FindPost(ctx context.Context, id uint64) (*post.Post, error) {
	var p post.Post
	if err := s.DB.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (s GormStore) FindActor(ctx context.Context, id uint64) (*auth.User, error) {
	var u auth.User
	if err := s.DB.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (s GormStore) SyntheticActors(ctx context.Context, groupID *uint64) ([]auth.User, error) {
	q := s.DB.WithContext(ctx).Where("is_synthetic = true AND banned = false")
	if groupID != nil {
		q = q.Where("group_id = ?", *groupID)
	} else {
		q = q.Where("group_id is null")
	}

	var actors []auth.User
	err := q.Find(&actors).Error
	return actors, err
}

func (s GormStore) RecentSyntheticComments(ctx context.Context, postID uint64, limit int) ([]post.Comment, error) {
	var recent []post.Comment
	err := s.DB.WithContext(ctx).
		Where("post_id = ? AND is_synthetic = true", postID).
		Order("created_at desc").
		Limit(limit).
		Find(&recent).Error
	return recent, err
}

func (s GormStore) AddComment(ctx context.Context, c *post.Comment) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		return tx.Model(&post.Post{}).
			Where("id = ?", c.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
	})
}

func (s GormStore) AddReaction(ctx context.Context, postID, actorID uint64, emoji string) (bool, error) {
	var existing int64
	if err := s.DB.WithContext(ctx).Model(&post.Reaction{}).
		Where("post_id = ? AND actor_id = ?", postID, actorID).
		Count(&existing).Error; err != nil {
		return false, err
	}
	if existing > 0 {
		return false, nil
	}

	inserted := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(`
insert into reactions (post_id, actor_id, emoji, created_at)
values (?, ?, ?, now())
on conflict (post_id, actor_id) do nothing`, postID, actorID, emoji)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil // lost the race to our own redelivery
		}
		inserted = true
		return tx.Model(&post.Post{}).
			Where("id = ?", postID).
			UpdateColumn("reaction_count", gorm.Expr("reaction_count + 1")).Error
	})
	return inserted, err
}
