package cleanup

import (
	"context"
	"fmt"

	"chorus/internal/post"

	"gorm.io/gorm"
)

type GormStore struct {
	DB    *gorm.DB
	Blobs BlobStore
}

func (s GormStore) blobs() BlobStore {
	if s.Blobs != nil {
		return s.Blobs
	}
	return NopBlobStore{}
}

// PurgeContentBatch removes up to limit child records, comments first, then
// reactions, then posts (with their media artifacts).
func (s GormStore) PurgeContentBatch(ctx context.Context, groupID uint64, limit int) (int, error) {
	budget := limit
	total := 0

	res := s.DB.WithContext(ctx).Exec(`
delete from comments where id in (
  select c.id from comments c
  join posts po on po.id = c.post_id
  where po.group_id = ?
  limit ?
)`, groupID, budget)
	if res.Error != nil {
		return total, res.Error
	}
	total += int(res.RowsAffected)
	budget -= int(res.RowsAffected)
	if budget <= 0 {
		return total, nil
	}

	res = s.DB.WithContext(ctx).Exec(`
delete from reactions where id in (
  select r.id from reactions r
  join posts po on po.id = r.post_id
  where po.group_id = ?
  limit ?
)`, groupID, budget)
	if res.Error != nil {
		return total, res.Error
	}
	total += int(res.RowsAffected)
	budget -= int(res.RowsAffected)
	if budget <= 0 {
		return total, nil
	}

	// posts last, so their children are gone first
	var batch []post.Post
	if err := s.DB.WithContext(ctx).
		Where("group_id = ?", groupID).
		Limit(budget).
		Find(&batch).Error; err != nil {
		return total, err
	}
	for _, po := range batch {
		if po.MediaURL != nil {
			if err := s.blobs().DeleteObject(ctx, *po.MediaURL); err != nil {
				return total, err
			}
		}
		if err := s.DB.WithContext(ctx).
			Exec(`delete from posts where id = ?`, po.ID).Error; err != nil {
			return total, err
		}
		total++
	}

	return total, nil
}

func (s GormStore) RemainingContent(ctx context.Context, groupID uint64) (int64, error) {
	var counts struct {
		Comments  int64
		Reactions int64
		Posts     int64
	}
	err := s.DB.WithContext(ctx).Raw(`
select
  (select count(*) from comments c join posts po on po.id = c.post_id where po.group_id = ?) as comments,
  (select count(*) from reactions r join posts po on po.id = r.post_id where po.group_id = ?) as reactions,
  (select count(*) from posts where group_id = ?) as posts
`, groupID, groupID, groupID).Scan(&counts).Error
	if err != nil {
		return 0, err
	}
	return counts.Comments + counts.Reactions + counts.Posts, nil
}

// Finalize runs once content is gone: secondary records, blob prefixes, the
// group's scoped synthetic actors (with their notification rows), then the
// group itself. Each delete is if-exists, so a partial failure plus a retry
// never corrupts anything.
func (s GormStore) Finalize(ctx context.Context, groupID uint64) error {
	db := s.DB.WithContext(ctx)

	if err := db.Exec(`delete from join_requests where group_id = ?`, groupID).Error; err != nil {
		return err
	}
	if err := db.Exec(`delete from group_members where group_id = ?`, groupID).Error; err != nil {
		return err
	}

	if err := s.blobs().DeletePrefix(ctx, fmt.Sprintf("groups/%d/", groupID)); err != nil {
		return err
	}

	// scoped personas and everything hanging off them
	if err := db.Exec(`
delete from notifications where user_id in (
  select id from users where is_synthetic = true and group_id = ?
)`, groupID).Error; err != nil {
		return err
	}
	if err := db.Exec(`
delete from reputation_entries where user_id in (
  select id from users where is_synthetic = true and group_id = ?
)`, groupID).Error; err != nil {
		return err
	}
	if err := db.Exec(`delete from users where is_synthetic = true and group_id = ?`, groupID).Error; err != nil {
		return err
	}

	return db.Exec(`delete from groups where id = ?`, groupID).Error
}
