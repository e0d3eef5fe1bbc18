package db

import (
	"fmt"

	"chorus/internal/auth"
	"chorus/internal/moderation"
	"chorus/internal/notify"
	"chorus/internal/post"
	"chorus/internal/reputation"
	"chorus/internal/tasks"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&auth.User{},
		&post.Post{},
		&post.Comment{},
		&post.Reaction{},
		&post.Group{},
		&post.GroupMember{},
		&post.JoinRequest{},
		&moderation.Audit{},
		&reputation.Entry{},
		&notify.Notification{},
		&tasks.Task{},
	); err != nil {
		return err
	}

	// One reaction per (post, actor): redelivered reaction jobs collapse here.
	if err := gdb.Exec(`create unique index if not exists uq_reactions_post_actor on reactions(post_id, actor_id);`).Error; err != nil {
		return err
	}

	// Notification dedup: same logical notification sends once.
	if err := gdb.Exec(`
create unique index if not exists uq_notifications_dedup
on notifications(user_id, kind, dedup_key)
where dedup_key is not null;
`).Error; err != nil {
		return err
	}

	// Task dedup applies only while pending; done rows must not block re-enqueue.
	if err := gdb.Exec(`
create unique index if not exists uq_tasks_pending_dedup
on tasks(dedup_key)
where dedup_key is not null and status = 'PENDING';
`).Error; err != nil {
		return err
	}

	// Tag filter (GIN for text[])
	if err := gdb.Exec(`create index if not exists idx_posts_tags on posts using gin (tags);`).Error; err != nil {
		return err
	}

	// Helpful indexes
	stmts := []string{
		`create index if not exists idx_tasks_due on tasks(status, run_at);`,
		`create index if not exists idx_tasks_lock on tasks(status, locked_at);`,
		`create index if not exists idx_comments_post_created on comments(post_id, created_at desc);`,
		`create index if not exists idx_posts_group on posts(group_id) where group_id is not null;`,
		`create index if not exists idx_groups_lifecycle on groups(condemned_at, warned_at, last_human_activity_at);`,
		`create index if not exists idx_audits_unreviewed on moderation_audits(reviewed, created_at) where reviewed = false;`,
		`create index if not exists idx_reputation_user on reputation_entries(user_id, id);`,
		`create index if not exists idx_join_requests_pending on join_requests(group_id, status);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
