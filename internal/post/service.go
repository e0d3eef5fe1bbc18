package post

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chorus/internal/auth"
	"chorus/internal/moderation"
	"chorus/internal/reputation"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("not found")
	ErrBanned   = errors.New("account banned")
)

// RejectedError is a business-rule rejection, a correct terminal outcome
// rather than a failure. It always carries a concrete reason and, when the
// classifier offered one, a gentler rephrasing suggestion.
type RejectedError struct {
	Reason         string
	Suggestion     string
	ResultingScore int
}

func (e *RejectedError) Error() string {
	return "content rejected: " + e.Reason
}

var ErrDuplicateRequest = &RejectedError{Reason: "you already have a pending request for this circle"}

type Service struct {
	DB     *gorm.DB
	Engine *moderation.Engine
	Ledger *reputation.Ledger

	// OnPostCreated publishes the new-post event inside the creating
	// transaction (outbox): consumers schedule their own deferred work.
	// Human-only posts are never published.
	OnPostCreated func(ctx context.Context, tx *gorm.DB, p *Post) error
}

type CreatePostInput struct {
	Body     string
	MediaURL *string
	Mode     string
	GroupID  *uint64
}

// CreatePost moderates, persists, and hands synthetic engagement planning to
// the queue. The post row and its fan-out task commit in one transaction so
// neither exists without the other.
func (s *Service) CreatePost(ctx context.Context, authorID uint64, in CreatePostInput) (uint64, error) {
	author, err := s.loadUser(ctx, authorID)
	if err != nil {
		return 0, err
	}
	if author.Banned {
		return 0, ErrBanned
	}

	flagged, rej, err := s.moderate(ctx, authorID, in.Body, "", in.MediaURL)
	if err != nil {
		return 0, err
	}
	if rej != nil {
		return 0, rej
	}

	mode := in.Mode
	if mode == "" {
		mode = ModeOpen
	}

	var postID uint64
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p := Post{
			AuthorID:         authorID,
			GroupID:          in.GroupID,
			Body:             in.Body,
			MediaURL:         in.MediaURL,
			Mode:             mode,
			Tags:             pq.StringArray(ExtractTags(in.Body)),
			FlaggedForReview: flagged,
		}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		postID = p.ID

		if err := s.touchGroupActivity(tx, &author, in.GroupID); err != nil {
			return err
		}

		if mode != ModeHuman && s.OnPostCreated != nil {
			if err := s.OnPostCreated(ctx, tx, &p); err != nil {
				return err
			}
		}
		return nil
	})
	return postID, err
}

type CreateCommentInput struct {
	PostID uint64
	Body   string
}

func (s *Service) CreateComment(ctx context.Context, authorID uint64, in CreateCommentInput) (uint64, error) {
	author, err := s.loadUser(ctx, authorID)
	if err != nil {
		return 0, err
	}
	if author.Banned {
		return 0, ErrBanned
	}

	var parent Post
	if err := s.DB.WithContext(ctx).First(&parent, in.PostID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	flagged, rej, err := s.moderate(ctx, authorID, in.Body, parent.Body, nil)
	if err != nil {
		return 0, err
	}
	if rej != nil {
		return 0, rej
	}

	var commentID uint64
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c := Comment{
			PostID:           parent.ID,
			AuthorID:         authorID,
			Body:             in.Body,
			IsSynthetic:      author.IsSynthetic,
			FlaggedForReview: flagged,
		}
		if err := tx.Create(&c).Error; err != nil {
			return err
		}
		commentID = c.ID

		if err := tx.Model(&Post{}).
			Where("id = ?", parent.ID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error; err != nil {
			return err
		}
		return s.touchGroupActivity(tx, &author, parent.GroupID)
	})
	return commentID, err
}

// React is idempotent per (post, user): reacting twice is a benign no-op.
func (s *Service) React(ctx context.Context, userID, postID uint64, emoji string) error {
	var parent Post
	if err := s.DB.WithContext(ctx).First(&parent, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(`
insert into reactions (post_id, actor_id, emoji, created_at)
values (?, ?, ?, now())
on conflict (post_id, actor_id) do nothing`, postID, userID, emoji)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&Post{}).
			Where("id = ?", postID).
			UpdateColumn("reaction_count", gorm.Expr("reaction_count + 1")).Error
	})
}

// moderate runs text (and optionally media) through the safety engine and
// converts a block into the user-facing rejection, applying the penalty in
// the same step so the returned score is the post-penalty one. Flagged
// content goes live but is marked for operator review.
func (s *Service) moderate(ctx context.Context, authorID uint64, body, contextText string, mediaURL *string) (bool, *RejectedError, error) {
	d := s.Engine.CheckText(ctx, moderation.CheckInput{
		AuthorID: authorID,
		Content:  body,
		Context:  contextText,
	})
	if !d.Allowed() {
		rej, err := s.reject(ctx, authorID, d)
		return false, rej, err
	}
	flagged := d.Tier == moderation.TierFlag

	if mediaURL != nil {
		md := s.Engine.CheckMedia(ctx, authorID, *mediaURL)
		if !md.Allowed() {
			rej, err := s.reject(ctx, authorID, md)
			return false, rej, err
		}
		flagged = flagged || md.Tier == moderation.TierFlag
	}
	return flagged, nil, nil
}

func (s *Service) reject(ctx context.Context, authorID uint64, d moderation.Decision) (*RejectedError, error) {
	score, err := s.Ledger.Penalize(ctx, authorID, d.Penalty, d.Verdict.Reason)
	if err != nil {
		return nil, fmt.Errorf("apply penalty: %w", err)
	}
	return &RejectedError{
		Reason:         d.Verdict.Reason,
		Suggestion:     d.Verdict.Suggestion,
		ResultingScore: score,
	}, nil
}

// touchGroupActivity bumps the liveness timestamp the lifecycle monitor
// reads. Synthetic actors never count as activity.
func (s *Service) touchGroupActivity(tx *gorm.DB, author *auth.User, groupID *uint64) error {
	if groupID == nil || author.IsSynthetic {
		return nil
	}
	return tx.Model(&Group{}).
		Where("id = ?", *groupID).
		Update("last_human_activity_at", time.Now()).Error
}

func (s *Service) loadUser(ctx context.Context, id uint64) (auth.User, error) {
	var u auth.User
	if err := s.DB.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return u, ErrNotFound
		}
		return u, err
	}
	return u, nil
}
