package engage

import (
	"context"

	"chorus/internal/auth"
	"chorus/internal/post"
	"chorus/internal/tasks"
)

// memStore backs orchestrator and writer tests without a database.
type memStore struct {
	posts     map[uint64]post.Post
	actors    []auth.User
	comments  []post.Comment
	reactions map[[2]uint64]string
}

func newMemStore() *memStore {
	return &memStore{
		posts:     map[uint64]post.Post{},
		reactions: map[[2]uint64]string{},
	}
}

func (m *memStore) FindPost(_ context.Context, id uint64) (*post.Post, error) {
	p, ok := m.posts[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memStore) FindActor(_ context.Context, id uint64) (*auth.User, error) {
	for _, a := range m.actors {
		if a.ID == id {
			u := a
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memStore) SyntheticActors(_ context.Context, groupID *uint64) ([]auth.User, error) {
	var out []auth.User
	for _, a := range m.actors {
		if !a.IsSynthetic || a.Banned {
			continue
		}
		if groupID == nil && a.GroupID == nil {
			out = append(out, a)
		}
		if groupID != nil && a.GroupID != nil && *a.GroupID == *groupID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) RecentSyntheticComments(_ context.Context, postID uint64, limit int) ([]post.Comment, error) {
	var out []post.Comment
	for _, c := range m.comments {
		if c.PostID == postID && c.IsSynthetic && len(out) < limit {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) AddComment(_ context.Context, c *post.Comment) error {
	m.comments = append(m.comments, *c)
	return nil
}

func (m *memStore) AddReaction(_ context.Context, postID, actorID uint64, emoji string) (bool, error) {
	key := [2]uint64{postID, actorID}
	if _, ok := m.reactions[key]; ok {
		return false, nil
	}
	m.reactions[key] = emoji
	return true, nil
}

// memEnqueuer records what would have been inserted, options resolved.
type memEnqueuer struct {
	enqueued []tasks.Task
}

func (m *memEnqueuer) Enqueue(_ context.Context, queue, targetPath string, payload any, opts ...tasks.Option) (uint64, error) {
	t, err := tasks.NewTask(queue, targetPath, payload, opts...)
	if err != nil {
		return 0, err
	}
	m.enqueued = append(m.enqueued, t)
	return uint64(len(m.enqueued)), nil
}

func (m *memEnqueuer) byPath(path string) []tasks.Task {
	var out []tasks.Task
	for _, t := range m.enqueued {
		if t.TargetPath == path {
			out = append(out, t)
		}
	}
	return out
}
