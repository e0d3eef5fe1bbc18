package engage

import (
	"context"
	"log"
	"math/rand"
	"time"

	"chorus/internal/auth"
	"chorus/internal/post"
	"chorus/internal/tasks"
)

const (
	PathFanOut   = "/internal/tasks/engage-fanout"
	PathComment  = "/internal/tasks/engage-comment"
	PathReaction = "/internal/tasks/engage-reaction"
)

type FanOutPayload struct {
	PostID uint64 `json:"post_id"`
}

type CommentPayload struct {
	PostID  uint64 `json:"post_id"`
	ActorID uint64 `json:"actor_id"`
}

type ReactionPayload struct {
	PostID  uint64 `json:"post_id"`
	ActorID uint64 `json:"actor_id"`
	Emoji   string `json:"emoji"`
}

// Enqueuer is the slice of the task dispatcher the orchestrator needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, queue, targetPath string, payload any, opts ...tasks.Option) (uint64, error)
}

// Orchestrator decides how a fresh post gets synthetic engagement and spreads
// the resulting work across the queue. It never writes comments or reactions
// itself; the callbacks do, later.
type Orchestrator struct {
	Store      Store
	Dispatcher Enqueuer
	Queue      string

	MaxActors int
	Window    time.Duration // spread of randomized delays
	Vocab     []string

	// Rand is overridable for tests; defaults to the global source.
	Rand *rand.Rand
}

func (o *Orchestrator) intn(n int) int {
	if o.Rand != nil {
		return o.Rand.Intn(n)
	}
	return rand.Intn(n)
}

// randomDelay spreads activity over the window so it reads as organic
// traffic; minute-level jitter is the point, not a defect.
func (o *Orchestrator) randomDelay() time.Duration {
	w := o.Window
	if w <= 0 {
		w = 6 * time.Hour
	}
	return time.Duration(o.intn(int(w/time.Minute)))*time.Minute +
		time.Duration(o.intn(60))*time.Second
}

// FanOut plans engagement for one post: 1..MaxActors comment jobs, plus an
// independent burst of 5..10 reaction jobs. Human-only posts get nothing.
// A single failed enqueue degrades to a skipped action, never a failed post.
func (o *Orchestrator) FanOut(ctx context.Context, postID uint64) error {
	p, err := o.Store.FindPost(ctx, postID)
	if err != nil {
		return err
	}
	if p == nil {
		return nil // post deleted before fan-out ran
	}
	if p.Mode == post.ModeHuman {
		return nil
	}

	actors, err := o.eligibleActors(ctx, p)
	if err != nil {
		return err
	}
	if len(actors) == 0 {
		return nil
	}

	now := time.Now()

	commenters := o.pick(actors, 1+o.intn(o.maxActors()))
	for _, a := range commenters {
		_, err := o.Dispatcher.Enqueue(ctx, o.Queue, PathComment,
			CommentPayload{PostID: p.ID, ActorID: a.ID},
			tasks.At(now.Add(o.randomDelay())))
		if err != nil {
			log.Printf("engage: skip comment for post %d actor %d: %v\n", p.ID, a.ID, err)
		}
	}

	reactions := 5 + o.intn(6)
	for i := 0; i < reactions; i++ {
		a := actors[o.intn(len(actors))]
		emoji := o.Vocab[o.intn(len(o.Vocab))]
		_, err := o.Dispatcher.Enqueue(ctx, o.Queue, PathReaction,
			ReactionPayload{PostID: p.ID, ActorID: a.ID, Emoji: emoji},
			tasks.At(now.Add(o.randomDelay())))
		if err != nil {
			log.Printf("engage: skip reaction for post %d actor %d: %v\n", p.ID, a.ID, err)
		}
	}

	return nil
}

func (o *Orchestrator) maxActors() int {
	if o.MaxActors > 0 {
		return o.MaxActors
	}
	return 5
}

// eligibleActors is the open persona pool for open posts, or the group's own
// persona set for group-scoped posts.
func (o *Orchestrator) eligibleActors(ctx context.Context, p *post.Post) ([]auth.User, error) {
	var groupID *uint64
	if p.Mode == post.ModeGroup && p.GroupID != nil {
		groupID = p.GroupID
	}
	actors, err := o.Store.SyntheticActors(ctx, groupID)
	if err != nil {
		return nil, err
	}

	// never let a persona engage with its own post
	out := actors[:0]
	for _, a := range actors {
		if a.ID != p.AuthorID {
			out = append(out, a)
		}
	}
	return out, nil
}

// pick selects up to n distinct actors, shuffling in place.
func (o *Orchestrator) pick(actors []auth.User, n int) []auth.User {
	if n > len(actors) {
		n = len(actors)
	}
	for i := len(actors) - 1; i > 0; i-- {
		j := o.intn(i + 1)
		actors[i], actors[j] = actors[j], actors[i]
	}
	return actors[:n]
}
