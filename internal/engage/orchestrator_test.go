package engage

import (
	"context"
	"encoding/json"
	"math/rand"
	"strings"
	"testing"
	"time"

	"chorus/internal/auth"
	"chorus/internal/post"
)

func TestRandomDelayStaysInsideWindow(t *testing.T) {
	o := &Orchestrator{
		Window: 4 * time.Hour,
		Rand:   rand.New(rand.NewSource(42)),
	}

	for i := 0; i < 1000; i++ {
		d := o.randomDelay()
		if d < 0 || d >= 4*time.Hour+time.Minute {
			t.Fatalf("delay %v outside window", d)
		}
	}
}

func TestPickBoundsAndDistinctness(t *testing.T) {
	actors := []auth.User{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}, {ID: 5}, {ID: 6}}
	o := &Orchestrator{Rand: rand.New(rand.NewSource(7))}

	got := o.pick(actors, 4)
	if len(got) != 4 {
		t.Fatalf("picked %d, want 4", len(got))
	}
	seen := map[uint64]bool{}
	for _, a := range got {
		if seen[a.ID] {
			t.Fatalf("actor %d picked twice", a.ID)
		}
		seen[a.ID] = true
	}

	// asking for more than exist caps at the pool size
	got = o.pick(actors, 50)
	if len(got) != len(actors) {
		t.Fatalf("picked %d, want %d", len(got), len(actors))
	}
}

func TestFanOutSkipsHumanOnlyPosts(t *testing.T) {
	store := newMemStore()
	store.posts[1] = post.Post{ID: 1, AuthorID: 50, Mode: post.ModeHuman}
	store.actors = []auth.User{
		{ID: 10, IsSynthetic: true},
		{ID: 11, IsSynthetic: true},
	}
	enq := &memEnqueuer{}
	o := &Orchestrator{
		Store:      store,
		Dispatcher: enq,
		Queue:      "engage",
		MaxActors:  5,
		Vocab:      []string{"🔥"},
		Rand:       rand.New(rand.NewSource(1)),
	}

	if err := o.FanOut(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	if len(enq.enqueued) != 0 {
		t.Fatalf("human post produced %d jobs, want 0", len(enq.enqueued))
	}

	// a post that vanished before fan-out is equally silent
	if err := o.FanOut(context.Background(), 999); err != nil {
		t.Fatal(err)
	}
	if len(enq.enqueued) != 0 {
		t.Fatalf("missing post produced %d jobs, want 0", len(enq.enqueued))
	}
}

func TestFanOutJobCountsAndSchedule(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		store := newMemStore()
		store.posts[1] = post.Post{ID: 1, AuthorID: 10, Mode: post.ModeOpen}
		for id := uint64(10); id < 18; id++ {
			store.actors = append(store.actors, auth.User{ID: id, IsSynthetic: true})
		}
		enq := &memEnqueuer{}
		o := &Orchestrator{
			Store:      store,
			Dispatcher: enq,
			Queue:      "engage",
			MaxActors:  5,
			Window:     6 * time.Hour,
			Vocab:      []string{"🔥", "❤️"},
			Rand:       rand.New(rand.NewSource(seed)),
		}

		before := time.Now()
		if err := o.FanOut(context.Background(), 1); err != nil {
			t.Fatal(err)
		}

		comments := enq.byPath(PathComment)
		if len(comments) < 1 || len(comments) > 5 {
			t.Fatalf("seed %d: %d comment jobs, want 1..5", seed, len(comments))
		}
		seen := map[uint64]bool{}
		for _, c := range comments {
			var p CommentPayload
			mustUnmarshal(t, c.Payload, &p)
			if p.ActorID == 10 {
				t.Fatalf("seed %d: author got a comment job", seed)
			}
			if seen[p.ActorID] {
				t.Fatalf("seed %d: actor %d got two comment jobs", seed, p.ActorID)
			}
			seen[p.ActorID] = true
		}

		reactions := enq.byPath(PathReaction)
		if len(reactions) < 5 || len(reactions) > 10 {
			t.Fatalf("seed %d: %d reaction jobs, want 5..10", seed, len(reactions))
		}

		for _, task := range enq.enqueued {
			if task.RunAt.Before(before) {
				t.Fatalf("seed %d: job scheduled at %v, before creation %v", seed, task.RunAt, before)
			}
		}
	}
}

func mustUnmarshal(t *testing.T, raw []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatal(err)
	}
}

func TestCommentPromptCarriesAvoidListAndSentinel(t *testing.T) {
	actor := auth.User{DisplayName: "Mika"}
	p := post.Post{Body: "just finished my first marathon!"}
	avoid := []string{"congrats!!", "amazing work"}

	prompt := commentPrompt(actor, p, avoid)

	for _, a := range avoid {
		if !strings.Contains(prompt, a) {
			t.Fatalf("prompt missing avoid entry %q", a)
		}
	}
	if !strings.Contains(prompt, SkipSentinel) {
		t.Fatal("prompt must offer the skip sentinel")
	}
	if !strings.Contains(prompt, p.Body) {
		t.Fatal("prompt must include the post body")
	}
	if !strings.Contains(prompt, "Mika") {
		t.Fatal("prompt must name the persona")
	}
}

func TestStyleForUnknownPersona(t *testing.T) {
	if StyleFor("Mika") == "" {
		t.Fatal("catalog persona has no style")
	}
	if StyleFor("nobody") != "" {
		t.Fatal("unknown persona should have empty style")
	}
}
