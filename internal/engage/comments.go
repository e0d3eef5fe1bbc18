package engage

import (
	"context"
	"log"
	"strings"

	"chorus/internal/auth"
	"chorus/internal/moderation"
	"chorus/internal/post"
)

// SkipSentinel is what the generator emits when a persona has nothing worth
// saying. A skipped comment is a benign outcome, not an error.
const SkipSentinel = "[skip]"

// Generator produces persona comment text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ClassifierGenerator reuses the moderation model endpoint for generation;
// both are the same black-box text function.
type ClassifierGenerator struct {
	C moderation.Classifier
}

func (g ClassifierGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.C.Classify(ctx, prompt)
}

// Writer executes delivered engagement jobs. Both handlers are idempotent
// because the queue redelivers.
type Writer struct {
	Store     Store
	Generator Generator
	Engine    *moderation.Engine
}

// WriteComment handles one delivered comment job. It re-derives the
// duplicate-avoidance set from stored timestamps at execution time: enqueue
// order means nothing once jobs interleave.
func (w *Writer) WriteComment(ctx context.Context, in CommentPayload) error {
	p, err := w.Store.FindPost(ctx, in.PostID)
	if err != nil {
		return err
	}
	if p == nil {
		return nil // post gone, nothing to do
	}
	if p.Mode == post.ModeHuman {
		return nil
	}

	actor, err := w.Store.FindActor(ctx, in.ActorID)
	if err != nil {
		return err
	}
	if actor == nil {
		return nil // actor cleaned up, e.g. with its group
	}

	recent, err := w.Store.RecentSyntheticComments(ctx, in.PostID, 10)
	if err != nil {
		return err
	}
	avoid := make([]string, 0, len(recent))
	for _, c := range recent {
		avoid = append(avoid, c.Body)
	}

	text, err := w.Generator.Generate(ctx, commentPrompt(*actor, *p, avoid))
	if err != nil {
		return err // transient, let the queue redeliver
	}
	text = strings.TrimSpace(text)
	if text == "" || strings.EqualFold(text, SkipSentinel) {
		return nil
	}

	// Synthetic output passes through the same safety engine as human text;
	// a blocked generation is silently dropped rather than penalized.
	d := w.Engine.CheckText(ctx, moderation.CheckInput{
		AuthorID: actor.ID,
		Content:  text,
		Context:  p.Body,
	})
	if !d.Allowed() {
		log.Printf("engage: dropped generated comment for post %d: %s\n", p.ID, d.Verdict.Reason)
		return nil
	}

	return w.Store.AddComment(ctx, &post.Comment{
		PostID:           p.ID,
		AuthorID:         actor.ID,
		Body:             text,
		IsSynthetic:      true,
		FlaggedForReview: d.Tier == moderation.TierFlag,
	})
}

// WriteReaction handles one delivered reaction job. The store collapses
// duplicate delivery onto one row, so redelivery is a no-op.
func (w *Writer) WriteReaction(ctx context.Context, in ReactionPayload) error {
	p, err := w.Store.FindPost(ctx, in.PostID)
	if err != nil {
		return err
	}
	if p == nil {
		return nil
	}

	_, err = w.Store.AddReaction(ctx, in.PostID, in.ActorID, in.Emoji)
	return err
}

func commentPrompt(actor auth.User, p post.Post, avoid []string) string {
	var b strings.Builder
	b.WriteString("You are " + actor.DisplayName + ", a member of a social platform.")
	if style := StyleFor(actor.DisplayName); style != "" {
		b.WriteString(" Your voice: " + style + ".")
	}
	b.WriteString("\nWrite one short, natural comment replying to this post:\n\n")
	b.WriteString(p.Body)
	if len(avoid) > 0 {
		b.WriteString("\n\nDo not repeat any of these existing comments:\n")
		for _, a := range avoid {
			b.WriteString("- " + a + "\n")
		}
	}
	b.WriteString("\nIf you have nothing fresh to add, reply with exactly " + SkipSentinel + ".\n")
	return b.String()
}
