package moderation

import (
	"context"
	"fmt"
	"log"
	"strings"
)

const (
	TierAllow = "allow"
	TierFlag  = "flag"
	TierBlock = "block"
)

const (
	ContentText  = "text"
	ContentMedia = "media"
)

// Decision is what the engine actually commits to; the verdict behind it is
// advisory input.
type Decision struct {
	Tier        string
	Verdict     Verdict
	Penalty     int
	DenylistHit bool
}

// Allowed reports whether the content may be published (flagged content is
// still published, just audited).
func (d Decision) Allowed() bool { return d.Tier != TierBlock }

// OperatorNotifier tells humans that borderline content went live.
type OperatorNotifier interface {
	NotifyOperators(ctx context.Context, subject, body string) error
}

type Engine struct {
	Audits     AuditStore
	Classifier Classifier
	Ops        OperatorNotifier

	FlagThreshold   float64 // >= flags for review
	BlockThreshold  float64 // >= blocks and penalizes
	StandardPenalty int
	Denylist        []string
}

type CheckInput struct {
	AuthorID uint64
	Content  string
	// Context is surrounding material, e.g. the post a comment replies to.
	Context string
}

// CheckText classifies free-form text. The denylist runs first and
// short-circuits the classifier entirely; classifier failures fail open so a
// model outage never blocks the product.
func (e *Engine) CheckText(ctx context.Context, in CheckInput) Decision {
	if term, hit := e.denylistHit(in.Content); hit {
		v := Verdict{
			IsViolation: true,
			Category:    "denylist",
			Confidence:  1,
			Reason:      "contains prohibited term: " + term,
		}
		d := Decision{
			Tier:        TierBlock,
			Verdict:     v,
			Penalty:     2 * e.StandardPenalty,
			DenylistHit: true,
		}
		e.audit(ctx, in.AuthorID, ContentText, in.Content, d)
		return d
	}

	raw, err := e.Classifier.Classify(ctx, textPrompt(in))
	if err != nil {
		log.Printf("moderation: text classify failed open: %v\n", err)
		return Decision{Tier: TierAllow}
	}

	v, err := ParseVerdict(raw)
	if err != nil {
		log.Printf("moderation: text verdict unparseable, failing open: %v\n", err)
		return Decision{Tier: TierAllow}
	}

	return e.decide(ctx, in.AuthorID, ContentText, in.Content, v)
}

// CheckMedia classifies a media item by reference. Unlike text, failures here
// fail closed: media review is rare and higher risk, so an unavailable
// classifier means the item is treated as maximally unsafe.
func (e *Engine) CheckMedia(ctx context.Context, authorID uint64, item string) Decision {
	raw, err := e.Classifier.Classify(ctx, mediaPrompt(item))
	if err == nil {
		if v, perr := ParseVerdict(raw); perr == nil {
			return e.decide(ctx, authorID, ContentMedia, item, v)
		} else {
			err = perr
		}
	}

	log.Printf("moderation: media classify failed closed: %v\n", err)
	v := Verdict{
		IsViolation: true,
		Category:    "unverified_media",
		Confidence:  1,
		Reason:      "media could not be verified as safe",
	}
	return e.decide(ctx, authorID, ContentMedia, item, v)
}

func (e *Engine) decide(ctx context.Context, authorID uint64, contentType, content string, v Verdict) Decision {
	d := Decision{Tier: TierAllow, Verdict: v}

	switch {
	case v.Confidence >= e.BlockThreshold:
		d.Tier = TierBlock
		d.Penalty = e.StandardPenalty
		e.audit(ctx, authorID, contentType, content, d)
	case v.Confidence >= e.FlagThreshold:
		d.Tier = TierFlag
		e.audit(ctx, authorID, contentType, content, d)
		if e.Ops != nil {
			if err := e.Ops.NotifyOperators(ctx, "content flagged for review",
				fmt.Sprintf("category=%s confidence=%.2f author=%d", v.Category, v.Confidence, authorID)); err != nil {
				log.Printf("moderation: operator notify failed: %v\n", err)
			}
		}
	}
	return d
}

func (e *Engine) audit(ctx context.Context, authorID uint64, contentType, content string, d Decision) {
	a := Audit{
		AuthorID:    authorID,
		ContentType: contentType,
		Content:     content,
		Category:    d.Verdict.Category,
		Confidence:  d.Verdict.Confidence,
		Reason:      d.Verdict.Reason,
		Tier:        d.Tier,
	}
	if err := e.Audits.Save(ctx, &a); err != nil {
		log.Printf("moderation: audit write failed: %v\n", err)
	}
}

func (e *Engine) denylistHit(content string) (string, bool) {
	lower := strings.ToLower(content)
	for _, term := range e.Denylist {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if strings.Contains(lower, term) {
			return term, true
		}
	}
	return "", false
}

func textPrompt(in CheckInput) string {
	var b strings.Builder
	b.WriteString("You are a content-safety classifier for a social platform.\n")
	b.WriteString("Classify the following content and respond with ONLY a JSON object:\n")
	b.WriteString(`{"is_violation": bool, "category": string, "confidence": number in [0,1], "reason": string, "suggestion": string}` + "\n")
	b.WriteString("The suggestion field, when the content is borderline, offers a gentler rephrasing.\n")
	if in.Context != "" {
		b.WriteString("\nSurrounding context:\n" + in.Context + "\n")
	}
	b.WriteString("\nContent:\n" + in.Content + "\n")
	return b.String()
}

func mediaPrompt(item string) string {
	return "You are a content-safety classifier. Assess the media item referenced below and respond with ONLY a JSON object " +
		`{"is_violation": bool, "category": string, "confidence": number in [0,1], "reason": string}` +
		"\n\nMedia: " + item + "\n"
}
