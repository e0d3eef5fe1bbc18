package moderation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrNoVerdict = errors.New("no verdict object in classifier output")

// Verdict is the classifier's opinion on one piece of content. It is never
// persisted as truth; only the decision derived from it is.
type Verdict struct {
	IsViolation bool    `json:"is_violation"`
	Category    string  `json:"category"`
	Confidence  float64 `json:"confidence"`
	Reason      string  `json:"reason"`
	Suggestion  string  `json:"suggestion,omitempty"`
}

// ParseVerdict extracts a verdict from loosely-formatted model output. The
// model may wrap the JSON in code fences or prose, so we take the first
// balanced {...} block rather than trusting the raw shape.
func ParseVerdict(raw string) (Verdict, error) {
	obj, ok := firstJSONObject(raw)
	if !ok {
		return Verdict{}, ErrNoVerdict
	}

	var v Verdict
	if err := json.Unmarshal([]byte(obj), &v); err != nil {
		return Verdict{}, fmt.Errorf("verdict decode: %w", err)
	}
	if v.Confidence < 0 || v.Confidence > 1 {
		return Verdict{}, fmt.Errorf("confidence %v out of range", v.Confidence)
	}
	return v, nil
}

// firstJSONObject scans for the first balanced top-level object, tracking
// string literals so braces inside them do not count.
func firstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
