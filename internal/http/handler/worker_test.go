package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// Malformed payloads must come back 400 so the queue marks them terminal
// instead of redelivering something that will never parse.
func TestWorkerEndpointsRejectMalformedPayloads(t *testing.T) {
	h := &WorkerHandler{}

	cases := []struct {
		name string
		fn   http.HandlerFunc
		body string
	}{
		{"fanout bad json", h.EngageFanOut, "{not json"},
		{"fanout missing post id", h.EngageFanOut, `{}`},
		{"comment bad json", h.EngageComment, "nope"},
		{"comment missing actor", h.EngageComment, `{"post_id": 1}`},
		{"reaction missing emoji", h.EngageReaction, `{"post_id": 1, "actor_id": 2}`},
		{"cleanup missing group", h.CleanupGroup, `{"group_name": "x"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/internal/tasks/x", strings.NewReader(tc.body))
			tc.fn(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}
