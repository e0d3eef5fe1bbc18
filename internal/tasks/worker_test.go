package tasks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubSigner struct {
	audience  string
	principal string
}

func (s *stubSigner) Sign(audience, principal string) (string, error) {
	s.audience = audience
	s.principal = principal
	return "signed-token", nil
}

func TestAttemptDeliversSignedPOST(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	signer := &stubSigner{}
	w := &Worker{ID: "w1", BaseURL: srv.URL, Signer: signer, Client: srv.Client()}

	task := &Task{
		ID:         1,
		TargetPath: "/internal/tasks/engage-comment",
		Payload:    []byte(`{"post_id":1,"actor_id":2}`),
		Headers:    []byte(`{"X-Job-Family":"engage"}`),
		Principal:  "svc-engage",
	}

	result, errMsg := w.attempt(context.Background(), task)
	if result != outcomeDone {
		t.Fatalf("outcome = %d (%s), want done", result, errMsg)
	}

	if got.Method != http.MethodPost {
		t.Fatalf("method = %s", got.Method)
	}
	if got.Header.Get("Authorization") != "Bearer signed-token" {
		t.Fatalf("auth header = %q", got.Header.Get("Authorization"))
	}
	if got.Header.Get("Content-Type") != "application/json" {
		t.Fatalf("content type = %q", got.Header.Get("Content-Type"))
	}
	if got.Header.Get("X-Job-Family") != "engage" {
		t.Fatal("extra headers not forwarded")
	}
	if signer.audience != srv.URL+"/internal/tasks/engage-comment" {
		t.Fatalf("token audience = %q", signer.audience)
	}
	if signer.principal != "svc-engage" {
		t.Fatalf("token principal = %q", signer.principal)
	}
}

func TestAttemptClassifiesStatuses(t *testing.T) {
	cases := []struct {
		status int
		want   outcome
	}{
		{http.StatusOK, outcomeDone},
		{http.StatusNoContent, outcomeDone},
		{http.StatusBadRequest, outcomeFail},
		{http.StatusForbidden, outcomeFail},
		{http.StatusInternalServerError, outcomeRetry},
		{http.StatusServiceUnavailable, outcomeRetry},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		w := &Worker{ID: "w1", BaseURL: srv.URL, Signer: &stubSigner{}, Client: srv.Client()}
		result, _ := w.attempt(context.Background(), &Task{TargetPath: "/x", Payload: []byte(`{}`)})
		srv.Close()

		if result != tc.want {
			t.Fatalf("status %d: outcome = %d, want %d", tc.status, result, tc.want)
		}
	}
}

func TestAttemptRetriesOnTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	w := &Worker{ID: "w1", BaseURL: srv.URL, Signer: &stubSigner{}}
	result, _ := w.attempt(context.Background(), &Task{TargetPath: "/x", Payload: []byte(`{}`)})
	if result != outcomeRetry {
		t.Fatalf("outcome = %d, want retry", result)
	}
}
