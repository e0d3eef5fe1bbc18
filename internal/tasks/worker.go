package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"
)

// TokenSigner mints the bearer credential attached to each delivery. The
// audience is the exact callback URL the token is valid for.
type TokenSigner interface {
	Sign(audience, principal string) (string, error)
}

// Worker polls for due tasks and delivers each one as an HTTP POST to the
// configured callback endpoint. Delivery is at-least-once: a task is marked
// done only on a 2xx response, retried with backoff otherwise.
type Worker struct {
	ID      string
	Repo    *Repo
	BaseURL string
	Signer  TokenSigner
	Client  *http.Client
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(800 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			task, err := w.Repo.Claim(w.ID)
			if err != nil {
				log.Printf("worker claim error: %v\n", err)
				continue
			}
			if task == nil {
				continue
			}
			w.deliver(ctx, task)
		}
	}
}

type outcome int

const (
	outcomeDone outcome = iota
	outcomeFail
	outcomeRetry
)

func (w *Worker) deliver(ctx context.Context, task *Task) {
	switch result, errMsg := w.attempt(ctx, task); result {
	case outcomeDone:
		_ = w.Repo.MarkDone(task.ID)
	case outcomeFail:
		_ = w.Repo.MarkFailed(task.ID, errMsg)
	default:
		w.retry(task, errMsg)
	}
}

// attempt performs one delivery and classifies the result. Terminal statuses
// (400, 403) never become valid on redelivery; everything else transient is
// retried.
func (w *Worker) attempt(ctx context.Context, task *Task) (outcome, string) {
	url := w.BaseURL + task.TargetPath

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(task.Payload))
	if err != nil {
		return outcomeFail, "bad target: " + err.Error()
	}
	req.Header.Set("Content-Type", "application/json")

	if task.Headers != nil {
		var extra map[string]string
		if err := json.Unmarshal(task.Headers, &extra); err == nil {
			for k, v := range extra {
				req.Header.Set(k, v)
			}
		}
	}

	token, err := w.Signer.Sign(url, task.Principal)
	if err != nil {
		return outcomeRetry, "sign: " + err.Error()
	}
	req.Header.Set("Authorization", "Bearer "+token)

	client := w.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return outcomeRetry, "deliver: " + err.Error()
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return outcomeDone, ""
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusForbidden:
		return outcomeFail, fmt.Sprintf("terminal status %d", resp.StatusCode)
	default:
		return outcomeRetry, fmt.Sprintf("status %d", resp.StatusCode)
	}
}

func (w *Worker) retry(task *Task, errMsg string) {
	if task.Attempts >= task.MaxAttempts {
		_ = w.Repo.MarkFailed(task.ID, errMsg)
		return
	}

	sec := math.Min(math.Pow(2, float64(task.Attempts)), 600)
	next := time.Now().Add(time.Duration(sec) * time.Second)

	_ = w.Repo.RetryLater(task.ID, next, errMsg)
}
