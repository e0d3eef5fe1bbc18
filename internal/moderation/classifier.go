package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Classifier is the black-box model call. Slow (seconds) and allowed to fail;
// the engine decides what a failure means per content type.
type Classifier interface {
	Classify(ctx context.Context, prompt string) (string, error)
}

var ErrClassifierUnavailable = errors.New("classifier unavailable")

// HTTPClassifier posts the prompt to a model endpoint and returns its raw
// text completion.
type HTTPClassifier struct {
	URL    string
	Client *http.Client
}

func (c *HTTPClassifier) Classify(ctx context.Context, prompt string) (string, error) {
	if c.URL == "" {
		return "", ErrClassifierUnavailable
	}

	body, _ := json.Marshal(map[string]string{"prompt": prompt})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("classifier status %d", resp.StatusCode)
	}

	var out struct {
		Text string `json:"text"`
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		// Some model gateways return the completion as a bare string body.
		return string(raw), nil
	}
	return out.Text, nil
}
