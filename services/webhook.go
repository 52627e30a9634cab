package services

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

var errWebhookNotConfigured = errors.New("scraping webhook url not configured")

// ScrapeJob is the body the scraping workflow expects.
type ScrapeJob struct {
	URL       string `json:"url"`
	Category  string `json:"category"`
	UserID    uint   `json:"userId"`
	Timestamp string `json:"timestamp"`
}

type ScrapeTrigger interface {
	Trigger(ctx context.Context, job ScrapeJob) error
}

// WebhookClient posts jobs to the n8n webhook.
type WebhookClient struct {
	url    string
	token  string
	client *http.Client
}

func NewWebhookClient(url, token string, timeout time.Duration) *WebhookClient {
	return &WebhookClient{url: url, token: token, client: &http.Client{Timeout: timeout}}
}

func (w *WebhookClient) Trigger(ctx context.Context, job ScrapeJob) error {
	if w == nil || w.url == "" {
		return errWebhookNotConfigured
	}
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode scrape job: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.token != "" {
		req.Header.Set(WebhookTokenHeader, w.token)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("call webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook failed (%d): %s", resp.StatusCode, string(snippet))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
