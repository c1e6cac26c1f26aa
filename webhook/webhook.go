// Package webhook delivers page snapshots and video summaries to an HTTP
// endpoint, signed with HMAC-SHA256.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	EventPageSnapshot = "page.snapshot"
	EventVideoSummary = "video.summary"
)

// SignatureHeader carries "sha256=<hex>" when a secret is configured.
const SignatureHeader = "X-Pagecast-Signature"

// Event is the payload sent to the endpoint.
type Event struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

// NewEvent stamps data with a fresh id and the current time.
func NewEvent(eventType, sessionID string, data any) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		SessionID: sessionID,
		Timestamp: time.Now().Unix(),
		Data:      data,
	}
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Notifier posts events to one endpoint.
type Notifier struct {
	url    string
	secret string
	client *http.Client
	delays []time.Duration
	wg     sync.WaitGroup
}

// NewNotifier creates a Notifier. Async deliveries retry after 1s, 5s and 30s.
func NewNotifier(url, secret string) *Notifier {
	return &Notifier{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
		delays: []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second},
	}
}

// Deliver posts event once.
func (n *Notifier) Deliver(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Pagecast-Webhook/1.0")
	if n.secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(n.secret, body))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// DeliverAsync posts event in the background, retrying on failure.
func (n *Notifier) DeliverAsync(event *Event) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		for attempt, delay := range n.delays {
			if delay > 0 {
				time.Sleep(delay)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := n.Deliver(ctx, event)
			cancel()
			if err == nil {
				slog.Info("webhook delivered", "url", n.url, "event", event.Type, "id", event.ID, "attempt", attempt+1)
				return
			}
			slog.Warn("webhook delivery failed", "url", n.url, "event", event.Type, "id", event.ID, "attempt", attempt+1, "error", err)
		}
		slog.Error("webhook delivery exhausted all retries", "url", n.url, "event", event.Type, "id", event.ID)
	}()
}

// Wait blocks until all async deliveries have finished.
func (n *Notifier) Wait() { n.wg.Wait() }
