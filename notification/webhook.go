package notification

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// Webhook request headers.
const (
	HeaderEvent     = "X-Travel-Event"
	HeaderSignature = "X-Travel-Signature"
)

// WebhookConfig contains configuration for the webhook notifier.
type WebhookConfig struct {
	// URL is the webhook endpoint to POST events to.
	URL string

	// Secret, when set, signs each body with HMAC-SHA256. The hex digest is
	// sent as "sha256=<digest>" in the X-Travel-Signature header.
	Secret string

	// Timeout is the HTTP client timeout. Default: 10s.
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts. Default: 3.
	MaxRetries int

	// RetryDelay is the base delay between retries, doubled per attempt. Default: 1s.
	RetryDelay time.Duration

	// RateLimit caps delivery attempts per second across all events,
	// retries included. Zero disables the limit.
	RateLimit float64
}

// WebhookNotifier sends notifications to an HTTP webhook endpoint
// (chat incoming webhooks, travel desk ticketing, ...).
type WebhookNotifier struct {
	url        string
	secret     []byte
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
	limiter    *rate.Limiter
}

// NewWebhookNotifier creates a new WebhookNotifier with the given configuration.
// Returns an error if the URL is empty or invalid.
func NewWebhookNotifier(config WebhookConfig) (*WebhookNotifier, error) {
	if config.URL == "" {
		return nil, errors.New("webhook URL is required")
	}
	if _, err := url.ParseRequestURI(config.URL); err != nil {
		return nil, fmt.Errorf("invalid webhook URL: %w", err)
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	maxRetries := config.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}
	retryDelay := config.RetryDelay
	if retryDelay == 0 {
		retryDelay = time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), 1)
	}

	return &WebhookNotifier{
		url:        config.URL,
		secret:     []byte(config.Secret),
		client:     &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		limiter:    limiter,
	}, nil
}

// Notify posts the event as JSON. 5xx responses and network errors are
// retried with exponential backoff; 4xx responses fail immediately.
func (w *WebhookNotifier) Notify(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= w.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.retryDelay << (attempt - 1)):
			}
		}

		if err := w.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("webhook rate limit: %w", err)
		}

		retry, err := w.post(ctx, event.Type, body)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("webhook delivery failed after %d retries: %w", w.maxRetries, lastErr)
}

// post performs one delivery attempt and reports whether a failure is retryable.
func (w *WebhookNotifier) post(ctx context.Context, eventType EventType, body []byte) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderEvent, eventType.String())
	if len(w.secret) > 0 {
		req.Header.Set(HeaderSignature, "sha256="+SignBody(w.secret, body))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return true, fmt.Errorf("request failed: %w", err)
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return false, nil
	case resp.StatusCode >= 500:
		return true, fmt.Errorf("server error: status %d", resp.StatusCode)
	}
	return false, fmt.Errorf("webhook request failed: status %d", resp.StatusCode)
}

// SignBody returns the hex HMAC-SHA256 of body under secret.
func SignBody(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
