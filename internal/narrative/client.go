// Package narrative talks to the AI text service. It only produces prose
// and receipt suggestions; no figure in a report comes from it.
package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/simonvc/cafeledger/internal/ledger"
	"github.com/simonvc/cafeledger/internal/logging"
)

const service = "ai"

type Client struct {
	url        string
	apiKey     string
	maxRetries int
	httpClient *http.Client
	backoff    func(attempt int) time.Duration
}

func New(url, apiKey string, timeout time.Duration, maxRetries int) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		url:        url,
		apiKey:     apiKey,
		maxRetries: maxRetries,
		httpClient: &http.Client{Timeout: timeout},
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt*2) * time.Second
		},
	}
}

// WithBackoff replaces the delay between attempts.
func (c *Client) WithBackoff(fn func(attempt int) time.Duration) *Client {
	c.backoff = fn
	return c
}

type request struct {
	Task    TaskKind `json:"task"`
	Payload Task     `json:"payload"`
}

type response struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

// Summarize returns commentary for already computed figures.
func (c *Client) Summarize(ctx context.Context, t SummaryTask) (string, error) {
	data, err := c.run(ctx, t)
	if err != nil {
		return "", err
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return "", &ledger.ServiceError{Service: service, Message: "summary is not text", Err: err}
	}
	return strings.TrimSpace(text), nil
}

// ReadReceipt returns the service's reading of a receipt image.
func (c *Client) ReadReceipt(ctx context.Context, t ReceiptTask) (*Receipt, error) {
	if t.Image == "" {
		return nil, ledger.Invalid("image", "image is required")
	}
	data, err := c.run(ctx, t)
	if err != nil {
		return nil, err
	}
	var r Receipt
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, &ledger.ServiceError{Service: service, Message: "receipt is not an object", Err: err}
	}
	return &r, nil
}

func (c *Client) run(ctx context.Context, t Task) (json.RawMessage, error) {
	body, err := json.Marshal(request{Task: t.Kind(), Payload: t})
	if err != nil {
		return nil, fmt.Errorf("marshal task: %w", err)
	}
	log := logging.FromContext(ctx).With(zap.String("task", string(t.Kind())))

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries+1; attempt++ {
		data, err := c.once(ctx, body)
		if err == nil {
			return data, nil
		}
		lastErr = err

		var se *ledger.ServiceError
		if !errors.As(err, &se) || !se.Retryable() || attempt > c.maxRetries {
			break
		}
		wait := c.backoff(attempt)
		log.Warn("ai request failed, retrying",
			zap.Int("attempt", attempt), zap.Duration("backoff", wait), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, lastErr
}

func (c *Client) once(ctx context.Context, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ledger.ServiceError{Service: service, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ledger.ServiceError{Service: service, Message: "read response", Err: err}
	}
	var out response
	decodeErr := json.Unmarshal(raw, &out)
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && out.Error != "" {
			msg = out.Error
		}
		return nil, &ledger.ServiceError{Service: service, Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, &ledger.ServiceError{Service: service, Message: "decode response", Err: decodeErr}
	}
	if len(out.Data) == 0 || string(out.Data) == "null" {
		return nil, &ledger.ServiceError{Service: service, Status: resp.StatusCode, Message: "empty data"}
	}
	return out.Data, nil
}
