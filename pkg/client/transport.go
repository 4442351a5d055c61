package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// transport owns the call-and-retry loop for one provider endpoint. One
// instance is built per client and reused across calls; everything below is
// immutable after construction.
type transport struct {
	name     string // provider name, used in messages
	endpoint string
	headers  map[string]string
	attempts int // retries after the first attempt
	delay    time.Duration
	client   *http.Client
	log      *zap.Logger
}

func newTransport(name, endpoint string, headers map[string]string, cfg Config, log *zap.Logger) *transport {
	return &transport{
		name:     name,
		endpoint: endpoint,
		headers:  headers,
		attempts: cfg.RetryAttempts,
		delay:    cfg.RetryDelay,
		client:   &http.Client{Timeout: cfg.Timeout},
		log:      log,
	}
}

// send POSTs the payload and drives the bounded fixed-delay retry loop. Only
// rate limits, server errors and network errors are retried; everything else
// is terminal on first occurrence. The most recent transient error feeds the
// terminal failure once the budget is exhausted.
func (t *transport) send(ctx context.Context, body any) (map[string]any, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &Error{Kind: KindUnexpected, Message: "failed to marshal request body", Err: err}
	}
	var lastErr *Error
	for attempt := 0; attempt <= t.attempts; attempt++ {
		decoded, attemptErr := t.attempt(ctx, payload)
		if attemptErr == nil {
			return decoded, nil
		}
		if !attemptErr.Retryable() {
			return nil, attemptErr
		}
		lastErr = attemptErr
		if attempt == t.attempts {
			break
		}
		t.log.Warn("retrying request",
			zap.String("provider", t.name),
			zap.String("reason", attemptErr.Kind.String()),
			zap.Int("attempt", attempt+1),
			zap.Int("maxAttempts", t.attempts),
			zap.Duration("delay", t.delay),
			zap.Error(attemptErr),
		)
		if err := t.wait(ctx); err != nil {
			return nil, err
		}
	}
	return nil, t.exhausted(lastErr)
}

// attempt performs a single POST and classifies its outcome.
func (t *transport) attempt(ctx context.Context, payload []byte) (map[string]any, *Error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Kind: KindUnexpected, Message: "failed to init request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, t.classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()
	return t.classifyResponse(resp.StatusCode, readBytes(resp.Body))
}

// classifyTransportError separates timeouts from connection failures; caller
// cancellation is terminal, the attempt budget is the only retry driver.
func (t *transport) classifyTransportError(ctx context.Context, err error) *Error {
	if ctx.Err() != nil {
		return &Error{Kind: KindUnexpected, Message: "request canceled", Err: ctx.Err()}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Message: "request timed out", Err: err}
	}
	return &Error{Kind: KindConnection, Message: "connection error", Err: err}
}

// classifyResponse maps one HTTP outcome onto the retry policy: 200 decodes
// the body, 429 and 5xx are transient, everything else is terminal.
func (t *transport) classifyResponse(status int, body []byte) (map[string]any, *Error) {
	switch {
	case status == http.StatusOK:
		var decoded map[string]any
		if err := json.Unmarshal(body, &decoded); err != nil {
			return nil, &Error{
				Kind: KindUnexpected, StatusCode: status, Body: body, Err: err,
				Message: fmt.Sprintf("unexpected error decoding %s response", t.name),
			}
		}
		return decoded, nil
	case status == http.StatusTooManyRequests:
		return nil, &Error{Kind: KindRateLimit, StatusCode: status, Body: body, Message: "rate limit exceeded"}
	case status == http.StatusUnauthorized:
		return nil, &Error{
			Kind: KindAuthentication, StatusCode: status, Body: body,
			Message: fmt.Sprintf("%s authentication failed. Check your API key.", t.name),
		}
	case status == http.StatusBadRequest:
		return nil, &Error{
			Kind: KindBadRequest, StatusCode: status, Body: body,
			Message: fmt.Sprintf("%s bad request: %s", t.name, extractAPIError(body)),
		}
	case status >= http.StatusInternalServerError:
		return nil, &Error{
			Kind: KindServer, StatusCode: status, Body: body,
			Message: fmt.Sprintf("%s API error: %s", t.name, extractAPIError(body)),
		}
	default:
		return nil, &Error{
			Kind: KindUnexpected, StatusCode: status, Body: body,
			Message: fmt.Sprintf("%s API error: %s", t.name, extractAPIError(body)),
		}
	}
}

// wait sleeps the fixed delay between attempts, aborting early when the
// caller's context goes away.
func (t *transport) wait(ctx context.Context) error {
	timer := time.NewTimer(t.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return &Error{Kind: KindUnexpected, Message: "request canceled while waiting to retry", Err: ctx.Err()}
	case <-timer.C:
		return nil
	}
}

// exhausted translates the last transient error into the terminal failure for
// its class once every attempt has been spent.
func (t *transport) exhausted(last *Error) *Error {
	if last == nil {
		return newErrorf(KindUnexpected, 0, "%s request failed after %d retries", t.name, t.attempts)
	}
	switch last.Kind {
	case KindRateLimit:
		return &Error{
			Kind: KindRateLimit, StatusCode: last.StatusCode, Body: last.Body,
			Message: fmt.Sprintf("%s rate limit exceeded after %d retries", t.name, t.attempts),
		}
	case KindServer:
		// the extracted server error message is already terminal-shaped
		return last
	case KindTimeout:
		return &Error{
			Kind: KindTimeout, Err: last.Err,
			Message: fmt.Sprintf("%s request timeout after %d retries", t.name, t.attempts),
		}
	case KindConnection:
		return &Error{
			Kind: KindConnection, Err: last.Err,
			Message: fmt.Sprintf("%s connection error after %d retries", t.name, t.attempts),
		}
	default:
		return &Error{
			Kind: last.Kind, Err: last,
			Message: fmt.Sprintf("%s request failed after %d retries. Last error", t.name, t.attempts),
		}
	}
}

// extractAPIError pulls the provider's error.message out of an error response
// body, falling back to the raw body text.
func extractAPIError(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return strings.TrimSpace(string(body))
}

func readBytes(stream io.Reader) []byte {
	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(stream)
	return buf.Bytes()
}
