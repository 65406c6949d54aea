package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	kabuErrors "github.com/harunnryd/kabu/internal/errors"
)

const (
	userAgent       = "kabu/1.0 (+https://github.com/harunnryd/kabu)"
	maxResponseSize = 4 << 20
)

// yahooClient is the shared HTTP layer for all Yahoo Finance tools.
// It retries HTTP 429 with exponential backoff before giving up, and
// classifies terminal failures so the dispatch layer can tell
// transient from permanent.
type yahooClient struct {
	client     *http.Client
	maxRetries int
	baseDelay  time.Duration

	// sleep is swapped out in tests
	sleep func(ctx context.Context, d time.Duration) error
}

func newYahooClient(client *http.Client, maxRetries int, baseDelay time.Duration) *yahooClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return &yahooClient{
		client:     client,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		sleep:      sleepContext,
	}
}

func (c *yahooClient) getJSON(ctx context.Context, baseURL string, params url.Values, out interface{}) error {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return kabuErrors.InvalidInput(fmt.Sprintf("invalid endpoint %q", baseURL))
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return kabuErrors.InvalidInput(fmt.Sprintf("invalid endpoint %q", baseURL))
	}

	query := parsed.Query()
	for key, values := range params {
		for _, value := range values {
			query.Add(key, value)
		}
	}
	parsed.RawQuery = query.Encode()

	for attempt := 1; ; attempt++ {
		body, status, err := c.get(ctx, parsed.String())
		if err != nil {
			return kabuErrors.MapUpstream(err)
		}

		switch {
		case status == http.StatusOK:
			if err := json.Unmarshal(body, out); err != nil {
				return kabuErrors.Transient(fmt.Sprintf("decode response: %v", err))
			}
			return nil

		case status == http.StatusTooManyRequests:
			if attempt >= c.maxRetries {
				return kabuErrors.Transient(fmt.Sprintf("rate limited after %d attempts", attempt))
			}
			delay := c.baseDelay * (1 << (attempt - 1))
			if err := c.sleep(ctx, delay); err != nil {
				return err
			}

		case status == http.StatusNotFound:
			return kabuErrors.Permanent("resource not found")

		case status >= http.StatusInternalServerError:
			return kabuErrors.Transient(fmt.Sprintf("upstream returned %d", status))

		default:
			return kabuErrors.Permanent(fmt.Sprintf("upstream returned %d", status))
		}
	}
}

func (c *yahooClient) get(ctx context.Context, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
