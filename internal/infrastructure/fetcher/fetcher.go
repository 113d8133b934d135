package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"regintel/internal/ports"
)

const (
	defaultTimeout = 15 * time.Second
	defaultRetries = 2
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	acceptHeader   = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	maxBodyBytes   = 4 << 20
)

// HTTPFetcher performs GET requests with a browser-like identity and a
// bounded retry loop. State agencies often reject obvious bot agents.
type HTTPFetcher struct {
	client  *http.Client
	retries int
	timeout time.Duration
	logger  *slog.Logger
}

var _ ports.Fetcher = (*HTTPFetcher)(nil)

// New wires an HTTP client; nil client and non-positive bounds fall back
// to defaults.
func New(client *http.Client, retries int, timeout time.Duration, log *slog.Logger) *HTTPFetcher {
	if client == nil {
		client = &http.Client{}
	}
	if retries < 0 {
		retries = defaultRetries
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPFetcher{client: client, retries: retries, timeout: timeout, logger: log}
}

// Fetch retrieves url, retrying transient failures with linearly increasing
// delay. After exhausting retries it returns the last error; it never
// panics, so one dead source cannot abort a whole run.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * time.Second
			f.debug("retrying fetch", "url", url, "attempt", attempt, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		body, err := f.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return "", fmt.Errorf("fetch %s: %w", url, lastErr)
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, url string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("source returned %s", resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	body := string(raw)
	if strings.TrimSpace(body) == "" {
		return "", fmt.Errorf("empty body")
	}

	return body, nil
}

func (f *HTTPFetcher) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
