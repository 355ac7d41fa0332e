package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"drivebank/internal/config"
)

// retryPolicy bounds page-fetch retries with exponential backoff.
type retryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

func policyFromConfig(cfg config.RetryConfig) retryPolicy {
	return retryPolicy{
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   time.Duration(cfg.BaseDelayMs) * time.Millisecond,
		maxDelay:    time.Duration(cfg.MaxDelayMs) * time.Millisecond,
	}
}

// delayFor returns the backoff before the given retry attempt (1-based).
func (p retryPolicy) delayFor(attempt int) time.Duration {
	delay := p.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.maxDelay {
			return p.maxDelay
		}
	}
	if delay > p.maxDelay {
		return p.maxDelay
	}
	return delay
}

// fetch issues a GET for url, retrying transport errors and non-success
// statuses until the policy is exhausted. The caller owns the returned body.
func (s *Site) fetch(ctx context.Context, url string) ([]byte, error) {
	if err := s.throttle(ctx); err != nil {
		return nil, err
	}
	var lastErr error
	for attempt := 1; attempt <= s.retry.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := s.sleep(ctx, s.retry.delayFor(attempt-1)); err != nil {
				return nil, err
			}
		}
		body, err := s.fetchOnce(ctx, url)
		s.lastFetch = time.Now()
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, &FetchError{URL: url, Attempts: s.retry.maxAttempts, Err: lastErr}
}

func (s *Site) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// throttle waits out the remainder of the polite-fetch interval since the
// previous request.
func (s *Site) throttle(ctx context.Context) error {
	if s.interval <= 0 || s.lastFetch.IsZero() {
		return ctx.Err()
	}
	if wait := s.interval - time.Since(s.lastFetch); wait > 0 {
		return s.sleep(ctx, wait)
	}
	return ctx.Err()
}

// waitContext sleeps for d unless the context is cancelled first.
func waitContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
