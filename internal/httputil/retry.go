// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the shared HTTP retry/backoff policy used by
// every network-calling stage.
package httputil

import (
	"context"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/pdiddy/paper-harvester/pkg/types"
)

// Policy describes how a request is retried: attempt budget, exponential
// backoff with jitter, and which HTTP statuses are worth retrying.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the first backoff delay; it doubles per attempt.
	BaseDelay time.Duration

	// MaxDelay caps a single backoff wait.
	MaxDelay time.Duration

	// RetryStatus reports whether a response status should be retried.
	// Nil means RetryableStatus.
	RetryStatus func(code int) bool
}

// DefaultPolicy returns the policy used when a stage does not configure one.
func DefaultPolicy() Policy {
	return PolicyFrom(types.DefaultRetry())
}

// PolicyFrom builds a Policy from the shared retry configuration, filling
// zero values with defaults.
func PolicyFrom(cfg types.RetryConfig) Policy {
	def := types.DefaultRetry()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	return Policy{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   cfg.BaseDelay,
		MaxDelay:    cfg.MaxDelay,
	}
}

// RetryableStatus reports whether an HTTP status code is transient:
// 429 (rate limited) and 5xx server errors. Other 4xx statuses are not
// retried.
func RetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// Do executes req and retries transport errors and retryable statuses with
// exponential backoff plus jitter. A Retry-After header on a retryable
// response overrides the computed backoff. Response bodies are drained and
// closed before each retry. If the context is cancelled during a wait, Do
// returns ctx.Err(). After exhausting attempts the last response (or last
// transport error) is returned so the caller can inspect it.
func Do(ctx context.Context, client *http.Client, req *http.Request, p Policy) (*http.Response, error) {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = types.DefaultRetry().MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = types.DefaultRetry().BaseDelay
	}
	retryable := p.RetryStatus
	if retryable == nil {
		retryable = RetryableStatus
	}

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if attempt == p.MaxAttempts-1 {
				break
			}
			if err := sleep(ctx, p.backoff(attempt, nil)); err != nil {
				return nil, err
			}
			continue
		}

		if !retryable(resp.StatusCode) || attempt == p.MaxAttempts-1 {
			return resp, nil
		}

		delay := p.backoff(attempt, resp)

		// Drain and close the body before retrying.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// backoff computes the wait before the next attempt. A parseable Retry-After
// header wins; otherwise the base delay doubles per attempt with jitter up
// to one base delay, capped at MaxDelay.
func (p Policy) backoff(attempt int, resp *http.Response) time.Duration {
	if resp != nil {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil && secs >= 0 {
				return time.Duration(secs) * time.Second
			}
		}
	}
	d := p.BaseDelay << uint(attempt)
	d += time.Duration(rand.Int63n(int64(p.BaseDelay)))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
