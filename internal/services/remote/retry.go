package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"hookreel/internal/services"
)

const (
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
)

// Policy bounds retries of one logical external call.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Sleeper overrides how retry sleeps are performed (useful for tests).
	Sleeper func(time.Duration)
}

// DefaultPolicy returns the retry policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: defaultRetryAttempts,
		BaseDelay:   defaultRetryBaseDelay,
		MaxDelay:    defaultRetryMaxDelay,
	}
}

// Attempts returns the effective attempt bound (at least one).
func (p Policy) Attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

// Do runs fn until it succeeds, returns a non-retryable error, or the attempt
// bound is reached. fn receives the 1-based attempt number. onFailure, when
// non-nil, observes every failed attempt before the retry decision.
func (p Policy) Do(ctx context.Context, fn func(attempt int) error, onFailure func(attempt int, err error)) (int, error) {
	attempts := p.Attempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			return attempt, nil
		}
		lastErr = err
		if onFailure != nil {
			onFailure(attempt, err)
		}
		delay, retry := p.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return attempt, err
		}
		if sleepErr := p.sleep(ctx, delay); sleepErr != nil {
			return attempt, errors.Join(err, sleepErr)
		}
	}
	return attempts, fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

// Retryable reports whether err is a transient transport failure: HTTP
// 408/429/5xx, a network timeout, or an error tagged ErrTimeout or
// ErrTransient. Caller cancellation is never retryable.
func Retryable(ctx context.Context, err error) bool {
	_, ok := classify(ctx, err)
	return ok
}

func classify(ctx context.Context, err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}
	if ctx != nil && ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) {
		return 0, false
	}
	if errors.Is(err, services.ErrTimeout) || errors.Is(err, services.ErrTransient) {
		return 0, true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			return statusErr.RetryAfter, true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return 0, true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		// Connection refused/reset while the service restarts is worth another try.
		if urlErr.Timeout() {
			return 0, true
		}
		var opErr *net.OpError
		if errors.As(urlErr, &opErr) {
			return 0, true
		}
	}

	// Per-call deadline from the http client surfaces as DeadlineExceeded
	// while the caller's own context is still live.
	if errors.Is(err, context.DeadlineExceeded) {
		return 0, true
	}
	return 0, false
}

func (p Policy) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts {
		return 0, false
	}
	hint, ok := classify(ctx, err)
	if !ok {
		return 0, false
	}
	if hint > 0 {
		return p.capDelay(hint), true
	}
	return p.Backoff(attempt), true
}

// Backoff returns the delay before the attempt following attempt:
// attempt 1 -> base, attempt 2 -> base*2, attempt 3 -> base*4, capped at MaxDelay.
func (p Policy) Backoff(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		return 0
	}
	maxDelay := p.maxDelay()
	if attempt <= 0 {
		attempt = 1
	}
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}
	return p.capDelay(delay)
}

func (p Policy) maxDelay() time.Duration {
	if p.MaxDelay > 0 {
		return p.MaxDelay
	}
	return defaultRetryMaxDelay
}

func (p Policy) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if maxDelay := p.maxDelay(); delay > maxDelay {
		return maxDelay
	}
	return delay
}

func (p Policy) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if p.Sleeper != nil {
		p.Sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
