package ratelimiter

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter limits prompt tokens and requests per minute using two
// golang.org/x/time/rate buckets.
type RateLimiter struct {
	tokens   *rate.Limiter
	requests *rate.Limiter
}

// Ensure RateLimiter implements Limiter.
var _ Limiter = (*RateLimiter)(nil)

// New creates a limiter allowing tokensPerMinute prompt tokens and
// requestsPerMinute requests. A value <= 0 disables that dimension.
func New(tokensPerMinute, requestsPerMinute int) *RateLimiter {
	return &RateLimiter{
		tokens:   perMinute(tokensPerMinute),
		requests: perMinute(requestsPerMinute),
	}
}

func perMinute(n int) *rate.Limiter {
	if n <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(float64(n)/time.Minute.Seconds()), n)
}

// TryConsume takes numTokens tokens and one request slot, or nothing.
func (rl *RateLimiter) TryConsume(numTokens int) bool {
	now := time.Now()

	tr := rl.tokens.ReserveN(now, numTokens)
	if !tr.OK() || tr.DelayFrom(now) > 0 {
		tr.CancelAt(now)
		return false
	}

	rr := rl.requests.ReserveN(now, 1)
	if !rr.OK() || rr.DelayFrom(now) > 0 {
		rr.CancelAt(now)
		tr.CancelAt(now)
		return false
	}
	return true
}

// TimeUntilAvailable returns how long until the tokens and a request slot
// would both be available. Requests larger than the bucket report
// math.MaxInt64.
func (rl *RateLimiter) TimeUntilAvailable(tokens int) time.Duration {
	now := time.Now()
	return max(peekDelay(rl.tokens, now, tokens), peekDelay(rl.requests, now, 1))
}

func peekDelay(l *rate.Limiter, now time.Time, n int) time.Duration {
	r := l.ReserveN(now, n)
	defer r.CancelAt(now)
	if !r.OK() {
		return time.Duration(math.MaxInt64)
	}
	return r.DelayFrom(now)
}

// WaitAndConsume reserves tokens and a request slot, then waits for the
// reservation to come due. The reservation is handed back if the wait would
// exceed maxWait (0 = no cap) or ctx ends first.
func (rl *RateLimiter) WaitAndConsume(ctx context.Context, tokens int, maxWait time.Duration) error {
	now := time.Now()

	tr := rl.tokens.ReserveN(now, tokens)
	if !tr.OK() {
		return fmt.Errorf("request of %d tokens exceeds the limiter burst", tokens)
	}
	rr := rl.requests.ReserveN(now, 1)
	if !rr.OK() {
		tr.CancelAt(now)
		return fmt.Errorf("request slot exceeds the limiter burst")
	}

	wait := max(tr.DelayFrom(now), rr.DelayFrom(now))
	if maxWait > 0 && wait > maxWait {
		rr.CancelAt(now)
		tr.CancelAt(now)
		return fmt.Errorf("rate limit wait time %v exceeds max wait %v", wait, maxWait)
	}
	if wait == 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		rr.Cancel()
		tr.Cancel()
		return fmt.Errorf("wait for rate limit: %w", ctx.Err())
	}
}

// PromptCost approximates the token cost of a prompt: about four characters
// per token with a 20% margin, plus a fixed request overhead.
func PromptCost(prompt string) int {
	const overhead = 100
	if prompt == "" {
		return overhead
	}
	runes := float64(len([]rune(prompt)))
	return int(math.Ceil(runes/4*1.2)) + 3 + overhead
}
