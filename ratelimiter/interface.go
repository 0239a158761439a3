// Package ratelimiter holds client-side limiters the Manager consults before
// sending a request. A limiter never retries anything: it either admits the
// single request or reports how long the caller would have to wait.
package ratelimiter

import (
	"context"
	"time"
)

// Limiter admits prompts for one model. Costs are prompt tokens as computed
// by PromptCost; every admitted call also takes one request slot.
type Limiter interface {
	// TryConsume takes numTokens and a request slot if both are free now,
	// otherwise it takes nothing and reports false.
	TryConsume(numTokens int) bool

	// TimeUntilAvailable reports the wait before TryConsume(tokens) would
	// succeed. It consumes nothing.
	TimeUntilAvailable(tokens int) time.Duration

	// WaitAndConsume blocks until the tokens are taken, ctx ends or the wait
	// would exceed maxWait (0 = no cap).
	WaitAndConsume(ctx context.Context, tokens int, maxWait time.Duration) error
}
