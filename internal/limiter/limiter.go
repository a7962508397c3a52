package limiter

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttle paces the items of a batch to a maximum number of filesystem
// operations per second. It only delays; it never reorders or drops items.
type Throttle struct {
	maxPerSecond float64
	limiter      *rate.Limiter
}

// NewThrottle creates a throttle. A non-positive rate means no limit.
func NewThrottle(maxPerSecond float64) *Throttle {
	t := &Throttle{}
	t.SetRate(maxPerSecond)
	return t
}

// Wait blocks until the next operation may run.
// A nil or unlimited throttle returns immediately.
func (t *Throttle) Wait() {
	if t == nil || t.limiter == nil {
		return
	}
	// Background never cancels and burst is 1, so Wait cannot fail here
	_ = t.limiter.Wait(context.Background())
}

// SetRate updates the maximum operations per second
func (t *Throttle) SetRate(maxPerSecond float64) {
	t.maxPerSecond = maxPerSecond
	if maxPerSecond <= 0 {
		t.limiter = nil
		return
	}
	if t.limiter == nil {
		t.limiter = rate.NewLimiter(rate.Limit(maxPerSecond), 1)
		return
	}
	t.limiter.SetLimit(rate.Limit(maxPerSecond))
}

// Rate returns the configured maximum, 0 when unlimited
func (t *Throttle) Rate() float64 {
	if t == nil {
		return 0
	}
	return t.maxPerSecond
}
