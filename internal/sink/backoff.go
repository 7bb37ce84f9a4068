package sink

import (
	"math/rand"
	"time"
)

// Default backoff configuration values.
const (
	DefaultMinBackoff = 500 * time.Millisecond
	DefaultMaxBackoff = 10 * time.Second
)

// backoffPolicy computes retry waits with roughly x3 growth per failed
// attempt, full jitter down to the minimum, and a hard ceiling. The policy
// itself is stateless; the caller threads the previous wait through Next.
type backoffPolicy struct {
	min time.Duration
	max time.Duration
	rng *rand.Rand
}

// newBackoffPolicy creates a policy bounded by min and max.
func newBackoffPolicy(min, max time.Duration) *backoffPolicy {
	return &backoffPolicy{
		min: min,
		max: max,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns the wait before the following attempt given the previous
// wait: min(maxDelay, minDelay + uniform(0,1) * (3*last - minDelay)).
func (p *backoffPolicy) Next(last time.Duration) time.Duration {
	next := time.Duration(float64(p.min) + p.rng.Float64()*float64(3*last-p.min))
	if next > p.max {
		next = p.max
	}
	return next
}
