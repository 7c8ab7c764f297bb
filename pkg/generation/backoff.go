package generation

import "time"

// BackoffPolicy computes absolute retry timestamps after rate-limited
// failures: exponential in the attempt count, capped, always strictly in the
// future. Returning a point in time (not a duration) lets clients display
// "try again in N minutes" without re-deriving the schedule.
type BackoffPolicy struct {
	Base time.Duration
	Cap  time.Duration

	// now is injectable for tests; nil means time.Now.
	now func() time.Time
}

func NewBackoffPolicy(base, cap time.Duration) *BackoffPolicy {
	if base <= 0 {
		base = time.Minute
	}
	if cap < base {
		cap = base
	}
	return &BackoffPolicy{Base: base, Cap: cap}
}

func (p *BackoffPolicy) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

// Next returns the earliest time a retry is permitted after the given
// attempt. attemptCount is the number of attempts already made (>= 1).
func (p *BackoffPolicy) Next(attemptCount int) time.Time {
	if attemptCount < 1 {
		attemptCount = 1
	}

	delay := p.Base
	for i := 1; i < attemptCount; i++ {
		delay *= 2
		if delay >= p.Cap {
			delay = p.Cap
			break
		}
	}

	return p.clock().Add(delay)
}
