package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Strategy calculates retry delays. Implementations must be safe for
// concurrent use.
type Strategy interface {
	// NextDelay returns the delay before the given attempt.
	// Attempt starts at 1 for the first retry.
	NextDelay(attempt int) time.Duration
}

// Exponential implements exponential backoff with optional jitter.
type Exponential struct {
	Base       time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
}

// NextDelay computes min(Base * (Multiplier ^ (attempt-1)) * (1 ± Jitter), Max).
func (e Exponential) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	base := e.Base
	if base == 0 {
		base = time.Second
	}

	max := e.Max
	if max == 0 {
		max = 8 * time.Second
	}

	multiplier := e.Multiplier
	if multiplier == 0 {
		multiplier = 2
	}

	delay := float64(base) * math.Pow(multiplier, float64(attempt-1))

	// Jitter spreads retries so concurrent callers don't hammer the
	// upstream in lockstep. Zero jitter keeps the delay deterministic.
	if e.Jitter > 0 {
		delay *= 1 + (rand.Float64()*2-1)*e.Jitter
	}

	if delay > float64(max) {
		delay = float64(max)
	}

	return time.Duration(delay)
}

// Fixed returns the same delay for every attempt.
type Fixed struct {
	Interval time.Duration
}

func (f Fixed) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return f.Interval
}

// Default returns the exponential strategy used for identity upstream
// retries: 1s base doubling up to 8s, no jitter.
func Default() Strategy {
	return Exponential{
		Base:       time.Second,
		Max:        8 * time.Second,
		Multiplier: 2,
	}
}
