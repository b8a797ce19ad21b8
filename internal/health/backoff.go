package health

import "time"

// Backoff computes retry intervals with exponential growth and a ceiling.
//
// It is a pure calculator: the current interval is owned by the caller and
// passed to Next, so the same policy value can be shared and tested without
// real timing.
type Backoff struct {
	// Base is the interval used while the connection is healthy and the
	// value Reset returns.
	Base time.Duration

	// Max caps the interval; Next never returns more than Max.
	Max time.Duration

	// Multiplier is the per-failure growth factor (> 1 for real growth).
	Multiplier float64
}

// Next returns the interval to use after one more failure:
// min(current × multiplier, max). The result is never below current,
// so repeated failures produce a non-decreasing sequence.
func (b Backoff) Next(current time.Duration) time.Duration {
	next := time.Duration(float64(current) * b.Multiplier)
	if next < current {
		next = current
	}
	if next > b.Max {
		next = b.Max
	}
	return next
}

// Reset returns the base interval, used after any successful check.
func (b Backoff) Reset() time.Duration {
	return b.Base
}
