package outbox

import (
	"math"
	"time"
)

// Backoff returns the delay before the given attempt: exponential from one
// second, capped at max.
func Backoff(attempt int, max time.Duration) time.Duration {
	sec := math.Pow(2, float64(attempt))
	d := time.Duration(sec) * time.Second
	if d > max {
		return max
	}
	if d < time.Second {
		return time.Second
	}
	return d
}
