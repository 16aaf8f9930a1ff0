// Package clock provides the time source abstraction the session uses to
// timestamp lifecycle events, swappable in tests.
package clock

import "time"

// SystemClock reads wall-clock time from the standard library.
type SystemClock struct{}

// Now returns the current time
func (SystemClock) Now() time.Time {
	return time.Now()
}
