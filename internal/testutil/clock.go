package testutil

import "time"

// FixedClock returns a Now function pinned to the given instant so run
// timestamps are deterministic in tests.
func FixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
