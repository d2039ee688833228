package engine

import "time"

// IsExpired reports whether the strategy has run past its execution window.
// The boundary is inclusive: elapsed == limit means expired. A limit of zero
// or less disables expiration entirely.
func IsExpired(startedAt time.Time, timeExecutionMin int, now time.Time) bool {
	if timeExecutionMin <= 0 {
		return false
	}
	return now.Sub(startedAt) >= time.Duration(timeExecutionMin)*time.Minute
}

func ElapsedSeconds(startedAt time.Time, now time.Time) int64 {
	return int64(now.Sub(startedAt).Seconds())
}
