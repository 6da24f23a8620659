package commands

import "time"

// pruneActivity drops timestamps that can no longer count as recent.
func pruneActivity(activity []time.Time, now time.Time, window time.Duration) []time.Time {
	if window <= 0 {
		return activity
	}
	cutoff := now.Add(-window)
	kept := activity[:0]
	for _, at := range activity {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	return kept
}
