package commands

import (
	"testing"
	"time"
)

func TestPruneActivityDropsOutsideWindow(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	activity := []time.Time{
		now.Add(-48 * time.Hour),
		now.Add(-25 * time.Hour),
		now.Add(-time.Hour),
	}
	kept := pruneActivity(activity, now, 24*time.Hour)
	if len(kept) != 1 || !kept[0].Equal(now.Add(-time.Hour)) {
		t.Fatalf("unexpected kept activity %v", kept)
	}
	if got := pruneActivity(activity[:1], now, 0); len(got) != 1 {
		t.Fatalf("zero window must keep everything, got %v", got)
	}
}
