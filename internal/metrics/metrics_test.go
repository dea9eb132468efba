package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRebuild(t *testing.T) {
	before := testutil.ToFloat64(Rebuilds.WithLabelValues("turn_changed"))
	passes := testutil.ToFloat64(Passes)

	ObserveRebuild(3, "turn_changed", 2, 5, 1, time.Millisecond)

	if got := testutil.ToFloat64(Rebuilds.WithLabelValues("turn_changed")); got != before+1 {
		t.Errorf("rebuilds = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(Passes); got != passes+2 {
		t.Errorf("passes = %v, want %v", got, passes+2)
	}
	if got := testutil.ToFloat64(KnownAttackers.WithLabelValues("3")); got != 5 {
		t.Errorf("known = %v, want 5", got)
	}
	if got := testutil.ToFloat64(VanishedAttackers.WithLabelValues("3")); got != 1 {
		t.Errorf("vanished = %v, want 1", got)
	}
}
