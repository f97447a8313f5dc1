package dispatch

import (
	"math"
	"testing"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"

	"github.com/flightpath-dev/mspmav-bridge/internal/scheduler"
)

// TestMessageIntervalProgramsScheduleS6 exercises spec.md scenario S6
// directly against the scheduling logic handleMessageInterval drives,
// without needing a live transport.
func TestMessageIntervalProgramsScheduleS6(t *testing.T) {
	sched := scheduler.New(200)
	l := &Loop{sched: sched}

	l.handleMessageInterval(&common.MessageMessageInterval{
		MessageId: 30,
		IntervalUs: 33333,
	})

	if got := sched.Count(30); got != 30 {
		t.Fatalf("count(30) = %d, want 30", got)
	}
}

func TestFreqFromIntervalUsRounding(t *testing.T) {
	freqHz := math.Round(1_000_000 / float64(33333))
	if freqHz != 30 {
		t.Fatalf("freqHz = %v, want 30", freqHz)
	}
}

func TestMessageIntervalZeroDeletesTask(t *testing.T) {
	sched := scheduler.New(200)
	if err := sched.Insert(30, 30); err != nil {
		t.Fatalf("insert: %v", err)
	}
	l := &Loop{sched: sched}
	l.handleMessageInterval(&common.MessageMessageInterval{MessageId: 30, IntervalUs: 0})
	if got := sched.Count(30); got != 0 {
		t.Fatalf("count(30) = %d, want 0 after zero-interval MESSAGE_INTERVAL", got)
	}
}
