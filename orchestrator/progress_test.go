package orchestrator

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestStepForBands(t *testing.T) {
	low := func() float64 { return 0 }
	high := func() float64 { return 0.999 }

	cases := []struct {
		name     string
		progress float64
		min, max float64
	}{
		{"fast ramp", 0, 1.5, 2.5},
		{"fast ramp upper edge", 19.9, 1.5, 2.5},
		{"steady ramp", 30, 0.4, 0.9},
		{"slowing ramp", 60, 0.2, 0.5},
		{"near stall", 80, 0.05, 0.05},
		{"at ceiling", 85, 0, 0},
		{"beyond ceiling", 99, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := stepFor(tc.progress, low); got < tc.min || got > tc.max {
				t.Fatalf("stepFor(%v, low) = %v, want in [%v, %v]", tc.progress, got, tc.min, tc.max)
			}
			if got := stepFor(tc.progress, high); got < tc.min || got > tc.max {
				t.Fatalf("stepFor(%v, high) = %v, want in [%v, %v]", tc.progress, got, tc.min, tc.max)
			}
		})
	}
}

func TestStageForFollowsBands(t *testing.T) {
	cases := []struct {
		progress float64
		want     string
	}{
		{0, "Fetching audio stream"},
		{19, "Fetching audio stream"},
		{20, "Transcribing audio"},
		{49, "Transcribing audio"},
		{50, "Processing transcript"},
		{75, "Almost done"},
		{84, "Almost done"},
	}
	for _, tc := range cases {
		if got := stageFor(tc.progress); got != tc.want {
			t.Fatalf("stageFor(%v) = %q, want %q", tc.progress, got, tc.want)
		}
	}
}

func TestEstimatorHaltStopsTicks(t *testing.T) {
	var ticks atomic.Int64
	e := startEstimator(time.Millisecond, func() { ticks.Add(1) })

	deadline := time.Now().Add(time.Second)
	for ticks.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if ticks.Load() == 0 {
		t.Fatal("estimator never ticked")
	}

	e.halt()
	e.halt() // idempotent

	// A tick already racing the halt may still land; give it time to drain.
	time.Sleep(10 * time.Millisecond)
	settled := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	if got := ticks.Load(); got != settled {
		t.Fatalf("ticks after halt: %d -> %d", settled, got)
	}
}
