package orchestrator

import (
	"sync"
	"time"
)

const (
	// estimatorTick is the interval between simulated progress updates.
	estimatorTick = 150 * time.Millisecond
	// simulatedCeiling caps progress produced by the estimator alone.
	// Everything above it is reachable only through a real provider signal
	// or the pipeline's own terminal steps.
	simulatedCeiling = 85.0
)

// stepFor returns the simulated increment for the current progress value.
// The ramp is fast at the start, steady through the middle, and nearly
// stalls just under the ceiling so the bar keeps moving without lying
// about completion. rnd supplies a value in [0, 1).
func stepFor(progress float64, rnd func() float64) float64 {
	switch {
	case progress < 20:
		return 1.5 + rnd()
	case progress < 50:
		return 0.4 + 0.5*rnd()
	case progress < 75:
		return 0.2 + 0.3*rnd()
	case progress < simulatedCeiling:
		return 0.05
	default:
		return 0
	}
}

// stageFor maps a progress value to the label shown to the user.
func stageFor(progress float64) string {
	switch {
	case progress < 20:
		return "Fetching audio stream"
	case progress < 50:
		return "Transcribing audio"
	case progress < 75:
		return "Processing transcript"
	default:
		return "Almost done"
	}
}

// estimator is the ticking goroutine behind simulated progress. It is
// owned by exactly one job and halted on every transition out of running;
// halt is idempotent so exit paths do not need to coordinate.
type estimator struct {
	stop     chan struct{}
	stopOnce sync.Once
}

// startEstimator launches a ticker calling tick every interval until halted.
func startEstimator(interval time.Duration, tick func()) *estimator {
	e := &estimator{stop: make(chan struct{})}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-e.stop:
				return
			case <-t.C:
				tick()
			}
		}
	}()
	return e
}

func (e *estimator) halt() {
	e.stopOnce.Do(func() { close(e.stop) })
}
