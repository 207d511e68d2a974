package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"transcriber/fault"
	"transcriber/history"
	"transcriber/transcription"
)

type fakeInvoker struct {
	mu     sync.Mutex
	result *transcription.Result
	err    error
	// gate, when non-nil, blocks Transcribe until closed.
	gate     chan struct{}
	progress []float64
	calls    int
}

func (f *fakeInvoker) Transcribe(_ context.Context, _ string, onProgress func(float64)) (*transcription.Result, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	progress := f.progress
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if onProgress != nil {
		for _, p := range progress {
			onProgress(p)
		}
	}
	return f.result, f.err
}

func (f *fakeInvoker) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRefiner struct {
	text  string
	err   error
	calls int
}

func (f *fakeRefiner) Refine(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.text, f.err
}

type recordingStore struct {
	mu        sync.Mutex
	inserts   []history.Item
	listCalls int
}

func (s *recordingStore) Insert(_ context.Context, item history.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts = append(s.inserts, item)
	return nil
}

func (s *recordingStore) List(_ context.Context) ([]history.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	return append([]history.Item{}, s.inserts...), nil
}

func (s *recordingStore) Delete(_ context.Context, _ string) (int64, error) {
	return 0, nil
}

func (s *recordingStore) inserted() []history.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]history.Item{}, s.inserts...)
}

func sampleResult() *transcription.Result {
	return &transcription.Result{
		Title:    "A Talk",
		Duration: "04:13",
		Language: "english",
		Segments: []transcription.Segment{
			{Timestamp: "00:00", Text: "hello there"},
			{Timestamp: "00:09", Text: "general remark"},
		},
	}
}

const supportedURL = "https://youtu.be/dQw4w9WgXcQ"

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func newTestOrchestrator(inv Transcriber, store history.Store, refiner TextRefiner) *Orchestrator {
	return New(Options{
		Invoker:      inv,
		Ledger:       history.NewLedger(store),
		Refiner:      refiner,
		TickInterval: time.Millisecond,
	})
}

func TestStartRejectsUnsupportedURL(t *testing.T) {
	inv := &fakeInvoker{result: sampleResult()}
	store := &recordingStore{}
	o := newTestOrchestrator(inv, store, nil)

	err := o.Start("https://example.com/watch?v=nope")
	if fault.KindOf(err) != fault.KindValidation {
		t.Fatalf("kind = %s, want validation", fault.KindOf(err))
	}

	job := o.Snapshot()
	if job.Status != StatusFailed {
		t.Fatalf("job = %+v", job)
	}
	// The stored message is what the UI shows; the classification prefix
	// stays internal.
	if job.Error != "the link is not a supported video URL" {
		t.Fatalf("job error = %q", job.Error)
	}
	if inv.callCount() != 0 {
		t.Fatal("no provider call may happen for an unsupported URL")
	}
	if len(store.inserted()) != 0 {
		t.Fatal("validation failures must not be persisted")
	}
}

func TestStartWhileRunningRejected(t *testing.T) {
	gate := make(chan struct{})
	inv := &fakeInvoker{result: sampleResult(), gate: gate}
	store := &recordingStore{}
	o := newTestOrchestrator(inv, store, nil)

	if err := o.Start(supportedURL); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := o.Start(supportedURL); !errors.Is(err, ErrJobAlreadyRunning) {
		t.Fatalf("second start = %v, want ErrJobAlreadyRunning", err)
	}

	close(gate)
	waitFor(t, func() bool { return o.Snapshot().Status == StatusSucceeded })
	if inv.callCount() != 1 {
		t.Fatalf("invoker calls = %d, want 1", inv.callCount())
	}
}

func TestPipelineSuccessPersists(t *testing.T) {
	inv := &fakeInvoker{result: sampleResult()}
	store := &recordingStore{}
	o := newTestOrchestrator(inv, store, nil)

	if err := o.Start(supportedURL); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, func() bool { return o.Snapshot().Status == StatusSucceeded })

	job := o.Snapshot()
	if job.Progress != 100 || job.Stage != "Complete" {
		t.Fatalf("job = %+v", job)
	}
	if job.Transcript == nil || len(job.Transcript.Segments) != 2 {
		t.Fatalf("transcript = %+v", job.Transcript)
	}

	items := store.inserted()
	if len(items) != 1 {
		t.Fatalf("inserted = %+v", items)
	}
	item := items[0]
	if item.Status != history.StatusSuccess || item.VideoTitle != "A Talk" || item.Content == nil {
		t.Fatalf("item = %+v", item)
	}
	if item.ID == "" || item.CreatedAt.IsZero() {
		t.Fatalf("item identity not assigned: %+v", item)
	}
	if store.listCalls == 0 {
		t.Fatal("ledger cache must be refreshed after persisting")
	}
}

func TestRefinementFailureIsNonFatal(t *testing.T) {
	inv := &fakeInvoker{result: sampleResult()}
	store := &recordingStore{}
	refiner := &fakeRefiner{err: fault.New(fault.KindRefinement, "refinement service unavailable")}
	o := newTestOrchestrator(inv, store, refiner)

	if err := o.Start(supportedURL); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, func() bool { return o.Snapshot().Status == StatusSucceeded })

	job := o.Snapshot()
	if refiner.calls != 1 {
		t.Fatalf("refiner calls = %d", refiner.calls)
	}
	// The unrefined segments survive, timestamps intact.
	if job.Transcript.Segments[0] != (transcription.Segment{Timestamp: "00:00", Text: "hello there"}) {
		t.Fatalf("segments = %+v", job.Transcript.Segments)
	}
}

func TestRefinementReplacesSegments(t *testing.T) {
	inv := &fakeInvoker{result: sampleResult()}
	store := &recordingStore{}
	refiner := &fakeRefiner{text: "A.\n\nB."}
	o := newTestOrchestrator(inv, store, refiner)

	if err := o.Start(supportedURL); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, func() bool { return o.Snapshot().Status == StatusSucceeded })

	segments := o.Snapshot().Transcript.Segments
	if len(segments) != 2 {
		t.Fatalf("segments = %+v", segments)
	}
	if segments[0] != (transcription.Segment{Text: "A."}) || segments[1] != (transcription.Segment{Text: "B."}) {
		t.Fatalf("segments = %+v", segments)
	}
}

func TestConfigurationFailureNotPersisted(t *testing.T) {
	inv := &fakeInvoker{err: fault.New(fault.KindConfiguration, "speech API key is not configured")}
	store := &recordingStore{}
	o := newTestOrchestrator(inv, store, nil)

	if err := o.Start(supportedURL); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, func() bool { return o.Snapshot().Status == StatusFailed })

	if got := o.Snapshot().Error; got != "speech API key is not configured" {
		t.Fatalf("error = %q", got)
	}
	if len(store.inserted()) != 0 {
		t.Fatal("missing-credential failures must not be persisted")
	}
}

func TestProviderFailurePersisted(t *testing.T) {
	inv := &fakeInvoker{err: fault.New(fault.KindProvider, "video is private")}
	store := &recordingStore{}
	o := newTestOrchestrator(inv, store, nil)

	if err := o.Start(supportedURL); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, func() bool { return o.Snapshot().Status == StatusFailed })

	items := store.inserted()
	if len(items) != 1 {
		t.Fatalf("inserted = %+v", items)
	}
	if items[0].Status != history.StatusError || items[0].ErrorMessage != "video is private" {
		t.Fatalf("item = %+v", items[0])
	}
	if items[0].Content != nil {
		t.Fatal("error records carry no transcript")
	}
}

func TestResetFencesStragglers(t *testing.T) {
	gate := make(chan struct{})
	inv := &fakeInvoker{result: sampleResult(), gate: gate}
	store := &recordingStore{}
	o := newTestOrchestrator(inv, store, nil)

	if err := o.Start(supportedURL); err != nil {
		t.Fatalf("start: %v", err)
	}
	o.Reset()

	job := o.Snapshot()
	if job.Status != StatusIdle || job.Progress != 0 {
		t.Fatalf("job after reset = %+v", job)
	}

	// Let the abandoned pipeline finish; it must not touch state or persist.
	close(gate)
	time.Sleep(50 * time.Millisecond)

	if got := o.Snapshot(); got.Status != StatusIdle || got.Transcript != nil {
		t.Fatalf("stale pipeline mutated state: %+v", got)
	}
	if len(store.inserted()) != 0 {
		t.Fatal("stale pipeline must not persist")
	}
}

func TestProgressMonotonicAndCapped(t *testing.T) {
	gate := make(chan struct{})
	inv := &fakeInvoker{result: sampleResult(), gate: gate}
	store := &recordingStore{}
	o := newTestOrchestrator(inv, store, nil)

	if err := o.Start(supportedURL); err != nil {
		t.Fatalf("start: %v", err)
	}

	last := 0.0
	for i := 0; i < 60; i++ {
		p := o.Snapshot().Progress
		if p < last {
			t.Fatalf("progress regressed: %v -> %v", last, p)
		}
		if p > simulatedCeiling {
			t.Fatalf("simulation exceeded ceiling: %v", p)
		}
		last = p
		time.Sleep(2 * time.Millisecond)
	}
	if last == 0 {
		t.Fatal("estimator never advanced progress")
	}

	close(gate)
	waitFor(t, func() bool { return o.Snapshot().Progress == 100 })
}

func TestRealSignalWins(t *testing.T) {
	inv := &fakeInvoker{result: sampleResult(), progress: []float64{95, 40}}
	store := &recordingStore{}
	o := newTestOrchestrator(inv, store, nil)

	// No estimator interference: the invoker reports before returning, so
	// by the time the job succeeds the 95 must have been adopted and the
	// later, lower 40 ignored on its way to the terminal 100.
	if err := o.Start(supportedURL); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, func() bool { return o.Snapshot().Status == StatusSucceeded })
	if got := o.Snapshot().Progress; got != 100 {
		t.Fatalf("progress = %v", got)
	}
}

func TestResetAfterSuccessReturnsToIdle(t *testing.T) {
	inv := &fakeInvoker{result: sampleResult()}
	store := &recordingStore{}
	o := newTestOrchestrator(inv, store, nil)

	if err := o.Start(supportedURL); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, func() bool { return o.Snapshot().Status == StatusSucceeded })

	o.Reset()
	job := o.Snapshot()
	if job.Status != StatusIdle || job.Progress != 0 || job.Transcript != nil {
		t.Fatalf("job = %+v", job)
	}
}

func TestRefineCurrentUpdatesTranscript(t *testing.T) {
	inv := &fakeInvoker{result: sampleResult()}
	store := &recordingStore{}
	o := newTestOrchestrator(inv, store, nil)
	refiner := &fakeRefiner{text: "Cleaned up.\n\nSecond paragraph."}
	o.refiner = refiner

	if err := o.Start(supportedURL); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, func() bool { return o.Snapshot().Status == StatusSucceeded })
	refiner.calls = 0
	refiner.text = "Manual pass."

	text, err := o.RefineCurrent(context.Background())
	if err != nil {
		t.Fatalf("refine: %v", err)
	}
	if text != "Manual pass." || refiner.calls != 1 {
		t.Fatalf("text = %q, calls = %d", text, refiner.calls)
	}
	segments := o.Snapshot().Transcript.Segments
	if len(segments) != 1 || segments[0].Text != "Manual pass." {
		t.Fatalf("segments = %+v", segments)
	}
}

func TestRefineCurrentRequiresTranscript(t *testing.T) {
	o := newTestOrchestrator(&fakeInvoker{}, &recordingStore{}, &fakeRefiner{text: "x"})
	if _, err := o.RefineCurrent(context.Background()); fault.KindOf(err) != fault.KindRefinement {
		t.Fatalf("kind = %s, want refinement", fault.KindOf(err))
	}
}

func TestUpdateTranscript(t *testing.T) {
	inv := &fakeInvoker{result: sampleResult()}
	o := newTestOrchestrator(inv, &recordingStore{}, nil)

	if err := o.Start(supportedURL); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, func() bool { return o.Snapshot().Status == StatusSucceeded })

	if err := o.UpdateTranscript("First.\n\nSecond."); err != nil {
		t.Fatalf("update: %v", err)
	}
	segments := o.Snapshot().Transcript.Segments
	if len(segments) != 2 || segments[1].Text != "Second." {
		t.Fatalf("segments = %+v", segments)
	}

	if err := o.UpdateTranscript("  \n\n "); fault.KindOf(err) != fault.KindValidation {
		t.Fatalf("empty edit kind = %s, want validation", fault.KindOf(err))
	}
}
