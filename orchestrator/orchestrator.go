package orchestrator

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"transcriber/fault"
	"transcriber/history"
	"transcriber/media"
	"transcriber/transcription"
)

// Status is the lifecycle state of the current job.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// ErrJobAlreadyRunning rejects a start while a job is in flight.
var ErrJobAlreadyRunning = errors.New("a transcription job is already running")

const genericFailureMessage = "Transcription failed. Please try again."

// Job is the snapshot of one transcription request lifecycle.
type Job struct {
	URL        string                `json:"url,omitempty"`
	Status     Status                `json:"status"`
	Progress   float64               `json:"progress"`
	Stage      string                `json:"stage,omitempty"`
	Error      string                `json:"error,omitempty"`
	Transcript *transcription.Result `json:"transcript,omitempty"`
}

// Transcriber runs the full acquire-and-transcribe loop for one URL.
type Transcriber interface {
	Transcribe(ctx context.Context, sourceURL string, onProgress func(float64)) (*transcription.Result, error)
}

// TextRefiner corrects a raw transcript text.
type TextRefiner interface {
	Refine(ctx context.Context, text string) (string, error)
}

// Archiver exports a finished job record.
type Archiver interface {
	Archive(ctx context.Context, item history.Item) error
}

// Notifier publishes a terminal job record.
type Notifier interface {
	Publish(ctx context.Context, item history.Item) error
}

// Options collects the orchestrator's dependencies. Invoker and Ledger are
// required; everything else is optional and skipped when nil.
type Options struct {
	Invoker  Transcriber
	Ledger   *history.Ledger
	Refiner  TextRefiner
	Metadata media.MetadataLookup
	Archiver Archiver
	Notifier Notifier

	// TickInterval overrides the estimator interval; zero keeps the default.
	TickInterval time.Duration
}

// Orchestrator owns the single current job: its state machine, the progress
// estimator, and the terminal persistence of outcomes. One job runs at a
// time; a new start while running is rejected.
//
// Every background writer (the pipeline goroutine, estimator ticks, real
// progress callbacks) carries the generation it was started under. Reset
// bumps the generation, so anything still in flight from the old job can no
// longer touch state.
type Orchestrator struct {
	mu  sync.Mutex
	gen uint64
	job Job

	est    *estimator
	cancel context.CancelFunc

	invoker  Transcriber
	ledger   *history.Ledger
	refiner  TextRefiner
	metadata media.MetadataLookup
	archiver Archiver
	notifier Notifier

	tick time.Duration
	rnd  func() float64
}

// New creates an idle orchestrator.
func New(opts Options) *Orchestrator {
	tick := opts.TickInterval
	if tick <= 0 {
		tick = estimatorTick
	}
	return &Orchestrator{
		job:      Job{Status: StatusIdle},
		invoker:  opts.Invoker,
		ledger:   opts.Ledger,
		refiner:  opts.Refiner,
		metadata: opts.Metadata,
		archiver: opts.Archiver,
		notifier: opts.Notifier,
		tick:     tick,
		rnd:      rand.Float64,
	}
}

// Snapshot returns a copy of the current job. The transcript is copied so
// callers cannot mutate orchestrator state through it.
func (o *Orchestrator) Snapshot() Job {
	o.mu.Lock()
	defer o.mu.Unlock()

	job := o.job
	if job.Transcript != nil {
		copied := *job.Transcript
		copied.Segments = append([]transcription.Segment{}, job.Transcript.Segments...)
		job.Transcript = &copied
	}
	return job
}

// Start begins a new job for url. A running job rejects the request with
// ErrJobAlreadyRunning. An unsupported URL fails the job immediately: no
// provider call is made and nothing is persisted.
func (o *Orchestrator) Start(url string) error {
	o.mu.Lock()

	if o.job.Status == StatusRunning {
		o.mu.Unlock()
		return ErrJobAlreadyRunning
	}

	if !media.IsSupportedURL(url) {
		err := fault.New(fault.KindValidation, "the link is not a supported video URL")
		o.stopEstimatorLocked()
		o.gen++
		o.job = Job{URL: url, Status: StatusFailed, Stage: "Failed", Error: fault.MessageOf(err, genericFailureMessage)}
		o.mu.Unlock()
		return err
	}

	o.stopEstimatorLocked()
	o.gen++
	gen := o.gen
	o.job = Job{URL: url, Status: StatusRunning, Stage: "Starting"}

	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel
	o.est = startEstimator(o.tick, func() { o.simulateTick(gen) })
	o.mu.Unlock()

	go o.run(ctx, gen, url)
	return nil
}

// Reset cancels whatever is in flight and returns to idle. The estimator is
// stopped and the generation bumped before the job record is cleared, so a
// stale pipeline cannot write after this returns.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.stopEstimatorLocked()
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.gen++
	o.job = Job{Status: StatusIdle}
}

// RefineCurrent reruns refinement on the stored transcript of a succeeded
// job and applies the corrected segments. Returns the corrected text.
func (o *Orchestrator) RefineCurrent(ctx context.Context) (string, error) {
	if o.refiner == nil {
		return "", fault.New(fault.KindConfiguration, "text refinement is not configured")
	}

	o.mu.Lock()
	if o.job.Status != StatusSucceeded || o.job.Transcript == nil {
		o.mu.Unlock()
		return "", fault.New(fault.KindRefinement, "there is no finished transcript to refine")
	}
	gen := o.gen
	text := o.job.Transcript.PlainText()
	o.mu.Unlock()

	refined, err := o.refiner.Refine(ctx, text)
	if err != nil {
		return "", err
	}

	o.mu.Lock()
	if o.gen == gen && o.job.Transcript != nil {
		o.job.Transcript = o.job.Transcript.WithSegments(transcription.SegmentsFromText(refined))
	}
	o.mu.Unlock()
	return refined, nil
}

// UpdateTranscript replaces the stored segments with text split on blank
// lines. Like refinement, the edit loses per-segment timestamps.
func (o *Orchestrator) UpdateTranscript(text string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.job.Status != StatusSucceeded || o.job.Transcript == nil {
		return fault.New(fault.KindValidation, "there is no finished transcript to edit")
	}
	segments := transcription.SegmentsFromText(text)
	if len(segments) == 0 {
		return fault.New(fault.KindValidation, "the edited transcript is empty")
	}
	o.job.Transcript = o.job.Transcript.WithSegments(segments)
	return nil
}

// run is the pipeline goroutine for one job generation.
func (o *Orchestrator) run(ctx context.Context, gen uint64, url string) {
	result, err := o.invoker.Transcribe(ctx, url, func(p float64) {
		o.reportRealProgress(gen, p)
	})
	if err != nil {
		o.fail(gen, url, err)
		return
	}

	o.setProgress(gen, 90, "Refining transcript")
	o.fillMetadata(ctx, url, result)

	if o.refiner != nil {
		refined, rerr := o.refiner.Refine(ctx, result.PlainText())
		if rerr != nil {
			log.Printf("refinement skipped: %v", rerr)
		} else {
			result = result.WithSegments(transcription.SegmentsFromText(refined))
		}
	}

	o.complete(gen, url, result)
}

// fillMetadata backfills a missing title and duration from the lookup
// provider. Lookup failures are ignored; the transcript already stands on
// its own.
func (o *Orchestrator) fillMetadata(ctx context.Context, url string, result *transcription.Result) {
	if o.metadata == nil {
		return
	}
	if result.Title != "" && result.Title != transcription.FallbackTitle && result.Duration != "" {
		return
	}
	videoID, ok := media.ExtractVideoID(url)
	if !ok {
		return
	}
	meta, err := o.metadata.Lookup(ctx, videoID)
	if err != nil {
		log.Printf("metadata lookup failed for %s: %v", videoID, err)
		return
	}
	if meta.Title != "" && (result.Title == "" || result.Title == transcription.FallbackTitle) {
		result.Title = meta.Title
	}
	if meta.Duration != "" && result.Duration == "" {
		result.Duration = meta.Duration
	}
}

// complete transitions the job to succeeded and persists the outcome.
func (o *Orchestrator) complete(gen uint64, url string, result *transcription.Result) {
	o.mu.Lock()
	if o.gen != gen {
		o.mu.Unlock()
		return
	}
	o.stopEstimatorLocked()
	o.job.Status = StatusSucceeded
	o.job.Progress = 100
	o.job.Stage = "Complete"
	o.job.Transcript = result
	o.mu.Unlock()

	item := history.Item{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		VideoURL:   url,
		VideoTitle: result.Title,
		Duration:   result.Duration,
		Status:     history.StatusSuccess,
		Content:    result,
	}
	o.persist(item)
}

// fail transitions the job to failed and persists the outcome, unless the
// failure is a missing credential (those would fill the history with noise
// every single attempt).
func (o *Orchestrator) fail(gen uint64, url string, err error) {
	kind := fault.KindOf(err)
	message := fault.MessageOf(err, genericFailureMessage)

	o.mu.Lock()
	if o.gen != gen {
		o.mu.Unlock()
		return
	}
	o.stopEstimatorLocked()
	o.job.Status = StatusFailed
	o.job.Stage = "Failed"
	o.job.Error = message
	o.mu.Unlock()

	log.Printf("job failed (%s): %v", kind, err)
	if kind == fault.KindConfiguration {
		return
	}

	o.persist(history.Item{
		ID:           uuid.NewString(),
		CreatedAt:    time.Now().UTC(),
		VideoURL:     url,
		Status:       history.StatusError,
		ErrorMessage: message,
	})
}

// persist writes the terminal record, refreshes the ledger cache, and fans
// out to the optional exporters. Only the insert error is worth logging
// loudly; the rest is best effort.
func (o *Orchestrator) persist(item history.Item) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if o.ledger != nil {
		if err := o.ledger.Insert(ctx, item); err != nil {
			log.Printf("failed to persist job outcome: %v", err)
		} else if err := o.ledger.Refresh(ctx); err != nil {
			log.Printf("history refresh failed: %v", err)
		}
	}

	if o.archiver != nil && item.Status == history.StatusSuccess {
		if err := o.archiver.Archive(ctx, item); err != nil {
			log.Printf("archive failed for %s: %v", item.ID, err)
		}
	}
	if o.notifier != nil {
		if err := o.notifier.Publish(ctx, item); err != nil {
			log.Printf("notify failed for %s: %v", item.ID, err)
		}
	}
}

// simulateTick advances progress by one estimator step, capped at the
// simulation ceiling.
func (o *Orchestrator) simulateTick(gen uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.gen != gen || o.job.Status != StatusRunning {
		return
	}
	next := o.job.Progress + stepFor(o.job.Progress, o.rnd)
	if next > simulatedCeiling {
		next = simulatedCeiling
	}
	if next > o.job.Progress {
		o.job.Progress = next
		o.job.Stage = stageFor(next)
	}
}

// reportRealProgress adopts a provider-reported progress value when it is
// ahead of the simulation. A real signal never moves progress backwards.
func (o *Orchestrator) reportRealProgress(gen uint64, progress float64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.gen != gen || o.job.Status != StatusRunning {
		return
	}
	if progress > 100 {
		progress = 100
	}
	if progress > o.job.Progress {
		o.job.Progress = progress
		o.job.Stage = stageFor(progress)
	}
}

// setProgress forces progress to a pipeline milestone.
func (o *Orchestrator) setProgress(gen uint64, progress float64, stage string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.gen != gen || o.job.Status != StatusRunning {
		return
	}
	if progress > o.job.Progress {
		o.job.Progress = progress
	}
	o.job.Stage = stage
}

// stopEstimatorLocked halts the current estimator. Callers hold the lock.
func (o *Orchestrator) stopEstimatorLocked() {
	if o.est != nil {
		o.est.halt()
		o.est = nil
	}
}
