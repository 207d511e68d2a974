package transcription

import (
	"context"
	"strings"
	"time"

	"transcriber/fault"
	"transcriber/media"
)

const (
	// DefaultMaxAttempts bounds the poll loop at roughly two minutes of
	// waiting for a backend that keeps answering "still processing".
	DefaultMaxAttempts = 40
	// DefaultPollDelay is the pause between poll attempts.
	DefaultPollDelay = 3 * time.Second

	// FallbackTitle labels a transcript whose source never reported one.
	FallbackTitle    = "Untitled video"
	fallbackLanguage = "Unknown"
)

// Resolver is the slice of media.Resolver the invoker needs.
type Resolver interface {
	Resolve(ctx context.Context, videoID string) (media.Resolution, error)
}

// Fetcher is the slice of media.Fetcher the invoker needs.
type Fetcher interface {
	Fetch(ctx context.Context, audioURL string) (media.Payload, error)
}

// Invoker drives one bounded acquire-and-transcribe loop: resolve the
// stream locator, download the audio, submit it to the speech backend, and
// normalize whatever comes back.
type Invoker struct {
	resolver    Resolver
	fetcher     Fetcher
	speech      SpeechBackend
	maxAttempts int
	pollDelay   time.Duration
}

// NewInvoker wires the acquisition chain to a speech backend. Non-positive
// maxAttempts or pollDelay select the defaults.
func NewInvoker(resolver Resolver, fetcher Fetcher, speech SpeechBackend, maxAttempts int, pollDelay time.Duration) *Invoker {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if pollDelay <= 0 {
		pollDelay = DefaultPollDelay
	}
	return &Invoker{
		resolver:    resolver,
		fetcher:     fetcher,
		speech:      speech,
		maxAttempts: maxAttempts,
		pollDelay:   pollDelay,
	}
}

// Transcribe runs the poll loop for sourceURL. onProgress receives real
// progress signals reported by the providers; it may be nil.
func (inv *Invoker) Transcribe(ctx context.Context, sourceURL string, onProgress func(float64)) (*Result, error) {
	videoID, ok := media.ExtractVideoID(sourceURL)
	if !ok {
		return nil, fault.New(fault.KindValidation, "the link is not a supported video URL")
	}

	for attempt := 1; attempt <= inv.maxAttempts; attempt++ {
		res, err := inv.resolver.Resolve(ctx, videoID)
		if err != nil {
			return nil, err
		}

		if res.State == media.ResolutionConverting {
			if onProgress != nil && res.Progress > 0 {
				onProgress(res.Progress)
			}
			if err := sleep(ctx, inv.pollDelay); err != nil {
				return nil, err
			}
			continue
		}

		payload, err := inv.fetcher.Fetch(ctx, res.AudioURL)
		if err != nil {
			return nil, err
		}

		outcome, err := inv.speech.Transcribe(ctx, payload)
		if err != nil {
			return nil, err
		}

		switch outcome.Kind {
		case OutcomeProcessing:
			if onProgress != nil && outcome.Progress > 0 {
				onProgress(outcome.Progress)
			}
			if err := sleep(ctx, inv.pollDelay); err != nil {
				return nil, err
			}
		case OutcomeResult:
			return Normalize(outcome.Result, res.Title), nil
		case OutcomeProviderError:
			return nil, fault.New(fault.KindProvider, outcome.Message)
		case OutcomeMalformed:
			return nil, fault.Newf(fault.KindProtocol, "unexpected response from speech service: %s", outcome.Message)
		default:
			return nil, fault.Newf(fault.KindProtocol, "unknown speech outcome %q", outcome.Kind)
		}
	}

	return nil, fault.Newf(fault.KindTimeout,
		"the video took too long to process (gave up after %d attempts)", inv.maxAttempts)
}

// Normalize maps a provider-native transcript into the canonical shape.
// An empty segment list falls back to one whole-text segment at 00:00.
func Normalize(raw *RawResult, title string) *Result {
	if title == "" {
		title = FallbackTitle
	}
	language := raw.Language
	if language == "" {
		language = fallbackLanguage
	}

	segments := make([]Segment, 0, len(raw.Segments))
	for _, s := range raw.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		segments = append(segments, Segment{
			Timestamp: FormatTimestamp(s.Start),
			Text:      text,
		})
	}
	if len(segments) == 0 {
		segments = append(segments, Segment{Timestamp: "00:00", Text: strings.TrimSpace(raw.Text)})
	}

	return &Result{
		Title:    title,
		Duration: FormatTimestamp(raw.Duration),
		Language: language,
		Segments: segments,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
