package transcription

import (
	"fmt"
	"strings"
)

// Segment is one spoken-word chunk in playback order. Timestamp is mm:ss,
// or empty when the segment came out of a timestamp-losing transformation
// such as refinement.
type Segment struct {
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

// Result is the canonical transcript shape. It is never mutated in place:
// refinement and manual edits build a replacement via WithSegments.
type Result struct {
	Title    string    `json:"title,omitempty"`
	Duration string    `json:"duration"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// WithSegments returns a copy of r carrying the replacement segments.
func (r *Result) WithSegments(segments []Segment) *Result {
	return &Result{
		Title:    r.Title,
		Duration: r.Duration,
		Language: r.Language,
		Segments: segments,
	}
}

// PlainText joins segment texts with blank lines, the form handed to the
// refinement capability and to exports.
func (r *Result) PlainText() string {
	texts := make([]string, 0, len(r.Segments))
	for _, s := range r.Segments {
		texts = append(texts, s.Text)
	}
	return strings.Join(texts, "\n\n")
}

// SegmentsFromText re-derives segments from paragraph-separated text:
// split on blank lines, trim, drop empties. The result carries no
// timestamps since paragraphs are not time-aligned.
func SegmentsFromText(text string) []Segment {
	parts := strings.Split(text, "\n\n")
	segments := make([]Segment, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		segments = append(segments, Segment{Text: p})
	}
	return segments
}

// FormatTimestamp renders seconds as mm:ss. Negative input clamps to zero.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
