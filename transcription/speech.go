package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"transcriber/fault"
	"transcriber/media"
)

// OutcomeKind tags every shape a speech backend response can take. The
// invoker matches these exhaustively instead of probing optional fields.
type OutcomeKind string

const (
	// OutcomeProcessing means the backend accepted the job and wants
	// another poll later.
	OutcomeProcessing OutcomeKind = "processing"
	// OutcomeResult carries a structural transcript.
	OutcomeResult OutcomeKind = "result"
	// OutcomeProviderError carries an explicit error payload.
	OutcomeProviderError OutcomeKind = "provider_error"
	// OutcomeMalformed marks a response no variant matches.
	OutcomeMalformed OutcomeKind = "malformed"
)

// Outcome is one tagged speech backend response.
type Outcome struct {
	Kind     OutcomeKind
	Progress float64
	Result   *RawResult
	Message  string
}

// RawSegment is a provider-native segment with a float start offset.
type RawSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// RawResult is the provider-native transcript (verbose_json dialect).
type RawResult struct {
	Text     string       `json:"text"`
	Language string       `json:"language"`
	Duration float64      `json:"duration"`
	Segments []RawSegment `json:"segments"`
}

// SpeechBackend submits audio to a speech-to-text capability.
type SpeechBackend interface {
	Transcribe(ctx context.Context, payload media.Payload) (Outcome, error)
}

// SpeechFormat selects how audio crosses the wire to the backend.
type SpeechFormat string

const (
	// SpeechFormatMultipart uploads the binary as a multipart form file.
	SpeechFormatMultipart SpeechFormat = "multipart"
	// SpeechFormatJSON embeds chunk-encoded base64 audio in a JSON body.
	SpeechFormatJSON SpeechFormat = "json"
)

// HTTPSpeechBackend talks to a whisper-style transcription endpoint.
type HTTPSpeechBackend struct {
	URL    string
	APIKey string
	Model  string
	Format SpeechFormat
	Client *http.Client
}

// NewHTTPSpeechBackend creates a backend client. Model and format fall back
// to whisper-large-v3 over multipart.
func NewHTTPSpeechBackend(url, apiKey, model string, format SpeechFormat) *HTTPSpeechBackend {
	if model == "" {
		model = "whisper-large-v3"
	}
	if format == "" {
		format = SpeechFormatMultipart
	}
	return &HTTPSpeechBackend{
		URL:    url,
		APIKey: apiKey,
		Model:  model,
		Format: format,
		Client: &http.Client{Timeout: 5 * time.Minute},
	}
}

// Transcribe uploads the payload and decodes the response into an Outcome.
func (b *HTTPSpeechBackend) Transcribe(ctx context.Context, payload media.Payload) (Outcome, error) {
	if b.APIKey == "" {
		return Outcome{}, fault.New(fault.KindConfiguration, "speech API key is not configured")
	}

	var req *http.Request
	var err error
	if b.Format == SpeechFormatJSON {
		req, err = b.jsonRequest(ctx, payload)
	} else {
		req, err = b.multipartRequest(ctx, payload)
	}
	if err != nil {
		return Outcome{}, err
	}
	req.Header.Set("Authorization", "Bearer "+b.APIKey)

	resp, err := b.Client.Do(req)
	if err != nil {
		return Outcome{}, fmt.Errorf("speech request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to read speech response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Outcome{
			Kind:    OutcomeProviderError,
			Message: fmt.Sprintf("speech service returned %d: %s", resp.StatusCode, truncate(string(body), 256)),
		}, nil
	}

	return decodeOutcome(body), nil
}

func (b *HTTPSpeechBackend) multipartRequest(ctx context.Context, payload media.Payload) (*http.Request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", "audio.mp3")
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(payload.Data); err != nil {
		return nil, fmt.Errorf("failed to write upload form: %w", err)
	}
	_ = w.WriteField("model", b.Model)
	_ = w.WriteField("response_format", "verbose_json")
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.URL, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req, nil
}

func (b *HTTPSpeechBackend) jsonRequest(ctx context.Context, payload media.Payload) (*http.Request, error) {
	body, err := json.Marshal(map[string]string{
		"model":           b.Model,
		"audio":           media.EncodeChunked(payload.Data),
		"response_format": "verbose_json",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal speech request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create speech request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// decodeOutcome maps a 200 response body onto the tagged outcome variants.
func decodeOutcome(body []byte) Outcome {
	var probe struct {
		Processing bool     `json:"processing"`
		Progress   float64  `json:"progress"`
		Error      string   `json:"error"`
		Text       *string  `json:"text"`
		Language   string   `json:"language"`
		Duration   float64  `json:"duration"`
		Segments   []RawSegment `json:"segments"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return Outcome{Kind: OutcomeMalformed, Message: truncate(string(body), 256)}
	}

	switch {
	case probe.Processing:
		return Outcome{Kind: OutcomeProcessing, Progress: probe.Progress}
	case probe.Error != "":
		return Outcome{Kind: OutcomeProviderError, Message: probe.Error}
	case probe.Segments != nil || probe.Text != nil:
		var text string
		if probe.Text != nil {
			text = *probe.Text
		}
		return Outcome{Kind: OutcomeResult, Result: &RawResult{
			Text:     text,
			Language: probe.Language,
			Duration: probe.Duration,
			Segments: probe.Segments,
		}}
	default:
		return Outcome{Kind: OutcomeMalformed, Message: truncate(string(body), 256)}
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
