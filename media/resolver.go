package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"transcriber/fault"
)

// ResolutionState tags the two usable answers a mirror can give.
type ResolutionState string

const (
	// ResolutionReady means the mirror produced a downloadable locator.
	ResolutionReady ResolutionState = "ready"
	// ResolutionConverting means the mirror accepted the job and is still
	// transcoding; the caller should poll again later.
	ResolutionConverting ResolutionState = "converting"
)

// Resolution is a usable answer from a resolver mirror.
type Resolution struct {
	State    ResolutionState
	AudioURL string
	Title    string
	Progress float64
}

// Mirror turns a video id into an audio stream locator.
type Mirror interface {
	Name() string
	Resolve(ctx context.Context, videoID string) (Resolution, error)
}

// Resolver tries an ordered list of mirrors until one answers.
type Resolver struct {
	mirrors []Mirror
}

// NewResolver creates a failover resolver over the given mirrors.
func NewResolver(mirrors ...Mirror) *Resolver {
	return &Resolver{mirrors: mirrors}
}

// Resolve tries each mirror in order, short-circuiting on the first usable
// answer. A "still converting" answer is usable and stops the chain. Every
// mirror failing yields a resolution fault with no partial result.
func (r *Resolver) Resolve(ctx context.Context, videoID string) (Resolution, error) {
	if len(r.mirrors) == 0 {
		return Resolution{}, fault.New(fault.KindConfiguration, "no resolver mirrors configured")
	}

	var lastErr error
	for _, m := range r.mirrors {
		res, err := m.Resolve(ctx, videoID)
		if err != nil {
			log.Printf("resolver mirror %s failed: %v", m.Name(), err)
			lastErr = err
			continue
		}
		return res, nil
	}

	return Resolution{}, fault.Wrap(fault.KindResolution, "no download mirror available for this video", lastErr)
}

// ConverterMirror speaks the converter-API dialect: GET {base}/dl?id={video}
// answering JSON with status/msg/progress/title and one of link/url/mp3.
type ConverterMirror struct {
	BaseURL string
	APIKey  string
	APIHost string
	Client  *http.Client
}

// NewConverterMirror creates a mirror client for one converter endpoint.
func NewConverterMirror(baseURL, apiKey, apiHost string) *ConverterMirror {
	return &ConverterMirror{
		BaseURL: baseURL,
		APIKey:  apiKey,
		APIHost: apiHost,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Name identifies the mirror in logs.
func (m *ConverterMirror) Name() string {
	if u, err := url.Parse(m.BaseURL); err == nil && u.Host != "" {
		return u.Host
	}
	return m.BaseURL
}

type converterResponse struct {
	Status   string  `json:"status"`
	Msg      string  `json:"msg"`
	Progress float64 `json:"progress"`
	Title    string  `json:"title"`
	Link     string  `json:"link"`
	URL      string  `json:"url"`
	MP3      string  `json:"mp3"`
}

// Resolve asks the converter for a download link for videoID.
func (m *ConverterMirror) Resolve(ctx context.Context, videoID string) (Resolution, error) {
	reqURL := fmt.Sprintf("%s/dl?id=%s", m.BaseURL, url.QueryEscape(videoID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Resolution{}, fmt.Errorf("failed to create request: %w", err)
	}
	if m.APIKey != "" {
		req.Header.Set("x-rapidapi-key", m.APIKey)
	}
	if m.APIHost != "" {
		req.Header.Set("x-rapidapi-host", m.APIHost)
	}

	resp, err := m.Client.Do(req)
	if err != nil {
		return Resolution{}, fmt.Errorf("mirror request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Resolution{}, fmt.Errorf("mirror returned %d: %s", resp.StatusCode, string(body))
	}

	var data converterResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Resolution{}, fmt.Errorf("malformed mirror response: %w", err)
	}

	if data.Status == "processing" || data.Msg == "in process" || data.Msg == "queue" {
		return Resolution{
			State:    ResolutionConverting,
			Title:    data.Title,
			Progress: data.Progress,
		}, nil
	}

	if data.Status == "fail" {
		if data.Msg != "" {
			return Resolution{}, fmt.Errorf("mirror rejected video: %s", data.Msg)
		}
		return Resolution{}, fmt.Errorf("mirror rejected video")
	}

	audioURL := data.Link
	if audioURL == "" {
		audioURL = data.URL
	}
	if audioURL == "" {
		audioURL = data.MP3
	}
	if audioURL == "" {
		return Resolution{}, fmt.Errorf("mirror returned no download link")
	}

	return Resolution{
		State:    ResolutionReady,
		AudioURL: audioURL,
		Title:    data.Title,
	}, nil
}
