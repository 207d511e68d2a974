package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"transcriber/fault"
)

// DefaultMaxPayloadBytes caps downloaded audio at 25 MB, the upload limit
// of the speech backend.
const DefaultMaxPayloadBytes = 25 * 1024 * 1024

// encodeChunkBytes is a multiple of 3 so chunk boundaries never produce
// base64 padding mid-stream.
const encodeChunkBytes = 3 * 64 * 1024

// downmixBudgetFactor bounds how much raw audio the fetcher buffers when a
// downmixer is available. The downmixer must see the complete stream, so
// the read budget grows; anything past it is rejected without transcoding.
const downmixBudgetFactor = 8

// Strategy maps a resolved locator to the URL actually requested, letting
// proxies front transport-restricted hosts.
type Strategy struct {
	Name string
	// Prefix is prepended to the query-escaped target URL. Empty means a
	// direct request.
	Prefix string
}

// RequestURL builds the URL this strategy fetches for target.
func (s Strategy) RequestURL(target string) string {
	if s.Prefix == "" {
		return target
	}
	return s.Prefix + url.QueryEscape(target)
}

// Payload is a fetched audio binary.
type Payload struct {
	Data     []byte
	MIMEType string
}

// Fetcher retrieves audio binaries through an ordered list of strategies
// and enforces the payload size limit.
type Fetcher struct {
	strategies []Strategy
	maxBytes   int64
	client     *http.Client
	downmixer  Downmixer
}

// Downmixer shrinks an audio payload, used as a last resort before the
// size gate rejects an oversized download.
type Downmixer interface {
	Downmix(data []byte) ([]byte, error)
}

// NewFetcher creates a fetcher over the given strategies. A nil downmixer
// disables compression; maxBytes <= 0 selects the default cap.
func NewFetcher(strategies []Strategy, maxBytes int64, downmixer Downmixer) *Fetcher {
	if len(strategies) == 0 {
		strategies = []Strategy{{Name: "direct"}}
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPayloadBytes
	}
	return &Fetcher{
		strategies: strategies,
		maxBytes:   maxBytes,
		client:     &http.Client{Timeout: 2 * time.Minute},
		downmixer:  downmixer,
	}
}

// Fetch downloads the audio at audioURL, trying each strategy in order and
// short-circuiting on the first success. The size limit is enforced after
// retrieval and before any transcoding; an oversized payload is a terminal
// fetch fault, not a reason to try the next strategy.
func (f *Fetcher) Fetch(ctx context.Context, audioURL string) (Payload, error) {
	var lastErr error
	for _, s := range f.strategies {
		data, mimeType, err := f.fetchOne(ctx, s, audioURL)
		if err != nil {
			log.Printf("fetch strategy %s failed: %v", s.Name, err)
			lastErr = err
			continue
		}

		if int64(len(data)) > f.readBudget() {
			return Payload{}, fault.Newf(fault.KindFetch,
				"audio is too large (over %.1f MB, limit %.1f MB)",
				float64(f.readBudget())/(1024*1024), float64(f.maxBytes)/(1024*1024))
		}

		if int64(len(data)) > f.maxBytes && f.downmixer != nil {
			shrunk, derr := f.downmixer.Downmix(data)
			if derr != nil {
				log.Printf("downmix failed, keeping original payload: %v", derr)
			} else if len(shrunk) > 0 && len(shrunk) < len(data) {
				data = shrunk
			}
		}

		if int64(len(data)) > f.maxBytes {
			return Payload{}, fault.Newf(fault.KindFetch,
				"audio is too large (%.1f MB, limit %.1f MB)",
				float64(len(data))/(1024*1024), float64(f.maxBytes)/(1024*1024))
		}

		return Payload{Data: data, MIMEType: mimeType}, nil
	}

	return Payload{}, fault.Wrap(fault.KindFetch, "could not download the audio stream", lastErr)
}

// readBudget is how many bytes fetchOne will buffer. Without a downmixer
// there is no point reading past the payload cap; with one, the whole
// stream is needed so the transcode does not silently drop the tail.
func (f *Fetcher) readBudget() int64 {
	if f.downmixer != nil {
		return f.maxBytes * downmixBudgetFactor
	}
	return f.maxBytes
}

func (f *Fetcher) fetchOne(ctx context.Context, s Strategy, audioURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.RequestURL(audioURL), nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download returned %d", resp.StatusCode)
	}

	// Read one byte past the budget so the size checks above can
	// distinguish "at the limit" from "over it" without buffering an
	// unbounded stream.
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.readBudget()+1))
	if err != nil {
		return nil, "", fmt.Errorf("download interrupted: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("download returned an empty body")
	}

	return data, resp.Header.Get("Content-Type"), nil
}

// EncodeChunked base64-encodes data in bounded chunks, avoiding one giant
// allocation-and-encode pass on multi-megabyte payloads. Chunks are 3-byte
// aligned, so the concatenation equals a single-pass encoding.
func EncodeChunked(data []byte) string {
	var b strings.Builder
	b.Grow(base64.StdEncoding.EncodedLen(len(data)))

	for len(data) > 0 {
		n := encodeChunkBytes
		if n > len(data) {
			n = len(data)
		}
		b.WriteString(base64.StdEncoding.EncodeToString(data[:n]))
		data = data[n:]
	}
	return b.String()
}
